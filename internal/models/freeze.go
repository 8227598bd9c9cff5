package models

import "time"

// FreezeEventType identifies what happened to a freeze token
type FreezeEventType string

const (
	FreezeGranted  FreezeEventType = "granted"
	FreezeConsumed FreezeEventType = "consumed"
	FreezeBorrowed FreezeEventType = "borrowed"
)

// FreezeSource identifies which pool a freeze event drew from
type FreezeSource string

const (
	SourcePersonal   FreezeSource = "personal"
	SourceFamilyPool FreezeSource = "family_pool"
)

// FreezeEvent is one entry in the append-only freeze audit log.
// Events are immutable once created; insertion order is significant.
type FreezeEvent struct {
	Type      FreezeEventType
	Source    FreezeSource
	CreatedAt time.Time
}

// FreezeState holds the streak-protection accounting for one student.
// PersonalFreezes are usable only by this student; FamilyPoolFreezes
// is a view of the shared pool on the student's family link and is
// composed in at load time.
type FreezeState struct {
	UserID            string
	PersonalFreezes   int
	FamilyPoolFreezes int
	LastFreezeGrant   *time.Time
	LastActivity      *time.Time
	History           []FreezeEvent
}

// LastEvent returns the most recent freeze event, or nil if none
func (s *FreezeState) LastEvent() *FreezeEvent {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

// HasActivity reports whether any qualifying activity has been recorded
func (s *FreezeState) HasActivity() bool {
	return s.LastActivity != nil
}

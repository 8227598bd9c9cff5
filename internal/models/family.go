package models

import "time"

// FamilyLink is the invite-code record binding student accounts to a
// paying family subscription. One active code exists per subscription;
// regenerating replaces it. PoolFreezes is the shared freeze reservoir
// drawn on by any linked member.
type FamilyLink struct {
	ID             int64
	Code           string
	ParentUserID   string
	SubscriptionID string
	MaxAccounts    int
	PoolFreezes    int
	LinkedAccounts []string
	CreatedAt      time.Time
}

// IsFull reports whether the link has reached its capacity ceiling
func (f *FamilyLink) IsFull() bool {
	return len(f.LinkedAccounts) >= f.MaxAccounts
}

// HasLinked reports whether the student is already bound to this link
func (f *FamilyLink) HasLinked(studentUserID string) bool {
	for _, id := range f.LinkedAccounts {
		if id == studentUserID {
			return true
		}
	}
	return false
}

// AvailableSlots returns the remaining capacity, never negative
func (f *FamilyLink) AvailableSlots() int {
	slots := f.MaxAccounts - len(f.LinkedAccounts)
	if slots < 0 {
		return 0
	}
	return slots
}

// StudentLink is a student's own record of which family they joined
type StudentLink struct {
	StudentUserID string
	Code          string
	LinkedAt      time.Time
}

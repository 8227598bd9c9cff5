// Package streak decides whether a gap in daily activity breaks a
// student's streak, and which freeze pool pays for the protection when
// it doesn't. All functions are pure over an explicit state value plus
// an injected "now", so behavior is fully deterministic in tests.
package streak

import (
	"time"

	"thinkfirst/internal/models"
)

const (
	// DefaultResetHour anchors the streak day boundary at 3 AM local
	// time rather than midnight, so a study session at 2 AM counts
	// toward the previous day.
	DefaultResetHour = 3

	// FamilyPoolSize is what the shared pool is reset to on each
	// monthly grant for family-plan subscribers.
	FamilyPoolSize = 5
)

// monthlyGrant returns how many personal freezes a plan earns per month
func monthlyGrant(plan models.PlanTier) int {
	switch plan {
	case models.PlanSolo, models.PlanFamily:
		return 3
	default:
		return 1
	}
}

// ResetBoundary returns the streak day boundary for the calendar day of
// t: resetHour:00:00 in t's location.
func ResetBoundary(t time.Time, resetHour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), resetHour, 0, 0, 0, t.Location())
}

// BoundaryDay resolves a timestamp to the boundary day it belongs to.
// A timestamp before its own calendar-day boundary (e.g. 02:00 with a
// 3 AM boundary) rolls back to the previous day.
func BoundaryDay(t time.Time, resetHour int) time.Time {
	boundary := ResetBoundary(t, resetHour)
	if t.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	// Normalize to a UTC date so DST shifts never distort the day gap.
	return time.Date(boundary.Year(), boundary.Month(), boundary.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWasMissed reports whether a full streak day was skipped between
// the last activity and now. Same-day and consecutive-day activity is
// never a miss; only a gap strictly greater than one boundary day is.
func DayWasMissed(lastActivity, now time.Time) bool {
	return DayWasMissedAt(lastActivity, now, DefaultResetHour)
}

// DayWasMissedAt is DayWasMissed with a configurable boundary hour
func DayWasMissedAt(lastActivity, now time.Time, resetHour int) bool {
	last := BoundaryDay(lastActivity, resetHour)
	current := BoundaryDay(now, resetHour)
	return current.Sub(last) > 24*time.Hour
}

// ConsumeFreeze spends one personal freeze. It reports false and leaves
// the state untouched when the personal pool is empty; running out of
// freezes is a normal outcome, not an error.
func ConsumeFreeze(st *models.FreezeState, now time.Time) bool {
	if st.PersonalFreezes == 0 {
		return false
	}
	st.PersonalFreezes--
	st.History = append(st.History, models.FreezeEvent{
		Type:      models.FreezeConsumed,
		Source:    models.SourcePersonal,
		CreatedAt: now,
	})
	return true
}

// BorrowFromFamilyPool spends one shared freeze. The personal counter
// is never touched.
func BorrowFromFamilyPool(st *models.FreezeState, now time.Time) bool {
	if st.FamilyPoolFreezes == 0 {
		return false
	}
	st.FamilyPoolFreezes--
	st.History = append(st.History, models.FreezeEvent{
		Type:      models.FreezeBorrowed,
		Source:    models.SourceFamilyPool,
		CreatedAt: now,
	})
	return true
}

// GrantMonthlyFreezes applies the plan's monthly freeze allowance. It
// is idempotent within a calendar month: if the last grant falls in the
// same year and month as now, the state is returned unchanged and the
// function reports false. Family plans additionally reset the shared
// pool to FamilyPoolSize rather than adding to it.
func GrantMonthlyFreezes(st *models.FreezeState, plan models.PlanTier, now time.Time) bool {
	if st.LastFreezeGrant != nil {
		granted := *st.LastFreezeGrant
		if granted.Year() == now.Year() && granted.Month() == now.Month() {
			return false
		}
	}

	st.PersonalFreezes += monthlyGrant(plan)
	if plan == models.PlanFamily {
		st.FamilyPoolFreezes = FamilyPoolSize
	}
	st.History = append(st.History, models.FreezeEvent{
		Type:      models.FreezeGranted,
		Source:    models.SourcePersonal,
		CreatedAt: now,
	})
	grantedAt := now
	st.LastFreezeGrant = &grantedAt
	return true
}

// ProtectionResult is the outcome of a streak protection decision
type ProtectionResult struct {
	StreakPreserved bool
	FreezeUsed      bool
	Source          models.FreezeSource
}

// ProtectStreak decides at app-resume whether the streak survives.
// Personal freezes are tried first; the family pool is only a fallback
// for family members. A lost streak is a pure decision here; the
// caller applies the consequence.
func ProtectStreak(st *models.FreezeState, isFamilyMember bool, now time.Time) ProtectionResult {
	return ProtectStreakAt(st, isFamilyMember, now, DefaultResetHour)
}

// ProtectStreakAt is ProtectStreak with a configurable boundary hour
func ProtectStreakAt(st *models.FreezeState, isFamilyMember bool, now time.Time, resetHour int) ProtectionResult {
	if !st.HasActivity() {
		return ProtectionResult{StreakPreserved: true}
	}
	if !DayWasMissedAt(*st.LastActivity, now, resetHour) {
		return ProtectionResult{StreakPreserved: true}
	}
	if ConsumeFreeze(st, now) {
		coverMissedDay(st, now)
		return ProtectionResult{StreakPreserved: true, FreezeUsed: true, Source: models.SourcePersonal}
	}
	if isFamilyMember && BorrowFromFamilyPool(st, now) {
		coverMissedDay(st, now)
		return ProtectionResult{StreakPreserved: true, FreezeUsed: true, Source: models.SourceFamilyPool}
	}
	return ProtectionResult{StreakPreserved: false}
}

// coverMissedDay backdates the activity stamp to the day before now so
// one consumed freeze covers one missed day. Without this a second
// resume in the same gap would charge a second freeze.
func coverMissedDay(st *models.FreezeState, now time.Time) {
	covered := now.Add(-24 * time.Hour)
	st.LastActivity = &covered
}

// RecordActivity stamps the last qualifying activity time
func RecordActivity(st *models.FreezeState, now time.Time) {
	at := now
	st.LastActivity = &at
}

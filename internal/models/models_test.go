package models

import (
	"testing"
	"time"
)

func TestPinSecurityIsLockedOut(t *testing.T) {
	now := time.Now()
	future := now.Add(3 * time.Minute)
	past := now.Add(-1 * time.Second)

	tests := []struct {
		name         string
		lockoutUntil *time.Time
		want         bool
	}{
		{
			name:         "no lockout set",
			lockoutUntil: nil,
			want:         false,
		},
		{
			name:         "lockout in the future",
			lockoutUntil: &future,
			want:         true,
		},
		{
			name:         "lockout just expired",
			lockoutUntil: &past,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := PinSecurity{UserID: "parent-1", AttemptCount: 2, LockoutUntil: tt.lockoutUntil}
			if got := sec.IsLockedOut(now); got != tt.want {
				t.Errorf("PinSecurity.IsLockedOut() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPinSecurityReset(t *testing.T) {
	until := time.Now().Add(5 * time.Minute)
	sec := PinSecurity{UserID: "parent-1", AttemptCount: 3, LockoutUntil: &until}
	sec.Reset()
	if sec.AttemptCount != 0 {
		t.Errorf("AttemptCount = %d after Reset, want 0", sec.AttemptCount)
	}
	if sec.LockoutUntil != nil {
		t.Error("LockoutUntil should be nil after Reset")
	}
}

func TestFamilyLinkCapacity(t *testing.T) {
	tests := []struct {
		name        string
		linked      []string
		maxAccounts int
		wantFull    bool
		wantSlots   int
	}{
		{
			name:        "empty link",
			linked:      nil,
			maxAccounts: 5,
			wantFull:    false,
			wantSlots:   5,
		},
		{
			name:        "partially filled",
			linked:      []string{"s1", "s2"},
			maxAccounts: 5,
			wantFull:    false,
			wantSlots:   3,
		},
		{
			name:        "at capacity",
			linked:      []string{"s1", "s2", "s3", "s4", "s5"},
			maxAccounts: 5,
			wantFull:    true,
			wantSlots:   0,
		},
		{
			name:        "over capacity clamps to zero",
			linked:      []string{"s1", "s2", "s3"},
			maxAccounts: 2,
			wantFull:    true,
			wantSlots:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := FamilyLink{Code: "FAM-ABC", MaxAccounts: tt.maxAccounts, LinkedAccounts: tt.linked}
			if got := link.IsFull(); got != tt.wantFull {
				t.Errorf("IsFull() = %v, want %v", got, tt.wantFull)
			}
			if got := link.AvailableSlots(); got != tt.wantSlots {
				t.Errorf("AvailableSlots() = %d, want %d", got, tt.wantSlots)
			}
		})
	}
}

func TestFamilyLinkHasLinked(t *testing.T) {
	link := FamilyLink{LinkedAccounts: []string{"student-1", "student-2"}}
	if !link.HasLinked("student-1") {
		t.Error("HasLinked(student-1) = false, want true")
	}
	if link.HasLinked("student-9") {
		t.Error("HasLinked(student-9) = true, want false")
	}
}

func TestSettingsPatchApply(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }
	strPtr := func(s string) *string { return &s }

	settings := GuardianSettings{
		UserID:           "parent-1",
		ForceMasteryMode: false,
		BlockMercyButton: true,
		ReportEmail:      "old@example.com",
	}

	patch := SettingsPatch{
		ForceMasteryMode: boolPtr(true),
		ReportEmail:      strPtr("new@example.com"),
	}
	patch.Apply(&settings)

	if !settings.ForceMasteryMode {
		t.Error("ForceMasteryMode not applied")
	}
	if !settings.BlockMercyButton {
		t.Error("BlockMercyButton changed despite nil patch field")
	}
	if settings.ReportEmail != "new@example.com" {
		t.Errorf("ReportEmail = %q, want new@example.com", settings.ReportEmail)
	}
}

func TestFreezeStateLastEvent(t *testing.T) {
	st := FreezeState{UserID: "student-1"}
	if st.LastEvent() != nil {
		t.Error("LastEvent() on empty history should be nil")
	}

	first := FreezeEvent{Type: FreezeGranted, Source: SourcePersonal, CreatedAt: time.Now().Add(-time.Hour)}
	second := FreezeEvent{Type: FreezeConsumed, Source: SourcePersonal, CreatedAt: time.Now()}
	st.History = append(st.History, first, second)

	got := st.LastEvent()
	if got == nil || got.Type != FreezeConsumed {
		t.Errorf("LastEvent() = %+v, want the consumed event", got)
	}
}

package models

import "time"

// GuardianSettings holds a guardian's PIN hash and the policy flags
// gated behind PIN verification. At most one row exists per guardian.
type GuardianSettings struct {
	UserID                string
	PINHash               string
	ForceMasteryMode      bool
	BlockMercyButton      bool
	FrictionInterstitials bool
	RequireReason         bool
	ReportEmail           string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SettingsPatch is a partial update to the non-secret guardian fields.
// Nil fields are left unchanged.
type SettingsPatch struct {
	ForceMasteryMode      *bool   `json:"force_mastery_mode,omitempty"`
	BlockMercyButton      *bool   `json:"block_mercy_button,omitempty"`
	FrictionInterstitials *bool   `json:"friction_interstitials,omitempty"`
	RequireReason         *bool   `json:"require_reason,omitempty"`
	ReportEmail           *string `json:"report_email,omitempty"`
}

// Apply copies the non-nil patch fields onto the settings
func (p *SettingsPatch) Apply(s *GuardianSettings) {
	if p.ForceMasteryMode != nil {
		s.ForceMasteryMode = *p.ForceMasteryMode
	}
	if p.BlockMercyButton != nil {
		s.BlockMercyButton = *p.BlockMercyButton
	}
	if p.FrictionInterstitials != nil {
		s.FrictionInterstitials = *p.FrictionInterstitials
	}
	if p.RequireReason != nil {
		s.RequireReason = *p.RequireReason
	}
	if p.ReportEmail != nil {
		s.ReportEmail = *p.ReportEmail
	}
}

// PinSecurity tracks failed verification attempts and the lockout
// window for one guardian. It is separate from GuardianSettings: it is
// reset whenever a correct PIN is presented or a lockout expires.
type PinSecurity struct {
	UserID       string
	AttemptCount int
	LockoutUntil *time.Time
}

// IsLockedOut reports whether verification is currently refused
func (p *PinSecurity) IsLockedOut(now time.Time) bool {
	return p.LockoutUntil != nil && now.Before(*p.LockoutUntil)
}

// LockoutExpired reports whether a past lockout should be lazily cleared
func (p *PinSecurity) LockoutExpired(now time.Time) bool {
	return p.LockoutUntil != nil && !now.Before(*p.LockoutUntil)
}

// Reset clears the attempt counter and any lockout
func (p *PinSecurity) Reset() {
	p.AttemptCount = 0
	p.LockoutUntil = nil
}

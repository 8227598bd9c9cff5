package models

import "time"

// PlanTier is the subscription tier supplied by the billing collaborator
type PlanTier string

const (
	PlanFree   PlanTier = "free"
	PlanSolo   PlanTier = "solo"
	PlanFamily PlanTier = "family"
)

// IsValid reports whether the tier is one of the known plans
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanFree, PlanSolo, PlanFamily:
		return true
	}
	return false
}

// Subscription records a user's current plan tier and family membership
type Subscription struct {
	ID             string
	UserID         string
	Plan           PlanTier
	IsFamilyMember bool
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

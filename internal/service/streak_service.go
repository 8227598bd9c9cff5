package service

import (
	"errors"
	"fmt"
	"time"

	"thinkfirst/internal/models"
	"thinkfirst/internal/repository"
	"thinkfirst/internal/streak"
)

var ErrStreakStateNotFound = errors.New("streak state not found")

// StreakService handles freeze grants, streak protection and activity tracking
type StreakService struct {
	streakRepo *repository.StreakRepository
	subRepo    *repository.SubscriptionRepository
	familyRepo *repository.FamilyRepository
	resetHour  int
	now        func() time.Time
}

// NewStreakService creates a new streak service. resetHour anchors the
// streak day boundary; zero or out-of-range values fall back to the
// default 3 AM boundary.
func NewStreakService(streakRepo *repository.StreakRepository, subRepo *repository.SubscriptionRepository, familyRepo *repository.FamilyRepository, resetHour int) *StreakService {
	if resetHour <= 0 || resetHour > 23 {
		resetHour = streak.DefaultResetHour
	}
	return &StreakService{
		streakRepo: streakRepo,
		subRepo:    subRepo,
		familyRepo: familyRepo,
		resetHour:  resetHour,
		now:        time.Now,
	}
}

// GetState returns the freeze state for a user, with the shared family
// pool folded in when the user is linked to a family. A user with no
// state yet gets a fresh zero-value state.
func (s *StreakService) GetState(userID string) (*models.FreezeState, error) {
	st, err := s.streakRepo.GetState(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}
	if st == nil {
		st = &models.FreezeState{UserID: userID}
	}

	link, err := s.familyLink(userID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		st.FamilyPoolFreezes = link.PoolFreezes
	}
	return st, nil
}

// CheckIn applies the monthly grant if one is due, then evaluates
// whether the streak needs protecting and consumes a freeze if so.
func (s *StreakService) CheckIn(userID string) (*models.FreezeState, streak.ProtectionResult, error) {
	now := s.now()

	st, err := s.GetState(userID)
	if err != nil {
		return nil, streak.ProtectionResult{}, err
	}
	prevEvents := len(st.History)

	plan, isFamilyMember, err := s.planFor(userID)
	if err != nil {
		return nil, streak.ProtectionResult{}, err
	}
	if !isFamilyMember {
		// Linked students borrow from the pool even without their
		// own family subscription.
		link, err := s.familyLink(userID)
		if err != nil {
			return nil, streak.ProtectionResult{}, err
		}
		isFamilyMember = link != nil
	}

	streak.GrantMonthlyFreezes(st, plan, now)
	result := streak.ProtectStreakAt(st, isFamilyMember, now, s.resetHour)

	if err := s.persist(st, prevEvents); err != nil {
		return nil, streak.ProtectionResult{}, err
	}
	return st, result, nil
}

// RecordActivity marks the user active for the current day.
func (s *StreakService) RecordActivity(userID string) (*models.FreezeState, error) {
	now := s.now()

	st, err := s.GetState(userID)
	if err != nil {
		return nil, err
	}
	prevEvents := len(st.History)

	streak.RecordActivity(st, now)

	if err := s.persist(st, prevEvents); err != nil {
		return nil, err
	}
	if err := s.streakRepo.MarkActiveDay(st.UserID, streak.BoundaryDay(now, s.resetHour)); err != nil {
		return nil, fmt.Errorf("failed to mark active day: %w", err)
	}
	return st, nil
}

// GrantMonthly applies the monthly freeze grant without a protection
// check. Used by the scheduled grant sweep.
func (s *StreakService) GrantMonthly(userID string) (*models.FreezeState, bool, error) {
	now := s.now()

	st, err := s.GetState(userID)
	if err != nil {
		return nil, false, err
	}
	prevEvents := len(st.History)

	plan, _, err := s.planFor(userID)
	if err != nil {
		return nil, false, err
	}

	granted := streak.GrantMonthlyFreezes(st, plan, now)
	if granted {
		if err := s.persist(st, prevEvents); err != nil {
			return nil, false, err
		}
	}
	return st, granted, nil
}

// persist writes the state back, appends any events added since
// prevEvents, and pushes the pool counter to the family link if the
// user has one.
func (s *StreakService) persist(st *models.FreezeState, prevEvents int) error {
	if err := s.streakRepo.SaveState(st); err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}
	if len(st.History) > prevEvents {
		if err := s.streakRepo.AppendEvents(st.UserID, st.History[prevEvents:]); err != nil {
			return fmt.Errorf("failed to append freeze events: %w", err)
		}
	}

	link, err := s.familyLink(st.UserID)
	if err != nil {
		return err
	}
	if link != nil && link.PoolFreezes != st.FamilyPoolFreezes {
		if err := s.familyRepo.SetPoolFreezes(link.ID, st.FamilyPoolFreezes); err != nil {
			return fmt.Errorf("failed to update family pool: %w", err)
		}
	}
	return nil
}

// familyLink resolves the family link a user belongs to, either as the
// parent who owns it or as a linked student. Returns nil when the user
// has no family.
func (s *StreakService) familyLink(userID string) (*models.FamilyLink, error) {
	sl, err := s.familyRepo.GetStudentLink(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student link: %w", err)
	}
	if sl != nil {
		link, err := s.familyRepo.GetByCode(sl.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to get family link: %w", err)
		}
		return link, nil
	}

	link, err := s.familyRepo.GetByParent(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family link: %w", err)
	}
	return link, nil
}

func (s *StreakService) planFor(userID string) (models.PlanTier, bool, error) {
	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return models.PlanFree, false, nil
	}
	return sub.Plan, sub.IsFamilyMember, nil
}

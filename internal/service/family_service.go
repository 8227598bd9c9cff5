package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thinkfirst/internal/family"
	"thinkfirst/internal/models"
	"thinkfirst/internal/repository"
	"thinkfirst/internal/streak"
)

var (
	ErrBadCodeFormat     = errors.New("invite code format is invalid")
	ErrCodeNotRecognized = errors.New("invite code not recognized")
	ErrFamilyFull        = errors.New("family has reached its account limit")
	ErrAlreadyLinked     = errors.New("student is already linked to a family")
	ErrNotFamilyPlan     = errors.New("subscription is not a family plan")
	ErrNoFamilyLink      = errors.New("no family link for this user")
)

// FamilyService handles invite codes and linking students to a family
// subscription
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	subRepo    *repository.SubscriptionRepository
	email      *EmailService
	now        func() time.Time
}

// NewFamilyService creates a new family service
func NewFamilyService(familyRepo *repository.FamilyRepository, subRepo *repository.SubscriptionRepository, email *EmailService) *FamilyService {
	return &FamilyService{
		familyRepo: familyRepo,
		subRepo:    subRepo,
		email:      email,
		now:        time.Now,
	}
}

// GenerateInviteCode creates a fresh invite code for the parent's
// family subscription. Any previous code for the subscription stops
// working; only the newest code is active.
func (s *FamilyService) GenerateInviteCode(parentUserID string) (*models.FamilyLink, error) {
	sub, err := s.subRepo.GetByUserID(parentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.Plan != models.PlanFamily {
		return nil, ErrNotFamilyPlan
	}

	code, err := family.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	// Carry the pool over from the previous link so reissuing a code
	// does not refill spent freezes.
	pool := streak.FamilyPoolSize
	if prev, err := s.familyRepo.GetBySubscription(sub.ID); err != nil {
		return nil, fmt.Errorf("failed to get family link: %w", err)
	} else if prev != nil {
		pool = prev.PoolFreezes
	}

	link := &models.FamilyLink{
		Code:           code,
		ParentUserID:   parentUserID,
		SubscriptionID: sub.ID,
		MaxAccounts:    family.MaxLinkedAccounts,
		PoolFreezes:    pool,
		CreatedAt:      s.now(),
	}
	if err := s.familyRepo.Replace(link); err != nil {
		return nil, fmt.Errorf("failed to store family link: %w", err)
	}
	return link, nil
}

// ValidateInviteCode checks a code without redeeming it. Format is
// checked before any lookup so malformed input never touches the
// database.
func (s *FamilyService) ValidateInviteCode(code string) (*models.FamilyLink, error) {
	if !family.IsValidFormat(code) {
		return nil, ErrBadCodeFormat
	}

	link, err := s.familyRepo.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}
	if link == nil {
		return nil, ErrCodeNotRecognized
	}
	if link.IsFull() {
		return nil, ErrFamilyFull
	}
	return link, nil
}

// LinkStudentToFamily redeems an invite code for a student account.
func (s *FamilyService) LinkStudentToFamily(code, studentUserID string) (*models.FamilyLink, error) {
	link, err := s.ValidateInviteCode(code)
	if err != nil {
		return nil, err
	}

	existing, err := s.familyRepo.GetStudentLink(studentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student link: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyLinked
	}

	if err := s.familyRepo.LinkStudent(link, studentUserID, s.now()); err != nil {
		if errors.Is(err, repository.ErrCapacityReached) {
			return nil, ErrFamilyFull
		}
		return nil, fmt.Errorf("failed to link student: %w", err)
	}
	return link, nil
}

// UnlinkFromFamily removes a student from their family. Safe to call
// for a student who is not linked.
func (s *FamilyService) UnlinkFromFamily(studentUserID string) error {
	if err := s.familyRepo.UnlinkStudent(studentUserID); err != nil {
		return fmt.Errorf("failed to unlink student: %w", err)
	}
	return nil
}

// GetFamilyForParent returns the current link for a parent, including
// linked accounts and remaining slots.
func (s *FamilyService) GetFamilyForParent(parentUserID string) (*models.FamilyLink, error) {
	link, err := s.familyRepo.GetByParent(parentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family link: %w", err)
	}
	if link == nil {
		return nil, ErrNoFamilyLink
	}
	return link, nil
}

// SendInvite emails the current invite code to a prospective family
// member.
func (s *FamilyService) SendInvite(ctx context.Context, parentUserID, toEmail, toName string) error {
	link, err := s.GetFamilyForParent(parentUserID)
	if err != nil {
		return err
	}
	if err := s.email.SendInviteEmail(ctx, toEmail, toName, link.Code); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

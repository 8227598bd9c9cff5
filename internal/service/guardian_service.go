package service

import (
	"errors"
	"fmt"
	"time"

	"thinkfirst/internal/guardian"
	"thinkfirst/internal/models"
	"thinkfirst/internal/repository"
	"thinkfirst/internal/security"
)

var (
	ErrSettingsNotFound = errors.New("guardian settings not found")
	ErrPINAlreadyExists = errors.New("a guardian pin is already configured")
)

// GuardianService handles parental pin verification and control settings
type GuardianService struct {
	guardianRepo *repository.GuardianRepository
	tokenSecret  []byte
	now          func() time.Time
}

// NewGuardianService creates a new guardian service
func NewGuardianService(guardianRepo *repository.GuardianRepository, tokenSecret []byte) *GuardianService {
	return &GuardianService{
		guardianRepo: guardianRepo,
		tokenSecret:  tokenSecret,
		now:          time.Now,
	}
}

// CreatePIN sets up guardian settings with a freshly hashed pin.
// Fails if the user already has a pin so an existing one cannot be
// silently replaced without verification.
func (s *GuardianService) CreatePIN(userID, pin string) (*models.GuardianSettings, error) {
	existing, err := s.guardianRepo.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian settings: %w", err)
	}
	if existing != nil {
		return nil, ErrPINAlreadyExists
	}

	hash, err := guardian.HashPIN(pin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	settings := &models.GuardianSettings{
		UserID:    userID,
		PINHash:   hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.guardianRepo.CreateSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to create guardian settings: %w", err)
	}
	// A new gate starts with a clean attempt record.
	if err := s.guardianRepo.SavePinSecurity(&models.PinSecurity{UserID: userID}); err != nil {
		return nil, fmt.Errorf("failed to reset pin security: %w", err)
	}
	return settings, nil
}

// VerifyPIN checks a pin attempt against the stored hash, enforcing
// the lockout policy. On success it returns a short-lived guardian
// token that unlocks protected operations for the session.
func (s *GuardianService) VerifyPIN(userID, pin string) (string, guardian.VerifyOutcome, error) {
	now := s.now()

	settings, err := s.guardianRepo.GetSettings(userID)
	if err != nil {
		return "", guardian.VerifyOutcome{}, fmt.Errorf("failed to get guardian settings: %w", err)
	}
	if settings == nil {
		return "", guardian.VerifyOutcome{Err: guardian.ErrNoPINConfigured}, nil
	}

	sec, err := s.guardianRepo.GetPinSecurity(userID)
	if err != nil {
		return "", guardian.VerifyOutcome{}, fmt.Errorf("failed to get pin security: %w", err)
	}

	outcome := guardian.Verify(sec, settings.PINHash, pin, now)
	if err := s.guardianRepo.SavePinSecurity(sec); err != nil {
		return "", guardian.VerifyOutcome{}, fmt.Errorf("failed to save pin security: %w", err)
	}
	if !outcome.OK {
		return "", outcome, nil
	}

	token, err := security.MintGuardianToken(s.tokenSecret, userID, now)
	if err != nil {
		return "", guardian.VerifyOutcome{}, fmt.Errorf("failed to mint guardian token: %w", err)
	}
	return token, outcome, nil
}

// ChangePIN replaces the pin after verifying the current one. The
// verification goes through the same lockout accounting as a normal
// attempt.
func (s *GuardianService) ChangePIN(userID, currentPIN, newPIN string) error {
	_, outcome, err := s.VerifyPIN(userID, currentPIN)
	if err != nil {
		return err
	}
	if !outcome.OK {
		return outcome.Err
	}

	hash, err := guardian.HashPIN(newPIN)
	if err != nil {
		return err
	}

	settings, err := s.guardianRepo.GetSettings(userID)
	if err != nil {
		return fmt.Errorf("failed to get guardian settings: %w", err)
	}
	settings.PINHash = hash
	settings.UpdatedAt = s.now()
	if err := s.guardianRepo.UpdatePINHash(settings); err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}
	return nil
}

// GetSettings retrieves the guardian settings for a user
func (s *GuardianService) GetSettings(userID string) (*models.GuardianSettings, error) {
	settings, err := s.guardianRepo.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian settings: %w", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	return settings, nil
}

// UpdateSettings applies a partial update to the control toggles.
// Callers must hold a valid guardian token; the handler enforces that.
func (s *GuardianService) UpdateSettings(userID string, patch models.SettingsPatch) (*models.GuardianSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	patch.Apply(settings)
	settings.UpdatedAt = s.now()
	if err := s.guardianRepo.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to update guardian settings: %w", err)
	}
	return settings, nil
}

// Reset removes the guardian settings and any lockout state. Requires
// a verified guardian token, same as UpdateSettings.
func (s *GuardianService) Reset(userID string) error {
	if err := s.guardianRepo.DeleteSettings(userID); err != nil {
		return fmt.Errorf("failed to delete guardian settings: %w", err)
	}
	return nil
}

// VerifyGuardianToken validates a guardian session token and returns
// the user it was minted for.
func (s *GuardianService) VerifyGuardianToken(token string) (string, error) {
	return security.VerifyGuardianToken(s.tokenSecret, token)
}

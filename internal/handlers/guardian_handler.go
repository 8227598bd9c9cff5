package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"thinkfirst/internal/guardian"
	"thinkfirst/internal/models"
	"thinkfirst/internal/service"
)

// GuardianHandler serves pin setup, verification and parental controls
type GuardianHandler struct {
	guardianService *service.GuardianService
}

// NewGuardianHandler creates a new guardian handler
func NewGuardianHandler(guardianService *service.GuardianService) *GuardianHandler {
	return &GuardianHandler{guardianService: guardianService}
}

// CreatePIN sets up the guardian pin for the caller
func (h *GuardianHandler) CreatePIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	_, err := h.guardianService.CreatePIN(GetUserID(r.Context()), req.PIN)
	switch {
	case errors.Is(err, guardian.ErrMalformedPIN):
		respondWithError(w, http.StatusBadRequest, "PIN must be exactly 4 digits", "", nil)
	case errors.Is(err, service.ErrPINAlreadyExists):
		respondWithError(w, http.StatusConflict, "A PIN is already configured", "", nil)
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to create pin", err)
	default:
		respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

// VerifyPIN checks a pin attempt and returns a guardian session token
// on success
func (h *GuardianHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	token, outcome, err := h.guardianService.VerifyPIN(GetUserID(r.Context()), req.PIN)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "pin verification failed", err)
		return
	}
	if outcome.OK {
		respondJSON(w, http.StatusOK, map[string]string{"guardian_token": token})
		return
	}

	h.respondVerifyFailure(w, outcome)
}

func (h *GuardianHandler) respondVerifyFailure(w http.ResponseWriter, outcome guardian.VerifyOutcome) {
	switch {
	case errors.Is(outcome.Err, guardian.ErrNoPINConfigured):
		respondWithError(w, http.StatusNotFound, "No PIN configured", "", nil)
	case errors.Is(outcome.Err, guardian.ErrMalformedPIN):
		respondWithError(w, http.StatusBadRequest, "PIN must be exactly 4 digits", "", nil)
	case errors.Is(outcome.Err, guardian.ErrLockedOut):
		pinLockouts.Inc()
		payload := map[string]interface{}{"error": "Too many attempts, try again later"}
		if !outcome.LockedUntil.IsZero() {
			payload["locked_until"] = outcome.LockedUntil.Format(time.RFC3339)
		}
		respondJSON(w, http.StatusTooManyRequests, payload)
	default:
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":              "Incorrect PIN",
			"attempts_remaining": outcome.AttemptsRemaining,
		})
	}
}

// ChangePIN replaces the pin after verifying the current one
func (h *GuardianHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPIN string `json:"current_pin"`
		NewPIN     string `json:"new_pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	err := h.guardianService.ChangePIN(GetUserID(r.Context()), req.CurrentPIN, req.NewPIN)
	switch {
	case errors.Is(err, guardian.ErrMalformedPIN):
		respondWithError(w, http.StatusBadRequest, "PIN must be exactly 4 digits", "", nil)
	case errors.Is(err, guardian.ErrIncorrectPIN):
		respondWithError(w, http.StatusUnauthorized, "Incorrect PIN", "", nil)
	case errors.Is(err, guardian.ErrLockedOut):
		respondWithError(w, http.StatusTooManyRequests, "Too many attempts, try again later", "", nil)
	case errors.Is(err, guardian.ErrNoPINConfigured):
		respondWithError(w, http.StatusNotFound, "No PIN configured", "", nil)
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to change pin", err)
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "changed"})
	}
}

type settingsResponse struct {
	ForceMasteryMode      bool   `json:"force_mastery_mode"`
	BlockMercyButton      bool   `json:"block_mercy_button"`
	FrictionInterstitials bool   `json:"friction_interstitials"`
	RequireReason         bool   `json:"require_reason"`
	ReportEmail           string `json:"report_email"`
}

func toSettingsResponse(s *models.GuardianSettings) settingsResponse {
	return settingsResponse{
		ForceMasteryMode:      s.ForceMasteryMode,
		BlockMercyButton:      s.BlockMercyButton,
		FrictionInterstitials: s.FrictionInterstitials,
		RequireReason:         s.RequireReason,
		ReportEmail:           s.ReportEmail,
	}
}

// GetSettings returns the caller's control toggles. Reading settings
// needs no guardian token; the app applies them to the student view.
func (h *GuardianHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.guardianService.GetSettings(GetUserID(r.Context()))
	if errors.Is(err, service.ErrSettingsNotFound) {
		respondWithError(w, http.StatusNotFound, "No guardian settings", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to get settings", err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// UpdateSettings applies a partial update; absent fields keep their
// value. Requires a guardian token.
func (h *GuardianHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	settings, err := h.guardianService.UpdateSettings(GetUserID(r.Context()), patch)
	if errors.Is(err, service.ErrSettingsNotFound) {
		respondWithError(w, http.StatusNotFound, "No guardian settings", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to update settings", err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Reset wipes the guardian settings and lockout state. Requires a
// guardian token.
func (h *GuardianHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.guardianService.Reset(GetUserID(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to reset guardian settings", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

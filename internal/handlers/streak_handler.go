package handlers

import (
	"net/http"
	"time"

	"thinkfirst/internal/models"
	"thinkfirst/internal/service"
)

// StreakHandler serves freeze state and streak protection endpoints
type StreakHandler struct {
	streakService *service.StreakService
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(streakService *service.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

type freezeStateResponse struct {
	UserID            string     `json:"user_id"`
	PersonalFreezes   int        `json:"personal_freezes"`
	FamilyPoolFreezes int        `json:"family_pool_freezes"`
	LastActivity      *time.Time `json:"last_activity,omitempty"`
	LastFreezeGrant   *time.Time `json:"last_freeze_grant,omitempty"`
}

func toFreezeStateResponse(st *models.FreezeState) freezeStateResponse {
	return freezeStateResponse{
		UserID:            st.UserID,
		PersonalFreezes:   st.PersonalFreezes,
		FamilyPoolFreezes: st.FamilyPoolFreezes,
		LastActivity:      st.LastActivity,
		LastFreezeGrant:   st.LastFreezeGrant,
	}
}

// GetState returns the caller's current freeze state
func (h *StreakHandler) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.streakService.GetState(GetUserID(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to get freeze state", err)
		return
	}
	respondJSON(w, http.StatusOK, toFreezeStateResponse(st))
}

// CheckIn runs the app-resume protection check: applies any due
// monthly grant and spends a freeze if a day was missed
func (h *StreakHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	st, result, err := h.streakService.CheckIn(GetUserID(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "check-in failed", err)
		return
	}

	if result.FreezeUsed {
		freezesSpent.WithLabelValues(string(result.Source)).Inc()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"streak_preserved": result.StreakPreserved,
		"freeze_used":      result.FreezeUsed,
		"freeze_source":    result.Source,
		"state":            toFreezeStateResponse(st),
	})
}

// RecordActivity marks the caller active for the current streak day
func (h *StreakHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	st, err := h.streakService.RecordActivity(GetUserID(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to record activity", err)
		return
	}
	respondJSON(w, http.StatusOK, toFreezeStateResponse(st))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"thinkfirst/internal/models"
	"thinkfirst/internal/service"
)

// FamilyHandler serves invite code and account linking endpoints
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type familyResponse struct {
	Code           string   `json:"code"`
	MaxAccounts    int      `json:"max_accounts"`
	AvailableSlots int      `json:"available_slots"`
	PoolFreezes    int      `json:"pool_freezes"`
	LinkedAccounts []string `json:"linked_accounts"`
}

func toFamilyResponse(link *models.FamilyLink) familyResponse {
	return familyResponse{
		Code:           link.Code,
		MaxAccounts:    link.MaxAccounts,
		AvailableSlots: link.AvailableSlots(),
		PoolFreezes:    link.PoolFreezes,
		LinkedAccounts: link.LinkedAccounts,
	}
}

// GetFamily returns the caller's family link as its owner
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	link, err := h.familyService.GetFamilyForParent(GetUserID(r.Context()))
	if errors.Is(err, service.ErrNoFamilyLink) {
		respondWithError(w, http.StatusNotFound, "No family link", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to get family", err)
		return
	}
	respondJSON(w, http.StatusOK, toFamilyResponse(link))
}

// GenerateCode issues a fresh invite code, invalidating any previous one
func (h *FamilyHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	link, err := h.familyService.GenerateInviteCode(GetUserID(r.Context()))
	if errors.Is(err, service.ErrNotFamilyPlan) {
		respondWithError(w, http.StatusForbidden, "A family plan is required", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to generate invite code", err)
		return
	}
	respondJSON(w, http.StatusCreated, toFamilyResponse(link))
}

// ValidateCode checks an invite code without redeeming it
func (h *FamilyHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	link, err := h.familyService.ValidateInviteCode(req.Code)
	if err != nil {
		h.respondCodeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":           true,
		"available_slots": link.AvailableSlots(),
	})
}

// Join redeems an invite code for the calling student account
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	link, err := h.familyService.LinkStudentToFamily(req.Code, GetUserID(r.Context()))
	if err != nil {
		h.respondCodeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "linked",
		"available_slots": link.AvailableSlots(),
	})
}

// Leave detaches the calling student account from its family
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.familyService.UnlinkFromFamily(GetUserID(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to leave family", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

// SendInvite emails the current invite code to a prospective member
func (h *FamilyHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	err := h.familyService.SendInvite(r.Context(), GetUserID(r.Context()), req.Email, req.Name)
	if errors.Is(err, service.ErrNoFamilyLink) {
		respondWithError(w, http.StatusNotFound, "No family link", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to send invite", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *FamilyHandler) respondCodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBadCodeFormat):
		respondWithError(w, http.StatusBadRequest, "Invite code format is invalid", "", nil)
	case errors.Is(err, service.ErrCodeNotRecognized):
		respondWithError(w, http.StatusNotFound, "Invite code not recognized", "", nil)
	case errors.Is(err, service.ErrFamilyFull):
		respondWithError(w, http.StatusConflict, "Family has reached its account limit", "", nil)
	case errors.Is(err, service.ErrAlreadyLinked):
		respondWithError(w, http.StatusConflict, "Account is already linked to a family", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "invite code operation failed", err)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"thinkfirst/internal/attempt"
)

// AttemptHandler serves the pre-submission quality check
type AttemptHandler struct {
	gate *attempt.Gate
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(gate *attempt.Gate) *AttemptHandler {
	return &AttemptHandler{gate: gate}
}

// Check reports whether an attempt text clears the submission bar
func (h *AttemptHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	result := h.gate.Check(req.Text)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"allowed":    result.Allowed,
		"word_count": result.WordCount,
		"reason":     result.Reason,
	})
}

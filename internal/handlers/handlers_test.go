package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thinkfirst/internal/attempt"
	"thinkfirst/internal/security"
	"thinkfirst/internal/service"
)

var testSecret = []byte("test-secret")

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := security.MintUserToken(testSecret, userID, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return "Bearer " + token
}

func TestRequireAuth(t *testing.T) {
	m := NewMiddleware(service.NewGuardianService(nil, testSecret), testSecret)
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"user": GetUserID(r.Context())})
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: bearerFor(t, "user-1"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/streak/state", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if body["user"] != "user-1" {
					t.Errorf("context user = %q, want user-1", body["user"])
				}
			}
		})
	}
}

func TestRequireGuardian(t *testing.T) {
	m := NewMiddleware(service.NewGuardianService(nil, testSecret), testSecret)
	handler := m.RequireGuardian(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	guardianToken, err := security.MintGuardianToken(testSecret, "user-1", time.Now())
	if err != nil {
		t.Fatalf("failed to mint guardian token: %v", err)
	}
	bearer := bearerFor(t, "user-1")

	tests := []struct {
		name          string
		guardianToken string
		wantStatus    int
	}{
		{name: "missing guardian token", guardianToken: "", wantStatus: http.StatusForbidden},
		{name: "garbage guardian token", guardianToken: "nope", wantStatus: http.StatusForbidden},
		// A plain bearer token must not open the guardian gate.
		{name: "user token as guardian token", guardianToken: strings.TrimPrefix(bearer, "Bearer "), wantStatus: http.StatusForbidden},
		{name: "valid guardian token", guardianToken: guardianToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/guardian/settings", nil)
			req.Header.Set("Authorization", bearer)
			if tt.guardianToken != "" {
				req.Header.Set(GuardianTokenHeader, tt.guardianToken)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGuardianTokenForOtherUserRejected(t *testing.T) {
	m := NewMiddleware(service.NewGuardianService(nil, testSecret), testSecret)
	handler := m.RequireGuardian(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	otherToken, err := security.MintGuardianToken(testSecret, "user-2", time.Now())
	if err != nil {
		t.Fatalf("failed to mint guardian token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/guardian/settings", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	req.Header.Set(GuardianTokenHeader, otherToken)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d for cross-user guardian token", rec.Code, http.StatusForbidden)
	}
}

func TestAttemptCheck(t *testing.T) {
	h := NewAttemptHandler(attempt.NewGate(5, nil))

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantAllowed bool
	}{
		{name: "bad json", body: "{", wantStatus: http.StatusBadRequest},
		{name: "too short", body: `{"text":"because I said"}`, wantStatus: http.StatusOK, wantAllowed: false},
		{name: "long enough", body: `{"text":"the numerator grows faster than the denominator"}`, wantStatus: http.StatusOK, wantAllowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/attempts/check", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Check(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body struct {
				Allowed bool `json:"allowed"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Allowed != tt.wantAllowed {
				t.Errorf("allowed = %v, want %v", body.Allowed, tt.wantAllowed)
			}
		})
	}
}

func TestLoggingAssignsRequestID(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response is missing a request id")
	}

	// A caller-supplied id is echoed back unchanged.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(GetUserID(r.Context()).String()))
	})
}

func TestJWTMiddleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	valid, err := auth.GenerateAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	expired, err := auth.GenerateAccessToken(userID, -time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	foreign, err := NewJWTAuth("other-secret").GenerateAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			auth.Middleware(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if tc.status == http.StatusOK {
				if rr.Body.String() != userID.String() {
					t.Fatalf("expected user id in context, got %q", rr.Body.String())
				}
				return
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if payload.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, payload.Error.Code)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetRequestID(r)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	generated := rr.Header().Get(RequestIDHeader)
	if generated == "" || rr.Body.String() != generated {
		t.Fatalf("expected generated request id to be visible to handler and response")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller request id to be kept, got %q", rr.Header().Get(RequestIDHeader))
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	userID := uuid.New()
	h := rl.Middleware(okHandler())
	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if call() != http.StatusOK || call() != http.StatusOK {
		t.Fatalf("expected first two requests to pass")
	}
	if code := call(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if !rl.Allow("someone-else") {
		t.Fatalf("limits must be tracked per key")
	}

	now = now.Add(2 * time.Minute)
	if code := call(); code != http.StatusOK {
		t.Fatalf("expected new window to pass, got %d", code)
	}
}

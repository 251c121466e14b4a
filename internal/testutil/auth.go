package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"award-review/internal/auth"
	"award-review/internal/config"
	"award-review/internal/models"
)

// AuthHelper issues caller tokens for tests
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates a new auth helper
func NewAuthHelper() *AuthHelper {
	return &AuthHelper{Service: auth.NewService(&config.JWTConfig{
		Secret:     "test-secret-key-for-testing-only",
		Issuer:     "award-review-test",
		Expiration: time.Hour,
	})}
}

// AddAuthHeader adds an authorization header for caller to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, caller models.Caller) {
	t.Helper()

	token, err := h.Service.GenerateToken(caller)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// CreateAuthenticatedRequest creates a request with auth header and an optional JSON body
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, caller models.Caller, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	h.AddAuthHeader(t, req, caller)
	return req
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}

// Decode unmarshals the envelope's data field into dst
func (r *TestResponse) Decode(t *testing.T, dst interface{}) {
	t.Helper()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v. Body: %s", err, r.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/compranal/supplier_portal/internal/logging"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret, username string, expired bool) string {
	t.Helper()
	claims := &Claims{
		Username: username,
		Mail:     username + "@example.com",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if expired {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tokenString
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	auth := NewAdminAuth(testSecret, logging.New(logging.Config{Service: "test", Level: "error"}))

	var bearer string
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer = Bearer(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/message-types", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, bearer
}

func TestAdminAuth_ValidToken(t *testing.T) {
	token := signTestToken(t, testSecret, "jperez", false)

	rec, bearer := runAuth(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if bearer != token {
		t.Error("raw bearer not kept in context for upstream forwarding")
	}
}

func TestAdminAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signTestToken(t, "other-secret", "jperez", false)},
		{"expired", "Bearer " + signTestToken(t, testSecret, "jperez", true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := runAuth(t, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}

			var envelope struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if envelope.Success {
				t.Error("rejection must not be a success envelope")
			}
		})
	}
}

func TestAdminAuth_RejectsUnexpectedSigningMethod(t *testing.T) {
	// alg=none tokens must never pass.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "jperez"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, _ := runAuth(t, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearer_EmptyWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := Bearer(req.Context()); got != "" {
		t.Errorf("Bearer() = %q, want empty", got)
	}
}

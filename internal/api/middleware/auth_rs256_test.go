package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signRS256(t *testing.T, priv *rsa.PrivateKey, scopes []string, ttl time.Duration) string {
	t.Helper()

	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"scopes": scopes,
		"iss":    "skubridge",
		"sub":    "test-client",
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	s, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	return s
}

func TestAuthMiddleware_Prod_RejectsMissingToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called when token is missing")
	})

	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Prod_RejectsInvalidToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called when token is invalid")
	})

	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Prod_RejectsExpiredToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called when token is expired")
	})

	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	token := signRS256(t, priv, []string{"sync:write"}, -5*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Prod_RejectsMissingScope(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called without the required scope")
	})

	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	token := signRS256(t, priv, []string{"sync:read"}, 10*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Prod_AllowsValidToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	nextCalls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	token := signRS256(t, priv, []string{"sync:write"}, 10*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if nextCalls != 1 {
		t.Fatalf("expected next called once, got %d", nextCalls)
	}
}

func TestAuthMiddleware_Dev_AllowsMissingToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := AuthMiddleware{
		Env:       "dev",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_Dev_StillValidatesPresentedToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called with a bad token, even in dev")
	})

	h := AuthMiddleware{
		Env:       "dev",
		PublicKey: &priv.PublicKey,
		Scope:     "sync:write",
		Next:      next,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

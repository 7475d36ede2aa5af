package middleware

import (
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/ETAnderson/skubridge/internal/api/auth"
)

// AuthMiddleware guards mutating sync endpoints with an RS256 bearer
// token carrying the required scope. In dev, requests without an
// Authorization header pass through so local tooling keeps working.
type AuthMiddleware struct {
	Env       string
	PublicKey *rsa.PublicKey
	Scope     string
	Next      http.Handler
}

func (m AuthMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))

	if strings.EqualFold(strings.TrimSpace(m.Env), "dev") && authz == "" {
		m.Next.ServeHTTP(w, r)
		return
	}

	if !strings.HasPrefix(authz, "Bearer ") {
		unauthorized(w, "missing bearer token")
		return
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if tokenString == "" {
		unauthorized(w, "empty bearer token")
		return
	}

	claims, err := auth.ParseAndValidateRS256(tokenString, m.PublicKey)
	if err != nil {
		unauthorized(w, "invalid token")
		return
	}

	if m.Scope != "" && !claims.HasScope(m.Scope) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden","message":"missing scope"}`))
		return
	}

	m.Next.ServeHTTP(w, r)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}

package httpapi

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyUserID ctxKey = "authenticatedUserID"

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// authJWTFromEnv returns a middleware that enforces Authorization: Bearer JWT
// (HS256) when JWT_HS256_SECRET is set, and threads the token's sub claim as
// the authenticated user id. Optional checks: JWT_ISSUER, JWT_AUDIENCE.
// Health, metrics and dictionary endpoints stay open.
func authJWTFromEnv() func(http.Handler) http.Handler {
	secret := strings.TrimSpace(os.Getenv("JWT_HS256_SECRET"))
	if secret == "" {
		return nil
	}
	iss := strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	aud := strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/v1/dictionary/") {
				next.ServeHTTP(w, r)
				return
			}
			tok, found := parseBearerToken(r)
			if !found {
				unauthorized(w, "missing bearer token")
				return
			}
			parsed, err := jwt.Parse(tok, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, opts...)
			if err != nil || !parsed.Valid {
				unauthorized(w, "invalid or expired token")
				return
			}
			sub, err := parsed.Claims.GetSubject()
			if err != nil || sub == "" {
				unauthorized(w, "token missing subject")
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				unauthorized(w, "token subject is not a user id")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authedUserID returns the user id placed in the context by the JWT
// middleware, if auth is enabled.
func authedUserID(ctx context.Context) (uuid.UUID, bool) {
	id, found := ctx.Value(ctxKeyUserID).(uuid.UUID)
	return id, found
}

// resolveUserID prefers the authenticated user id over the one named in the
// request so every operation stays scoped to the caller. Without auth
// enabled (dev, tests) the request-supplied id is used.
func resolveUserID(r *http.Request, requested uuid.UUID) (uuid.UUID, bool) {
	if id, found := authedUserID(r.Context()); found {
		return id, true
	}
	if requested != uuid.Nil {
		return requested, true
	}
	return uuid.Nil, false
}

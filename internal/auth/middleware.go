package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/model"
)

// contextKey is unexported so no other package can collide with our keys.
type contextKey string

const accountKey contextKey = "account"

// RequireAccount rejects requests without a resolvable bearer token with 401.
// On success the account is available via AccountFromContext.
//
// USAGE WITH CHI:
//
//	r.With(auth.RequireAccount(gate)).Get("/auth/profile", h.HandleProfile)
func RequireAccount(gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w, "token is missing")
				return
			}

			account, err := gate.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					writeUnauthorized(w, "invalid token")
					return
				}
				http.Error(w, `{"error":"internal_error","message":"an unexpected error occurred"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// OptionalAccount attaches the account when a valid bearer token is present
// and otherwise lets the request through untouched.
func OptionalAccount(gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				if account, err := gate.Resolve(r.Context(), token); err == nil {
					r = r.WithContext(WithAccount(r.Context(), account))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithAccount stores account in ctx. Exposed for handler tests.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext returns the account stored by the middleware.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok && a != nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized writes the same JSON shape as the handler package. It is
// duplicated here because handler imports auth, not the other way round.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="art-market"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}

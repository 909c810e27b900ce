package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAccount responds with the nickname of the account in context, or "-".
var echoAccount = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if a, ok := AccountFromContext(r.Context()); ok {
		w.Write([]byte(a.Nickname))
		return
	}
	w.Write([]byte("-"))
})

func TestRequireAccount(t *testing.T) {
	h := RequireAccount(NewIdentityGate(newFakeAccounts(alice)))(echoAccount)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer acc-alice", http.StatusOK, "alice"},
		{"lowercase scheme", "bearer acc-alice", http.StatusOK, "alice"},
		{"missing header", "", http.StatusUnauthorized, "token is missing"},
		{"wrong scheme", "Basic acc-alice", http.StatusUnauthorized, "token is missing"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "token is missing"},
		{"unknown account", "Bearer acc-nobody", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequireAccount_LookupFailureIs500(t *testing.T) {
	accounts := newFakeAccounts(alice)
	accounts.err = errors.New("disk I/O error")
	h := RequireAccount(NewIdentityGate(accounts))(echoAccount)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer acc-alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestOptionalAccount(t *testing.T) {
	h := OptionalAccount(NewIdentityGate(newFakeAccounts(alice)))(echoAccount)

	for header, want := range map[string]string{
		"Bearer acc-alice":  "alice",
		"Bearer acc-nobody": "-",
		"":                  "-",
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, header)
		assert.Equal(t, want, rec.Body.String(), header)
	}
}

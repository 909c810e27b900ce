package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/service"
)

// AccountService is what AccountHandler needs from the service layer.
// *service.AccountService implements it.
type AccountService interface {
	Register(ctx context.Context, nickname, mail, password string) (*service.AuthResult, error)
	Login(ctx context.Context, nickname, password string) (*service.AuthResult, error)
	Profile(ctx context.Context, id string) (*model.Profile, error)
}

// AccountHandler serves registration, login and profiles.
//
// Routes:
//   - POST /api/auth/register → HandleRegister
//   - POST /api/auth/login    → HandleLogin
//   - GET  /api/auth/profile  → HandleProfile (behind auth.RequireAccount)
//   - GET  /api/accounts/{id} → HandleGetAccount
type AccountHandler struct {
	accounts AccountService
	present  presenter
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, baseURL string, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		present:  newPresenter(baseURL),
		logger:   logger,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"login": "...", "mail": "...", "password": "..."}
// RESPONSE: 201 with the profile and a token.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.accounts.Register(r.Context(), req.Login, req.Mail, req.Password)
	if err != nil {
		h.logFailure("registration failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.authResponse(res))
}

// HandleLogin checks credentials.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"login": "...", "password": "..."}
// Unknown login and wrong password both answer 401 "invalid credentials".
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.logFailure("login failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.authResponse(res))
}

// HandleProfile returns the caller's own profile.
//
// HTTP: GET /api/auth/profile
func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		// Only reachable if the route was registered without RequireAccount.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "token is missing"})
		return
	}
	h.writeProfile(w, r, account.ID)
}

// HandleGetAccount returns any account's public profile.
//
// HTTP: GET /api/accounts/{id}
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, chi.URLParam(r, "id"))
}

func (h *AccountHandler) writeProfile(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.accounts.Profile(r.Context(), id)
	if err != nil {
		h.logFailure("profile lookup failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present.profile(profile))
}

func (h *AccountHandler) authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		ProfileResponse: h.present.profile(res.Profile),
		Token:           res.Token,
	}
}

func (h *AccountHandler) logFailure(msg string, err error) {
	h.logger.Debug(msg, slog.String("error", err.Error()))
}

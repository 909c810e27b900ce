package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

// Field limits, matching the column sizes clients were built against.
const (
	MaxNicknameLength = 80
	MaxMailLength     = 120
)

// AccountService handles registration, login and profiles.
//
// It never sees HTTP: the handler passes plain strings in and maps the
// returned apperror kinds to status codes.
type AccountService struct {
	accounts  repository.AccountRepository
	products  repository.ProductRepository
	purchases repository.PurchaseRepository
	passwords *auth.PasswordService
	gate      auth.Gate
	logger    *slog.Logger
}

func NewAccountService(
	accounts repository.AccountRepository,
	products repository.ProductRepository,
	purchases repository.PurchaseRepository,
	passwords *auth.PasswordService,
	gate auth.Gate,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		products:  products,
		purchases: purchases,
		passwords: passwords,
		gate:      gate,
		logger:    logger,
	}
}

// AuthResult is what register and login hand back: the caller's profile plus
// the bearer token to use from now on.
type AuthResult struct {
	Profile *model.Profile
	Token   string
}

// Register creates an account and logs it in.
func (s *AccountService) Register(ctx context.Context, nickname, mail, password string) (*AuthResult, error) {
	nickname = strings.TrimSpace(nickname)
	mail = strings.TrimSpace(mail)

	if err := validateCredentials(nickname, mail, password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	account := &model.Account{
		Nickname:     nickname,
		Mail:         mail,
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrDuplicateAccount) {
			return nil, err
		}
		s.logger.Error("failed to create account",
			slog.String("nickname", nickname),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account registered",
		slog.String("accountID", account.ID),
		slog.String("nickname", account.Nickname),
	)

	return s.authResult(ctx, account)
}

// Authenticate returns the account when nickname and password match.
//
// USER ENUMERATION:
// An unknown nickname and a wrong password produce the same error, and an
// unknown nickname still pays for one bcrypt comparison, so neither the
// response nor its timing reveals which accounts exist.
func (s *AccountService) Authenticate(ctx context.Context, nickname, password string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/account: looking up %q: %w", nickname, err)
		}
		s.passwords.VerifyDummy(password)
		return nil, invalidCredentials()
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.String("accountID", account.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, invalidCredentials()
	}

	return account, nil
}

// Login authenticates and returns the profile with a fresh token.
func (s *AccountService) Login(ctx context.Context, nickname, password string) (*AuthResult, error) {
	if strings.TrimSpace(nickname) == "" || password == "" {
		return nil, apperror.ValidationFailed("login", "missing login or password")
	}

	account, err := s.Authenticate(ctx, nickname, password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account logged in", slog.String("accountID", account.ID))
	return s.authResult(ctx, account)
}

// GetByID returns apperror.ErrNotFound for unknown IDs.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "account ID is required")
	}
	return s.accounts.GetAccountByID(ctx, id)
}

// Profile returns the account with what it posted and what it bought.
func (s *AccountService) Profile(ctx context.Context, id string) (*model.Profile, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, account)
}

func (s *AccountService) profileOf(ctx context.Context, account *model.Account) (*model.Profile, error) {
	posted, err := s.products.ListProductsByCreator(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing posted products: %w", err)
	}
	bought, err := s.purchases.ListPurchasedProducts(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing bought products: %w", err)
	}
	return &model.Profile{Account: account, Posted: posted, Bought: bought}, nil
}

func (s *AccountService) authResult(ctx context.Context, account *model.Account) (*AuthResult, error) {
	token, err := s.gate.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: issuing token for %s: %w", account.ID, err)
	}
	profile, err := s.profileOf(ctx, account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Profile: profile, Token: token}, nil
}

func validateCredentials(nickname, mail, password string) error {
	switch {
	case nickname == "":
		return apperror.ValidationFailed("login", "login is required")
	case utf8.RuneCountInString(nickname) > MaxNicknameLength:
		return apperror.ValidationFailed("login",
			fmt.Sprintf("login must be %d characters or less", MaxNicknameLength))
	case mail == "":
		return apperror.ValidationFailed("mail", "mail is required")
	case utf8.RuneCountInString(mail) > MaxMailLength:
		return apperror.ValidationFailed("mail",
			fmt.Sprintf("mail must be %d characters or less", MaxMailLength))
	case !strings.Contains(mail, "@"):
		return apperror.ValidationFailed("mail", "mail must be an e-mail address")
	case password == "":
		return apperror.ValidationFailed("password", "password is required")
	}
	return nil
}

func invalidCredentials() error {
	return apperror.Unauthorized("invalid credentials")
}

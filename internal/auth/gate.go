package auth

import (
	"context"
	"errors"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/model"
)

// AccountLookup is the slice of the account repository a gate needs.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
}

// Gate maps an opaque bearer token to an account and issues tokens on login.
//
// Every resolution failure (empty token, bad signature, unknown account) is
// apperror.InvalidToken. Only infrastructure errors pass through unchanged.
type Gate interface {
	Issue(accountID string) (string, error)
	Resolve(ctx context.Context, token string) (*model.Account, error)
}

// NewGate picks the signed gate when secret is set, the identity gate otherwise.
func NewGate(secret string, accounts AccountLookup) (Gate, error) {
	if secret == "" {
		return NewIdentityGate(accounts), nil
	}
	tokens, err := NewTokenService(secret, DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	return NewSignedGate(tokens, accounts), nil
}

// IdentityGate treats the token as the account ID itself.
//
// Anyone who learns an account ID can act as that account. It exists for
// development and for clients built against that contract; set JWT_SECRET in
// any shared deployment.
type IdentityGate struct {
	accounts AccountLookup
}

func NewIdentityGate(accounts AccountLookup) *IdentityGate {
	return &IdentityGate{accounts: accounts}
}

func (g *IdentityGate) Issue(accountID string) (string, error) {
	return accountID, nil
}

func (g *IdentityGate) Resolve(ctx context.Context, token string) (*model.Account, error) {
	if token == "" {
		return nil, apperror.InvalidToken()
	}
	return lookup(ctx, g.accounts, token)
}

// SignedGate accepts HS256 tokens from TokenService.
type SignedGate struct {
	tokens   *TokenService
	accounts AccountLookup
}

func NewSignedGate(tokens *TokenService, accounts AccountLookup) *SignedGate {
	return &SignedGate{tokens: tokens, accounts: accounts}
}

func (g *SignedGate) Issue(accountID string) (string, error) {
	return g.tokens.Sign(accountID)
}

func (g *SignedGate) Resolve(ctx context.Context, token string) (*model.Account, error) {
	accountID, err := g.tokens.Parse(token)
	if err != nil {
		return nil, apperror.InvalidToken()
	}
	// A valid signature for a deleted or never-existing account is still invalid.
	return lookup(ctx, g.accounts, accountID)
}

func lookup(ctx context.Context, accounts AccountLookup, id string) (*model.Account, error) {
	account, err := accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidToken()
		}
		return nil, err
	}
	return account, nil
}

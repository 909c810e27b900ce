// Package repository declares the persistence contracts the services depend on.
// The only implementation lives in repository/sqlite; services receive these
// interfaces so they can be tested against in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/art-market/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// AccountRepository stores marketplace accounts.
type AccountRepository interface {
	// CreateAccount assigns ID and CreatedAt. A taken nickname or mail
	// yields apperror.ErrDuplicateAccount.
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByNickname(ctx context.Context, nickname string) (*model.Account, error)
}

// ProductRepository stores products. Listings are ordered by updated_at
// descending, ties broken by insertion order descending.
type ProductRepository interface {
	// CreateProduct assigns ID and UpdatedAt. An unknown creator yields
	// apperror.ErrCreatorNotFound.
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, opts ListOptions) ([]model.Product, error)
	CountProducts(ctx context.Context) (int, error)
	ListProductsByCreator(ctx context.Context, creatorID string) ([]model.Product, error)
	// UpdateDescription replaces the description and refreshes updated_at.
	UpdateDescription(ctx context.Context, id, description string) (*model.Product, error)
}

// PurchaseRepository stores purchases; (account, product) pairs are unique.
type PurchaseRepository interface {
	// CreatePurchase is idempotent: a repeat returns the stored record and
	// created=false.
	CreatePurchase(ctx context.Context, accountID, productID string) (purchase *model.Purchase, created bool, err error)
	HasPurchased(ctx context.Context, accountID, productID string) (bool, error)
	// ListBuyers returns at most limit buyers, most recent purchase first.
	ListBuyers(ctx context.Context, productID string, limit int) ([]model.Account, error)
	CountBuyers(ctx context.Context, productID string) (int, error)
	// ListPurchasedProducts returns what accountID bought, most recent first.
	ListPurchasedProducts(ctx context.Context, accountID string) ([]model.Product, error)
}

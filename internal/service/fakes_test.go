package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

// =========================================================================
// FAKE MARKET (in-memory repositories)
// =========================================================================

// fakeMarket implements all three repository interfaces in memory.
// products and purchases are kept in insertion order; the "newest first"
// listings simply walk them backwards.
type fakeMarket struct {
	mu        sync.Mutex
	accounts  map[string]*model.Account
	products  []*model.Product
	purchases []*model.Purchase
	nextID    int

	// failWith, when set, is returned by every method.
	failWith error
}

var (
	_ repository.AccountRepository  = (*fakeMarket)(nil)
	_ repository.ProductRepository  = (*fakeMarket)(nil)
	_ repository.PurchaseRepository = (*fakeMarket)(nil)
)

func newFakeMarket() *fakeMarket {
	return &fakeMarket{accounts: make(map[string]*model.Account)}
}

func (f *fakeMarket) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeMarket) CreateAccount(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.accounts {
		if existing.Nickname == a.Nickname || existing.Mail == a.Mail {
			return apperror.DuplicateAccount()
		}
	}
	a.ID = f.id("acc")
	a.CreatedAt = time.Now()
	stored := *a
	f.accounts[a.ID] = &stored
	return nil
}

func (f *fakeMarket) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	result := *a
	return &result, nil
}

func (f *fakeMarket) GetAccountByNickname(_ context.Context, nickname string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, a := range f.accounts {
		if a.Nickname == nickname {
			result := *a
			return &result, nil
		}
	}
	return nil, apperror.NotFound("account", nickname)
}

func (f *fakeMarket) CreateProduct(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.accounts[p.CreatorID]; !ok {
		return apperror.CreatorNotFound(p.CreatorID)
	}
	p.ID = f.id("prod")
	p.UpdatedAt = time.Now()
	stored := *p
	f.products = append(f.products, &stored)
	return nil
}

func (f *fakeMarket) withCreator(p *model.Product) model.Product {
	result := *p
	if c, ok := f.accounts[p.CreatorID]; ok {
		creator := *c
		result.Creator = &creator
	}
	return result
}

func (f *fakeMarket) GetProductByID(_ context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.products {
		if p.ID == id {
			result := f.withCreator(p)
			return &result, nil
		}
	}
	return nil, apperror.ProductNotFound(id)
}

func (f *fakeMarket) ListProducts(_ context.Context, opts repository.ListOptions) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var all []model.Product
	for _, p := range slices.Backward(f.products) {
		all = append(all, f.withCreator(p))
	}
	if opts.Offset >= len(all) {
		return []model.Product{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (f *fakeMarket) CountProducts(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products), f.failWith
}

func (f *fakeMarket) ListProductsByCreator(_ context.Context, creatorID string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var result []model.Product
	for _, p := range slices.Backward(f.products) {
		if p.CreatorID == creatorID {
			result = append(result, f.withCreator(p))
		}
	}
	return result, nil
}

// UpdateDescription moves the product to the end, mirroring the real
// updated_at ordering.
func (f *fakeMarket) UpdateDescription(_ context.Context, id, description string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i, p := range f.products {
		if p.ID == id {
			p.Description = description
			p.UpdatedAt = time.Now()
			f.products = append(slices.Delete(f.products, i, i+1), p)
			result := f.withCreator(p)
			return &result, nil
		}
	}
	return nil, apperror.ProductNotFound(id)
}

func (f *fakeMarket) CreatePurchase(_ context.Context, accountID, productID string) (*model.Purchase, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	for _, pu := range f.purchases {
		if pu.AccountID == accountID && pu.ProductID == productID {
			result := *pu
			return &result, false, nil
		}
	}
	if _, ok := f.accounts[accountID]; !ok {
		return nil, false, apperror.NotFound("account", accountID)
	}
	pu := &model.Purchase{
		ID:          f.id("pur"),
		AccountID:   accountID,
		ProductID:   productID,
		PurchasedAt: time.Now(),
	}
	f.purchases = append(f.purchases, pu)
	result := *pu
	return &result, true, nil
}

func (f *fakeMarket) HasPurchased(_ context.Context, accountID, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, pu := range f.purchases {
		if pu.AccountID == accountID && pu.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMarket) ListBuyers(_ context.Context, productID string, limit int) ([]model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var result []model.Account
	for _, pu := range slices.Backward(f.purchases) {
		if pu.ProductID == productID {
			result = append(result, *f.accounts[pu.AccountID])
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeMarket) CountBuyers(ctx context.Context, productID string) (int, error) {
	buyers, err := f.ListBuyers(ctx, productID, 0)
	return len(buyers), err
}

func (f *fakeMarket) ListPurchasedProducts(_ context.Context, accountID string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var result []model.Product
	for _, pu := range slices.Backward(f.purchases) {
		if pu.AccountID != accountID {
			continue
		}
		for _, p := range f.products {
			if p.ID == pu.ProductID {
				result = append(result, f.withCreator(p))
			}
		}
	}
	return result, nil
}

// =========================================================================
// FAKE INGESTER
// =========================================================================

type fakeIngester struct {
	calls int
	err   error
}

func (f *fakeIngester) Ingest(_ context.Context, data []byte) (*model.Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Artifact{
		ID:     fmt.Sprintf("art-%d", f.calls),
		Format: "png",
	}, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAccountService(t *testing.T, market *fakeMarket) *AccountService {
	t.Helper()
	return NewAccountService(
		market, market, market,
		auth.NewPasswordServiceWithCost(4),
		auth.NewIdentityGate(market),
		testLogger(),
	)
}

func newTestProductService(t *testing.T, market *fakeMarket, ing Ingester) *ProductService {
	t.Helper()
	return NewProductService(market, market, market, ing, testLogger())
}

// seedAccount inserts an account directly, bypassing password hashing.
func seedAccount(t *testing.T, market *fakeMarket, nickname string) *model.Account {
	t.Helper()
	a := &model.Account{Nickname: nickname, Mail: nickname + "@example.com", PasswordHash: "x"}
	if err := market.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("seeding account: %v", err)
	}
	return a
}

func seedProduct(t *testing.T, market *fakeMarket, creatorID, title string) *model.Product {
	t.Helper()
	p := &model.Product{CreatorID: creatorID, Title: title, Price: 10, ImageRef: "ref-" + title}
	if err := market.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return p
}

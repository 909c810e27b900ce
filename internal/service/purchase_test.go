package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/art-market/internal/apperror"
)

func TestBuy_Idempotent(t *testing.T) {
	market := newFakeMarket()
	svc := NewPurchaseService(market, market, testLogger())
	ctx := context.Background()

	alice := seedAccount(t, market, "alice")
	bob := seedAccount(t, market, "bob")
	product := seedProduct(t, market, alice.ID, "print")

	first, created, err := svc.Buy(ctx, bob.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.Buy(ctx, bob.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	buyers, err := market.ListBuyers(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.Len(t, buyers, 1)
}

func TestBuy_Errors(t *testing.T) {
	market := newFakeMarket()
	svc := NewPurchaseService(market, market, testLogger())
	ctx := context.Background()

	alice := seedAccount(t, market, "alice")
	product := seedProduct(t, market, alice.ID, "print")

	_, _, err := svc.Buy(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	_, _, err = svc.Buy(ctx, alice.ID, "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, _, err = svc.Buy(ctx, "ghost", product.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestBuy_OwnProduct(t *testing.T) {
	market := newFakeMarket()
	svc := NewPurchaseService(market, market, testLogger())

	alice := seedAccount(t, market, "alice")
	product := seedProduct(t, market, alice.ID, "print")

	_, created, err := svc.Buy(context.Background(), alice.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestHasPurchased(t *testing.T) {
	market := newFakeMarket()
	svc := NewPurchaseService(market, market, testLogger())
	ctx := context.Background()

	alice := seedAccount(t, market, "alice")
	bob := seedAccount(t, market, "bob")
	product := seedProduct(t, market, alice.ID, "print")

	has, err := svc.HasPurchased(ctx, bob.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, _, err = svc.Buy(ctx, bob.ID, product.ID)
	require.NoError(t, err)

	has, err = svc.HasPurchased(ctx, bob.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

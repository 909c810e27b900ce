package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/metrics"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

type PurchaseService struct {
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

func NewPurchaseService(
	purchases repository.PurchaseRepository,
	products repository.ProductRepository,
	logger *slog.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		products:  products,
		logger:    logger,
	}
}

// Buy records that accountID bought productID. Buying the same product twice
// returns the first purchase; created reports which case happened.
func (s *PurchaseService) Buy(ctx context.Context, accountID, productID string) (*model.Purchase, bool, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, false, apperror.ValidationFailed("id", "missing product id")
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, false, err
	}

	purchase, created, err := s.purchases.CreatePurchase(ctx, accountID, productID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, false, err
		}
		s.logger.Error("failed to create purchase",
			slog.String("accountID", accountID),
			slog.String("productID", productID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("service/purchase: creating purchase: %w", err)
	}

	metrics.RecordPurchase(created)
	if created {
		s.logger.Info("product purchased",
			slog.String("purchaseID", purchase.ID),
			slog.String("accountID", accountID),
			slog.String("productID", productID),
		)
	}

	return purchase, created, nil
}

func (s *PurchaseService) HasPurchased(ctx context.Context, accountID, productID string) (bool, error) {
	has, err := s.purchases.HasPurchased(ctx, accountID, productID)
	if err != nil {
		return false, fmt.Errorf("service/purchase: checking purchase: %w", err)
	}
	return has, nil
}

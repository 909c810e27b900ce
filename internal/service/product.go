package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

// Listing policy. The page size is fixed regardless of what a client asks
// for, which bounds every response.
const (
	PageSize       = 6
	MaxBuyersShown = 6
	MaxTitleLength = 200
	MaxDescription = 5000
)

// Ingester turns upload bytes into a stored artifact. *media.Ingestor
// implements it; tests substitute a fake.
type Ingester interface {
	Ingest(ctx context.Context, data []byte) (*model.Artifact, error)
}

// ProductService contains the rules around listing, uploading and editing products.
type ProductService struct {
	products  repository.ProductRepository
	accounts  repository.AccountRepository
	purchases repository.PurchaseRepository
	ingester  Ingester
	logger    *slog.Logger
}

func NewProductService(
	products repository.ProductRepository,
	accounts repository.AccountRepository,
	purchases repository.PurchaseRepository,
	ingester Ingester,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:  products,
		accounts:  accounts,
		purchases: purchases,
		ingester:  ingester,
		logger:    logger,
	}
}

// CreateProductInput groups the upload form fields.
type CreateProductInput struct {
	CreatorID   string
	Title       string
	Price       int64
	Description string
	Image       []byte
}

// ProductDetail is a product with everyone who bought it.
type ProductDetail struct {
	Product     *model.Product
	Buyers      []model.Account
	BuyersCount int
}

// Create validates the form, checks the creator, ingests the image and
// stores the product.
//
// ORDER OF CHECKS:
// Cheap checks first. The creator lookup runs before ingestion so an upload
// for a non-existent creator never touches the artifact store. The foreign
// key still guards the insert in case the creator vanishes in between.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CreatorID = strings.TrimSpace(in.CreatorID)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.CreatorID == "":
		return nil, apperror.ValidationFailed("creator_id", "creator_id is required")
	case in.Title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case in.Price < 0:
		return nil, apperror.ValidationFailed("price", "price must not be negative")
	case utf8.RuneCountInString(in.Description) > MaxDescription:
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescription))
	case len(in.Image) == 0:
		return nil, apperror.ValidationFailed("image", "no image file provided")
	}

	if _, err := s.accounts.GetAccountByID(ctx, in.CreatorID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.CreatorNotFound(in.CreatorID)
		}
		return nil, fmt.Errorf("service/product: looking up creator: %w", err)
	}

	artifact, err := s.ingester.Ingest(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		CreatorID:   in.CreatorID,
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		ImageRef:    artifact.ID,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		// The artifact stays on disk unreferenced.
		s.logger.Warn("product insert failed after ingestion",
			slog.String("artifactID", artifact.ID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, apperror.ErrCreatorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/product: creating product: %w", err)
	}

	s.logger.Info("product created",
		slog.String("productID", product.ID),
		slog.String("creatorID", product.CreatorID),
		slog.String("artifactID", artifact.ID),
	)

	// Re-read so the response carries the joined creator.
	return s.products.GetProductByID(ctx, product.ID)
}

// List returns page (1-based) of the listing. Pages below 1 are page 1.
func (s *ProductService) List(ctx context.Context, page int) ([]model.Product, error) {
	if page < 1 {
		page = 1
	}

	products, err := s.products.ListProducts(ctx, repository.ListOptions{
		Limit:  PageSize,
		Offset: (page - 1) * PageSize,
	})
	if err != nil {
		s.logger.Error("failed to list products", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/product: listing products: %w", err)
	}
	return products, nil
}

// Get returns the product together with all of its buyers.
func (s *ProductService) Get(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	buyers, err := s.purchases.ListBuyers(ctx, product.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("service/product: listing buyers: %w", err)
	}

	return &ProductDetail{
		Product:     product,
		Buyers:      buyers,
		BuyersCount: len(buyers),
	}, nil
}

// Buyers returns at most MaxBuyersShown buyers, most recent first.
func (s *ProductService) Buyers(ctx context.Context, id string) ([]model.Account, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	buyers, err := s.purchases.ListBuyers(ctx, product.ID, MaxBuyersShown)
	if err != nil {
		return nil, fmt.Errorf("service/product: listing buyers: %w", err)
	}
	// The repository honours the limit; this keeps the cap even if it doesn't.
	if len(buyers) > MaxBuyersShown {
		buyers = buyers[:MaxBuyersShown]
	}
	return buyers, nil
}

// UpdateDescription lets the creator change the description text.
func (s *ProductService) UpdateDescription(ctx context.Context, callerID, productID, description string) (*model.Product, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxDescription {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescription))
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.CreatorID != callerID {
		return nil, apperror.Forbidden("only the creator can edit this product")
	}

	updated, err := s.products.UpdateDescription(ctx, product.ID, description)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/product: updating description: %w", err)
	}

	s.logger.Info("product description updated", slog.String("productID", product.ID))
	return updated, nil
}

func (s *ProductService) getProduct(ctx context.Context, id string) (*model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "product ID is required")
	}
	return s.products.GetProductByID(ctx, id)
}

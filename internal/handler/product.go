package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/service"
)

// ProductService is what ProductHandler needs from the service layer.
type ProductService interface {
	List(ctx context.Context, page int) ([]model.Product, error)
	Get(ctx context.Context, id string) (*service.ProductDetail, error)
	Buyers(ctx context.Context, id string) ([]model.Account, error)
	Create(ctx context.Context, in service.CreateProductInput) (*model.Product, error)
	UpdateDescription(ctx context.Context, callerID, productID, description string) (*model.Product, error)
}

type PurchaseService interface {
	Buy(ctx context.Context, accountID, productID string) (*model.Purchase, bool, error)
}

// ProductHandler serves listing, detail, upload, edit and purchase.
type ProductHandler struct {
	products  ProductService
	purchases PurchaseService
	present   presenter
	maxUpload int64
	logger    *slog.Logger
}

func NewProductHandler(
	products ProductService,
	purchases PurchaseService,
	baseURL string,
	maxUpload int64,
	logger *slog.Logger,
) *ProductHandler {
	return &ProductHandler{
		products:  products,
		purchases: purchases,
		present:   newPresenter(baseURL),
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// HandleList returns one page of products, newest first.
//
// HTTP: GET /api/product?page=N
// A missing or unparsable page is page 1.
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	products, err := h.products.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.present.products(products))
}

// HandleGet returns one product with all of its buyers.
//
// HTTP: GET /api/products/{id}
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present.detail(detail))
}

// HandleBuyers returns the most recent buyers (at most six).
//
// HTTP: GET /api/product/{id}/buyers
func (h *ProductHandler) HandleBuyers(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.products.Buyers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present.accounts(buyers))
}

type buyRequest struct {
	ID string `json:"id"`
}

// HandleBuy records a purchase for the authenticated account.
//
// HTTP: POST /api/product/buy
// REQUEST BODY: {"id": "<product id>"}
// 201 on the first purchase, 200 with the original record on a repeat.
func (h *ProductHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken())
		return
	}

	var req buyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	purchase, created, err := h.purchases.Buy(r.Context(), account.ID, req.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, PurchaseResponse{Success: true, Purchase: purchase})
}

// HandleCreate uploads a new product.
//
// HTTP: POST /api/products (multipart/form-data)
// FIELDS: image (file), title, price, description, creator_id
//
// The creator is the bearer token's account when one is attached; otherwise
// the creator_id form field names it. The body is capped at maxUpload bytes
// before anything is parsed.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, apperror.TooLarge(h.maxUpload))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, apperror.TooLarge(h.maxUpload))
			return
		}
		writeError(w, apperror.ValidationFailed("body", "please use multipart/form-data for image upload"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := h.readCreateForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.logger.Info("product upload rejected",
			slog.String("creatorID", in.CreatorID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.present.product(product))
}

func (h *ProductHandler) readCreateForm(r *http.Request) (service.CreateProductInput, error) {
	var in service.CreateProductInput

	file, _, err := r.FormFile("image")
	if err != nil {
		return in, apperror.ValidationFailed("image", "no image file provided")
	}
	defer file.Close()

	in.Image, err = io.ReadAll(file)
	if err != nil {
		return in, apperror.ValidationFailed("image", "could not read image file")
	}

	priceStr := strings.TrimSpace(r.FormValue("price"))
	if priceStr == "" {
		return in, apperror.ValidationFailed("price", "price is required")
	}
	in.Price, err = strconv.ParseInt(priceStr, 10, 64)
	if err != nil {
		return in, apperror.ValidationFailed("price", "price must be a number")
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.CreatorID = r.FormValue("creator_id")
	if account, ok := auth.AccountFromContext(r.Context()); ok {
		in.CreatorID = account.ID
	}

	return in, nil
}

type descriptionRequest struct {
	Description string `json:"description"`
}

// HandleUpdateDescription lets the creator rewrite the description.
//
// HTTP: PUT /api/products/{id}/description
// REQUEST BODY: {"description": "..."}
func (h *ProductHandler) HandleUpdateDescription(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken())
		return
	}

	var req descriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.products.UpdateDescription(r.Context(), account.ID, chi.URLParam(r, "id"), req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present.product(product))
}

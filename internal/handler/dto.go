package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/service"
)

// Wire shapes. Field names follow what existing clients already parse.

type AccountResponse struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Mail      string    `json:"mail"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductResponse struct {
	ID          string           `json:"id"`
	PhotoURL    string           `json:"photoUrl"`
	Title       string           `json:"title"`
	Price       int64            `json:"price"`
	Description string           `json:"description"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Creator     *AccountResponse `json:"creator"`
}

type ProductDetailResponse struct {
	ProductResponse
	Buyers      []AccountResponse `json:"buyers"`
	BuyersCount int               `json:"buyersCount"`
}

type ProfileResponse struct {
	AccountResponse
	Posted []ProductResponse `json:"posted"`
	Bought []ProductResponse `json:"bought"`
}

// AuthResponse is the profile plus the bearer token for later requests.
type AuthResponse struct {
	ProfileResponse
	Token string `json:"token"`
}

type PurchaseResponse struct {
	Success  bool            `json:"success"`
	Purchase *model.Purchase `json:"purchase"`
}

// presenter turns domain values into wire shapes. It needs the public base
// URL because photoUrl is absolute.
type presenter struct {
	baseURL string
}

func newPresenter(baseURL string) presenter {
	return presenter{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p presenter) thumbnailURL(imageRef string) string {
	return fmt.Sprintf("%s/api/images/thumbnail/%s", p.baseURL, imageRef)
}

func (p presenter) account(a *model.Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{
		ID:        a.ID,
		Nickname:  a.Nickname,
		Mail:      a.Mail,
		CreatedAt: a.CreatedAt,
	}
}

func (p presenter) accounts(list []model.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(list))
	for i := range list {
		out = append(out, *p.account(&list[i]))
	}
	return out
}

func (p presenter) product(pr *model.Product) ProductResponse {
	return ProductResponse{
		ID:          pr.ID,
		PhotoURL:    p.thumbnailURL(pr.ImageRef),
		Title:       pr.Title,
		Price:       pr.Price,
		Description: pr.Description,
		UpdatedAt:   pr.UpdatedAt,
		Creator:     p.account(pr.Creator),
	}
}

// products never returns nil so empty lists encode as [] rather than null.
func (p presenter) products(list []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, p.product(&list[i]))
	}
	return out
}

func (p presenter) detail(d *service.ProductDetail) ProductDetailResponse {
	return ProductDetailResponse{
		ProductResponse: p.product(d.Product),
		Buyers:          p.accounts(d.Buyers),
		BuyersCount:     d.BuyersCount,
	}
}

func (p presenter) profile(pr *model.Profile) ProfileResponse {
	return ProfileResponse{
		AccountResponse: *p.account(pr.Account),
		Posted:          p.products(pr.Posted),
		Bought:          p.products(pr.Bought),
	}
}

package model

import "time"

// Purchase records that an account bought a product.
// (AccountID, ProductID) is unique: buying twice returns the first record.
type Purchase struct {
	ID          string    `json:"id"          db:"id"`
	AccountID   string    `json:"accountId"   db:"account_id"`
	ProductID   string    `json:"productId"   db:"product_id"`
	PurchasedAt time.Time `json:"purchasedAt" db:"purchased_at"`
}

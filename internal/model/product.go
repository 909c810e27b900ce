package model

import "time"

// Product is an uploaded artwork offered on the market.
//
// ImageRef is the artifact identifier returned by the ingestion pipeline,
// never the raw bytes and never a file name. The stored files are derived from
// it: {ImageRef}_original.{ext} and {ImageRef}_thumbnail.{ext}.
type Product struct {
	ID          string    `json:"id"          db:"id"`
	CreatorID   string    `json:"creatorId"   db:"creator_id"`
	Title       string    `json:"title"       db:"title"`
	Price       int64     `json:"price"       db:"price"`
	Description string    `json:"description" db:"description"`
	ImageRef    string    `json:"imageRef"    db:"image_ref"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	// Creator is filled by queries that join accounts; nil otherwise.
	Creator *Account `json:"creator,omitempty" db:"-"`
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

// compile-time check that *DB implements repository.ProductRepository
var _ repository.ProductRepository = (*DB)(nil)

// Default and maximum page sizes for ListProducts.
const (
	defaultProductLimit = 6
	maxProductLimit     = 100
)

// productSelect joins each product with its creator so listings can show
// the creator's nickname without a second query per row.
const productSelect = `
	SELECT p.id, p.creator_id, p.title, p.price, p.description, p.image_ref, p.updated_at,
	       a.id, a.nickname, a.mail, a.created_at
	FROM products p
	JOIN accounts a ON a.id = p.creator_id`

// CreateProduct inserts a product. The creator must exist; the foreign key
// enforces it and the violation becomes apperror.CreatorNotFound.
func (db *DB) CreateProduct(ctx context.Context, product *model.Product) error {
	product.ID = xid.New().String()
	product.UpdatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO products (id, creator_id, title, price, description, image_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.CreatorID,
		product.Title,
		product.Price,
		product.Description,
		product.ImageRef,
		product.UpdatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.CreatorNotFound(product.CreatorID)
		}
		return fmt.Errorf("sqlite: creating product: %w", err)
	}

	return nil
}

// GetProductByID returns the product with its Creator filled in.
func (db *DB) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	row := db.conn.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ProductNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns one page of products, most recently updated first.
//
// ORDERING:
// updated_at alone is not a total order: two rows written in the same clock
// tick compare equal. rowid (SQLite's implicit insertion counter) breaks the
// tie so pages never overlap or skip a row.
func (db *DB) ListProducts(ctx context.Context, opts repository.ListOptions) ([]model.Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	offset := max(opts.Offset, 0)

	rows, err := db.conn.QueryContext(ctx,
		productSelect+`
		 ORDER BY p.updated_at DESC, p.rowid DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows, limit)
}

func (db *DB) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting products: %w", err)
	}
	return n, nil
}

// ListProductsByCreator returns everything creatorID posted, newest first.
func (db *DB) ListProductsByCreator(ctx context.Context, creatorID string) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		productSelect+`
		 WHERE p.creator_id = ?
		 ORDER BY p.updated_at DESC, p.rowid DESC`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing products by creator %s: %w", creatorID, err)
	}
	defer rows.Close()

	return collectProducts(rows, 0)
}

// UpdateDescription replaces the description and bumps updated_at, which
// moves the product to the front of the listing.
func (db *DB) UpdateDescription(ctx context.Context, id, description string) (*model.Product, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE products SET description = ?, updated_at = ? WHERE id = ?`,
		description,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating product %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.ProductNotFound(id)
	}

	return db.GetProductByID(ctx, id)
}

func scanProduct(s scanner) (*model.Product, error) {
	var p model.Product
	var c model.Account
	err := s.Scan(
		&p.ID, &p.CreatorID, &p.Title, &p.Price, &p.Description, &p.ImageRef, &p.UpdatedAt,
		&c.ID, &c.Nickname, &c.Mail, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Creator = &c
	return &p, nil
}

// collectProducts drains rows. sizeHint pre-allocates when the caller knows
// the page size.
func collectProducts(rows *sql.Rows, sizeHint int) ([]model.Product, error) {
	products := make([]model.Product, 0, sizeHint)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating products: %w", err)
	}
	return products, nil
}

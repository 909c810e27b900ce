package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/repository"
)

// compile-time check that *DB implements repository.PurchaseRepository
var _ repository.PurchaseRepository = (*DB)(nil)

// CreatePurchase records that accountID bought productID.
//
// IDEMPOTENCY WITHOUT A RACE:
// "SELECT, then INSERT if missing" lets two concurrent buyers both see
// nothing and both insert. Instead the insert itself is conditional:
// ON CONFLICT DO NOTHING leaves an existing (account, product) row alone, and
// the follow-up SELECT returns whichever row won. RowsAffected tells us
// whether this call was the one that created it.
func (db *DB) CreatePurchase(ctx context.Context, accountID, productID string) (*model.Purchase, bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO purchases (id, account_id, product_id, purchased_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (account_id, product_id) DO NOTHING`,
		xid.New().String(),
		accountID,
		productID,
		time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, false, db.missingPurchaseRef(ctx, accountID, productID)
		}
		return nil, false, fmt.Errorf("sqlite: creating purchase: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	var p model.Purchase
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, account_id, product_id, purchased_at
		 FROM purchases
		 WHERE account_id = ? AND product_id = ?`,
		accountID, productID,
	).Scan(&p.ID, &p.AccountID, &p.ProductID, &p.PurchasedAt)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: reading purchase back: %w", err)
	}

	return &p, rowsAffected == 1, nil
}

// missingPurchaseRef works out which side of a failed foreign key is absent.
// The product is checked first.
func (db *DB) missingPurchaseRef(ctx context.Context, accountID, productID string) error {
	if _, err := db.GetProductByID(ctx, productID); err != nil {
		return err
	}
	if _, err := db.GetAccountByID(ctx, accountID); err != nil {
		return err
	}
	return fmt.Errorf("sqlite: purchase references vanished rows (account %s, product %s)", accountID, productID)
}

func (db *DB) HasPurchased(ctx context.Context, accountID, productID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchases WHERE account_id = ? AND product_id = ?)`,
		accountID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking purchase: %w", err)
	}
	return exists, nil
}

// ListBuyers returns up to limit accounts that bought productID, most recent
// purchase first. limit <= 0 means no limit.
func (db *DB) ListBuyers(ctx context.Context, productID string, limit int) ([]model.Account, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT = unbounded
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.nickname, a.mail, a.password_hash, a.created_at
		 FROM purchases pu
		 JOIN accounts a ON a.id = pu.account_id
		 WHERE pu.product_id = ?
		 ORDER BY pu.purchased_at DESC, pu.rowid DESC
		 LIMIT ?`,
		productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing buyers of %s: %w", productID, err)
	}
	defer rows.Close()

	var buyers []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning buyer row: %w", err)
		}
		buyers = append(buyers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating buyers: %w", err)
	}
	return buyers, nil
}

func (db *DB) CountBuyers(ctx context.Context, productID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE product_id = ?`, productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting buyers of %s: %w", productID, err)
	}
	return n, nil
}

// ListPurchasedProducts returns the products accountID bought, most recent first.
func (db *DB) ListPurchasedProducts(ctx context.Context, accountID string) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		productSelect+`
		 JOIN purchases pu ON pu.product_id = p.id
		 WHERE pu.account_id = ?
		 ORDER BY pu.purchased_at DESC, pu.rowid DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing purchases of %s: %w", accountID, err)
	}
	defer rows.Close()

	return collectProducts(rows, 0)
}

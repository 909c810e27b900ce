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

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, nickname, mail, password_hash, created_at`

// CreateAccount inserts a new account. The caller supplies the bcrypt hash.
//
// UNIQUENESS IS THE DATABASE'S JOB:
// Checking "does this nickname exist?" before inserting would race with a
// concurrent registration. The UNIQUE constraints decide instead, and the
// violation is translated into apperror.DuplicateAccount.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.ID = xid.New().String()
	account.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?)`,
		account.ID,
		account.Nickname,
		account.Mail,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateAccount()
		}
		return fmt.Errorf("sqlite: creating account: %w", err)
	}

	return nil
}

// GetAccountByID returns apperror.ErrNotFound if no account has that ID.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", id, err)
	}
	return a, nil
}

// GetAccountByNickname is used by login. Nicknames compare exactly.
func (db *DB) GetAccountByNickname(ctx context.Context, nickname string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE nickname = ?`, nickname)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", nickname)
		}
		return nil, fmt.Errorf("sqlite: getting account by nickname: %w", err)
	}
	return a, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	if err := s.Scan(&a.ID, &a.Nickname, &a.Mail, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

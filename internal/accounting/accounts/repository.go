package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, name string, typ AccountType) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, type, is_system, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, mapAuthError(err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.System, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Create(ctx context.Context, name string, typ AccountType) (Account, error) {
	acc := Account{Name: name, Type: typ}
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (name, type, is_system) VALUES ($1, $2, FALSE)
RETURNING id, created_at`, name, typ).Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateAccount
		}
		return Account{}, err
	}
	return acc, nil
}

// mapAuthError turns role/privilege failures from postgres into the auth
// sentinels callers use to decide whether a failure is worth reporting.
func mapAuthError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501":
			return httpx.Wrap(httpx.ErrForbidden, err)
		case "28000", "28P01":
			return httpx.Wrap(httpx.ErrUnauthorized, err)
		}
	}
	return err
}

package vouchers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/db"
	internalShared "github.com/posledger/posledger/internal/shared"
)

// Repository persists vouchers. Insert returns
// internalShared.ErrIdempotencyConflict when idempotencyKey is already bound
// to a stored voucher.
type Repository interface {
	Insert(ctx context.Context, v journals.Voucher, idempotencyKey string) error
	List(ctx context.Context) ([]journals.Voucher, error)
	FindByIdempotencyKey(ctx context.Context, key string) (journals.Voucher, error)
}

// Pool is the subset of *pgxpool.Pool the repository uses.
type Pool interface {
	db.TxBeginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool Pool
}

// NewRepository returns the PostgreSQL voucher store.
func NewRepository(pool Pool) Repository {
	return &repository{pool: pool}
}

// voucherKeyConstraint is the default name PostgreSQL gives the UNIQUE
// constraint on vouchers.idempotency_key.
const voucherKeyConstraint = "vouchers_idempotency_key_key"

const voucherColumns = `id::text, voucher_date, type, amount::text, debit_account, credit_account, narration, created_by, created_at`

func (r *repository) Insert(ctx context.Context, v journals.Voucher, idempotencyKey string) error {
	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	// The key reservation and the voucher commit together, so a key is
	// never visible without its voucher.
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if key != nil {
			if err := internalShared.NewIdempotencyStore(tx).CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `INSERT INTO vouchers (id, voucher_date, type, amount, debit_account, credit_account, narration, created_by, idempotency_key, created_at)
VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10)`,
			v.ID.String(), v.Date, string(v.Type), v.Amount.String(), v.DebitAccount, v.CreditAccount, v.Narration, v.CreatedBy, key, v.CreatedAt)
		// vouchers.idempotency_key outlives the reservation row, which the
		// cleanup job expires.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == voucherKeyConstraint {
			return internalShared.ErrIdempotencyConflict
		}
		return err
	})
}

func (r *repository) List(ctx context.Context) ([]journals.Voucher, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY voucher_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []journals.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (journals.Voucher, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE idempotency_key = $1`, key)
	v, err := scanVoucher(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return journals.Voucher{}, shared.ErrVoucherNotFound
	}
	return v, err
}

func scanVoucher(row pgx.Row) (journals.Voucher, error) {
	var (
		v         journals.Voucher
		id, typ   string
		rawAmount string
	)
	if err := row.Scan(&id, &v.Date, &typ, &rawAmount, &v.DebitAccount, &v.CreditAccount, &v.Narration, &v.CreatedBy, &v.CreatedAt); err != nil {
		return journals.Voucher{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return journals.Voucher{}, fmt.Errorf("vouchers: bad id %q: %w", id, err)
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return journals.Voucher{}, fmt.Errorf("vouchers: bad amount %q: %w", rawAmount, err)
	}
	v.ID = parsed
	v.Type = journals.VoucherType(typ)
	v.Amount = amount
	return v, nil
}

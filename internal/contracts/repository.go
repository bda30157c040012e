package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contractColumns = `SELECT id, code, object, supplier, value, base_end_date, manual_status, created_at, updated_at FROM contracts`

// Get loads a contract by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Contract, error) {
	c, err := scanContract(r.pool.QueryRow(ctx, contractColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	return c, err
}

// Exists reports whether the contract exists.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM contracts WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// List returns contracts matching the free-text search, ordered by code.
func (r *Repository) List(ctx context.Context, search string) ([]Contract, error) {
	query := contractColumns
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE code ILIKE $1 OR object ILIKE $1 OR supplier ILIKE $1`
		args = append(args, "%"+s+"%")
	}
	query += ` ORDER BY code, id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a contract.
func (r *Repository) Create(ctx context.Context, c Contract) (Contract, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO contracts (code, object, supplier, value, base_end_date, manual_status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`,
		c.Code, c.Object, c.Supplier, c.Value, c.BaseEndDate.Time(), string(c.ManualStatus),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contract{}, translate(err)
	}
	return c, nil
}

// Update rewrites the editable fields of a contract.
func (r *Repository) Update(ctx context.Context, c Contract) (Contract, error) {
	err := r.pool.QueryRow(ctx, `UPDATE contracts SET code = $2, object = $3, supplier = $4, value = $5,
	base_end_date = $6, manual_status = $7, updated_at = NOW()
WHERE id = $1
RETURNING created_at, updated_at`,
		c.ID, c.Code, c.Object, c.Supplier, c.Value, c.BaseEndDate.Time(), string(c.ManualStatus),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	if err != nil {
		return Contract{}, translate(err)
	}
	return c, nil
}

// Delete removes a contract together with its amendments.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM amendments WHERE contract_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (Contract, error) {
	var (
		c      Contract
		end    time.Time
		manual string
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Object, &c.Supplier, &c.Value, &end, &manual, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Contract{}, err
	}
	c.BaseEndDate = calendar.FromTime(end)
	c.ManualStatus = ManualStatus(manual)
	return c, nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return fmt.Errorf("contracts: %w", err)
}

package amendments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `SELECT id, contract_id, number, type, duration, duration_unit, description,
	entry_date, checklist, note, pgm_history, version, created_at, updated_at
FROM amendments`

// Get loads an amendment by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Amendment, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	a, err := scanAmendment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Amendment{}, ErrNotFound
		}
		return Amendment{}, err
	}
	return a, nil
}

// ListByContract returns the amendments of a contract in creation order.
func (r *Repository) ListByContract(ctx context.Context, contractID int64) ([]Amendment, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` WHERE contract_id = $1 ORDER BY id`, contractID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByContracts returns amendments for every listed contract.
func (r *Repository) ListByContracts(ctx context.Context, contractIDs []int64) ([]Amendment, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, selectColumns+` WHERE contract_id = ANY($1) ORDER BY contract_id, id`, contractIDs)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Create inserts a new amendment and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, a Amendment) (Amendment, error) {
	checklist, history, err := encodeDocuments(a)
	if err != nil {
		return Amendment{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO amendments
	(contract_id, number, type, duration, duration_unit, description, entry_date, checklist, status, note, pgm_history, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
RETURNING id, version, created_at, updated_at`,
		a.ContractID, a.Number, string(a.Type), a.Duration, string(a.DurationUnit), a.Description,
		a.EntryDate, checklist, string(a.Status), a.Note, history,
	).Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Amendment{}, fmt.Errorf("amendments: create: %w", err)
	}
	return a, nil
}

// Update writes a only when the stored version still equals expectedVersion.
func (r *Repository) Update(ctx context.Context, a Amendment, expectedVersion int64) (Amendment, error) {
	checklist, history, err := encodeDocuments(a)
	if err != nil {
		return Amendment{}, err
	}
	err = r.pool.QueryRow(ctx, `UPDATE amendments SET
	number = $3, duration = $4, duration_unit = $5, description = $6, entry_date = $7,
	checklist = $8, status = $9, note = $10, pgm_history = $11,
	version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING version, updated_at`,
		a.ID, expectedVersion, a.Number, a.Duration, string(a.DurationUnit), a.Description, a.EntryDate,
		checklist, string(a.Status), a.Note, history,
	).Scan(&a.Version, &a.UpdatedAt)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Amendment{}, fmt.Errorf("amendments: update: %w", err)
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM amendments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return Amendment{}, err
	}
	if !exists {
		return Amendment{}, ErrNotFound
	}
	return Amendment{}, ErrVersionConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAmendment(row rowScanner) (Amendment, error) {
	var (
		a         Amendment
		typ, unit string
		checklist []byte
		history   []byte
	)
	if err := row.Scan(&a.ID, &a.ContractID, &a.Number, &typ, &a.Duration, &unit, &a.Description,
		&a.EntryDate, &checklist, &a.Note, &history, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Amendment{}, err
	}
	a.Type = Type(typ)
	a.DurationUnit = calendar.Unit(unit)
	c, err := NormalizeChecklist(checklist)
	if err != nil {
		return Amendment{}, fmt.Errorf("amendment %d: %w", a.ID, err)
	}
	a.Checklist = c
	if len(history) > 0 {
		if err := json.Unmarshal(history, &a.PGMHistory); err != nil {
			return Amendment{}, fmt.Errorf("amendment %d: decode history: %w", a.ID, err)
		}
	}
	// The stored status column is only a cache of the checklist.
	a.recompute()
	return a, nil
}

func collect(rows pgx.Rows) ([]Amendment, error) {
	defer rows.Close()
	var items []Amendment
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func encodeDocuments(a Amendment) ([]byte, []byte, error) {
	checklist, err := json.Marshal(a.Checklist)
	if err != nil {
		return nil, nil, err
	}
	history := a.PGMHistory
	if history == nil {
		history = []HistoryEntry{}
	}
	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, nil, err
	}
	return checklist, encoded, nil
}

package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs, so pgxmock
// can stand in during tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patient documents as jsonb rows.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("patients: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new document row.
func (r *PostgresRepository) Create(ctx context.Context, doc *Patient) (*Patient, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	stored := clonePatient(doc)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("patients: marshal document: %w", err)
	}
	query := `
		INSERT INTO patients (id, doc)
		VALUES ($1, $2)
	`
	if _, err := r.db.Exec(ctx, query, stored.ID, raw); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}
	return stored, nil
}

// Get fetches a document and its version stamp.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Patient, int64, error) {
	query := `
		SELECT doc, version
		FROM patients
		WHERE id = $1
	`
	var raw []byte
	var version int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&raw, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("patients: select failed: %w", err)
	}
	var doc Patient
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("patients: unmarshal document: %w", err)
	}
	return &doc, version, nil
}

// List returns every document in creation order.
func (r *PostgresRepository) List(ctx context.Context) ([]*Patient, error) {
	query := `
		SELECT doc
		FROM patients
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("patients: scan row: %w", err)
		}
		var doc Patient
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("patients: unmarshal document: %w", err)
		}
		out = append(out, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: iterate rows: %w", err)
	}
	return out, nil
}

// FindByUsername locates the document whose login username matches.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Patient, error) {
	query := `
		SELECT doc
		FROM patients
		WHERE doc->>'username' = $1
	`
	var raw []byte
	if err := r.db.QueryRow(ctx, query, username).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select by username failed: %w", err)
	}
	var doc Patient
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("patients: unmarshal document: %w", err)
	}
	return &doc, nil
}

// Replace swaps in the full document, bumping the version stamp. A non-zero
// expectedVersion that no longer matches yields ErrVersionConflict.
func (r *PostgresRepository) Replace(ctx context.Context, doc *Patient, expectedVersion int64) (int64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("patients: marshal document: %w", err)
	}
	query := `
		UPDATE patients
		SET doc = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND ($3 = 0 OR version = $3)
		RETURNING version
	`
	var version int64
	if err := r.db.QueryRow(ctx, query, doc.ID, raw, expectedVersion).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, _, getErr := r.Get(ctx, doc.ID); getErr != nil {
				return 0, getErr
			}
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("patients: replace failed: %w", err)
	}
	return version, nil
}

// Delete removes the document row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package doctors

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

// PostgresRepository stores doctor documents as jsonb rows.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("doctors: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new document row.
func (r *PostgresRepository) Create(ctx context.Context, doc *Doctor) (*Doctor, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	stored := cloneDoctor(doc)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("doctors: marshal document: %w", err)
	}
	query := `
		INSERT INTO doctors (id, doc)
		VALUES ($1, $2)
	`
	if _, err := r.db.Exec(ctx, query, stored.ID, raw); err != nil {
		return nil, fmt.Errorf("doctors: insert failed: %w", err)
	}
	return stored, nil
}

// Get fetches a document and its version stamp.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Doctor, int64, error) {
	query := `
		SELECT doc, version
		FROM doctors
		WHERE id = $1
	`
	var raw []byte
	var version int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&raw, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("doctors: select failed: %w", err)
	}
	var doc Doctor
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("doctors: unmarshal document: %w", err)
	}
	return &doc, version, nil
}

// List returns matching documents in creation order.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Doctor, error) {
	query := `
		SELECT doc
		FROM doctors
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("doctors: scan row: %w", err)
		}
		var doc Doctor
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("doctors: unmarshal document: %w", err)
		}
		if filter.Specialization != "" && doc.Specialization != filter.Specialization {
			continue
		}
		if filter.AvailableOnly && !doc.IsAvailableStatus {
			continue
		}
		out = append(out, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: iterate rows: %w", err)
	}
	return out, nil
}

// FindByUsername locates the document whose login username matches.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Doctor, error) {
	query := `
		SELECT doc
		FROM doctors
		WHERE doc->>'username' = $1
	`
	var raw []byte
	if err := r.db.QueryRow(ctx, query, username).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: select by username failed: %w", err)
	}
	var doc Doctor
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("doctors: unmarshal document: %w", err)
	}
	return &doc, nil
}

// Replace swaps in the full document, bumping the version stamp. A non-zero
// expectedVersion that no longer matches yields ErrVersionConflict.
func (r *PostgresRepository) Replace(ctx context.Context, doc *Doctor, expectedVersion int64) (int64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("doctors: marshal document: %w", err)
	}
	query := `
		UPDATE doctors
		SET doc = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND ($3 = 0 OR version = $3)
		RETURNING version
	`
	var version int64
	if err := r.db.QueryRow(ctx, query, doc.ID, raw, expectedVersion).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing row and stale version both hit zero rows; look the
			// document up once to tell them apart.
			if _, _, getErr := r.Get(ctx, doc.ID); getErr != nil {
				return 0, getErr
			}
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("doctors: replace failed: %w", err)
	}
	return version, nil
}

// Delete removes the document row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("doctors: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

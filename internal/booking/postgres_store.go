package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/patients"
)

// TxBeginner abstracts pgxpool.Pool so pgxmock can stand in for tests.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresTransitionStore applies transitions inside a single transaction,
// locking the doctor row first and the patient row second. The fixed lock
// order prevents deadlocks between concurrent transitions on the same pair.
type PostgresTransitionStore struct {
	pool TxBeginner
}

func NewPostgresTransitionStore(pool TxBeginner) *PostgresTransitionStore {
	return &PostgresTransitionStore{pool: pool}
}

func (s *PostgresTransitionStore) Transition(ctx context.Context, doctorID, patientID string, fn func(*doctors.Doctor, *patients.Patient) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	doc := &doctors.Doctor{}
	if err := lockDocument(ctx, tx, "doctors", doctorID, doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doctors.ErrNotFound
		}
		return fmt.Errorf("lock doctor: %w", err)
	}

	pat := &patients.Patient{}
	if err := lockDocument(ctx, tx, "patients", patientID, pat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return patients.ErrNotFound
		}
		return fmt.Errorf("lock patient: %w", err)
	}

	if err := fn(doc, pat); err != nil {
		return err
	}

	if err := storeDocument(ctx, tx, "doctors", doctorID, doc); err != nil {
		return fmt.Errorf("store doctor: %w", err)
	}
	if err := storeDocument(ctx, tx, "patients", patientID, pat); err != nil {
		return fmt.Errorf("store patient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func lockDocument(ctx context.Context, tx pgx.Tx, table, id string, out any) error {
	var raw []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1 FOR UPDATE", table)
	if err := tx.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func storeDocument(ctx context.Context, tx pgx.Tx, table, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET doc = $2, version = version + 1, updated_at = now() WHERE id = $1", table)
	tag, err := tx.Exec(ctx, query, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s/%s disappeared during transition", table, id)
	}
	return nil
}

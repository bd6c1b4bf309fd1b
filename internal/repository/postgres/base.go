package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m, now: time.Now}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// observe records the call and maps sql.ErrNoRows to repository.ErrNotFound.
func (r *BaseRepository) observe(op string, start time.Time, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		r.metrics.ObserveStore(op, start, nil)
		return repository.ErrNotFound
	}
	r.metrics.ObserveStore(op, start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	r := NewBaseRepository(db, nil)
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying schema: %w", err)
			}
		}
		return nil
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		doctor_id            TEXT NOT NULL REFERENCES doctors(id),
		patient_id           TEXT NOT NULL,
		nic                  TEXT,
		name                 TEXT NOT NULL,
		birthday             TEXT,
		phone_number         TEXT,
		age                  INTEGER,
		gender               TEXT NOT NULL DEFAULT '',
		past_medical_history TEXT NOT NULL DEFAULT '',
		family_history       TEXT NOT NULL DEFAULT '',
		allergies            TEXT NOT NULL DEFAULT '',
		drug_history         JSONB NOT NULL DEFAULT '[]',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (doctor_id, patient_id)
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id                      TEXT PRIMARY KEY,
		patient_id              TEXT NOT NULL,
		doctor_id               TEXT NOT NULL REFERENCES doctors(id),
		date                    TIMESTAMPTZ NOT NULL,
		notes                   TEXT NOT NULL DEFAULT '',
		presenting_complaint    TEXT NOT NULL DEFAULT '',
		examination_findings    TEXT NOT NULL DEFAULT '',
		investigations          JSONB NOT NULL DEFAULT '[]',
		blood_pressure_readings JSONB NOT NULL DEFAULT '[]',
		investigations_to_do    JSONB NOT NULL DEFAULT '[]',
		prescriptions           JSONB NOT NULL DEFAULT '[]',
		referral_letter         JSONB,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS visits_patient_id_idx ON visits (patient_id)`,
	`CREATE TABLE IF NOT EXISTS doctor_items (
		doctor_id  TEXT NOT NULL REFERENCES doctors(id),
		item_type  TEXT NOT NULL,
		items      JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (doctor_id, item_type)
	)`,
}

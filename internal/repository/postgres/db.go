package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/visit-logger/internal/config"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSet exposes the relational store through the repository interfaces.
func NewSet(db *sqlx.DB, m *metrics.Metrics) *repository.Set {
	base := NewBaseRepository(db, m)
	return &repository.Set{
		Doctors:  &doctorRepository{base},
		Patients: &patientRepository{base},
		Visits:   &visitRepository{base},
		Catalog:  &catalogRepository{base},
		Close:    db.Close,
	}
}

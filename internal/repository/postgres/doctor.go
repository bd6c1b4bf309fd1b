package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
)

type doctorRepository struct {
	BaseRepository
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	start := time.Now()
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor,
		`SELECT id, username, name, password_hash FROM doctors WHERE id = $1`, id)
	if err := r.observe("doctors.get", start, err); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUsername(ctx context.Context, username string) (*model.Doctor, error) {
	start := time.Now()
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor,
		`SELECT id, username, name, password_hash FROM doctors WHERE username = $1`, username)
	if err := r.observe("doctors.get_username", start, err); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) Put(ctx context.Context, doctor *model.Doctor) error {
	start := time.Now()
	query := `
		INSERT INTO doctors (id, username, name, password_hash)
		VALUES (:id, :username, :name, :password_hash)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash`
	_, err := r.db.NamedExecContext(ctx, query, doctor)
	return r.observe("doctors.put", start, err)
}

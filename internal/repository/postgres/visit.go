package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

const visitColumns = `id, patient_id, doctor_id, date, notes, presenting_complaint, examination_findings,
	investigations, blood_pressure_readings, investigations_to_do, prescriptions, referral_letter,
	created_at, updated_at`

type visitRepository struct {
	BaseRepository
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	start := time.Now()
	query := `
		INSERT INTO visits (` + visitColumns + `)
		VALUES (:id, :patient_id, :doctor_id, :date, :notes, :presenting_complaint, :examination_findings,
			:investigations, :blood_pressure_readings, :investigations_to_do, :prescriptions, :referral_letter,
			:created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, visit)
	return r.observe("visits.create", start, err)
}

func (r *visitRepository) Get(ctx context.Context, visitID string) (*model.Visit, error) {
	start := time.Now()
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, visitID)
	if err := r.observe("visits.get", start, err); err != nil {
		return nil, err
	}
	return &visit, nil
}

// Replace overwrites the clinical fields of an existing visit.
func (r *visitRepository) Replace(ctx context.Context, visit *model.Visit) error {
	start := time.Now()
	query := `
		UPDATE visits
		SET notes = :notes,
			presenting_complaint = :presenting_complaint,
			examination_findings = :examination_findings,
			investigations = :investigations,
			blood_pressure_readings = :blood_pressure_readings,
			investigations_to_do = :investigations_to_do,
			prescriptions = :prescriptions,
			referral_letter = :referral_letter,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, visit)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			r.metrics.ObserveStore("visits.replace", start, nil)
			return repository.ErrNotFound
		}
	}
	return r.observe("visits.replace", start, err)
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error) {
	start := time.Now()
	var visits []*model.Visit
	err := r.db.SelectContext(ctx, &visits,
		`SELECT `+visitColumns+` FROM visits WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err := r.observe("visits.list_patient", start, err); err != nil {
		return nil, err
	}
	return visits, nil
}

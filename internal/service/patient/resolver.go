package patient

import (
	"context"
	"errors"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

// Resolver decides whether a request refers to an existing patient. It never
// matches on identifying fields; callers search first and pass the chosen id.
type Resolver struct {
	patients repository.PatientRepository
}

func NewResolver(patients repository.PatientRepository) *Resolver {
	return &Resolver{patients: patients}
}

// Resolve returns nil, nil when patientID is empty, meaning a new patient
// should be created.
func (r *Resolver) Resolve(ctx context.Context, doctorID, patientID string) (*model.Patient, error) {
	if patientID == "" {
		return nil, nil
	}
	p, err := r.patients.Get(ctx, doctorID, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Patient not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

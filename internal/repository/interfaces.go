package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/visit-logger/internal/model"
)

// ErrNotFound is returned when a keyed lookup has no record.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// DoctorRepository handles doctor accounts
	DoctorRepository interface {
		Get(ctx context.Context, id string) (*model.Doctor, error)
		GetByUsername(ctx context.Context, username string) (*model.Doctor, error)
		Put(ctx context.Context, doctor *model.Doctor) error
	}

	// PatientRepository stores patients keyed by (doctor, patient)
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, doctorID, patientID string) (*model.Patient, error)
		// Update applies patch to an existing patient and returns the stored result.
		Update(ctx context.Context, doctorID, patientID string, patch model.PatientPatch) (*model.Patient, error)
		// ListByDoctor returns every patient the doctor owns, in store order.
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.Patient, error)
	}

	// VisitRepository stores visits
	VisitRepository interface {
		Create(ctx context.Context, visit *model.Visit) error
		// Get looks a visit up by id alone; callers check ownership.
		Get(ctx context.Context, visitID string) (*model.Visit, error)
		Replace(ctx context.Context, visit *model.Visit) error
		ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error)
	}

	// CatalogRepository stores each doctor's medicine and investigation lists
	// as one record per list. Writes replace the whole list.
	CatalogRepository interface {
		GetMedicines(ctx context.Context, doctorID string) (model.Medicines, error)
		PutMedicines(ctx context.Context, doctorID string, medicines model.Medicines) error
		GetInvestigations(ctx context.Context, doctorID string) (model.Investigations, error)
		PutInvestigations(ctx context.Context, doctorID string, investigations model.Investigations) error
	}
)

// Set bundles one backend's repositories.
type Set struct {
	Doctors  DoctorRepository
	Patients PatientRepository
	Visits   VisitRepository
	Catalog  CatalogRepository
	// Close releases the backend's connections. May be nil.
	Close func() error
}

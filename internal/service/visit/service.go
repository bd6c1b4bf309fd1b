package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/internal/service/event"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

// PatientSaver applies patient fields ahead of a visit.
type PatientSaver interface {
	Save(ctx context.Context, doctorID, patientID string, fields model.PatientFields) (*model.Patient, error)
	UpdateInfo(ctx context.Context, doctorID, patientID string, fields model.PatientFields) (*model.Patient, error)
}

type MedicineIndexer interface {
	Index(ctx context.Context, doctorID string) (model.MedicineIndex, error)
}

type Service struct {
	visits   repository.VisitRepository
	patients PatientSaver
	catalog  MedicineIndexer
	events   event.Publisher
	now      func() time.Time
}

func NewService(
	visits repository.VisitRepository,
	patients PatientSaver,
	catalog MedicineIndexer,
	events event.Publisher,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = event.NewService(nil, "", nil)
	}
	return &Service{
		visits:   visits,
		patients: patients,
		catalog:  catalog,
		events:   events,
		now:      now,
	}
}

// normalizePrescriptions checks every entry names a medicine and fills in the
// default duration unit.
func normalizePrescriptions(in []model.PrescriptionInput) (model.Prescriptions, error) {
	out := make(model.Prescriptions, 0, len(in))
	for _, p := range in {
		if strings.TrimSpace(p.MedicineID) == "" {
			return nil, apperrors.BadRequest("Each prescription must have medicineId", nil)
		}
		unit, ok := model.ParseDurationUnit(p.DurationUnit)
		if !ok {
			return nil, apperrors.BadRequest(fmt.Sprintf("Invalid durationUnit %q", p.DurationUnit), nil)
		}
		out = append(out, model.Prescription{
			MedicineID:   p.MedicineID,
			Brand:        p.Brand,
			Dosage:       p.Dosage,
			Duration:     p.Duration,
			DurationUnit: unit,
		})
	}
	return out, nil
}

// applyClinical replaces every clinical field of v with the request's.
func applyClinical(v *model.Visit, c *model.VisitClinical, prescriptions model.Prescriptions) {
	v.Notes = c.Notes
	v.PresentingComplaint = c.PresentingComplaint
	v.ExaminationFindings = c.ExaminationFindings
	v.Investigations = c.Investigations
	if v.Investigations == nil {
		v.Investigations = model.InvestigationResults{}
	}
	v.BloodPressureReadings = c.BloodPressureReadings
	if v.BloodPressureReadings == nil {
		v.BloodPressureReadings = model.BloodPressureReadings{}
	}
	v.InvestigationsToDo = c.InvestigationsToDo
	if v.InvestigationsToDo == nil {
		v.InvestigationsToDo = model.StringList{}
	}
	v.Prescriptions = prescriptions
	v.ReferralLetter = c.ReferralLetter()
}

// Create records a visit. An empty prescription list saves patient details
// only and returns a result without a visit.
func (s *Service) Create(ctx context.Context, doctorID string, req *model.CreateVisitRequest) (*model.CreateVisitResult, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Prescriptions == nil {
		return nil, apperrors.BadRequest("name and prescriptions (array) are required", nil)
	}

	if len(req.Prescriptions) == 0 {
		p, err := s.patients.UpdateInfo(ctx, doctorID, req.PatientID, req.PatientFields)
		if err != nil {
			return nil, err
		}
		return &model.CreateVisitResult{Patient: p.View(s.now())}, nil
	}

	prescriptions, err := normalizePrescriptions(req.Prescriptions)
	if err != nil {
		return nil, err
	}

	// The patient write and the visit write are independent; a failure
	// between them leaves the patient updated without a visit.
	p, err := s.patients.Save(ctx, doctorID, req.PatientID, req.PatientFields)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := &model.Visit{
		ID:        uuid.NewString(),
		PatientID: p.PatientID,
		DoctorID:  doctorID,
		Date:      now,
		CreatedAt: now,
	}
	applyClinical(v, &req.VisitClinical, prescriptions)

	if err := s.visits.Create(ctx, v); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.events.Publish(ctx, event.VisitCreated, doctorID, v.ID)

	// The visit is stored; a catalog failure only costs the prescription join.
	catalog, err := s.catalog.Index(ctx, doctorID)
	if err != nil {
		log.Warn().Err(err).Str("visit_id", v.ID).Msg("failed to load medicine catalog for new visit")
		catalog = model.MedicineIndex{}
	}
	view := v.View(catalog)
	return &model.CreateVisitResult{Patient: p.View(now), Visit: &view}, nil
}

// Get returns a visit the doctor owns.
func (s *Service) Get(ctx context.Context, doctorID, visitID string) (*model.Visit, error) {
	if visitID == "" {
		return nil, apperrors.BadRequest("Visit ID is required", nil)
	}
	v, err := s.visits.Get(ctx, visitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Visit not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if v.DoctorID != doctorID {
		return nil, apperrors.Forbidden("Unauthorized to access this visit")
	}
	return v, nil
}

// Update fully replaces the clinical fields of a visit the doctor owns.
func (s *Service) Update(ctx context.Context, doctorID, visitID string, req *model.UpdateVisitRequest) (*model.UpdateVisitResponse, error) {
	if visitID == "" {
		return nil, apperrors.BadRequest("Visit ID is required", nil)
	}
	v, err := s.visits.Get(ctx, visitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Visit not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if v.DoctorID != doctorID {
		return nil, apperrors.Forbidden("Unauthorized to update this visit")
	}

	if req.Prescriptions == nil {
		return nil, apperrors.BadRequest("prescriptions (array) is required", nil)
	}
	prescriptions, err := normalizePrescriptions(req.Prescriptions)
	if err != nil {
		return nil, err
	}

	applyClinical(v, &req.VisitClinical, prescriptions)
	updatedAt := s.now().UTC()
	v.UpdatedAt = &updatedAt

	if err := s.visits.Replace(ctx, v); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Visit not found", err)
		}
		return nil, apperrors.Internal(err)
	}
	s.events.Publish(ctx, event.VisitUpdated, doctorID, v.ID)

	return &model.UpdateVisitResponse{
		Message: "Visit updated successfully",
		Visit:   model.VisitAck{ID: v.ID, Date: v.Date},
	}, nil
}

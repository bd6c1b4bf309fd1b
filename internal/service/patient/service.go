package patient

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/internal/service/event"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

// MedicineIndexer resolves a doctor's medicine catalog for prescription joins.
type MedicineIndexer interface {
	Index(ctx context.Context, doctorID string) (model.MedicineIndex, error)
}

type Service struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	catalog  MedicineIndexer
	resolver *Resolver
	events   event.Publisher
	now      func() time.Time
}

// NewService wires the patient operations. A nil clock means time.Now.
func NewService(
	patients repository.PatientRepository,
	visits repository.VisitRepository,
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
		patients: patients,
		visits:   visits,
		catalog:  catalog,
		resolver: NewResolver(patients),
		events:   events,
		now:      now,
	}
}

// Save resolves patientID and merges fields into that patient, or creates a
// new patient when patientID is empty.
func (s *Service) Save(ctx context.Context, doctorID, patientID string, fields model.PatientFields) (*model.Patient, error) {
	existing, err := s.resolver.Resolve(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.create(ctx, doctorID, fields)
	}
	return s.merge(ctx, existing, fields)
}

// UpdateInfo merges fields into an existing patient without recording a visit.
func (s *Service) UpdateInfo(ctx context.Context, doctorID, patientID string, fields model.PatientFields) (*model.Patient, error) {
	if patientID == "" {
		return nil, apperrors.NotFound("Patient not found", nil)
	}
	return s.Save(ctx, doctorID, patientID, fields)
}

func (s *Service) create(ctx context.Context, doctorID string, fields model.PatientFields) (*model.Patient, error) {
	p := NewPatient(doctorID, uuid.NewString(), fields, s.now())
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.events.Publish(ctx, event.PatientCreated, doctorID, p.PatientID)
	return p, nil
}

func (s *Service) merge(ctx context.Context, existing *model.Patient, fields model.PatientFields) (*model.Patient, error) {
	patch := Diff(existing, fields, s.now())
	if patch.IsEmpty() {
		return existing, nil
	}

	updated, err := s.patients.Update(ctx, existing.DoctorID, existing.PatientID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Patient not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.events.Publish(ctx, event.PatientUpdated, existing.DoctorID, existing.PatientID)
	return updated, nil
}

// Search scans the doctor's patients, filters them and collapses duplicates.
func (s *Service) Search(ctx context.Context, doctorID string, criteria model.SearchCriteria) (*model.SearchResponse, error) {
	criteria = model.SearchCriteria{
		Name:        strings.TrimSpace(criteria.Name),
		NIC:         strings.TrimSpace(criteria.NIC),
		PhoneNumber: strings.TrimSpace(criteria.PhoneNumber),
		Birthday:    strings.TrimSpace(criteria.Birthday),
	}
	if criteria.IsEmpty() {
		return nil, apperrors.BadRequest("At least one search criteria (name, nic, phoneNumber, or birthday) is required", nil)
	}

	all, err := s.patients.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	matches := Deduplicate(Filter(all, criteria))
	resp := &model.SearchResponse{Patients: make([]model.PatientSummary, 0, len(matches))}
	for _, p := range matches {
		resp.Patients = append(resp.Patients, p.Summary(now))
	}
	return resp, nil
}

func (s *Service) get(ctx context.Context, doctorID, patientID string) (*model.Patient, error) {
	p, err := s.patients.Get(ctx, doctorID, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Patient not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

// Get returns the patient with this doctor's visits, newest first.
func (s *Service) Get(ctx context.Context, doctorID, patientID string) (*model.PatientDetail, error) {
	p, err := s.get(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListByPatient(ctx, p.PatientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	catalog, err := s.catalog.Index(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	owned := visits[:0]
	for _, v := range visits {
		if v.DoctorID == doctorID {
			owned = append(owned, v)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Date.After(owned[j].Date)
	})

	detail := &model.PatientDetail{
		PatientView: p.View(s.now()),
		Visits:      make([]model.VisitView, 0, len(owned)),
	}
	for _, v := range owned {
		detail.Visits = append(detail.Visits, v.View(catalog))
	}
	return detail, nil
}

func (s *Service) DrugHistory(ctx context.Context, doctorID, patientID string) (*model.DrugHistoryResponse, error) {
	p, err := s.get(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	drugs := p.DrugHistory
	if drugs == nil {
		drugs = model.DrugHistory{}
	}
	return &model.DrugHistoryResponse{Drugs: drugs}, nil
}

// ReplaceDrugHistory overwrites the whole list.
func (s *Service) ReplaceDrugHistory(ctx context.Context, doctorID, patientID string, drugs []model.DrugHistoryEntry) (*model.DrugHistoryResponse, error) {
	if drugs == nil {
		return nil, apperrors.BadRequest("drugs must be an array", nil)
	}
	for _, d := range drugs {
		if strings.TrimSpace(d.MedicineID) == "" || strings.TrimSpace(d.MedicineName) == "" {
			return nil, apperrors.BadRequest("Each drug must have medicine_id and medicine_name", nil)
		}
	}

	patch := model.PatientPatch{DrugHistory: model.Some(model.DrugHistory(drugs))}
	_, err := s.patients.Update(ctx, doctorID, patientID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Patient not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.events.Publish(ctx, event.DrugHistoryUpdated, doctorID, patientID)
	return &model.DrugHistoryResponse{Drugs: drugs}, nil
}

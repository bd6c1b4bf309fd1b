package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

type patientKey struct {
	doctorID  string
	patientID string
}

// Store keeps every record in process memory. It backs tests and local
// development only. Values are copied on the way in and out.
type Store struct {
	mu             sync.RWMutex
	doctors        map[string]*model.Doctor
	patients       map[patientKey]*model.Patient
	patientOrder   []patientKey
	visits         map[string]*model.Visit
	visitOrder     []string
	medicines      map[string]model.Medicines
	investigations map[string]model.Investigations
	now            func() time.Time
}

func NewStore() *Store {
	return &Store{
		doctors:        make(map[string]*model.Doctor),
		patients:       make(map[patientKey]*model.Patient),
		visits:         make(map[string]*model.Visit),
		medicines:      make(map[string]model.Medicines),
		investigations: make(map[string]model.Investigations),
		now:            time.Now,
	}
}

// Set exposes the store through the repository interfaces.
func (s *Store) Set() *repository.Set {
	return &repository.Set{
		Doctors:  doctorRepository{s},
		Patients: patientRepository{s},
		Visits:   visitRepository{s},
		Catalog:  catalogRepository{s},
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copySlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(make(S, 0, len(s)), s...)
}

func copyPatient(p *model.Patient) *model.Patient {
	cp := *p
	cp.NIC = copyPtr(p.NIC)
	cp.Birthday = copyPtr(p.Birthday)
	cp.PhoneNumber = copyPtr(p.PhoneNumber)
	cp.Age = copyPtr(p.Age)
	cp.DrugHistory = copySlice(p.DrugHistory)
	return &cp
}

func copyVisit(v *model.Visit) *model.Visit {
	cp := *v
	cp.Investigations = copySlice(v.Investigations)
	cp.InvestigationsToDo = copySlice(v.InvestigationsToDo)
	cp.Prescriptions = copySlice(v.Prescriptions)
	cp.BloodPressureReadings = copySlice(v.BloodPressureReadings)
	for i := range cp.BloodPressureReadings {
		cp.BloodPressureReadings[i].Pulse = copyPtr(cp.BloodPressureReadings[i].Pulse)
	}
	cp.ReferralLetter = copyPtr(v.ReferralLetter)
	cp.UpdatedAt = copyPtr(v.UpdatedAt)
	return &cp
}

func copyMedicines(list model.Medicines) model.Medicines {
	out := make(model.Medicines, len(list))
	for i, m := range list {
		m.Brands = copySlice(m.Brands)
		out[i] = m
	}
	return out
}

type doctorRepository struct{ s *Store }

func (r doctorRepository) Get(_ context.Context, id string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r doctorRepository) GetByUsername(_ context.Context, username string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.Username == username {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r doctorRepository) Put(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *doctor
	r.s.doctors[doctor.ID] = &cp
	return nil
}

type patientRepository struct{ s *Store }

func (r patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := patientKey{patient.DoctorID, patient.PatientID}
	if _, exists := r.s.patients[key]; !exists {
		r.s.patientOrder = append(r.s.patientOrder, key)
	}
	r.s.patients[key] = copyPatient(patient)
	return nil
}

func (r patientRepository) Get(_ context.Context, doctorID, patientID string) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[patientKey{doctorID, patientID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPatient(p), nil
}

func (r patientRepository) Update(_ context.Context, doctorID, patientID string, patch model.PatientPatch) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.patients[patientKey{doctorID, patientID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	updated := copyPatient(p)
	patch.Apply(updated)
	updated.UpdatedAt = r.s.now()
	r.s.patients[patientKey{doctorID, patientID}] = updated
	return copyPatient(updated), nil
}

func (r patientRepository) ListByDoctor(_ context.Context, doctorID string) ([]*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Patient
	for _, key := range r.s.patientOrder {
		if key.doctorID == doctorID {
			out = append(out, copyPatient(r.s.patients[key]))
		}
	}
	return out, nil
}

type visitRepository struct{ s *Store }

func (r visitRepository) Create(_ context.Context, visit *model.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.visits[visit.ID]; !exists {
		r.s.visitOrder = append(r.s.visitOrder, visit.ID)
	}
	r.s.visits[visit.ID] = copyVisit(visit)
	return nil
}

func (r visitRepository) Get(_ context.Context, visitID string) (*model.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.visits[visitID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyVisit(v), nil
}

func (r visitRepository) Replace(_ context.Context, visit *model.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.visits[visit.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.visits[visit.ID] = copyVisit(visit)
	return nil
}

func (r visitRepository) ListByPatient(_ context.Context, patientID string) ([]*model.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Visit
	for _, id := range r.s.visitOrder {
		if v := r.s.visits[id]; v.PatientID == patientID {
			out = append(out, copyVisit(v))
		}
	}
	return out, nil
}

type catalogRepository struct{ s *Store }

func (r catalogRepository) GetMedicines(_ context.Context, doctorID string) (model.Medicines, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list, ok := r.s.medicines[doctorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyMedicines(list), nil
}

func (r catalogRepository) PutMedicines(_ context.Context, doctorID string, medicines model.Medicines) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.medicines[doctorID] = copyMedicines(medicines)
	return nil
}

func (r catalogRepository) GetInvestigations(_ context.Context, doctorID string) (model.Investigations, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list, ok := r.s.investigations[doctorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copySlice(list), nil
}

func (r catalogRepository) PutInvestigations(_ context.Context, doctorID string, investigations model.Investigations) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.investigations[doctorID] = copySlice(investigations)
	return nil
}

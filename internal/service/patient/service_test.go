package patient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/internal/repository/memory"
	"github.com/jwalitptl/visit-logger/internal/service/catalog"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

type recordedEvent struct {
	eventType, doctorID, entityID string
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) Publish(_ context.Context, eventType, doctorID, entityID string) {
	r.events = append(r.events, recordedEvent{eventType, doctorID, entityID})
}

type fixture struct {
	repos  *repository.Set
	svc    *Service
	events *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewStore().Set()
	events := &eventRecorder{}
	svc := NewService(repos.Patients, repos.Visits, catalog.NewService(repos.Catalog), events,
		func() time.Time { return today })
	return &fixture{repos: repos, svc: svc, events: events}
}

func TestSaveCreatesPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{
		Name:     model.StringPtr("Jane"),
		Birthday: model.StringPtr("2000-06-15"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.PatientID)
	assert.Equal(t, 24, *p.Age)

	stored, err := f.repos.Patients.Get(ctx, "doc-1", p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.Name)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "patient.created", f.events.events[0].eventType)
}

func TestSaveUnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Save(context.Background(), "doc-1", "missing", model.PatientFields{Name: model.StringPtr("Jane")})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSaveIsScopedToDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{Name: model.StringPtr("Jane")})
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, "doc-2", p.PatientID, model.PatientFields{Name: model.StringPtr("Mallory")})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSaveMergesAndKeepsNIC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{
		Name:      model.StringPtr("Jane"),
		NIC:       model.StringPtr("901234567V"),
		Allergies: model.StringPtr("dust"),
	})
	require.NoError(t, err)

	updated, err := f.svc.Save(ctx, "doc-1", p.PatientID, model.PatientFields{
		NIC:    model.StringPtr("000000000V"),
		Gender: model.StringPtr("F"),
	})
	require.NoError(t, err)
	assert.Equal(t, "901234567V", *updated.NIC)
	assert.Equal(t, "F", updated.Gender)
	assert.Equal(t, "dust", updated.Allergies)
	assert.Equal(t, "Jane", updated.Name)
	assert.Equal(t, "patient.updated", f.events.events[len(f.events.events)-1].eventType)
}

func TestSaveWithoutChangesSkipsWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{Name: model.StringPtr("Jane")})
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, "doc-1", p.PatientID, model.PatientFields{Name: model.StringPtr("Jane")})
	require.NoError(t, err)
	assert.Len(t, f.events.events, 1)
}

func TestUpdateInfoRequiresPatientID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateInfo(context.Background(), "doc-1", "", model.PatientFields{Name: model.StringPtr("Jane")})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"John Doe", "John Doe", "Mary"} {
		_, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{Name: model.StringPtr(name)})
		require.NoError(t, err)
	}
	_, err := f.svc.Save(ctx, "doc-2", "", model.PatientFields{Name: model.StringPtr("John Smith")})
	require.NoError(t, err)

	t.Run("duplicates collapse", func(t *testing.T) {
		resp, err := f.svc.Search(ctx, "doc-1", model.SearchCriteria{Name: "John"})
		require.NoError(t, err)
		require.Len(t, resp.Patients, 1)
		assert.Equal(t, "John Doe", resp.Patients[0].Name)
		assert.Equal(t, "", resp.Patients[0].NIC)
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		resp, err := f.svc.Search(ctx, "doc-1", model.SearchCriteria{Name: "Zed"})
		require.NoError(t, err)
		assert.NotNil(t, resp.Patients)
		assert.Empty(t, resp.Patients)
	})

	t.Run("criteria are required", func(t *testing.T) {
		_, err := f.svc.Search(ctx, "doc-1", model.SearchCriteria{Name: "  "})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	})
}

func TestSearchFillsAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repos.Patients.Create(ctx, &model.Patient{
		DoctorID:  "doc-1",
		PatientID: "legacy",
		Name:      "Old Record",
		Birthday:  model.StringPtr("2000-06-15"),
	}))

	resp, err := f.svc.Search(ctx, "doc-1", model.SearchCriteria{Birthday: "2000-06-15"})
	require.NoError(t, err)
	require.Len(t, resp.Patients, 1)
	require.NotNil(t, resp.Patients[0].Age)
	assert.Equal(t, 24, *resp.Patients[0].Age)
}

func TestGetReturnsOwnVisitsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repos.Catalog.PutMedicines(ctx, "doc-1", model.Medicines{
		{ID: "med-1", Name: "Paracetamol", Brands: []string{"Panadol"}},
	}))
	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{Name: model.StringPtr("Jane")})
	require.NoError(t, err)

	visits := []*model.Visit{
		{ID: "v-old", PatientID: p.PatientID, DoctorID: "doc-1", Date: today.Add(-48 * time.Hour)},
		{ID: "v-other", PatientID: p.PatientID, DoctorID: "doc-2", Date: today},
		{ID: "v-new", PatientID: p.PatientID, DoctorID: "doc-1", Date: today.Add(-time.Hour),
			Prescriptions: model.Prescriptions{
				{MedicineID: "med-1", Dosage: "1 tab", Duration: "5", DurationUnit: model.DurationDays},
				{MedicineID: "med-gone"},
			}},
	}
	for _, v := range visits {
		require.NoError(t, f.repos.Visits.Create(ctx, v))
	}

	detail, err := f.svc.Get(ctx, "doc-1", p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", detail.Name)
	require.Len(t, detail.Visits, 2)
	assert.Equal(t, "v-new", detail.Visits[0].ID)
	assert.Equal(t, "v-old", detail.Visits[1].ID)
	require.Len(t, detail.Visits[0].Prescriptions, 1)
	assert.Equal(t, "Paracetamol", detail.Visits[0].Prescriptions[0].Name)
	assert.Equal(t, "1 tab", detail.Visits[0].Prescriptions[0].Dosage)
	assert.NotNil(t, detail.Visits[1].Prescriptions)
}

func TestGetUnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "doc-1", "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDrugHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "doc-1", "", model.PatientFields{Name: model.StringPtr("Jane")})
	require.NoError(t, err)

	got, err := f.svc.DrugHistory(ctx, "doc-1", p.PatientID)
	require.NoError(t, err)
	assert.Empty(t, got.Drugs)

	drugs := []model.DrugHistoryEntry{{MedicineID: "med-7", MedicineName: "Metformin", Dose: "500mg bd"}}
	_, err = f.svc.ReplaceDrugHistory(ctx, "doc-1", p.PatientID, drugs)
	require.NoError(t, err)

	got, err = f.svc.DrugHistory(ctx, "doc-1", p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, drugs, got.Drugs)

	_, err = f.svc.ReplaceDrugHistory(ctx, "doc-1", p.PatientID, []model.DrugHistoryEntry{})
	require.NoError(t, err)
	got, err = f.svc.DrugHistory(ctx, "doc-1", p.PatientID)
	require.NoError(t, err)
	assert.Empty(t, got.Drugs)
}

func TestReplaceDrugHistoryValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ReplaceDrugHistory(ctx, "doc-1", "p-1", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = f.svc.ReplaceDrugHistory(ctx, "doc-1", "p-1", []model.DrugHistoryEntry{{MedicineID: "med-1"}})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = f.svc.ReplaceDrugHistory(ctx, "doc-1", "p-1", []model.DrugHistoryEntry{{MedicineID: "med-1", MedicineName: "X"}})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.DrugHistory(ctx, "doc-1", "p-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

package visit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/internal/repository/memory"
	"github.com/jwalitptl/visit-logger/internal/service/catalog"
	"github.com/jwalitptl/visit-logger/internal/service/patient"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

var now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repos *repository.Set
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Set()
	require.NoError(t, repos.Catalog.PutMedicines(ctx, "doc-1", model.Medicines{
		{ID: "M1", Name: "Paracetamol", Brands: []string{"Panadol", "Calpol"}},
		{ID: "M2", Name: "Amoxicillin", Brands: []string{"Amoxil"}},
	}))

	clock := func() time.Time { return now }
	cat := catalog.NewService(repos.Catalog)
	patients := patient.NewService(repos.Patients, repos.Visits, cat, nil, clock)
	return &fixture{repos: repos, svc: NewService(repos.Visits, patients, cat, nil, clock)}
}

func decodeCreate(t *testing.T, body string) *model.CreateVisitRequest {
	t.Helper()
	var req model.CreateVisitRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestCreateNewPatientVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane Doe",
		"birthday": "2000-06-15",
		"prescriptions": [
			{"medicineId": "M1", "brand": "Calpol", "dosage": "1 tab tds", "duration": 5, "durationUnit": "days"},
			{"medicineId": "M2", "dosage": "500mg"},
			{"medicineId": "M404", "dosage": "x"}
		],
		"investigations": "FBC normal",
		"investigationsToDo": ["TFT"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", res.Patient.Name)
	require.NotNil(t, res.Patient.Age)
	assert.Equal(t, 24, *res.Patient.Age)
	require.NotNil(t, res.Visit)
	assert.Equal(t, now, res.Visit.Date)
	assert.Nil(t, res.Visit.ReferralLetter)
	assert.Equal(t, []string{"TFT"}, res.Visit.InvestigationsToDo)
	require.Len(t, res.Visit.Investigations, 1)
	assert.Equal(t, "FBC normal", res.Visit.Investigations[0].InvestigationName)

	require.Len(t, res.Visit.Prescriptions, 2)
	first := res.Visit.Prescriptions[0]
	assert.Equal(t, "M1", first.ID)
	assert.Equal(t, "Paracetamol", first.Name)
	assert.Equal(t, "Calpol", first.Brand)
	assert.Equal(t, "1 tab tds", first.Dosage)
	assert.Equal(t, model.DurationValue("5"), first.Duration)
	assert.Equal(t, model.DurationDays, first.DurationUnit)
	assert.Equal(t, model.DurationWeeks, res.Visit.Prescriptions[1].DurationUnit)

	stored, err := f.repos.Visits.Get(ctx, res.Visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", stored.DoctorID)
	assert.Equal(t, res.Patient.PatientID, stored.PatientID)
	assert.Len(t, stored.Prescriptions, 3)
	assert.NotNil(t, stored.BloodPressureReadings)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing name", `{"prescriptions": []}`, "name and prescriptions (array) are required"},
		{"missing prescriptions", `{"name": "Jane"}`, "name and prescriptions (array) are required"},
		{"missing medicine id", `{"name": "Jane", "prescriptions": [{"dosage": "1"}]}`, "Each prescription must have medicineId"},
		{"bad unit", `{"name": "Jane", "prescriptions": [{"medicineId": "M1", "durationUnit": "years"}]}`, "Invalid durationUnit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, tt.body))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCreateWithEmptyPrescriptionsUpdatesPatientOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane", "nic": "901234567V", "prescriptions": [{"medicineId": "M1"}]
	}`))
	require.NoError(t, err)
	patientID := first.Patient.PatientID

	res, err := f.svc.Create(ctx, "doc-1", &model.CreateVisitRequest{
		PatientID: patientID,
		PatientFields: model.PatientFields{
			Name:        model.StringPtr("Jane"),
			NIC:         model.StringPtr("111111111V"),
			PhoneNumber: model.StringPtr("0771234567"),
		},
		VisitClinical: model.VisitClinical{Prescriptions: []model.PrescriptionInput{}},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Visit)
	assert.Equal(t, "0771234567", res.Patient.PhoneNumber)
	assert.Equal(t, "901234567V", *res.Patient.NIC)

	visits, err := f.repos.Visits.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestCreateWithEmptyPrescriptionsRequiresPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "doc-1", decodeCreate(t, `{"name": "Jane", "prescriptions": []}`))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateForUnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "doc-1", decodeCreate(t,
		`{"patientId": "nobody", "name": "Jane", "prescriptions": [{"medicineId": "M1"}]}`))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateStoresReferralLetterOnlyWhenRequested(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane", "prescriptions": [{"medicineId": "M1"}],
		"referralDoctorName": "Dr. Perera"
	}`))
	require.NoError(t, err)
	assert.Nil(t, res.Visit.ReferralLetter)

	res, err = f.svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane", "prescriptions": [{"medicineId": "M1"}],
		"generateReferralLetter": true, "referralDoctorName": " Dr. Perera ", "referralLetterBody": "Please review."
	}`))
	require.NoError(t, err)
	require.NotNil(t, res.Visit.ReferralLetter)
	assert.Equal(t, "Dr. Perera", res.Visit.ReferralLetter.ReferralDoctorName)
	assert.Equal(t, "Please review.", res.Visit.ReferralLetter.ReferralLetterBody)
}

func TestCreateAllowsSameDayVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := `{"name": "Jane", "prescriptions": [{"medicineId": "M1"}]}`
	first, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, req))
	require.NoError(t, err)

	second := decodeCreate(t, req)
	second.PatientID = first.Patient.PatientID
	_, err = f.svc.Create(ctx, "doc-1", second)
	require.NoError(t, err)

	visits, err := f.repos.Visits.ListByPatient(ctx, first.Patient.PatientID)
	require.NoError(t, err)
	assert.Len(t, visits, 2)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane",
		"notes": "first",
		"investigationsToDo": ["CBC"],
		"generateReferralLetter": true,
		"prescriptions": [{"medicineId": "M1", "dosage": "1 tab"}]
	}`))
	require.NoError(t, err)
	visitID := created.Visit.ID

	t.Run("other doctor is forbidden", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "doc-2", visitID, &model.UpdateVisitRequest{
			VisitClinical: model.VisitClinical{Notes: "hijack", Prescriptions: []model.PrescriptionInput{}},
		})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

		stored, err := f.repos.Visits.Get(ctx, visitID)
		require.NoError(t, err)
		assert.Equal(t, "first", stored.Notes)
		assert.Nil(t, stored.UpdatedAt)
	})

	t.Run("unknown visit", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "doc-1", "nope", &model.UpdateVisitRequest{})
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("prescriptions required", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "doc-1", visitID, &model.UpdateVisitRequest{})
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("replaces every clinical field", func(t *testing.T) {
		resp, err := f.svc.Update(ctx, "doc-1", visitID, &model.UpdateVisitRequest{
			VisitClinical: model.VisitClinical{
				Notes:         "second",
				Prescriptions: []model.PrescriptionInput{{MedicineID: "M2", DurationUnit: "as-needed"}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Visit updated successfully", resp.Message)
		assert.Equal(t, visitID, resp.Visit.ID)
		assert.Equal(t, created.Visit.Date, resp.Visit.Date)

		stored, err := f.repos.Visits.Get(ctx, visitID)
		require.NoError(t, err)
		assert.Equal(t, "second", stored.Notes)
		assert.Empty(t, stored.InvestigationsToDo)
		assert.Nil(t, stored.ReferralLetter)
		require.Len(t, stored.Prescriptions, 1)
		assert.Equal(t, "M2", stored.Prescriptions[0].MedicineID)
		assert.Equal(t, model.DurationSOS, stored.Prescriptions[0].DurationUnit)
		require.NotNil(t, stored.UpdatedAt)
		assert.Equal(t, now, *stored.UpdatedAt)
	})
}

func TestGetChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "doc-1", decodeCreate(t, `{"name": "Jane", "prescriptions": [{"medicineId": "M1"}]}`))
	require.NoError(t, err)

	v, err := f.svc.Get(ctx, "doc-1", created.Visit.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Visit.ID, v.ID)

	_, err = f.svc.Get(ctx, "doc-2", created.Visit.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.Get(ctx, "doc-1", "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

type failingIndexer struct{}

func (failingIndexer) Index(context.Context, string) (model.MedicineIndex, error) {
	return nil, errors.New("catalog unavailable")
}

func TestCreateSucceedsWhenCatalogLookupFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patients := patient.NewService(f.repos.Patients, f.repos.Visits, catalog.NewService(f.repos.Catalog), nil,
		func() time.Time { return now })
	svc := NewService(f.repos.Visits, patients, failingIndexer{}, nil, func() time.Time { return now })

	res, err := svc.Create(ctx, "doc-1", decodeCreate(t, `{
		"name": "Jane Doe",
		"prescriptions": [{"medicineId": "M1", "dosage": "1 tab"}]
	}`))
	require.NoError(t, err)
	require.NotNil(t, res.Visit)
	assert.Empty(t, res.Visit.Prescriptions)

	stored, err := f.repos.Visits.Get(ctx, res.Visit.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Prescriptions, 1)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

func TestPatientsAreScopedByDoctor(t *testing.T) {
	ctx := context.Background()
	set := NewStore().Set()

	require.NoError(t, set.Patients.Create(ctx, &model.Patient{DoctorID: "doc-1", PatientID: "p1", Name: "A"}))
	require.NoError(t, set.Patients.Create(ctx, &model.Patient{DoctorID: "doc-2", PatientID: "p2", Name: "B"}))

	_, err := set.Patients.Get(ctx, "doc-2", "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := set.Patients.ListByDoctor(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PatientID)
}

func TestPatientUpdateAppliesPatchOnly(t *testing.T) {
	ctx := context.Background()
	set := NewStore().Set()

	require.NoError(t, set.Patients.Create(ctx, &model.Patient{
		DoctorID: "doc-1", PatientID: "p1", Name: "A", Gender: "F", NIC: model.StringPtr("123V"),
	}))

	updated, err := set.Patients.Update(ctx, "doc-1", "p1", model.PatientPatch{Name: model.Some("B")})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "F", updated.Gender)
	assert.Equal(t, "123V", *updated.NIC)

	_, err = set.Patients.Update(ctx, "doc-1", "missing", model.PatientPatch{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	set := NewStore().Set()

	p := &model.Patient{DoctorID: "doc-1", PatientID: "p1", Name: "A", Birthday: model.StringPtr("2000-01-01")}
	require.NoError(t, set.Patients.Create(ctx, p))
	*p.Birthday = "1999-01-01"

	got, err := set.Patients.Get(ctx, "doc-1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", *got.Birthday)

	meds := model.Medicines{{ID: "med-1", Brands: []string{"X"}}}
	require.NoError(t, set.Catalog.PutMedicines(ctx, "doc-1", meds))
	meds[0].Brands[0] = "Y"

	stored, err := set.Catalog.GetMedicines(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "X", stored[0].Brands[0])
}

func TestVisits(t *testing.T) {
	ctx := context.Background()
	set := NewStore().Set()

	require.NoError(t, set.Visits.Create(ctx, &model.Visit{ID: "v1", PatientID: "p1", DoctorID: "doc-1"}))
	require.NoError(t, set.Visits.Create(ctx, &model.Visit{ID: "v2", PatientID: "p1", DoctorID: "doc-1"}))
	require.NoError(t, set.Visits.Create(ctx, &model.Visit{ID: "v3", PatientID: "p2", DoctorID: "doc-1"}))

	list, err := set.Visits.ListByPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, set.Visits.Replace(ctx, &model.Visit{ID: "nope"}), repository.ErrNotFound)

	_, err = set.Catalog.GetInvestigations(ctx, "doc-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

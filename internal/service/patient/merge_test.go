package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/internal/model"
)

var today = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func TestNewPatientStoresNullsForMissingFields(t *testing.T) {
	p := NewPatient("doc-1", "p-1", model.PatientFields{Name: model.StringPtr(" Jane ")}, today)

	assert.Equal(t, "doc-1", p.DoctorID)
	assert.Equal(t, "Jane", p.Name)
	assert.Nil(t, p.NIC)
	assert.Nil(t, p.Birthday)
	assert.Nil(t, p.PhoneNumber)
	assert.Nil(t, p.Age)
	assert.Equal(t, "", p.Gender)
	assert.NotNil(t, p.DrugHistory)
	assert.Equal(t, today, p.CreatedAt)
}

func TestNewPatientComputesAge(t *testing.T) {
	p := NewPatient("doc-1", "p-1", model.PatientFields{
		Name:     model.StringPtr("Jane"),
		NIC:      model.StringPtr("901234567V"),
		Birthday: model.StringPtr("2000-06-15"),
	}, today)

	require.NotNil(t, p.Age)
	assert.Equal(t, 24, *p.Age)
	assert.Equal(t, "901234567V", *p.NIC)
}

func TestDiff(t *testing.T) {
	existing := &model.Patient{
		PatientID:   "p-1",
		Name:        "Jane",
		NIC:         model.StringPtr("901234567V"),
		Birthday:    model.StringPtr("2000-06-15"),
		PhoneNumber: model.StringPtr("0771234567"),
		Age:         model.IntPtr(23),
		Gender:      "F",
		Allergies:   "penicillin",
	}

	t.Run("absent fields are untouched", func(t *testing.T) {
		assert.True(t, Diff(existing, model.PatientFields{}, today).IsEmpty())
	})

	t.Run("unchanged values are skipped", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{
			Name:        model.StringPtr("Jane"),
			Birthday:    model.StringPtr("2000-06-15"),
			PhoneNumber: model.StringPtr("0771234567"),
			Gender:      model.StringPtr("F"),
		}, today)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("nic is never updated", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{NIC: model.StringPtr("000000000V")}, today)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("empty name is ignored", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{Name: model.StringPtr("  ")}, today)
		assert.False(t, patch.Name.Set)
	})

	t.Run("birthday change recomputes age", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{Birthday: model.StringPtr("2000-06-16")}, today)
		require.True(t, patch.Birthday.Set)
		assert.Equal(t, "2000-06-16", *patch.Birthday.Value)
		require.True(t, patch.Age.Set)
		assert.Equal(t, 23, *patch.Age.Value)
	})

	t.Run("clearing birthday keeps age", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{Birthday: model.StringPtr("")}, today)
		require.True(t, patch.Birthday.Set)
		assert.Nil(t, patch.Birthday.Value)
		assert.False(t, patch.Age.Set)
	})

	t.Run("text fields", func(t *testing.T) {
		patch := Diff(existing, model.PatientFields{
			PhoneNumber:        model.StringPtr(""),
			Allergies:          model.StringPtr(""),
			PastMedicalHistory: model.StringPtr("asthma"),
		}, today)
		require.True(t, patch.PhoneNumber.Set)
		assert.Equal(t, "", *patch.PhoneNumber.Value)
		assert.Equal(t, model.Some(""), patch.Allergies)
		assert.Equal(t, model.Some("asthma"), patch.PastMedicalHistory)
		assert.False(t, patch.FamilyHistory.Set)
	})
}

package patient

import (
	"strings"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
)

// NewPatient builds a fresh record. Optional fields that were not supplied
// are stored as null rather than omitted.
func NewPatient(doctorID, patientID string, f model.PatientFields, now time.Time) *model.Patient {
	p := &model.Patient{
		DoctorID:    doctorID,
		PatientID:   patientID,
		Name:        strings.TrimSpace(str(f.Name)),
		NIC:         model.NonEmpty(strings.TrimSpace(str(f.NIC))),
		Birthday:    model.NonEmpty(strings.TrimSpace(str(f.Birthday))),
		PhoneNumber: model.NonEmpty(str(f.PhoneNumber)),
		Gender:      str(f.Gender),

		PastMedicalHistory: str(f.PastMedicalHistory),
		FamilyHistory:      str(f.FamilyHistory),
		Allergies:          str(f.Allergies),
		DrugHistory:        model.DrugHistory{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	p.Age = model.AgePtr(p.Birthday, now)
	return p
}

// Diff compares the supplied fields with the stored patient and returns only
// what changed. NIC is never part of the result.
func Diff(existing *model.Patient, f model.PatientFields, now time.Time) model.PatientPatch {
	var patch model.PatientPatch

	if f.Name != nil {
		if name := strings.TrimSpace(*f.Name); name != "" && name != existing.Name {
			patch.Name = model.Some(name)
		}
	}

	if f.Birthday != nil {
		birthday := model.NonEmpty(strings.TrimSpace(*f.Birthday))
		if !equalPtr(birthday, existing.Birthday) {
			patch.Birthday = model.Some(birthday)
			// Age follows the birthday; clearing the birthday leaves age alone.
			if age := model.AgePtr(birthday, now); age != nil {
				patch.Age = model.Some(age)
			}
		}
	}

	if f.PhoneNumber != nil && !equalPtr(f.PhoneNumber, existing.PhoneNumber) {
		patch.PhoneNumber = model.Some(model.StringPtr(*f.PhoneNumber))
	}

	setText(&patch.Gender, f.Gender, existing.Gender)
	setText(&patch.PastMedicalHistory, f.PastMedicalHistory, existing.PastMedicalHistory)
	setText(&patch.FamilyHistory, f.FamilyHistory, existing.FamilyHistory)
	setText(&patch.Allergies, f.Allergies, existing.Allergies)

	return patch
}

func setText(dst *model.Optional[string], in *string, current string) {
	if in != nil && *in != current {
		*dst = model.Some(*in)
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

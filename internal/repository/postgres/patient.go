package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
)

const patientColumns = `doctor_id, patient_id, nic, name, birthday, phone_number, age, gender,
	past_medical_history, family_history, allergies, drug_history, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	start := time.Now()
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (:doctor_id, :patient_id, :nic, :name, :birthday, :phone_number, :age, :gender,
			:past_medical_history, :family_history, :allergies, :drug_history, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, patient)
	return r.observe("patients.create", start, err)
}

func (r *patientRepository) Get(ctx context.Context, doctorID, patientID string) (*model.Patient, error) {
	start := time.Now()
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient,
		`SELECT `+patientColumns+` FROM patients WHERE doctor_id = $1 AND patient_id = $2`,
		doctorID, patientID)
	if err := r.observe("patients.get", start, err); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, doctorID, patientID string, patch model.PatientPatch) (*model.Patient, error) {
	start := time.Now()
	sets, args := patientAssignments(patch, r.now())
	args = append(args, doctorID, patientID)
	query := fmt.Sprintf(`UPDATE patients SET %s WHERE doctor_id = $%d AND patient_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), patientColumns)

	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, args...)
	if err := r.observe("patients.update", start, err); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Patient, error) {
	start := time.Now()
	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients,
		`SELECT `+patientColumns+` FROM patients WHERE doctor_id = $1 ORDER BY created_at`, doctorID)
	if err := r.observe("patients.list_doctor", start, err); err != nil {
		return nil, err
	}
	return patients, nil
}

// patientAssignments builds the SET list for the fields the patch carries.
// updated_at is always first.
func patientAssignments(patch model.PatientPatch, now time.Time) ([]string, []interface{}) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{now}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name.Set {
		add("name", patch.Name.Value)
	}
	if patch.Birthday.Set {
		add("birthday", patch.Birthday.Value)
	}
	if patch.Age.Set {
		add("age", patch.Age.Value)
	}
	if patch.PhoneNumber.Set {
		add("phone_number", patch.PhoneNumber.Value)
	}
	if patch.Gender.Set {
		add("gender", patch.Gender.Value)
	}
	if patch.PastMedicalHistory.Set {
		add("past_medical_history", patch.PastMedicalHistory.Value)
	}
	if patch.FamilyHistory.Set {
		add("family_history", patch.FamilyHistory.Value)
	}
	if patch.Allergies.Set {
		add("allergies", patch.Allergies.Value)
	}
	if patch.DrugHistory.Set {
		add("drug_history", patch.DrugHistory.Value)
	}
	return sets, args
}

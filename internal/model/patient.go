package model

import (
	"database/sql/driver"
	"time"
)

// Patient is one record per (doctor, patient) pair. NIC is write-once.
type Patient struct {
	DoctorID           string      `json:"-" dynamodbav:"doctor_id" db:"doctor_id"`
	PatientID          string      `json:"patientId" dynamodbav:"patient_id" db:"patient_id"`
	NIC                *string     `json:"nic" dynamodbav:"nic" db:"nic"`
	Name               string      `json:"name" dynamodbav:"name" db:"name"`
	Birthday           *string     `json:"birthday" dynamodbav:"birthday" db:"birthday"`
	PhoneNumber        *string     `json:"phoneNumber" dynamodbav:"phone_number" db:"phone_number"`
	Age                *int        `json:"age" dynamodbav:"age" db:"age"`
	Gender             string      `json:"gender" dynamodbav:"gender" db:"gender"`
	PastMedicalHistory string      `json:"pastMedicalHistory" dynamodbav:"pastMedicalHistory" db:"past_medical_history"`
	FamilyHistory      string      `json:"familyHistory" dynamodbav:"familyHistory" db:"family_history"`
	Allergies          string      `json:"allergies" dynamodbav:"allergies" db:"allergies"`
	DrugHistory        DrugHistory `json:"-" dynamodbav:"drug_history" db:"drug_history"`
	CreatedAt          time.Time   `json:"-" dynamodbav:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"-" dynamodbav:"updated_at" db:"updated_at"`
}

// DrugHistoryEntry is a medicine the patient takes that another doctor prescribed.
type DrugHistoryEntry struct {
	MedicineID   string `json:"medicine_id" dynamodbav:"medicine_id"`
	MedicineName string `json:"medicine_name" dynamodbav:"medicine_name"`
	Brand        string `json:"brand" dynamodbav:"brand"`
	Dose         string `json:"dose" dynamodbav:"dose"`
}

type DrugHistory []DrugHistoryEntry

func (d *DrugHistory) Scan(src interface{}) error { return scanJSON(src, (*[]DrugHistoryEntry)(d)) }

func (d DrugHistory) Value() (driver.Value, error) {
	if d == nil {
		d = DrugHistory{}
	}
	return jsonValue([]DrugHistoryEntry(d))
}

type DrugHistoryRequest struct {
	Drugs []DrugHistoryEntry `json:"drugs"`
}

type DrugHistoryResponse struct {
	Drugs []DrugHistoryEntry `json:"drugs"`
}

// PatientFields are the patient attributes a visit or info-only save may carry.
// A nil field was not supplied.
type PatientFields struct {
	Name               *string `json:"name"`
	NIC                *string `json:"nic"`
	Birthday           *string `json:"birthday"`
	PhoneNumber        *string `json:"phoneNumber"`
	Gender             *string `json:"gender"`
	PastMedicalHistory *string `json:"pastMedicalHistory"`
	FamilyHistory      *string `json:"familyHistory"`
	Allergies          *string `json:"allergies"`
}

// PatientPatch lists the attributes to overwrite on a stored patient.
// NIC is write-once and has no patch field.
type PatientPatch struct {
	Name               Optional[string]
	Birthday           Optional[*string]
	Age                Optional[*int]
	PhoneNumber        Optional[*string]
	Gender             Optional[string]
	PastMedicalHistory Optional[string]
	FamilyHistory      Optional[string]
	Allergies          Optional[string]
	DrugHistory        Optional[DrugHistory]
}

func (p PatientPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Birthday.Set && !p.Age.Set && !p.PhoneNumber.Set &&
		!p.Gender.Set && !p.PastMedicalHistory.Set && !p.FamilyHistory.Set &&
		!p.Allergies.Set && !p.DrugHistory.Set
}

// Apply writes the set fields onto patient.
func (p PatientPatch) Apply(patient *Patient) {
	if p.Name.Set {
		patient.Name = p.Name.Value
	}
	if p.Birthday.Set {
		patient.Birthday = p.Birthday.Value
	}
	if p.Age.Set {
		patient.Age = p.Age.Value
	}
	if p.PhoneNumber.Set {
		patient.PhoneNumber = p.PhoneNumber.Value
	}
	if p.Gender.Set {
		patient.Gender = p.Gender.Value
	}
	if p.PastMedicalHistory.Set {
		patient.PastMedicalHistory = p.PastMedicalHistory.Value
	}
	if p.FamilyHistory.Set {
		patient.FamilyHistory = p.FamilyHistory.Value
	}
	if p.Allergies.Set {
		patient.Allergies = p.Allergies.Value
	}
	if p.DrugHistory.Set {
		patient.DrugHistory = p.DrugHistory.Value
	}
}

// PatientView is the patient shape returned by the API.
type PatientView struct {
	PatientID          string  `json:"patientId"`
	NIC                *string `json:"nic"`
	Name               string  `json:"name"`
	Birthday           *string `json:"birthday"`
	PhoneNumber        string  `json:"phoneNumber"`
	Age                *int    `json:"age"`
	Gender             string  `json:"gender"`
	PastMedicalHistory string  `json:"pastMedicalHistory"`
	FamilyHistory      string  `json:"familyHistory"`
	Allergies          string  `json:"allergies"`
}

// View renders the patient, deriving age from the birthdate when none is stored.
func (p *Patient) View(now time.Time) PatientView {
	age := p.Age
	if age == nil {
		age = AgePtr(p.Birthday, now)
	}
	return PatientView{
		PatientID:          p.PatientID,
		NIC:                p.NIC,
		Name:               p.Name,
		Birthday:           p.Birthday,
		PhoneNumber:        deref(p.PhoneNumber),
		Age:                age,
		Gender:             p.Gender,
		PastMedicalHistory: p.PastMedicalHistory,
		FamilyHistory:      p.FamilyHistory,
		Allergies:          p.Allergies,
	}
}

// PatientSummary is one search hit.
type PatientSummary struct {
	PatientID   string  `json:"patientId"`
	NIC         string  `json:"nic"`
	Name        string  `json:"name"`
	Birthday    *string `json:"birthday"`
	PhoneNumber string  `json:"phoneNumber"`
	Age         *int    `json:"age"`
	Gender      string  `json:"gender"`
}

func (p *Patient) Summary(now time.Time) PatientSummary {
	v := p.View(now)
	return PatientSummary{
		PatientID:   v.PatientID,
		NIC:         deref(v.NIC),
		Name:        v.Name,
		Birthday:    v.Birthday,
		PhoneNumber: v.PhoneNumber,
		Age:         v.Age,
		Gender:      v.Gender,
	}
}

type SearchCriteria struct {
	Name        string `form:"name"`
	NIC         string `form:"nic"`
	PhoneNumber string `form:"phoneNumber"`
	Birthday    string `form:"birthday"`
}

func (c SearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.NIC == "" && c.PhoneNumber == "" && c.Birthday == ""
}

type SearchResponse struct {
	Patients []PatientSummary `json:"patients"`
}

// PatientDetail is a patient with their visit history, newest first.
type PatientDetail struct {
	PatientView
	Visits []VisitView `json:"visits"`
}

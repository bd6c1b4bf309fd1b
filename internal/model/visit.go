package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type DurationUnit string

const (
	DurationDays   DurationUnit = "days"
	DurationWeeks  DurationUnit = "weeks"
	DurationMonths DurationUnit = "months"
	DurationSOS    DurationUnit = "sos"

	DefaultDurationUnit = DurationWeeks
)

// ParseDurationUnit normalizes a unit, mapping "" to the default and
// "as-needed" to sos.
func ParseDurationUnit(s string) (DurationUnit, bool) {
	switch DurationUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultDurationUnit, true
	case DurationDays:
		return DurationDays, true
	case DurationWeeks:
		return DurationWeeks, true
	case DurationMonths:
		return DurationMonths, true
	case DurationSOS, "as-needed", "as_needed":
		return DurationSOS, true
	default:
		return "", false
	}
}

// DurationValue accepts either a JSON number or string.
type DurationValue string

func (d *DurationValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DurationValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a number or string")
	}
	*d = DurationValue(n.String())
	return nil
}

// Prescription is the stored form of one prescribed medicine.
type Prescription struct {
	MedicineID   string        `json:"medicine_id" dynamodbav:"medicine_id"`
	Brand        string        `json:"brand" dynamodbav:"brand"`
	Dosage       string        `json:"dosage" dynamodbav:"dosage"`
	Duration     DurationValue `json:"duration" dynamodbav:"duration"`
	DurationUnit DurationUnit  `json:"durationUnit" dynamodbav:"durationUnit"`
}

type Prescriptions []Prescription

func (p *Prescriptions) Scan(src interface{}) error { return scanJSON(src, (*[]Prescription)(p)) }

func (p Prescriptions) Value() (driver.Value, error) {
	if p == nil {
		p = Prescriptions{}
	}
	return jsonValue([]Prescription(p))
}

// PrescriptionInput is a prescription as the client sends it.
type PrescriptionInput struct {
	MedicineID   string        `json:"medicineId"`
	Brand        string        `json:"brand"`
	Dosage       string        `json:"dosage"`
	Duration     DurationValue `json:"duration"`
	DurationUnit string        `json:"durationUnit"`
}

type BloodPressureReading struct {
	Systolic  int    `json:"systolic" dynamodbav:"systolic"`
	Diastolic int    `json:"diastolic" dynamodbav:"diastolic"`
	Pulse     *int   `json:"pulse,omitempty" dynamodbav:"pulse,omitempty"`
	Time      string `json:"time,omitempty" dynamodbav:"time,omitempty"`
}

type BloodPressureReadings []BloodPressureReading

func (b *BloodPressureReadings) Scan(src interface{}) error {
	return scanJSON(src, (*[]BloodPressureReading)(b))
}

func (b BloodPressureReadings) Value() (driver.Value, error) {
	if b == nil {
		b = BloodPressureReadings{}
	}
	return jsonValue([]BloodPressureReading(b))
}

type StringList []string

func (s *StringList) Scan(src interface{}) error { return scanJSON(src, (*[]string)(s)) }

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	return jsonValue([]string(s))
}

type ReferralLetter struct {
	ReferralDoctorName string `json:"referralDoctorName" dynamodbav:"referralDoctorName"`
	ReferralLetterBody string `json:"referralLetterBody" dynamodbav:"referralLetterBody"`
}

func (r *ReferralLetter) Scan(src interface{}) error { return scanJSON(src, r) }

func (r ReferralLetter) Value() (driver.Value, error) { return jsonValue(r) }

// Visit is one clinical encounter.
type Visit struct {
	ID                    string                `json:"id" dynamodbav:"id" db:"id"`
	PatientID             string                `json:"patient_id" dynamodbav:"patient_id" db:"patient_id"`
	DoctorID              string                `json:"doctor_id" dynamodbav:"doctor_id" db:"doctor_id"`
	Date                  time.Time             `json:"date" dynamodbav:"date" db:"date"`
	Notes                 string                `json:"notes" dynamodbav:"notes" db:"notes"`
	PresentingComplaint   string                `json:"presentingComplaint" dynamodbav:"presentingComplaint" db:"presenting_complaint"`
	ExaminationFindings   string                `json:"examinationFindings" dynamodbav:"examinationFindings" db:"examination_findings"`
	Investigations        InvestigationResults  `json:"investigations" dynamodbav:"investigations" db:"investigations"`
	BloodPressureReadings BloodPressureReadings `json:"bloodPressureReadings" dynamodbav:"bloodPressureReadings" db:"blood_pressure_readings"`
	InvestigationsToDo    StringList            `json:"investigationsToDo" dynamodbav:"investigationsToDo" db:"investigations_to_do"`
	Prescriptions         Prescriptions         `json:"prescriptions" dynamodbav:"prescriptions" db:"prescriptions"`
	ReferralLetter        *ReferralLetter       `json:"referralLetter" dynamodbav:"referralLetter" db:"referral_letter"`
	CreatedAt             time.Time             `json:"created_at" dynamodbav:"created_at" db:"created_at"`
	UpdatedAt             *time.Time            `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty" db:"updated_at"`
}

// VisitClinical holds the clinical fields shared by create and update.
type VisitClinical struct {
	Prescriptions          []PrescriptionInput    `json:"prescriptions"`
	PresentingComplaint    string                 `json:"presentingComplaint"`
	ExaminationFindings    string                 `json:"examinationFindings"`
	Investigations         InvestigationResults   `json:"investigations"`
	BloodPressureReadings  []BloodPressureReading `json:"bloodPressureReadings"`
	InvestigationsToDo     []string               `json:"investigationsToDo"`
	Notes                  string                 `json:"notes"`
	GenerateReferralLetter bool                   `json:"generateReferralLetter"`
	ReferralDoctorName     string                 `json:"referralDoctorName"`
	ReferralLetterBody     string                 `json:"referralLetterBody"`
}

// ReferralLetter is only produced when the caller asked for one.
func (c *VisitClinical) ReferralLetter() *ReferralLetter {
	if !c.GenerateReferralLetter {
		return nil
	}
	return &ReferralLetter{
		ReferralDoctorName: strings.TrimSpace(c.ReferralDoctorName),
		ReferralLetterBody: c.ReferralLetterBody,
	}
}

type CreateVisitRequest struct {
	PatientID string `json:"patientId"`
	PatientFields
	VisitClinical
}

type UpdateVisitRequest struct {
	VisitClinical
}

// PrescriptionLine is a stored prescription joined with its catalog medicine.
type PrescriptionLine struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Brands       []string      `json:"brands"`
	Brand        string        `json:"brand"`
	Dosage       string        `json:"dosage"`
	Duration     DurationValue `json:"duration"`
	DurationUnit DurationUnit  `json:"durationUnit"`
}

// DisplayName is the brand when one was chosen, otherwise the generic name.
func (l PrescriptionLine) DisplayName() string {
	if strings.TrimSpace(l.Brand) != "" {
		return l.Brand
	}
	return l.Name
}

// DurationText renders the duration as printed on a prescription.
func (l PrescriptionLine) DurationText() string {
	if l.Duration == "" || l.DurationUnit == "" {
		return ""
	}
	if l.DurationUnit == DurationSOS {
		return fmt.Sprintf("%s SOS", l.Duration)
	}
	unit := string(l.DurationUnit)
	if n, err := strconv.Atoi(string(l.Duration)); err == nil && n == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("for %s %s", l.Duration, unit)
}

// JoinPrescriptions resolves each prescription against the catalog, keeping
// the per-visit overrides and skipping medicines the catalog no longer has.
func JoinPrescriptions(prescriptions []Prescription, catalog MedicineIndex) []PrescriptionLine {
	lines := make([]PrescriptionLine, 0, len(prescriptions))
	for _, p := range prescriptions {
		med, ok := catalog.Lookup(p.MedicineID)
		if !ok {
			continue
		}
		brands := med.Brands
		if brands == nil {
			brands = []string{}
		}
		unit := p.DurationUnit
		if unit == "" {
			unit = DefaultDurationUnit
		}
		lines = append(lines, PrescriptionLine{
			ID:           med.ID,
			Name:         med.Name,
			Brands:       brands,
			Brand:        p.Brand,
			Dosage:       p.Dosage,
			Duration:     p.Duration,
			DurationUnit: unit,
		})
	}
	return lines
}

// VisitView is a visit as returned by the API.
type VisitView struct {
	ID                    string                 `json:"id"`
	Date                  time.Time              `json:"date"`
	Notes                 string                 `json:"notes"`
	PresentingComplaint   string                 `json:"presentingComplaint"`
	ExaminationFindings   string                 `json:"examinationFindings"`
	Investigations        InvestigationResults   `json:"investigations"`
	BloodPressureReadings []BloodPressureReading `json:"bloodPressureReadings"`
	InvestigationsToDo    []string               `json:"investigationsToDo"`
	Prescriptions         []PrescriptionLine     `json:"prescriptions"`
	ReferralLetter        *ReferralLetter        `json:"referralLetter"`
}

func (v *Visit) View(catalog MedicineIndex) VisitView {
	view := VisitView{
		ID:                    v.ID,
		Date:                  v.Date,
		Notes:                 v.Notes,
		PresentingComplaint:   v.PresentingComplaint,
		ExaminationFindings:   v.ExaminationFindings,
		Investigations:        v.Investigations,
		BloodPressureReadings: v.BloodPressureReadings,
		InvestigationsToDo:    v.InvestigationsToDo,
		Prescriptions:         JoinPrescriptions(v.Prescriptions, catalog),
		ReferralLetter:        v.ReferralLetter,
	}
	if view.Investigations == nil {
		view.Investigations = InvestigationResults{}
	}
	if view.BloodPressureReadings == nil {
		view.BloodPressureReadings = []BloodPressureReading{}
	}
	if view.InvestigationsToDo == nil {
		view.InvestigationsToDo = []string{}
	}
	return view
}

// CreateVisitResult carries the patient and, unless this was an info-only
// save, the new visit.
type CreateVisitResult struct {
	Patient PatientView `json:"patient"`
	Visit   *VisitView  `json:"visit,omitempty"`
}

type UpdateVisitResponse struct {
	Message string   `json:"message"`
	Visit   VisitAck `json:"visit"`
}

type VisitAck struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
}

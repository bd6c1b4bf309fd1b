package model

import (
	"encoding/json"
	"strings"
)

type AllergyType string

const (
	AllergyMedicine AllergyType = "medicine"
	AllergyOther    AllergyType = "other"
)

// Allergy is one entry of the serialized allergies list kept on a patient.
type Allergy struct {
	Type         AllergyType `json:"type"`
	MedicineID   string      `json:"medicineId,omitempty"`
	MedicineName string      `json:"medicineName,omitempty"`
	Text         string      `json:"text,omitempty"`
}

func (a Allergy) Label() string {
	if a.Type == AllergyMedicine {
		return a.MedicineName
	}
	return a.Text
}

// ParseAllergies decodes the stored allergies string. Plain text that is not
// a JSON list is read as a single free-text allergy.
func ParseAllergies(raw string) []Allergy {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []Allergy{}
	}

	var list []Allergy
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	return []Allergy{{Type: AllergyOther, Text: raw}}
}

// FormatAllergies is the inverse of ParseAllergies. An empty list is stored as "".
func FormatAllergies(list []Allergy) string {
	if len(list) == 0 {
		return ""
	}
	b, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(b)
}

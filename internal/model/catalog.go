package model

import (
	"database/sql/driver"
	"strings"
)

// ItemType is the sort key of a doctor's catalog records.
type ItemType string

const (
	ItemTypeMedicine      ItemType = "M"
	ItemTypeInvestigation ItemType = "I"
)

type Medicine struct {
	ID     string   `json:"id" dynamodbav:"id"`
	Name   string   `json:"name" dynamodbav:"name"`
	Brands []string `json:"brands" dynamodbav:"brands"`
}

// HasBrand compares case-insensitively.
func (m *Medicine) HasBrand(brand string) bool {
	for _, b := range m.Brands {
		if strings.EqualFold(b, brand) {
			return true
		}
	}
	return false
}

type Investigation struct {
	ID       string `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	Category string `json:"category" dynamodbav:"category"`
}

type CreateMedicineRequest struct {
	Name   string   `json:"name"`
	Brands []string `json:"brands"`
}

type AddBrandRequest struct {
	Brand string `json:"brand"`
}

type CreateInvestigationRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Medicines is a doctor's whole medicine catalog, stored as one record.
type Medicines []Medicine

func (m *Medicines) Scan(src interface{}) error { return scanJSON(src, (*[]Medicine)(m)) }

func (m Medicines) Value() (driver.Value, error) {
	if m == nil {
		m = Medicines{}
	}
	return jsonValue([]Medicine(m))
}

type Investigations []Investigation

func (i *Investigations) Scan(src interface{}) error { return scanJSON(src, (*[]Investigation)(i)) }

func (i Investigations) Value() (driver.Value, error) {
	if i == nil {
		i = Investigations{}
	}
	return jsonValue([]Investigation(i))
}

// MedicineIndex resolves medicine ids against a catalog snapshot.
type MedicineIndex map[string]Medicine

func NewMedicineIndex(medicines []Medicine) MedicineIndex {
	idx := make(MedicineIndex, len(medicines))
	for _, m := range medicines {
		idx[m.ID] = m
	}
	return idx
}

// Lookup reports whether the id is still in the catalog. Callers skip
// references that no longer resolve.
func (idx MedicineIndex) Lookup(id string) (Medicine, bool) {
	m, ok := idx[id]
	return m, ok
}

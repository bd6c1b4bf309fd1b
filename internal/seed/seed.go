package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/pkg/security"
)

// DefaultDoctor is the development login.
var DefaultDoctor = struct {
	ID, Username, Password, Name string
}{
	ID:       "doc-1",
	Username: "doctor1",
	Password: "pass123",
	Name:     "Smith",
}

var medicines = model.Medicines{
	{ID: "med-1", Name: "Paracetamol", Brands: []string{"Panadol", "Tylenol", "Calpol"}},
	{ID: "med-2", Name: "Amoxicillin", Brands: []string{"Amoxil", "Trimox", "Moxatag"}},
	{ID: "med-3", Name: "Ibuprofen", Brands: []string{"Advil", "Motrin", "Nurofen"}},
	{ID: "med-4", Name: "Cetirizine", Brands: []string{"Zyrtec", "Reactine", "Aller-Tec"}},
	{ID: "med-5", Name: "Omeprazole", Brands: []string{"Prilosec", "Losec", "Gastrul"}},
	{ID: "med-6", Name: "Aspirin", Brands: []string{"Bayer", "Ecotrin", "Aspirin"}},
	{ID: "med-7", Name: "Metformin", Brands: []string{"Glucophage", "Fortamet", "Riomet"}},
	{ID: "med-8", Name: "Amlodipine", Brands: []string{"Norvasc", "Katerzia", "Amlodipine"}},
	{ID: "med-9", Name: "Atorvastatin", Brands: []string{"Lipitor", "Atorvastatin", "Torvast"}},
	{ID: "med-10", Name: "Losartan", Brands: []string{"Cozaar", "Losartan", "Hyzaar"}},
}

var investigations = model.Investigations{
	{ID: "inv-1", Name: "Complete Blood Count (CBC)", Category: "Hematology"},
	{ID: "inv-2", Name: "Blood Sugar (Fasting)", Category: "Biochemistry"},
	{ID: "inv-3", Name: "Blood Sugar (Random)", Category: "Biochemistry"},
	{ID: "inv-4", Name: "HbA1c (Glycated Hemoglobin)", Category: "Biochemistry"},
	{ID: "inv-5", Name: "Lipid Profile", Category: "Biochemistry"},
	{ID: "inv-6", Name: "Liver Function Test (LFT)", Category: "Biochemistry"},
	{ID: "inv-7", Name: "Kidney Function Test (KFT)", Category: "Biochemistry"},
	{ID: "inv-8", Name: "Thyroid Function Test (TFT)", Category: "Endocrinology"},
	{ID: "inv-9", Name: "X-Ray Chest", Category: "Radiology"},
	{ID: "inv-10", Name: "X-Ray Abdomen", Category: "Radiology"},
	{ID: "inv-11", Name: "X-Ray Skull", Category: "Radiology"},
	{ID: "inv-12", Name: "X-Ray Spine", Category: "Radiology"},
	{ID: "inv-13", Name: "ECG (Electrocardiogram)", Category: "Cardiology"},
	{ID: "inv-14", Name: "Echocardiogram", Category: "Cardiology"},
	{ID: "inv-15", Name: "Ultrasound Abdomen", Category: "Radiology"},
	{ID: "inv-16", Name: "Ultrasound Pelvis", Category: "Radiology"},
	{ID: "inv-17", Name: "Urine Analysis", Category: "Pathology"},
	{ID: "inv-18", Name: "Urine Culture & Sensitivity", Category: "Microbiology"},
	{ID: "inv-19", Name: "Stool Analysis", Category: "Pathology"},
	{ID: "inv-20", Name: "Stool Culture", Category: "Microbiology"},
	{ID: "inv-21", Name: "Blood Culture & Sensitivity", Category: "Microbiology"},
	{ID: "inv-22", Name: "ESR (Erythrocyte Sedimentation Rate)", Category: "Hematology"},
	{ID: "inv-23", Name: "CRP (C-Reactive Protein)", Category: "Biochemistry"},
	{ID: "inv-24", Name: "Vitamin D", Category: "Biochemistry"},
	{ID: "inv-25", Name: "Vitamin B12", Category: "Biochemistry"},
	{ID: "inv-26", Name: "Folate", Category: "Biochemistry"},
	{ID: "inv-27", Name: "Serum Creatinine", Category: "Biochemistry"},
	{ID: "inv-28", Name: "Urea", Category: "Biochemistry"},
	{ID: "inv-29", Name: "Uric Acid", Category: "Biochemistry"},
	{ID: "inv-30", Name: "CT Scan Head", Category: "Radiology"},
	{ID: "inv-31", Name: "CT Scan Chest", Category: "Radiology"},
	{ID: "inv-32", Name: "CT Scan Abdomen", Category: "Radiology"},
	{ID: "inv-33", Name: "MRI Brain", Category: "Radiology"},
	{ID: "inv-34", Name: "MRI Spine", Category: "Radiology"},
	{ID: "inv-35", Name: "Mammography", Category: "Radiology"},
	{ID: "inv-36", Name: "Pap Smear", Category: "Pathology"},
	{ID: "inv-37", Name: "PSA (Prostate Specific Antigen)", Category: "Biochemistry"},
	{ID: "inv-38", Name: "Tumor Markers", Category: "Oncology"},
	{ID: "inv-39", Name: "HIV Test", Category: "Serology"},
	{ID: "inv-40", Name: "Hepatitis B Surface Antigen (HBsAg)", Category: "Serology"},
	{ID: "inv-41", Name: "Hepatitis C Antibody", Category: "Serology"},
	{ID: "inv-42", Name: "Dengue NS1 Antigen", Category: "Serology"},
	{ID: "inv-43", Name: "Malaria Parasite Test", Category: "Parasitology"},
	{ID: "inv-44", Name: "Sputum Culture & Sensitivity", Category: "Microbiology"},
	{ID: "inv-45", Name: "Throat Swab Culture", Category: "Microbiology"},
	{ID: "inv-46", Name: "Wound Swab Culture", Category: "Microbiology"},
	{ID: "inv-47", Name: "Serum Electrolytes", Category: "Biochemistry"},
	{ID: "inv-48", Name: "Serum Calcium", Category: "Biochemistry"},
	{ID: "inv-49", Name: "Serum Phosphorus", Category: "Biochemistry"},
	{ID: "inv-50", Name: "Serum Magnesium", Category: "Biochemistry"},
}

// Medicines returns a copy of the starter medicine catalog.
func Medicines() model.Medicines {
	out := make(model.Medicines, len(medicines))
	for i, m := range medicines {
		m.Brands = append([]string(nil), m.Brands...)
		out[i] = m
	}
	return out
}

// Investigations returns a copy of the starter investigation catalog.
func Investigations() model.Investigations {
	return append(model.Investigations(nil), investigations...)
}

// Run creates the default doctor and that doctor's catalogs. Records that
// already exist are left alone, so it is safe to run on every deploy.
func Run(ctx context.Context, repos *repository.Set, hasher security.PasswordHasher) error {
	doctorID, err := seedDoctor(ctx, repos.Doctors, hasher)
	if err != nil {
		return err
	}

	_, err = repos.Catalog.GetMedicines(ctx, doctorID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := repos.Catalog.PutMedicines(ctx, doctorID, Medicines()); err != nil {
			return fmt.Errorf("seeding medicines: %w", err)
		}
		log.Info().Str("doctor_id", doctorID).Int("count", len(medicines)).Msg("Seeded medicines")
	case err != nil:
		return fmt.Errorf("reading medicines: %w", err)
	}

	_, err = repos.Catalog.GetInvestigations(ctx, doctorID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := repos.Catalog.PutInvestigations(ctx, doctorID, Investigations()); err != nil {
			return fmt.Errorf("seeding investigations: %w", err)
		}
		log.Info().Str("doctor_id", doctorID).Int("count", len(investigations)).Msg("Seeded investigations")
	case err != nil:
		return fmt.Errorf("reading investigations: %w", err)
	}
	return nil
}

func seedDoctor(ctx context.Context, doctors repository.DoctorRepository, hasher security.PasswordHasher) (string, error) {
	existing, err := doctors.GetByUsername(ctx, DefaultDoctor.Username)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("reading doctor: %w", err)
	}

	hash, err := hasher.Hash(DefaultDoctor.Password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	doctor := &model.Doctor{
		ID:           DefaultDoctor.ID,
		Username:     DefaultDoctor.Username,
		Name:         DefaultDoctor.Name,
		PasswordHash: hash,
	}
	if err := doctors.Put(ctx, doctor); err != nil {
		return "", fmt.Errorf("seeding doctor: %w", err)
	}
	log.Info().Str("doctor_id", doctor.ID).Str("username", doctor.Username).Msg("Seeded doctor")
	return doctor.ID, nil
}

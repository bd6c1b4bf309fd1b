package document

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/internal/email"
	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

const (
	DefaultReferralBody = "Thank you for seeing this patient. I would be grateful for your assessment and management."

	// twoColumnThreshold is how many treatment lines fit one A5 column.
	twoColumnThreshold = 12
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type VisitGetter interface {
	Get(ctx context.Context, doctorID, visitID string) (*model.Visit, error)
}

type MedicineIndexer interface {
	Index(ctx context.Context, doctorID string) (model.MedicineIndex, error)
}

type Service struct {
	visits   VisitGetter
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	catalog  MedicineIndexer
	mailer   email.Service
	now      func() time.Time
}

func NewService(
	visits VisitGetter,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	catalog MedicineIndexer,
	mailer email.Service,
) *Service {
	if mailer == nil {
		mailer = email.NewDisabledService()
	}
	return &Service{
		visits:   visits,
		patients: patients,
		doctors:  doctors,
		catalog:  catalog,
		mailer:   mailer,
		now:      time.Now,
	}
}

// visitContext is everything a document about one visit needs.
type visitContext struct {
	visit   *model.Visit
	patient *model.Patient
	doctor  *model.Doctor
}

func (s *Service) load(ctx context.Context, doctorID, visitID string) (*visitContext, error) {
	v, err := s.visits.Get(ctx, doctorID, visitID)
	if err != nil {
		return nil, err
	}

	p, err := s.patients.Get(ctx, doctorID, v.PatientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Patient not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	d, err := s.doctors.Get(ctx, doctorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if d == nil {
		d = &model.Doctor{ID: doctorID}
	}
	return &visitContext{visit: v, patient: p, doctor: d}, nil
}

func doctorName(d *model.Doctor) string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return "Doctor"
}

func ageText(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

type prescriptionData struct {
	Patient            model.PatientView
	NIC                string
	AgeLine            string
	Notes              string
	Lines              []string
	TwoColumns         bool
	Date               string
	DoctorName         string
	InvestigationsToDo string
}

// treatmentLine renders "<brand or name> <dosage> <duration>".
func treatmentLine(l model.PrescriptionLine) string {
	parts := []string{l.DisplayName()}
	if d := strings.TrimSpace(l.Dosage); d != "" {
		parts = append(parts, d)
	}
	if d := l.DurationText(); d != "" {
		parts = append(parts, d)
	} else if l.DurationUnit == model.DurationSOS {
		parts = append(parts, "SOS")
	}
	return strings.Join(parts, " ")
}

func (s *Service) Prescription(ctx context.Context, doctorID, visitID string) (*model.Document, error) {
	vc, err := s.load(ctx, doctorID, visitID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Index(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	patient := vc.patient.View(s.now())
	ageLine := ageText(patient.Age) + "yrs"
	if patient.Gender != "" {
		ageLine += ", " + patient.Gender
	}

	lines := model.JoinPrescriptions(vc.visit.Prescriptions, catalog)
	data := prescriptionData{
		Patient:            patient,
		NIC:                deref(patient.NIC),
		AgeLine:            ageLine,
		Notes:              strings.TrimSpace(vc.visit.Notes),
		Lines:              make([]string, 0, len(lines)),
		TwoColumns:         len(lines) > twoColumnThreshold,
		Date:               vc.visit.Date.Format("2 January 2006"),
		DoctorName:         doctorName(vc.doctor),
		InvestigationsToDo: strings.Join(vc.visit.InvestigationsToDo, ", "),
	}
	for _, l := range lines {
		data.Lines = append(data.Lines, treatmentLine(l))
	}

	html, err := render("prescription.html", data)
	if err != nil {
		return nil, err
	}
	return &model.Document{Title: "Prescription - " + patient.Name, HTML: html}, nil
}

type referralData struct {
	Patient    model.PatientView
	NIC        string
	Date       string
	GenderAbbr string
	Age        string
	Allergies  string
	Recipient  string
	Body       string
	DoctorName string
}

func genderAbbr(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		return "M"
	case "female":
		return "F"
	default:
		return ""
	}
}

func allergyText(raw string) string {
	list := model.ParseAllergies(raw)
	labels := make([]string, 0, len(list))
	for _, a := range list {
		if l := strings.TrimSpace(a.Label()); l != "" {
			labels = append(labels, l)
		}
	}
	return strings.Join(labels, ", ")
}

func (s *Service) ReferralLetter(ctx context.Context, doctorID, visitID string) (*model.Document, error) {
	vc, err := s.load(ctx, doctorID, visitID)
	if err != nil {
		return nil, err
	}
	letter := vc.visit.ReferralLetter
	if letter == nil {
		return nil, apperrors.NotFound("Referral letter not found", nil)
	}

	patient := vc.patient.View(s.now())
	data := referralData{
		Patient:    patient,
		NIC:        deref(patient.NIC),
		Date:       vc.visit.Date.Format("01/02/2006"),
		GenderAbbr: genderAbbr(patient.Gender),
		Age:        ageText(patient.Age),
		Allergies:  allergyText(patient.Allergies),
		Recipient:  "Specialist",
		Body:       DefaultReferralBody,
		DoctorName: doctorName(vc.doctor),
	}
	if name := strings.TrimSpace(letter.ReferralDoctorName); name != "" {
		data.Recipient = name
	}
	if body := strings.TrimSpace(letter.ReferralLetterBody); body != "" {
		data.Body = letter.ReferralLetterBody
	}

	html, err := render("referral_letter.html", data)
	if err != nil {
		return nil, err
	}
	return &model.Document{Title: "Referral Letter - " + patient.Name, HTML: html}, nil
}

// EmailReferralLetter renders the visit's referral letter and mails it to to.
func (s *Service) EmailReferralLetter(ctx context.Context, doctorID, visitID, to string) error {
	doc, err := s.ReferralLetter(ctx, doctorID, visitID)
	if err != nil {
		return err
	}

	err = s.mailer.Send(ctx, email.Message{To: to, Subject: doc.Title, HTML: doc.HTML})
	if errors.Is(err, email.ErrDisabled) {
		return apperrors.Unavailable("Email delivery is not configured", err)
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	log.Info().Str("visit_id", visitID).Msg("referral letter emailed")
	return nil
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", apperrors.Internal(fmt.Errorf("rendering %s: %w", name, err))
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

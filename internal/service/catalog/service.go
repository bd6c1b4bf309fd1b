package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

type Service struct {
	repo repository.CatalogRepository
	now  func() time.Time
}

func NewService(repo repository.CatalogRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// newID returns "<prefix>-<unix ms>-<9 random chars>".
func (s *Service) newID(prefix string) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, s.now().UnixMilli(), suffix)
}

func (s *Service) medicines(ctx context.Context, doctorID string) (model.Medicines, error) {
	list, err := s.repo.GetMedicines(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

func (s *Service) investigations(ctx context.Context, doctorID string) (model.Investigations, error) {
	list, err := s.repo.GetInvestigations(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

// ListMedicines returns the doctor's medicines sorted by name.
func (s *Service) ListMedicines(ctx context.Context, doctorID string) ([]model.Medicine, error) {
	list, err := s.medicines(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Medicine, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Index is the medicine catalog keyed by id, empty when the doctor has none.
func (s *Service) Index(ctx context.Context, doctorID string) (model.MedicineIndex, error) {
	list, err := s.medicines(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return model.NewMedicineIndex(list), nil
}

func (s *Service) CreateMedicine(ctx context.Context, doctorID string, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.BadRequest("Medicine name is required", nil)
	}

	brands := make([]string, 0, len(req.Brands))
	for _, b := range req.Brands {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}

	med := model.Medicine{ID: s.newID("med"), Name: name, Brands: brands}

	list, err := s.medicines(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	// Read-modify-write of the whole list; concurrent appends may lose one.
	if err := s.repo.PutMedicines(ctx, doctorID, append(list, med)); err != nil {
		return nil, apperrors.Internal(err)
	}
	return &med, nil
}

// AddBrand appends a brand unless the medicine already has it under any casing.
func (s *Service) AddBrand(ctx context.Context, doctorID, medicineID string, req *model.AddBrandRequest) (*model.Medicine, error) {
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		return nil, apperrors.BadRequest("Brand name is required", nil)
	}
	if medicineID == "" {
		return nil, apperrors.BadRequest("Medicine ID is required", nil)
	}

	list, err := s.repo.GetMedicines(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("No medicines found", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	idx := -1
	for i := range list {
		if list[i].ID == medicineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NotFound("Medicine not found", nil)
	}

	med := &list[idx]
	if !med.HasBrand(brand) {
		med.Brands = append(med.Brands, brand)
	}
	if err := s.repo.PutMedicines(ctx, doctorID, list); err != nil {
		return nil, apperrors.Internal(err)
	}
	out := *med
	return &out, nil
}

func (s *Service) ListInvestigations(ctx context.Context, doctorID string) ([]model.Investigation, error) {
	list, err := s.investigations(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Investigation, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Service) CreateInvestigation(ctx context.Context, doctorID string, req *model.CreateInvestigationRequest) (*model.Investigation, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.BadRequest("Investigation name is required", nil)
	}

	inv := model.Investigation{
		ID:       s.newID("inv"),
		Name:     name,
		Category: strings.TrimSpace(req.Category),
	}

	list, err := s.investigations(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.PutInvestigations(ctx, doctorID, append(list, inv)); err != nil {
		return nil, apperrors.Internal(err)
	}
	return &inv, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/visit-logger/internal/model"
)

type catalogRepository struct {
	BaseRepository
}

const upsertCatalog = `
	INSERT INTO doctor_items (doctor_id, item_type, items, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (doctor_id, item_type) DO UPDATE
	SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`

const selectCatalog = `SELECT items FROM doctor_items WHERE doctor_id = $1 AND item_type = $2`

func (r *catalogRepository) GetMedicines(ctx context.Context, doctorID string) (model.Medicines, error) {
	start := time.Now()
	var items model.Medicines
	err := r.db.QueryRowxContext(ctx, selectCatalog, doctorID, model.ItemTypeMedicine).Scan(&items)
	if err := r.observe("catalog.get_medicines", start, err); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *catalogRepository) PutMedicines(ctx context.Context, doctorID string, medicines model.Medicines) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, upsertCatalog, doctorID, model.ItemTypeMedicine, medicines, r.now())
	return r.observe("catalog.put_medicines", start, err)
}

func (r *catalogRepository) GetInvestigations(ctx context.Context, doctorID string) (model.Investigations, error) {
	start := time.Now()
	var items model.Investigations
	err := r.db.QueryRowxContext(ctx, selectCatalog, doctorID, model.ItemTypeInvestigation).Scan(&items)
	if err := r.observe("catalog.get_investigations", start, err); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *catalogRepository) PutInvestigations(ctx context.Context, doctorID string, investigations model.Investigations) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, upsertCatalog, doctorID, model.ItemTypeInvestigation, investigations, r.now())
	return r.observe("catalog.put_investigations", start, err)
}

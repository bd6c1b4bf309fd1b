package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

// catalogRecord is one row of the doctor-items table.
type catalogRecord[T any] struct {
	DoctorID  string         `dynamodbav:"doctor_id"`
	ItemType  model.ItemType `dynamodbav:"item_type"`
	Items     []T            `dynamodbav:"items"`
	UpdatedAt time.Time      `dynamodbav:"updated_at"`
}

type catalogRepository struct {
	s *Store
}

func getCatalog[T any](ctx context.Context, s *Store, op, doctorID string, itemType model.ItemType) ([]T, error) {
	item, err := s.getItem(ctx, op, s.tables.DoctorItems, stringKey("doctor_id", doctorID, "item_type", string(itemType)))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repository.ErrNotFound
	}

	var rec catalogRecord[T]
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s catalog: %w", itemType, err)
	}
	if rec.Items == nil {
		rec.Items = []T{}
	}
	return rec.Items, nil
}

func putCatalog[T any](ctx context.Context, s *Store, op, doctorID string, itemType model.ItemType, items []T) error {
	if items == nil {
		items = []T{}
	}
	item, err := attributevalue.MarshalMap(catalogRecord[T]{
		DoctorID:  doctorID,
		ItemType:  itemType,
		Items:     items,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s catalog: %w", itemType, err)
	}
	return s.putItem(ctx, op, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.DoctorItems),
		Item:      item,
	})
}

func (r *catalogRepository) GetMedicines(ctx context.Context, doctorID string) (model.Medicines, error) {
	return getCatalog[model.Medicine](ctx, r.s, "catalog.get_medicines", doctorID, model.ItemTypeMedicine)
}

func (r *catalogRepository) PutMedicines(ctx context.Context, doctorID string, medicines model.Medicines) error {
	return putCatalog(ctx, r.s, "catalog.put_medicines", doctorID, model.ItemTypeMedicine, []model.Medicine(medicines))
}

func (r *catalogRepository) GetInvestigations(ctx context.Context, doctorID string) (model.Investigations, error) {
	return getCatalog[model.Investigation](ctx, r.s, "catalog.get_investigations", doctorID, model.ItemTypeInvestigation)
}

func (r *catalogRepository) PutInvestigations(ctx context.Context, doctorID string, investigations model.Investigations) error {
	return putCatalog(ctx, r.s, "catalog.put_investigations", doctorID, model.ItemTypeInvestigation, []model.Investigation(investigations))
}

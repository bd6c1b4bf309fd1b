package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

type visitRepository struct {
	s *Store
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	item, err := attributevalue.MarshalMap(visit)
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}
	return r.s.putItem(ctx, "visits.put", &dynamodb.PutItemInput{
		TableName: aws.String(r.s.tables.Visits),
		Item:      item,
	})
}

// Get resolves a visit by id through the visit-id index.
func (r *visitRepository) Get(ctx context.Context, visitID string) (*model.Visit, error) {
	keyCond := expression.Key("id").Equal(expression.Value(visitID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building visit query: %w", err)
	}

	items, err := r.s.query(ctx, "visits.query_id", &dynamodb.QueryInput{
		TableName:                 aws.String(r.s.tables.Visits),
		IndexName:                 aws.String(r.s.tables.VisitIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeVisit(items[0])
}

func (r *visitRepository) Replace(ctx context.Context, visit *model.Visit) error {
	item, err := attributevalue.MarshalMap(visit)
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building visit condition: %w", err)
	}

	err = r.s.putItem(ctx, "visits.replace", &dynamodb.PutItemInput{
		TableName:                aws.String(r.s.tables.Visits),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return repository.ErrNotFound
	}
	return err
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error) {
	keyCond := expression.Key("patient_id").Equal(expression.Value(patientID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building visit query: %w", err)
	}

	items, err := r.s.query(ctx, "visits.query_patient", &dynamodb.QueryInput{
		TableName:                 aws.String(r.s.tables.Visits),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	visits := make([]*model.Visit, 0, len(items))
	for _, item := range items {
		v, err := decodeVisit(item)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func decodeVisit(item map[string]types.AttributeValue) (*model.Visit, error) {
	var v model.Visit
	if err := attributevalue.UnmarshalMap(item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal visit: %w", err)
	}
	return &v, nil
}

package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

type doctorRepository struct {
	s *Store
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	item, err := r.s.getItem(ctx, "doctors.get", r.s.tables.Doctors, stringKey("id", id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repository.ErrNotFound
	}
	return decodeDoctor(item)
}

// GetByUsername uses the username index, or a filtered scan when no index is configured.
func (r *doctorRepository) GetByUsername(ctx context.Context, username string) (*model.Doctor, error) {
	var (
		items []map[string]types.AttributeValue
		err   error
	)

	if r.s.tables.UsernameIndex != "" {
		keyCond := expression.Key("username").Equal(expression.Value(username))
		expr, buildErr := expression.NewBuilder().WithKeyCondition(keyCond).Build()
		if buildErr != nil {
			return nil, fmt.Errorf("building username query: %w", buildErr)
		}
		items, err = r.s.query(ctx, "doctors.query_username", &dynamodb.QueryInput{
			TableName:                 aws.String(r.s.tables.Doctors),
			IndexName:                 aws.String(r.s.tables.UsernameIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
	} else {
		filter := expression.Name("username").Equal(expression.Value(username))
		expr, buildErr := expression.NewBuilder().WithFilter(filter).Build()
		if buildErr != nil {
			return nil, fmt.Errorf("building username scan: %w", buildErr)
		}
		items, err = r.s.scan(ctx, "doctors.scan_username", &dynamodb.ScanInput{
			TableName:                 aws.String(r.s.tables.Doctors),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeDoctor(items[0])
}

func (r *doctorRepository) Put(ctx context.Context, doctor *model.Doctor) error {
	item, err := attributevalue.MarshalMap(doctor)
	if err != nil {
		return fmt.Errorf("marshal doctor: %w", err)
	}
	return r.s.putItem(ctx, "doctors.put", &dynamodb.PutItemInput{
		TableName: aws.String(r.s.tables.Doctors),
		Item:      item,
	})
}

func decodeDoctor(item map[string]types.AttributeValue) (*model.Doctor, error) {
	var d model.Doctor
	if err := attributevalue.UnmarshalMap(item, &d); err != nil {
		return nil, fmt.Errorf("unmarshal doctor: %w", err)
	}
	return &d, nil
}

package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jwalitptl/visit-logger/internal/config"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Tables struct {
	Doctors       string
	Patients      string
	Visits        string
	DoctorItems   string
	UsernameIndex string
	VisitIDIndex  string
}

func TablesFromConfig(cfg config.DynamoDBConfig) Tables {
	return Tables{
		Doctors:       cfg.DoctorsTable,
		Patients:      cfg.PatientsTable,
		Visits:        cfg.VisitsTable,
		DoctorItems:   cfg.DoctorItemsTable,
		UsernameIndex: cfg.UsernameIndex,
		VisitIDIndex:  cfg.VisitIDIndex,
	}
}

// Store is a thin get/put/update/query/scan wrapper that times every call.
type Store struct {
	api     API
	tables  Tables
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewStore(api API, tables Tables, m *metrics.Metrics) *Store {
	return &Store{api: api, tables: tables, metrics: m, now: time.Now}
}

// NewClient builds a DynamoDB client for the configured region. A non-empty
// endpoint points it at DynamoDB Local or another compatible service.
func NewClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Set exposes the store through the repository interfaces.
func (s *Store) Set() *repository.Set {
	return &repository.Set{
		Doctors:  &doctorRepository{s},
		Patients: &patientRepository{s},
		Visits:   &visitRepository{s},
		Catalog:  &catalogRepository{s},
	}
}

// getItem returns nil when the key has no item.
func (s *Store) getItem(ctx context.Context, op, table string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	start := time.Now()
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	s.metrics.ObserveStore(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func (s *Store) putItem(ctx context.Context, op string, in *dynamodb.PutItemInput) error {
	start := time.Now()
	_, err := s.api.PutItem(ctx, in)
	s.metrics.ObserveStore(op, start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) updateItem(ctx context.Context, op string, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
	start := time.Now()
	out, err := s.api.UpdateItem(ctx, in)
	s.metrics.ObserveStore(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// query follows pagination until the last page.
func (s *Store) query(ctx context.Context, op string, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	start := time.Now()
	var items []map[string]types.AttributeValue

	p := dynamodb.NewQueryPaginator(s.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			s.metrics.ObserveStore(op, start, err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, page.Items...)
	}

	s.metrics.ObserveStore(op, start, nil)
	return items, nil
}

func (s *Store) scan(ctx context.Context, op string, in *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	start := time.Now()
	var items []map[string]types.AttributeValue

	p := dynamodb.NewScanPaginator(s.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			s.metrics.ObserveStore(op, start, err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, page.Items...)
	}

	s.metrics.ObserveStore(op, start, nil)
	return items, nil
}

func stringKey(pairs ...string) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key[pairs[i]] = &types.AttributeValueMemberS{Value: pairs[i+1]}
	}
	return key
}

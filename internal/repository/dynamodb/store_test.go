package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

// fakeAPI keeps one item per table+partition+sort key and serves queries
// from pre-seeded pages.
type fakeAPI struct {
	items     map[string]map[string]types.AttributeValue
	pages     [][]map[string]types.AttributeValue
	updateErr error
	lastPut   *dynamodb.PutItemInput
	lastQuery *dynamodb.QueryInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func keyString(table string, key map[string]types.AttributeValue) string {
	out := table
	for _, name := range []string{"id", "doctor_id", "patient_id", "item_type"} {
		if v, ok := key[name].(*types.AttributeValueMemberS); ok {
			out += "|" + name + "=" + v.Value
		}
	}
	return out
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyString(*in.TableName, in.Key)]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	key := map[string]types.AttributeValue{}
	for _, name := range []string{"doctor_id", "item_type", "patient_id"} {
		if v, ok := in.Item[name]; ok {
			key[name] = v
		}
	}
	f.items[keyString(*in.TableName, key)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQuery = in
	page := 0
	if in.ExclusiveStartKey != nil {
		page = 1
	}
	out := &dynamodb.QueryOutput{}
	if page < len(f.pages) {
		out.Items = f.pages[page]
	}
	if page+1 < len(f.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"cursor": &types.AttributeValueMemberS{Value: "next"}}
	}
	return out, nil
}

func (f *fakeAPI) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{Items: f.pages[0]}, nil
}

func testTables() Tables {
	return Tables{
		Doctors:       "doctors",
		Patients:      "patients",
		Visits:        "visits",
		DoctorItems:   "doctor-items",
		UsernameIndex: "username-index",
		VisitIDIndex:  "visit-id-index",
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	set := NewStore(api, testTables(), nil).Set()

	_, err := set.Catalog.GetMedicines(ctx, "doc-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	meds := model.Medicines{{ID: "med-1", Name: "Paracetamol", Brands: []string{"Panadol"}}}
	require.NoError(t, set.Catalog.PutMedicines(ctx, "doc-1", meds))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "M"}, api.lastPut.Item["item_type"])

	got, err := set.Catalog.GetMedicines(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, meds, got)

	_, err = set.Catalog.GetInvestigations(ctx, "doc-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientCreateStoresNullsForMissingFields(t *testing.T) {
	api := newFakeAPI()
	set := NewStore(api, testTables(), nil).Set()

	require.NoError(t, set.Patients.Create(context.Background(), &model.Patient{
		DoctorID: "doc-1", PatientID: "p1", Name: "Jane",
	}))

	for _, attr := range []string{"nic", "birthday", "phone_number", "age"} {
		assert.IsType(t, &types.AttributeValueMemberNULL{}, api.lastPut.Item[attr], attr)
	}
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Jane"}, api.lastPut.Item["name"])
}

func TestPatientUpdateMissingItemIsNotFound(t *testing.T) {
	api := newFakeAPI()
	api.updateErr = &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	set := NewStore(api, testTables(), nil).Set()

	_, err := set.Patients.Update(context.Background(), "doc-1", "p1", model.PatientPatch{Name: model.Some("X")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientUpdateExpression(t *testing.T) {
	patch := model.PatientPatch{
		Name:     model.Some("Jane"),
		Birthday: model.Some[*string](nil),
	}
	expr, err := patientUpdateExpression(patch, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	names := map[string]bool{}
	for _, n := range expr.Names() {
		names[n] = true
	}
	assert.True(t, names["name"])
	assert.True(t, names["birthday"])
	assert.True(t, names["updated_at"])
	assert.True(t, names["patient_id"])
	assert.False(t, names["nic"])
	assert.False(t, names["gender"])

	hasNull := false
	for _, v := range expr.Values() {
		if _, ok := v.(*types.AttributeValueMemberNULL); ok {
			hasNull = true
		}
	}
	assert.True(t, hasNull, "cleared birthday is written as NULL")
	assert.Contains(t, *expr.Update(), "SET")
}

func TestVisitQueriesFollowPaginationAndNormalizeLegacyInvestigations(t *testing.T) {
	api := newFakeAPI()
	api.pages = [][]map[string]types.AttributeValue{
		{{
			"id":             &types.AttributeValueMemberS{Value: "v1"},
			"patient_id":     &types.AttributeValueMemberS{Value: "p1"},
			"investigations": &types.AttributeValueMemberS{Value: "FBC normal"},
		}},
		{{
			"id":             &types.AttributeValueMemberS{Value: "v2"},
			"patient_id":     &types.AttributeValueMemberS{Value: "p1"},
			"investigations": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		}},
	}
	m := metrics.New("test", prometheus.NewRegistry())
	set := NewStore(api, testTables(), m).Set()

	visits, err := set.Visits.ListByPatient(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "FBC normal", visits[0].Investigations[0].InvestigationName)
	assert.Empty(t, visits[1].Investigations)
	assert.Nil(t, api.lastQuery.IndexName)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("visits.query_patient", "success")))

	v, err := set.Visits.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, "visit-id-index", *api.lastQuery.IndexName)
}

func TestDoctorByUsername(t *testing.T) {
	api := newFakeAPI()
	api.pages = [][]map[string]types.AttributeValue{{{
		"id":            &types.AttributeValueMemberS{Value: "doc-1"},
		"username":      &types.AttributeValueMemberS{Value: "doctor1"},
		"name":          &types.AttributeValueMemberS{Value: "Smith"},
		"password_hash": &types.AttributeValueMemberS{Value: "pass123"},
	}}}
	set := NewStore(api, testTables(), nil).Set()

	d, err := set.Doctors.GetByUsername(context.Background(), "doctor1")
	require.NoError(t, err)
	assert.Equal(t, "Smith", d.Name)
	assert.Equal(t, "pass123", d.PasswordHash)
	assert.Equal(t, "username-index", *api.lastQuery.IndexName)
}

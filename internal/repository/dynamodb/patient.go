package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
)

type patientRepository struct {
	s *Store
}

func patientKey(doctorID, patientID string) map[string]types.AttributeValue {
	return stringKey("doctor_id", doctorID, "patient_id", patientID)
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	item, err := attributevalue.MarshalMap(patient)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	return r.s.putItem(ctx, "patients.put", &dynamodb.PutItemInput{
		TableName: aws.String(r.s.tables.Patients),
		Item:      item,
	})
}

func (r *patientRepository) Get(ctx context.Context, doctorID, patientID string) (*model.Patient, error) {
	item, err := r.s.getItem(ctx, "patients.get", r.s.tables.Patients, patientKey(doctorID, patientID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repository.ErrNotFound
	}
	return decodePatient(item)
}

func (r *patientRepository) Update(ctx context.Context, doctorID, patientID string, patch model.PatientPatch) (*model.Patient, error) {
	expr, err := patientUpdateExpression(patch, r.s.now())
	if err != nil {
		return nil, err
	}

	out, err := r.s.updateItem(ctx, "patients.update", &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.s.tables.Patients),
		Key:                       patientKey(doctorID, patientID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return decodePatient(out.Attributes)
}

// ListByDoctor reads the doctor's whole partition. Search filtering happens
// in the service.
func (r *patientRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Patient, error) {
	keyCond := expression.Key("doctor_id").Equal(expression.Value(doctorID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building patient query: %w", err)
	}

	items, err := r.s.query(ctx, "patients.query_doctor", &dynamodb.QueryInput{
		TableName:                 aws.String(r.s.tables.Patients),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	patients := make([]*model.Patient, 0, len(items))
	for _, item := range items {
		p, err := decodePatient(item)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// patientUpdateExpression sets only the attributes the patch carries, plus
// updated_at, and requires the item to exist.
func patientUpdateExpression(patch model.PatientPatch, now time.Time) (expression.Expression, error) {
	update := expression.Set(expression.Name("updated_at"), expression.Value(now))

	set := func(attr string, value interface{}) {
		update = update.Set(expression.Name(attr), expression.Value(value))
	}
	if patch.Name.Set {
		set("name", patch.Name.Value)
	}
	if patch.Birthday.Set {
		set("birthday", patch.Birthday.Value)
	}
	if patch.Age.Set {
		set("age", patch.Age.Value)
	}
	if patch.PhoneNumber.Set {
		set("phone_number", patch.PhoneNumber.Value)
	}
	if patch.Gender.Set {
		set("gender", patch.Gender.Value)
	}
	if patch.PastMedicalHistory.Set {
		set("pastMedicalHistory", patch.PastMedicalHistory.Value)
	}
	if patch.FamilyHistory.Set {
		set("familyHistory", patch.FamilyHistory.Value)
	}
	if patch.Allergies.Set {
		set("allergies", patch.Allergies.Value)
	}
	if patch.DrugHistory.Set {
		drugs := patch.DrugHistory.Value
		if drugs == nil {
			drugs = model.DrugHistory{}
		}
		set("drug_history", drugs)
	}

	cond := expression.AttributeExists(expression.Name("patient_id"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("building patient update: %w", err)
	}
	return expr, nil
}

func decodePatient(item map[string]types.AttributeValue) (*model.Patient, error) {
	var p model.Patient
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	return &p, nil
}

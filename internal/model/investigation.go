package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// InvestigationResult is one investigation recorded on a visit.
type InvestigationResult struct {
	InvestigationID   string `json:"investigationId" dynamodbav:"investigationId"`
	InvestigationName string `json:"investigationName" dynamodbav:"investigationName"`
	Result            string `json:"result" dynamodbav:"result"`
	Date              string `json:"date" dynamodbav:"date"`
	IsHistorical      bool   `json:"isHistorical" dynamodbav:"isHistorical"`
}

// InvestigationResults is the canonical list form. Older records store a
// single free-text string; every decoder here folds that into the list form.
type InvestigationResults []InvestigationResult

func legacyInvestigations(s string) InvestigationResults {
	if s == "" {
		return InvestigationResults{}
	}
	return InvestigationResults{{InvestigationName: s}}
}

func (r *InvestigationResults) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*r = InvestigationResults{}
		return nil
	case string:
		*r = legacyInvestigations(v)
		return nil
	case []interface{}:
		var list []InvestigationResult
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = InvestigationResults(list)
		return nil
	default:
		return fmt.Errorf("investigations: unsupported JSON type %T", raw)
	}
}

func (r *InvestigationResults) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		*r = InvestigationResults{}
		return nil
	case *types.AttributeValueMemberS:
		*r = legacyInvestigations(v.Value)
		return nil
	case *types.AttributeValueMemberL:
		list := []InvestigationResult{}
		if err := attributevalue.UnmarshalList(v.Value, &list); err != nil {
			return err
		}
		*r = InvestigationResults(list)
		return nil
	default:
		return fmt.Errorf("investigations: unsupported attribute type %T", av)
	}
}

func (r *InvestigationResults) Scan(src interface{}) error {
	if src == nil {
		*r = InvestigationResults{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("investigations: unsupported column type %T", src)
	}
	if len(data) == 0 {
		*r = InvestigationResults{}
		return nil
	}
	return r.UnmarshalJSON(data)
}

func (r InvestigationResults) Value() (driver.Value, error) {
	if r == nil {
		r = InvestigationResults{}
	}
	return jsonValue([]InvestigationResult(r))
}

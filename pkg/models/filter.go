package models

import (
	"encoding/json"
	"fmt"
)

type Operator string

const (
	OperatorEqual     Operator = "equal"
	OperatorNotEqual  Operator = "notequal"
	OperatorLastMonth Operator = "lastmonth"
	OperatorThisMonth Operator = "thismonth"
)

// Condition is one field/operator/value triple of a record query.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Filter is a conjunction of conditions, optionally scoped to a saved list view.
type Filter struct {
	ListID     int         `json:"list_id,omitempty"`
	Conditions []Condition `json:"conditions"`
}

func Equal(field string, values ...string) Condition {
	return Condition{Field: field, Operator: OperatorEqual, Value: values}
}

// EqualFlag matches a checkbox field, which the CRM compares numerically.
func EqualFlag(field string, set bool) Condition {
	value := 0
	if set {
		value = 1
	}

	return Condition{Field: field, Operator: OperatorEqual, Value: value}
}

func LastMonth(field string) Condition {
	return Condition{Field: field, Operator: OperatorLastMonth, Value: ""}
}

func (f Filter) And(conditions ...Condition) Filter {
	f.Conditions = append(append([]Condition{}, f.Conditions...), conditions...)

	return f
}

// Query renders the conditions as the CRM's nested-array query expression,
// e.g. [[["paymentsstatus","equal",["Failure"]],["createdtime","lastmonth",""]]].
func (f Filter) Query() (string, error) {
	group := make([][]any, 0, len(f.Conditions))

	for _, c := range f.Conditions {
		if c.Field == "" || c.Operator == "" {
			return "", fmt.Errorf("invalid filter condition %+v", c)
		}

		group = append(group, []any{c.Field, string(c.Operator), c.Value})
	}

	encoded, err := json.Marshal([][][]any{group})
	if err != nil {
		return "", fmt.Errorf("failed to encode filter: %w", err)
	}

	return string(encoded), nil
}

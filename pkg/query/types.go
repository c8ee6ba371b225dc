package query

import (
	"errors"
	"fmt"
)

// Operator is a comparison operator usable in a Predicate.
type Operator string

const (
	OpEqual     Operator = "="
	OpLess      Operator = "<"
	OpLessEq    Operator = "<="
	OpGreater   Operator = ">"
	OpGreaterEq Operator = ">="
	OpIn        Operator = "in"
)

var validOps = map[Operator]bool{
	OpEqual: true, OpLess: true, OpLessEq: true, OpGreater: true, OpGreaterEq: true, OpIn: true,
}

var (
	ErrInvalidOperator = errors.New("query: invalid operator")
	ErrUnknownColumn   = errors.New("query: unknown column")
)

// Predicate is a single column condition. Value is used by every operator
// except OpIn, which uses Values. Values are compared in storage form;
// callers normalize identifier values before building predicates.
type Predicate struct {
	Column   string
	Operator Operator
	Value    any
	Values   []any
}

// Where builds a comparison predicate.
func Where(column string, op Operator, value any) Predicate {
	return Predicate{Column: column, Operator: op, Value: value}
}

// In builds a set-membership predicate.
func In(column string, values ...any) Predicate {
	return Predicate{Column: column, Operator: OpIn, Values: values}
}

// ParseOperator accepts the textual operators used by the CLI and the API.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	switch s {
	case "==", "eq":
		op = OpEqual
	case "lt":
		op = OpLess
	case "lte":
		op = OpLessEq
	case "gt":
		op = OpGreater
	case "gte":
		op = OpGreaterEq
	case "IN":
		op = OpIn
	}
	if !validOps[op] {
		return "", fmt.Errorf("%w: %s", ErrInvalidOperator, s)
	}
	return op, nil
}

// Validate checks if the predicate is properly formed
func (p Predicate) Validate() error {
	if p.Column == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if p.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	if !validOps[p.Operator] {
		return fmt.Errorf("%w: %s", ErrInvalidOperator, p.Operator)
	}
	if p.Operator == OpIn && p.Value != nil {
		return fmt.Errorf("operator in takes Values, not Value")
	}
	return nil
}

func (p Predicate) String() string {
	if p.Operator == OpIn {
		return fmt.Sprintf("%s in %v", p.Column, p.Values)
	}
	return fmt.Sprintf("%s %s %v", p.Column, p.Operator, p.Value)
}

// Result is a matching row in storage form.
type Result struct {
	Key    []byte
	Values map[string]any
}

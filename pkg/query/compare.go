package query

import (
	"bytes"
	"strings"
)

// compare orders a stored value against a predicate value. ok is false when
// the two are not comparable, including when either side is NULL.
func compare(stored, target any) (c int, ok bool) {
	switch s := stored.(type) {
	case []byte:
		if t, isBytes := target.([]byte); isBytes {
			return bytes.Compare(s, t), true
		}
	case string:
		if t, isString := target.(string); isString {
			return strings.Compare(s, t), true
		}
	case int64:
		t, isInt := toInt64(target)
		if !isInt {
			return 0, false
		}
		switch {
		case s < t:
			return -1, true
		case s > t:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// matches evaluates p against a stored value.
func matches(stored any, p Predicate) bool {
	if p.Operator == OpIn {
		for _, v := range p.Values {
			if c, ok := compare(stored, v); ok && c == 0 {
				return true
			}
		}
		return false
	}

	c, ok := compare(stored, p.Value)
	if !ok {
		return false
	}
	switch p.Operator {
	case OpEqual:
		return c == 0
	case OpLess:
		return c < 0
	case OpLessEq:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEq:
		return c >= 0
	}
	return false
}

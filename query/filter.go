package query

import (
	"math"
	"strings"
)

// Op identifies a filter operator. The set is closed: every operator the
// parameter language accepts has a constant here and a single evaluation
// branch in evaluate.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpContains
	OpIContains
	OpStartsWith
	OpEndsWith
	OpIn
	OpGreaterThan
	OpGreaterEqual
	OpLessThan
	OpLessEqual
)

// opNames maps the operator names accepted in parameter keys to their Op.
var opNames = map[string]Op{
	"equals":     OpEquals,
	"not_equals": OpNotEquals,
	"contains":   OpContains,
	"icontains":  OpIContains,
	"startswith": OpStartsWith,
	"endswith":   OpEndsWith,
	"in":         OpIn,
	"gt":         OpGreaterThan,
	"gte":        OpGreaterEqual,
	"lt":         OpLessThan,
	"lte":        OpLessEqual,
}

// FilterSpec is a parsed (field, operator, value) triple before operator
// resolution.
type FilterSpec struct {
	Field    string
	Operator string
	Value    interface{}
}

// CompiledFilter is a FilterSpec bound to its resolved operator.
type CompiledFilter struct {
	FilterSpec
	Op Op
}

// compileFilters resolves every spec's operator name. An unknown operator
// name fails the query naming the offending operator.
func compileFilters(specs []FilterSpec) ([]CompiledFilter, error) {
	compiled := make([]CompiledFilter, len(specs))
	for i, spec := range specs {
		op, ok := opNames[spec.Operator]
		if !ok {
			return nil, errorf(ErrUnknownFilter, "unknown filter: %s", spec.Operator)
		}
		compiled[i] = CompiledFilter{FilterSpec: spec, Op: op}
	}
	return compiled, nil
}

// evaluate applies the operator to a resolved field value and the filter's
// comparison value. Type mismatches do not fail the query; they simply do
// not match.
func evaluate(op Op, value, operand interface{}) bool {
	switch op {
	case OpEquals:
		return equal(value, operand)
	case OpNotEquals:
		return !equal(value, operand)
	case OpContains, OpIContains, OpStartsWith, OpEndsWith:
		left, lok := toString(value)
		right, rok := toString(operand)
		if !lok || !rok {
			return false
		}
		switch op {
		case OpContains:
			return strings.Contains(left, right)
		case OpIContains:
			return strings.Contains(strings.ToLower(left), strings.ToLower(right))
		case OpStartsWith:
			return strings.HasPrefix(left, right)
		default:
			return strings.HasSuffix(left, right)
		}
	case OpIn:
		values, ok := operand.([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range values {
			if equal(value, candidate) {
				return true
			}
		}
		return false
	case OpGreaterThan:
		return ordered(value, operand, func(c int) bool { return c > 0 })
	case OpGreaterEqual:
		return ordered(value, operand, func(c int) bool { return c >= 0 })
	case OpLessThan:
		return ordered(value, operand, func(c int) bool { return c < 0 })
	case OpLessEqual:
		return ordered(value, operand, func(c int) bool { return c <= 0 })
	default:
		return false
	}
}

// equal reports whether two values are equal under loose numeric, string
// and boolean coercion.
func equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	if leftNum, ok := toFloat64(left); ok {
		if rightNum, ok := toFloat64(right); ok {
			return equalNumbers(leftNum, rightNum)
		}
		return false
	}

	if leftStr, ok := toString(left); ok {
		rightStr, ok := toString(right)
		return ok && leftStr == rightStr
	}

	if leftBool, ok := toBool(left); ok {
		rightBool, ok := toBool(right)
		return ok && leftBool == rightBool
	}

	return false
}

// ordered compares two values and applies accept to the three-way result.
// Incomparable values never match.
func ordered(left, right interface{}, accept func(int) bool) bool {
	cmp, ok := compareValues(left, right)
	if !ok {
		return false
	}
	return accept(cmp)
}

// compareValues returns -1, 0 or +1 for comparable value pairs. Numbers
// compare numerically across integer widths and floats, strings and bools
// compare within their own type.
func compareValues(left, right interface{}) (int, bool) {
	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)
	if leftIsNum && rightIsNum {
		if equalNumbers(leftNum, rightNum) {
			return 0, true
		}
		if leftNum < rightNum {
			return -1, true
		}
		return 1, true
	}

	leftStr, leftIsStr := toString(left)
	rightStr, rightIsStr := toString(right)
	if leftIsStr && rightIsStr {
		return strings.Compare(leftStr, rightStr), true
	}

	leftBool, leftIsBool := toBool(left)
	rightBool, rightIsBool := toBool(right)
	if leftIsBool && rightIsBool {
		switch {
		case leftBool == rightBool:
			return 0, true
		case rightBool:
			return -1, true
		default:
			return 1, true
		}
	}

	return 0, false
}

// equalNumbers compares floats with an epsilon scaled to their magnitude.
func equalNumbers(left, right float64) bool {
	const epsilon = 1e-9
	diff := math.Abs(left - right)
	threshold := epsilon * math.Max(1.0, math.Max(math.Abs(left), math.Abs(right)))
	return diff < threshold
}

// toFloat64 converts a value to float64 if possible
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// toString converts a value to string if possible
func toString(v interface{}) (string, bool) {
	if str, ok := v.(string); ok {
		return str, true
	}
	return "", false
}

// toBool converts a value to bool if possible
func toBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}

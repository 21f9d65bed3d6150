package query

// AggregateFunc computes a named reduction over a row subset.
type AggregateFunc interface {
	Execute(rows []map[string]interface{}) (interface{}, error)
}

// AggregateSpec pairs an output alias with its aggregate function.
type AggregateSpec struct {
	Name     string
	Function AggregateFunc
}

// countFunc counts rows. Its operand fields are accepted and ignored, so
// Count(*) and Count(anything) behave identically.
type countFunc struct {
	fields []string
}

func newCount(fields []string) AggregateFunc {
	return &countFunc{fields: fields}
}

func (c *countFunc) Execute(rows []map[string]interface{}) (interface{}, error) {
	return int64(len(rows)), nil
}

// sumFunc sums the named operand fields. With multiple operands the result
// is a single flattened total: every named field of every row contributes
// to one sum. An empty subset sums to zero.
type sumFunc struct {
	fields []string
}

func newSum(fields []string) AggregateFunc {
	return &sumFunc{fields: fields}
}

func (s *sumFunc) Execute(rows []map[string]interface{}) (interface{}, error) {
	total := 0.0
	for _, row := range rows {
		for _, field := range s.fields {
			value, ok := row[field]
			if !ok {
				return nil, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			n, ok := toFloat64(value)
			if !ok {
				return nil, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			total += n
		}
	}
	return total, nil
}

package query

import (
	"log/slog"
	"sort"
	"strings"
)

// LQL parameter grammar tokens.
const (
	// Delimiter prefixes directive parameters (_join, _fields, ...).
	Delimiter = "_"
	// OperatorSeparator splits a filter key into field and operator.
	OperatorSeparator = "__"
)

// JoinType selects how multiple filters' match-sets combine.
type JoinType int

const (
	JoinAnd JoinType = iota
	JoinOr
)

func (j JoinType) String() string {
	if j == JoinOr {
		return "OR"
	}
	return "AND"
}

// Directive parameter names.
const (
	directiveJoin      = Delimiter + "join"
	directiveFields    = Delimiter + "fields"
	directiveGroupBy   = Delimiter + "group_by"
	directiveAggregate = Delimiter + "aggregate"
)

// parsedParameters holds the structured directives of one query.
type parsedParameters struct {
	filters    []FilterSpec
	fields     []string
	join       JoinType
	aggregates []AggregateSpec
	groups     []string
}

// parseParameters turns a flat parameter map into structured directives.
//
// Parameter names are processed in sorted order so errors involving
// multiple filters are reported deterministically regardless of map
// iteration order.
func parseParameters(params map[string]string, logger *slog.Logger) (parsedParameters, error) {
	parsed := parsedParameters{join: JoinAnd}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	seenFields := make(map[string]bool)

	for _, name := range names {
		raw := params[name]
		logger.Debug("parsing parameter", "name", name, "value", raw)

		if !strings.HasPrefix(name, Delimiter) {
			value, err := parseValue(raw)
			if err != nil {
				return parsedParameters{}, err
			}

			field, operator := name, "equals"
			if strings.Contains(name, OperatorSeparator) {
				parts := strings.Split(name, OperatorSeparator)
				if len(parts) != 2 {
					return parsedParameters{}, errorf(ErrMultipleOperators, "only one filter per field is supported: %s", name)
				}
				field, operator = parts[0], parts[1]
			}
			if seenFields[field] {
				return parsedParameters{}, errorf(ErrMultipleOperators, "only one filter per field is supported: %s", field)
			}
			seenFields[field] = true

			parsed.filters = append(parsed.filters, FilterSpec{Field: field, Operator: operator, Value: value})
			continue
		}

		switch name {
		case directiveJoin:
			if strings.EqualFold(raw, "OR") {
				parsed.join = JoinOr
			}
			// Any other value means AND.
		case directiveFields:
			parsed.fields = splitList(raw)
		case directiveGroupBy:
			parsed.groups = splitList(raw)
		case directiveAggregate:
			aggregates, err := parseAggregates(raw, logger)
			if err != nil {
				return parsedParameters{}, err
			}
			parsed.aggregates = aggregates
		}
	}

	return parsed, nil
}

// parseAggregates parses a bracketed, comma-separated list of
// alias:Function(arg,...) entries. Commas inside argument lists do not
// split entries. Unrecognized function names are dropped.
func parseAggregates(raw string, logger *slog.Logger) ([]AggregateSpec, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}

	var aggregates []AggregateSpec
	for _, element := range splitTopLevel(s) {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}

		if strings.Count(element, ":") != 1 {
			return nil, errorf(ErrMissingAlias, "specify an alias for the aggregate")
		}
		alias, call, _ := strings.Cut(element, ":")
		alias = trimQuotes(strings.TrimSpace(alias))
		call = strings.TrimSpace(call)

		fn, ok := parseAggregateCall(call)
		if !ok {
			logger.Debug("dropping unrecognized aggregate function", "alias", alias, "call", call)
			continue
		}
		aggregates = append(aggregates, AggregateSpec{Name: alias, Function: fn})
	}

	return aggregates, nil
}

// parseAggregateCall constructs the aggregate function for one
// Function(arg,...) call. Only Count and Sum are recognized.
func parseAggregateCall(call string) (AggregateFunc, bool) {
	name, rest, found := strings.Cut(call, "(")
	if !found || !strings.HasSuffix(rest, ")") {
		return nil, false
	}

	var fields []string
	for _, arg := range strings.Split(strings.TrimSuffix(rest, ")"), ",") {
		if arg = strings.TrimSpace(arg); arg != "" {
			fields = append(fields, arg)
		}
	}

	switch name {
	case "Count":
		return newCount(fields), true
	case "Sum":
		return newSum(fields), true
	default:
		return nil, false
	}
}

// splitList splits a comma-separated directive value, dropping empty
// segments so an empty or trailing-comma value means the directive is
// absent rather than naming an empty field.
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// splitTopLevel splits on commas that are not inside parentheses, so
// "a:Count(*),b:Sum(x,y)" yields two elements.
func splitTopLevel(s string) []string {
	var elements []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				elements = append(elements, s[start:i])
				start = i + 1
			}
		}
	}
	return append(elements, s[start:])
}

// trimQuotes strips one layer of surrounding single or double quotes.
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

package query

import (
	"strconv"
	"strings"
)

// parseValue coerces a raw parameter value into a typed scalar or list.
//
// Quoted values become strings with the quotes stripped, bracketed values
// become lists of recursively coerced elements, and bare values are tried
// as bool, integer and float before falling back to a plain string. An
// unterminated quote or bracket is a malformed query.
func parseValue(raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`) {
		quote := s[:1]
		if len(s) < 2 || !strings.HasSuffix(s, quote) {
			return nil, errorf(ErrMalformedQuery, "malformed query: unterminated string %q", raw)
		}
		return s[1 : len(s)-1], nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, errorf(ErrMalformedQuery, "malformed query: unterminated list %q", raw)
		}
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return []interface{}{}, nil
		}
		parts := splitElements(inner)
		values := make([]interface{}, len(parts))
		for i, part := range parts {
			value, err := parseValue(part)
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		return values, nil
	}

	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}

	return s, nil
}

// splitElements splits a list body on commas that sit outside quotes and
// outside nested brackets, so quoted elements may contain commas and lists
// may nest.
func splitElements(s string) []string {
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

package query

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseParameters_Filters(t *testing.T) {
	t.Run("plain parameter becomes equals filter", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"name": "alice"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		want := []FilterSpec{{Field: "name", Operator: "equals", Value: "alice"}}
		if !reflect.DeepEqual(parsed.filters, want) {
			t.Errorf("filters = %#v, want %#v", parsed.filters, want)
		}
	})

	t.Run("operator separator splits field and operator", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"age__gte": "21"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		want := []FilterSpec{{Field: "age", Operator: "gte", Value: int64(21)}}
		if !reflect.DeepEqual(parsed.filters, want) {
			t.Errorf("filters = %#v, want %#v", parsed.filters, want)
		}
	})

	t.Run("two separators rejected", func(t *testing.T) {
		_, err := parseParameters(map[string]string{"age__gte__lt": "21"}, discardLogger())
		var queryErr *Error
		if !errors.As(err, &queryErr) || queryErr.Kind != ErrMultipleOperators {
			t.Fatalf("parseParameters() error = %v, want ErrMultipleOperators", err)
		}
	})

	t.Run("duplicate field rejected", func(t *testing.T) {
		_, err := parseParameters(map[string]string{"age__gte": "21", "age__lt": "65"}, discardLogger())
		var queryErr *Error
		if !errors.As(err, &queryErr) || queryErr.Kind != ErrMultipleOperators {
			t.Fatalf("parseParameters() error = %v, want ErrMultipleOperators", err)
		}
	})

	t.Run("malformed value fails the query", func(t *testing.T) {
		_, err := parseParameters(map[string]string{"name": `"alice`}, discardLogger())
		var queryErr *Error
		if !errors.As(err, &queryErr) || queryErr.Kind != ErrMalformedQuery {
			t.Fatalf("parseParameters() error = %v, want ErrMalformedQuery", err)
		}
	})
}

func TestParseParameters_Directives(t *testing.T) {
	t.Run("join defaults to AND", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if parsed.join != JoinAnd {
			t.Errorf("join = %v, want JoinAnd", parsed.join)
		}
	})

	t.Run("join OR case-insensitive", func(t *testing.T) {
		for _, value := range []string{"OR", "or", "Or"} {
			parsed, err := parseParameters(map[string]string{"_join": value}, discardLogger())
			if err != nil {
				t.Fatalf("parseParameters() error = %v", err)
			}
			if parsed.join != JoinOr {
				t.Errorf("join for %q = %v, want JoinOr", value, parsed.join)
			}
		}
	})

	t.Run("unrecognized join value means AND", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_join": "XOR"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if parsed.join != JoinAnd {
			t.Errorf("join = %v, want JoinAnd", parsed.join)
		}
	})

	t.Run("fields split on commas", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_fields": "a,b,c"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if !reflect.DeepEqual(parsed.fields, []string{"a", "b", "c"}) {
			t.Errorf("fields = %v", parsed.fields)
		}
	})

	t.Run("group_by split on commas", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_group_by": "city,age"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if !reflect.DeepEqual(parsed.groups, []string{"city", "age"}) {
			t.Errorf("groups = %v", parsed.groups)
		}
	})

	t.Run("empty directive values mean absent", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_fields": "", "_group_by": ""}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if len(parsed.fields) != 0 || len(parsed.groups) != 0 {
			t.Errorf("fields = %v, groups = %v, want none", parsed.fields, parsed.groups)
		}
	})

	t.Run("empty list segments dropped", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_group_by": "city,,age,"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if !reflect.DeepEqual(parsed.groups, []string{"city", "age"}) {
			t.Errorf("groups = %v, want [city age]", parsed.groups)
		}
	})
}

func TestParseAggregates(t *testing.T) {
	t.Run("count and sum entries", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_aggregate": "(total:Count(*),salary:Sum(income))"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if len(parsed.aggregates) != 2 {
			t.Fatalf("aggregates = %d entries, want 2", len(parsed.aggregates))
		}
		if parsed.aggregates[0].Name != "total" || parsed.aggregates[1].Name != "salary" {
			t.Errorf("aggregate names = %q, %q", parsed.aggregates[0].Name, parsed.aggregates[1].Name)
		}
	})

	t.Run("quoted alias unwrapped", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_aggregate": `("total":Count(*))`}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if len(parsed.aggregates) != 1 || parsed.aggregates[0].Name != "total" {
			t.Fatalf("aggregates = %+v, want one entry named total", parsed.aggregates)
		}
	})

	t.Run("multi-argument sum is one entry", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_aggregate": "(t:Sum(a,b))"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if len(parsed.aggregates) != 1 {
			t.Fatalf("aggregates = %d entries, want 1", len(parsed.aggregates))
		}
	})

	t.Run("missing alias rejected", func(t *testing.T) {
		_, err := parseParameters(map[string]string{"_aggregate": "(Count(*))"}, discardLogger())
		var queryErr *Error
		if !errors.As(err, &queryErr) || queryErr.Kind != ErrMissingAlias {
			t.Fatalf("parseParameters() error = %v, want ErrMissingAlias", err)
		}
	})

	t.Run("unrecognized function dropped", func(t *testing.T) {
		parsed, err := parseParameters(map[string]string{"_aggregate": "(m:Median(x),t:Count(*))"}, discardLogger())
		if err != nil {
			t.Fatalf("parseParameters() error = %v", err)
		}
		if len(parsed.aggregates) != 1 || parsed.aggregates[0].Name != "t" {
			t.Fatalf("aggregates = %+v, want only t", parsed.aggregates)
		}
	})
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "a,b", []string{"a", "b"}},
		{"nested commas", "t:Sum(a,b),u:Count(*)", []string{"t:Sum(a,b)", "u:Count(*)"}},
		{"single", "t:Count(*)", []string{"t:Count(*)"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitTopLevel(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTopLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// Package jsonq filters result structures down to a requested field set.
//
// Fields are dotted paths compiled to JSONPath expressions, so nested
// payload members ("address.city") select correctly. The package operates
// on the shapes the query engine produces: row slices, grouped row
// mappings, and aggregate mappings.
package jsonq

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Select projects data down to the named fields.
//
// Row slices are projected per row, keyed by the requested field name.
// Grouped and aggregated mappings are walked and their row lists or leaf
// value maps projected in place. An unparsable field expression is a value
// error surfaced to the caller.
func Select(data interface{}, fields []string) (interface{}, error) {
	exprs := make([]jp.Expr, len(fields))
	for i, field := range fields {
		expr, err := jp.ParseString("$." + field)
		if err != nil {
			return nil, fmt.Errorf("invalid field expression %q: %w", field, err)
		}
		exprs[i] = expr
	}

	return apply(data, fields, exprs), nil
}

func apply(data interface{}, fields []string, exprs []jp.Expr) interface{} {
	switch d := data.(type) {
	case []map[string]interface{}:
		projected := make([]map[string]interface{}, len(d))
		for i, row := range d {
			projected[i] = projectRow(row, fields, exprs)
		}
		return projected
	case map[string]interface{}:
		return projectRow(d, fields, exprs)
	case map[string]map[string][]map[string]interface{}:
		// Grouped rows: project the rows inside every group.
		projected := make(map[string]map[string][]map[string]interface{}, len(d))
		for group, buckets := range d {
			projected[group] = make(map[string][]map[string]interface{}, len(buckets))
			for key, rows := range buckets {
				out := make([]map[string]interface{}, len(rows))
				for i, row := range rows {
					out[i] = projectRow(row, fields, exprs)
				}
				projected[group][key] = out
			}
		}
		return projected
	case map[string]map[string]map[string]interface{}:
		// Grouped aggregates: project the per-key alias maps.
		projected := make(map[string]map[string]map[string]interface{}, len(d))
		for group, buckets := range d {
			projected[group] = make(map[string]map[string]interface{}, len(buckets))
			for key, values := range buckets {
				projected[group][key] = projectRow(values, fields, exprs)
			}
		}
		return projected
	default:
		return data
	}
}

// projectRow builds a new row containing only the requested fields. Fields
// that do not resolve in a row are omitted from that row.
func projectRow(row map[string]interface{}, fields []string, exprs []jp.Expr) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for i, expr := range exprs {
		results := expr.Get(row)
		if len(results) > 0 {
			out[fields[i]] = results[0]
		}
	}
	return out
}

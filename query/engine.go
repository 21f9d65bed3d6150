// Package query executes LQL queries against in-memory datasets.
//
// An LQL query arrives as a flat parameter map, typically an HTTP query
// string: plain parameters are filters on record fields, parameters
// prefixed with the directive delimiter control join semantics, grouping,
// aggregation and field projection. Execution runs a fixed pipeline: parse
// parameters, compile filters, evaluate them per record, combine match-sets
// with AND/OR, retrieve survivors in dataset order up to a limit, group,
// aggregate, and project.
//
// Example:
//
//	engine := query.New(dataset, query.Options{Limit: 100, Resolver: registry})
//	result, err := engine.Execute(map[string]string{
//	    "age__gte":  "21",
//	    "_group_by": "city",
//	})
package query

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/libredata/lql/geo"
	"github.com/libredata/lql/jsonq"
	"github.com/libredata/lql/source"
)

// Resolver looks up sibling datasets for cross-reference redirects.
// source.Registry implements it.
type Resolver interface {
	Dataset(slug string) (*source.Dataset, bool)
}

// Options configures an Engine.
type Options struct {
	// Limit is the maximum number of rows retrieved per query. A limit of
	// zero retrieves no rows; callers wanting every record must size the
	// limit to the dataset.
	Limit int

	// Resolver resolves sibling datasets for cross-reference redirects.
	// OPTIONAL: if nil, every cross-reference fails as an unknown source.
	Resolver Resolver

	// Geometry introspects geometry payloads for the _length, _area and
	// _type path segments.
	// OPTIONAL: defaults to geo.New().
	Geometry GeometryIntrospector

	// Logger receives per-query debug logging.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// Engine executes queries against one dataset. It holds no mutable state:
// every Execute call is an independent, synchronous pass over the dataset,
// and concurrent calls are safe as long as the dataset is not mutated.
type Engine struct {
	dataset *source.Dataset
	opts    Options
}

// New creates an engine bound to a dataset.
func New(dataset *source.Dataset, opts Options) *Engine {
	if opts.Geometry == nil {
		opts.Geometry = geo.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{dataset: dataset, opts: opts}
}

// Result is the outcome of one query execution.
type Result struct {
	// Source is the slug of the dataset that produced the result. It
	// differs from the queried dataset after a cross-reference redirect.
	Source string

	// Redirected reports whether the query was re-executed against a
	// sibling dataset.
	Redirected bool

	// Data holds the result: a row slice, a grouped-row mapping, a flat
	// aggregate mapping, a grouped aggregate mapping, or the projected
	// form of any of these.
	Data interface{}
}

// Execute runs the query described by params against the engine's dataset.
//
// All failures are user-input errors of type *Error; the engine has no
// internal fault modes. The one non-error abort is the cross-reference
// redirect: when a filter's first path segment names a sibling dataset, the
// whole query is re-executed against that dataset and its result returned
// with Redirected set.
func (e *Engine) Execute(params map[string]string) (*Result, error) {
	if params == nil {
		params = map[string]string{}
	}

	parsed, err := parseParameters(params, e.opts.Logger)
	if err != nil {
		return nil, err
	}

	filters, err := compileFilters(parsed.filters)
	if err != nil {
		return nil, err
	}

	e.opts.Logger.Debug("executing query",
		"source", e.dataset.Slug,
		"filters", len(filters),
		"join", parsed.join.String(),
		"groups", len(parsed.groups),
		"aggregates", len(parsed.aggregates))

	resolver := fieldResolver{slug: e.dataset.Slug, geometry: e.opts.Geometry}

	// Evaluate filters in declaration order, each as one in-order scan of
	// the dataset, folding the per-filter match-sets as we go.
	var matched *roaring.Bitmap
	for _, filter := range filters {
		matches := roaring.New()
		for pos, record := range e.dataset.Records {
			res, err := resolver.resolve(record.Row, filter.Field)
			if err != nil {
				return nil, err
			}
			if res.redirect != "" {
				return e.redirect(res.redirect, params)
			}
			if evaluate(filter.Op, res.value, filter.Value) {
				matches.Add(uint32(pos))
			}
		}

		if matched == nil {
			matched = matches
		} else if parsed.join == JoinAnd {
			matched.And(matches)
		} else {
			matched.Or(matches)
		}
	}

	rows := e.retrieve(matched, len(filters) > 0)

	var data interface{} = rows

	var grouped map[string]map[string][]map[string]interface{}
	if len(parsed.groups) > 0 {
		grouped, err = groupRows(rows, parsed.groups)
		if err != nil {
			return nil, err
		}
		data = grouped
	}

	if len(parsed.aggregates) > 0 {
		data, err = aggregateResult(rows, grouped, parsed.groups, parsed.aggregates)
		if err != nil {
			return nil, err
		}
	}

	if len(parsed.fields) > 0 {
		data, err = projectResult(data, parsed.fields)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Source: e.dataset.Slug, Data: data}, nil
}

// redirect re-executes the whole query against the sibling dataset
// registered under slug, or fails if no such dataset exists.
func (e *Engine) redirect(slug string, params map[string]string) (*Result, error) {
	if e.opts.Resolver != nil {
		if sibling, ok := e.opts.Resolver.Dataset(slug); ok {
			e.opts.Logger.Debug("redirecting query", "from", e.dataset.Slug, "to", slug)
			result, err := New(sibling, e.opts).Execute(params)
			if err != nil {
				return nil, err
			}
			result.Redirected = true
			return result, nil
		}
	}
	return nil, errorf(ErrUnknownSource, "unknown source: %s", slug)
}

// retrieve produces the surviving row payloads in ascending position order,
// truncated to the configured limit. With no filters the first limit
// records pass through; an empty match-set yields no rows.
func (e *Engine) retrieve(matched *roaring.Bitmap, filtered bool) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0)

	if !filtered {
		for _, record := range e.dataset.Records {
			if len(rows) >= e.opts.Limit {
				break
			}
			rows = append(rows, record.Row)
		}
		return rows
	}

	if matched == nil || matched.IsEmpty() {
		return rows
	}

	it := matched.Iterator()
	for it.HasNext() {
		if len(rows) >= e.opts.Limit {
			break
		}
		rows = append(rows, e.dataset.Records[it.Next()].Row)
	}
	return rows
}

// aggregateResult computes every requested aggregate, either once over the
// whole row set or per observed key of every group field.
func aggregateResult(rows []map[string]interface{}, grouped map[string]map[string][]map[string]interface{}, groups []string, aggregates []AggregateSpec) (interface{}, error) {
	if len(groups) == 0 {
		flat := make(map[string]interface{}, len(aggregates))
		for _, aggregate := range aggregates {
			value, err := aggregate.Function.Execute(rows)
			if err != nil {
				return nil, err
			}
			flat[aggregate.Name] = value
		}
		return flat, nil
	}

	nested := make(map[string]map[string]map[string]interface{}, len(groups))
	for _, group := range groups {
		nested[group] = make(map[string]map[string]interface{}, len(grouped[group]))
		for key, bucket := range grouped[group] {
			values := make(map[string]interface{}, len(aggregates))
			for _, aggregate := range aggregates {
				value, err := aggregate.Function.Execute(bucket)
				if err != nil {
					return nil, err
				}
				values[aggregate.Name] = value
			}
			nested[group][key] = values
		}
	}
	return nested, nil
}

// projectResult applies the field-projection pass, surfacing projection
// failures as query errors.
func projectResult(data interface{}, fields []string) (interface{}, error) {
	projected, err := jsonq.Select(data, fields)
	if err != nil {
		return nil, errorf(ErrInvalidProjection, "filter query error; %v", err)
	}
	return projected, nil
}

package query

import "strings"

// GeometryIntrospector computes derived properties of geometry payloads.
// The geo package provides the default implementation.
type GeometryIntrospector interface {
	Length(value interface{}) (float64, error)
	Area(value interface{}) (float64, error)
	TypeName(value interface{}) (string, error)
}

// Geometry accessor segments understood by field resolution.
const (
	segmentLength = "_length"
	segmentArea   = "_area"
	segmentType   = "_type"
)

// fieldResolver walks dotted field paths against record payloads.
type fieldResolver struct {
	slug     string
	geometry GeometryIntrospector
}

// resolution is the tagged outcome of resolving one field path: a value, a
// request to redirect the whole query to a sibling dataset, or an error.
type resolution struct {
	value    interface{}
	redirect string
}

// resolve applies the path's segments left to right against the record's
// payload.
//
// Geometry segments substitute the current value's derived property. A
// failed lookup on the first segment equal to the owning dataset's slug is
// a self-reference and is skipped; any other failed first-segment lookup
// becomes a redirect candidate for the engine to resolve. Failed lookups
// past the first segment, or a value that is not a mapping, fail the query.
func (r fieldResolver) resolve(row map[string]interface{}, field string) (resolution, error) {
	var current interface{} = row

	for i, part := range strings.Split(field, ".") {
		switch part {
		case segmentLength:
			length, err := r.geometry.Length(current)
			if err != nil {
				return resolution{}, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			current = length
		case segmentArea:
			area, err := r.geometry.Area(current)
			if err != nil {
				return resolution{}, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			current = area
		case segmentType:
			name, err := r.geometry.TypeName(current)
			if err != nil {
				return resolution{}, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			current = name
		default:
			mapping, ok := current.(map[string]interface{})
			if !ok {
				return resolution{}, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			value, ok := mapping[part]
			if !ok {
				if i == 0 {
					if part == r.slug {
						// Self-qualified field name; keep resolving
						// against the payload.
						continue
					}
					return resolution{redirect: part}, nil
				}
				return resolution{}, errorf(ErrInvalidElement, "invalid element: %s", field)
			}
			current = value
		}
	}

	return resolution{value: current}, nil
}

// Package geo computes derived properties of GeoJSON-shaped values.
//
// The query engine resolves field path segments _length, _area and _type by
// delegating to an Introspector. Values are the decoded JSON form of a
// GeoJSON geometry (a map with "type" and "coordinates" keys); they are
// converted to orb geometries and measured on the plane.
package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Introspector measures GeoJSON-shaped geometry payloads.
type Introspector struct{}

// New creates a geometry introspector.
func New() *Introspector {
	return &Introspector{}
}

// Length returns the planar length of the geometry. For polygons this is
// the perimeter, for points it is zero.
func (in *Introspector) Length(value interface{}) (float64, error) {
	geom, err := decode(value)
	if err != nil {
		return 0, err
	}
	return planar.Length(geom), nil
}

// Area returns the planar area of the geometry. Non-areal geometries
// (points, linestrings) have zero area.
func (in *Introspector) Area(value interface{}) (float64, error) {
	geom, err := decode(value)
	if err != nil {
		return 0, err
	}
	return planar.Area(geom), nil
}

// TypeName returns the GeoJSON type name of the geometry, e.g. "Polygon".
func (in *Introspector) TypeName(value interface{}) (string, error) {
	geom, err := decode(value)
	if err != nil {
		return "", err
	}
	return typeName(geom), nil
}

// decode converts a geometry payload to an orb geometry. Accepts the
// decoded JSON form (map), a raw GeoJSON string, raw bytes, or an orb
// geometry passed through directly.
func decode(value interface{}) (orb.Geometry, error) {
	switch v := value.(type) {
	case orb.Geometry:
		return v, nil
	case []byte:
		return unmarshal(v)
	case string:
		return unmarshal([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("value is not a geometry: %w", err)
		}
		return unmarshal(data)
	}
}

func unmarshal(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	return g.Geometry(), nil
}

// typeName returns the GeoJSON type name for an orb geometry.
func typeName(geom orb.Geometry) string {
	switch geom.(type) {
	case orb.Point:
		return "Point"
	case orb.MultiPoint:
		return "MultiPoint"
	case orb.LineString:
		return "LineString"
	case orb.MultiLineString:
		return "MultiLineString"
	case orb.Polygon:
		return "Polygon"
	case orb.MultiPolygon:
		return "MultiPolygon"
	case orb.Collection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

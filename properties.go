package pt2itp

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"
)

// Namespaced properties consumed by the downstream geocoder. Names must be kept as is.
const (
	PropAddressNumber      = "carmen:addressnumber"
	PropParityLeft         = "carmen:parityl"
	PropFromLeft           = "carmen:lfromhn"
	PropToLeft             = "carmen:ltohn"
	PropParityRight        = "carmen:parityr"
	PropFromRight          = "carmen:rfromhn"
	PropToRight            = "carmen:rtohn"
	PropAddressProps       = "address_props"
	PropCarmenAddressProps = "carmen:addressprops"
	PropText               = "carmen:text"
	PropGeocoderStack      = "carmen:geocoder_stack"
)

// rangeProperties is the order in which interpolation range arrays are trimmed
var rangeProperties = []string{
	PropParityLeft,
	PropFromLeft,
	PropToLeft,
	PropParityRight,
	PropFromRight,
	PropToRight,
}

// Parity values of an interpolation range
const (
	ParityOdd  = "O"
	ParityEven = "E"
	ParityBoth = "B"
)

// segmentCoordinates returns coordinates of single sub-geometry of cluster
func segmentCoordinates(geom *geojson.Geometry) ([][]float64, error) {
	if geom == nil {
		return nil, fmt.Errorf("empty geometry")
	}
	switch geom.Type {
	case geojson.GeometryMultiPoint:
		return geom.MultiPoint, nil
	case geojson.GeometryLineString:
		return geom.LineString, nil
	default:
		return nil, fmt.Errorf("geometry type '%s' does not carry address coordinates", geom.Type)
	}
}

// setSegmentCoordinates replaces coordinates of single sub-geometry of cluster
func setSegmentCoordinates(geom *geojson.Geometry, coords [][]float64) {
	switch geom.Type {
	case geojson.GeometryMultiPoint:
		geom.MultiPoint = coords
	case geojson.GeometryLineString:
		geom.LineString = coords
	}
}

// truthy reports whether a decoded JSON value counts as present.
// The string "0" is present, numeric zero is not.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case uint:
		return t != 0
	case uint64:
		return t != 0
	case uint32:
		return t != 0
	}
	return true
}

// numericValue returns float representation of any Go numeric type
func numericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case uint32:
		return float64(t), true
	}
	return 0, false
}

// sameNumber compares two address numbers with strict equality: numbers by value, strings by content,
// never a string against a number. Objects and arrays are never equal to anything.
func sameNumber(a, b interface{}) bool {
	if af, ok := numericValue(a); ok {
		bf, ok := numericValue(b)
		return ok && af == bf
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	}
	return false
}

// propertyArray returns property as []interface{} if it is one
func propertyArray(props map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := props[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}

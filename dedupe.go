package pt2itp

import (
	"github.com/pkg/errors"

	geojson "github.com/paulmach/go.geojson"
)

// Dedupe removes duplicate address numbers within every address segment of the cluster.
//
// Coordinates and per-point metadata follow their numbers. The feature is mutated in place and returned.
// Features without address numbers or geometries are returned untouched.
//
// Notes:
// 	address_props is replaced segment by segment, so only metadata of the last processed segment survives.
// 	When a segment ends up empty its geometry and one entry of every range array are removed
// 	and processing stops right there: following segments are left as is.
func Dedupe(feat *geojson.Feature) (*geojson.Feature, error) {
	if feat == nil || feat.Properties == nil || !truthy(feat.Properties[PropAddressNumber]) {
		return feat, nil
	}
	numberSets, ok := feat.Properties[PropAddressNumber].([]interface{})
	if !ok {
		return feat, nil
	}
	if feat.Geometry == nil || len(feat.Geometry.Geometries) == 0 {
		return feat, nil
	}

	if truthy(feat.Properties[PropCarmenAddressProps]) {
		return feat, ErrOrderingViolation
	}
	if !truthy(feat.Properties[PropAddressProps]) {
		feat.Properties[PropAddressProps] = []interface{}{}
	}

	featureID := featureIdentifier(feat)
	for i := range numberSets {
		numbers, ok := numberSets[i].([]interface{})
		if !ok {
			continue
		}
		if i >= len(feat.Geometry.Geometries) {
			return feat, newInputShapeError(featureID, "address segment %d has no geometry (%d geometries)", i, len(feat.Geometry.Geometries))
		}
		addressProps, _ := propertyArray(feat.Properties, PropAddressProps)
		segment, err := readSegment(featureID, numbers, feat.Geometry.Geometries[i], addressProps)
		if err != nil {
			return feat, errors.Wrapf(err, "Can't read address segment %d", i)
		}
		segment = segment.unique()

		if len(segment) == 0 {
			if err := dropSegment(feat, featureID, i); err != nil {
				return feat, err
			}
			return feat, nil
		}

		uniqueNumbers, coords, props := segment.flatten()
		numberSets[i] = uniqueNumbers
		setSegmentCoordinates(feat.Geometry.Geometries[i], coords)
		feat.Properties[PropAddressProps] = props
	}
	return feat, nil
}

// dropSegment removes i-th segment together with address numbers and trailing entries of range arrays
func dropSegment(feat *geojson.Feature, featureID int64, i int) error {
	ranges := make([][]interface{}, len(rangeProperties))
	for k, prop := range rangeProperties {
		arr, ok := propertyArray(feat.Properties, prop)
		if !ok {
			return newInputShapeError(featureID, "range property '%s' is not an array", prop)
		}
		ranges[k] = arr
	}

	// Segment is empty: the emptied address list is written back before the whole property goes away
	numberSets := feat.Properties[PropAddressNumber].([]interface{})
	numberSets[i] = []interface{}{}
	setSegmentCoordinates(feat.Geometry.Geometries[i], [][]float64{})
	feat.Properties[PropAddressProps] = []interface{}{}

	delete(feat.Properties, PropAddressNumber)
	for k, prop := range rangeProperties {
		if len(ranges[k]) > 0 {
			feat.Properties[prop] = ranges[k][:len(ranges[k])-1]
		}
	}
	geoms := feat.Geometry.Geometries
	feat.Geometry.Geometries = append(geoms[:i:i], geoms[i+1:]...)
	return nil
}

// featureIdentifier extracts numeric identifier of feature for error reporting
func featureIdentifier(feat *geojson.Feature) int64 {
	if v, ok := numericValue(feat.ID); ok {
		return int64(v)
	}
	return 0
}

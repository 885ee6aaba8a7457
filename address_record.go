package pt2itp

import (
	geojson "github.com/paulmach/go.geojson"
)

// AddressRecord is single address point of a cluster segment: number, location and per-point metadata kept together
type AddressRecord struct {
	Number     interface{}
	Coordinate []float64
	Props      interface{}
}

// AddressSegment is ordered set of address records belonging to one sub-geometry
type AddressSegment []AddressRecord

// readSegment collects records of i-th segment from the flat namespaced arrays
func readSegment(featureID int64, numbers []interface{}, geom *geojson.Geometry, addressProps []interface{}) (AddressSegment, error) {
	coords, err := segmentCoordinates(geom)
	if err != nil {
		return nil, newInputShapeError(featureID, "%s", err.Error())
	}
	segment := make(AddressSegment, 0, len(numbers))
	for j, number := range numbers {
		if !truthy(number) {
			continue
		}
		if j >= len(coords) {
			return nil, newInputShapeError(featureID, "address number %d has no coordinate (%d coordinates)", j, len(coords))
		}
		var props interface{}
		if j < len(addressProps) && truthy(addressProps[j]) {
			props = addressProps[j]
		} else {
			props = map[string]interface{}{}
		}
		segment = append(segment, AddressRecord{
			Number:     number,
			Coordinate: coords[j],
			Props:      props,
		})
	}
	return segment, nil
}

// unique keeps first occurrence of every distinct number, preserving order
func (segment AddressSegment) unique() AddressSegment {
	result := make(AddressSegment, 0, len(segment))
	for _, record := range segment {
		seen := false
		for _, kept := range result {
			if sameNumber(kept.Number, record.Number) {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, record)
		}
	}
	return result
}

// flatten splits records back into parallel arrays
func (segment AddressSegment) flatten() (numbers []interface{}, coords [][]float64, props []interface{}) {
	numbers = make([]interface{}, len(segment))
	coords = make([][]float64, len(segment))
	props = make([]interface{}, len(segment))
	for i, record := range segment {
		numbers[i] = record.Number
		coords[i] = record.Coordinate
		props[i] = record.Props
	}
	return numbers, coords, props
}

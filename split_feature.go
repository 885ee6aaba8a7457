package pt2itp

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// Name is single street name variant
type Name struct {
	Display   string `json:"display" yaml:"display"`
	Tokenized string `json:"tokenized" yaml:"tokenized"`
	Tokenless string `json:"tokenless" yaml:"tokenless"`
}

// HouseNumber is address number as written on the ground: "10", "10a", "1/2"
type HouseNumber string

// UnmarshalJSON accepts both JSON numbers and strings
func (n *HouseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = HouseNumber(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.Wrap(err, "House number must be a string or a number")
	}
	*n = HouseNumber(num.String())
	return nil
}

// Numeric returns leading integer part of house number
func (n HouseNumber) Numeric() (int, bool) {
	s := strings.TrimSpace(string(n))
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// AddressAttributes is attributes of single address point matched against network
type AddressAttributes struct {
	ID     int64       `json:"id"`
	Output bool        `json:"output"`
	Number HouseNumber `json:"number"`
}

// SplitFeature is road network cluster with its candidate address points
type SplitFeature struct {
	ID    int64
	Names []Name
	// Addresses are ordered by ascending ID and aligned with Address geometry
	Addresses []AddressAttributes
	// Network is MultiLineString (LineString is accepted too)
	Network *geojson.Geometry
	// Address is MultiPoint
	Address *geojson.Geometry
	// Intersections are optional explicit cut points (e.g. crossing streets)
	Intersections [][]float64
	// Meta is optional per-point metadata aligned with Address geometry
	Meta []map[string]interface{}
}

// NewSplitFeature builds feature from attributes keyed by address id
func NewSplitFeature(id int64, names []Name, props map[int64]AddressAttributes, network, address *geojson.Geometry, meta []map[string]interface{}) *SplitFeature {
	return &SplitFeature{
		ID:        id,
		Names:     names,
		Addresses: orderAddresses(props),
		Network:   network,
		Address:   address,
		Meta:      meta,
	}
}

func orderAddresses(props map[int64]AddressAttributes) []AddressAttributes {
	ids := make([]int64, 0, len(props))
	for id := range props {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	result := make([]AddressAttributes, len(ids))
	for i, id := range ids {
		result[i] = props[id]
	}
	return result
}

type splitFeatureJSON struct {
	ID            int64                        `json:"id"`
	Names         []Name                       `json:"names"`
	Props         map[string]AddressAttributes `json:"props"`
	Network       *geojson.Geometry            `json:"network"`
	Address       *geojson.Geometry            `json:"address"`
	Intersections [][]float64                  `json:"intersections,omitempty"`
	Meta          []map[string]interface{}     `json:"meta,omitempty"`
}

// UnmarshalJSON decodes {"id", "names", "props", "network", "address", "intersections", "meta"}
func (feat *SplitFeature) UnmarshalJSON(data []byte) error {
	var raw splitFeatureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	props := make(map[int64]AddressAttributes, len(raw.Props))
	for key, attrs := range raw.Props {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "Address id '%s' is not an integer", key)
		}
		props[id] = attrs
	}
	*feat = *NewSplitFeature(raw.ID, raw.Names, props, raw.Network, raw.Address, raw.Meta)
	feat.Intersections = raw.Intersections
	return nil
}

// MarshalJSON encodes feature in the same shape UnmarshalJSON reads
func (feat *SplitFeature) MarshalJSON() ([]byte, error) {
	props := make(map[string]AddressAttributes, len(feat.Addresses))
	for _, attrs := range feat.Addresses {
		props[strconv.FormatInt(attrs.ID, 10)] = attrs
	}
	return json.Marshal(splitFeatureJSON{
		ID:            feat.ID,
		Names:         feat.Names,
		Props:         props,
		Network:       feat.Network,
		Address:       feat.Address,
		Intersections: feat.Intersections,
		Meta:          feat.Meta,
	})
}

// networkLines returns lines of network geometry
func (feat *SplitFeature) networkLines() ([][][]float64, error) {
	if feat.Network == nil {
		return nil, newInputShapeError(feat.ID, "network geometry is missing")
	}
	var lines [][][]float64
	switch feat.Network.Type {
	case geojson.GeometryMultiLineString:
		lines = feat.Network.MultiLineString
	case geojson.GeometryLineString:
		lines = [][][]float64{feat.Network.LineString}
	default:
		return nil, newInputShapeError(feat.ID, "network geometry must be MultiLineString, got '%s'", feat.Network.Type)
	}
	if len(lines) == 0 {
		return nil, newInputShapeError(feat.ID, "network geometry has no lines")
	}
	for i, line := range lines {
		if len(line) < 2 {
			return nil, newInputShapeError(feat.ID, "network line %d has %d coordinates", i, len(line))
		}
		for j, coord := range line {
			if len(coord) < 2 {
				return nil, newInputShapeError(feat.ID, "network line %d coordinate %d has %d dimensions", i, j, len(coord))
			}
		}
	}
	return lines, nil
}

// validate checks that geometries, attributes and metadata are aligned
func (feat *SplitFeature) validate() ([][][]float64, error) {
	lines, err := feat.networkLines()
	if err != nil {
		return nil, err
	}
	if len(feat.Names) == 0 {
		return nil, newInputShapeError(feat.ID, "at least one street name is required")
	}
	if feat.Address == nil || feat.Address.Type != geojson.GeometryMultiPoint {
		return nil, newInputShapeError(feat.ID, "address geometry must be MultiPoint")
	}
	if len(feat.Address.MultiPoint) != len(feat.Addresses) {
		return nil, newInputShapeError(feat.ID, "%d address points but %d address attributes", len(feat.Address.MultiPoint), len(feat.Addresses))
	}
	if len(feat.Meta) != 0 && len(feat.Meta) != len(feat.Addresses) {
		return nil, newInputShapeError(feat.ID, "%d address points but %d metadata entries", len(feat.Address.MultiPoint), len(feat.Meta))
	}
	for i, coord := range feat.Address.MultiPoint {
		if len(coord) < 2 {
			return nil, newInputShapeError(feat.ID, "address point %d has %d dimensions", i, len(coord))
		}
	}
	for i, coord := range feat.Intersections {
		if len(coord) < 2 {
			return nil, newInputShapeError(feat.ID, "intersection %d has %d dimensions", i, len(coord))
		}
	}
	return lines, nil
}

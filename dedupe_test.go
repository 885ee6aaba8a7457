package pt2itp

import (
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFeature(t *testing.T, raw string) *geojson.Feature {
	t.Helper()
	feat, err := geojson.UnmarshalFeature([]byte(raw))
	require.NoError(t, err)
	return feat
}

func TestDedupeNoop(t *testing.T) {
	t.Run("nil feature", func(t *testing.T) {
		feat, err := Dedupe(nil)
		assert.NoError(t, err)
		assert.Nil(t, feat)
	})

	cases := map[string]string{
		"no properties":       `{"type":"Feature","geometry":{"type":"GeometryCollection","geometries":[{"type":"MultiPoint","coordinates":[[1,1]]}]}}`,
		"no address numbers":  `{"type":"Feature","properties":{},"geometry":{"type":"GeometryCollection","geometries":[{"type":"MultiPoint","coordinates":[[1,1]]}]}}`,
		"numbers not array":   `{"type":"Feature","properties":{"carmen:addressnumber":"1"},"geometry":{"type":"GeometryCollection","geometries":[{"type":"MultiPoint","coordinates":[[1,1]]}]}}`,
		"empty geometries":    `{"type":"Feature","properties":{"carmen:addressnumber":[[1,1]]},"geometry":{"type":"GeometryCollection","geometries":[]}}`,
		"null address number": `{"type":"Feature","properties":{"carmen:addressnumber":null},"geometry":{"type":"GeometryCollection","geometries":[{"type":"MultiPoint","coordinates":[[1,1]]}]}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			feat := mustFeature(t, raw)
			before, err := feat.MarshalJSON()
			require.NoError(t, err)

			out, err := Dedupe(feat)
			require.NoError(t, err)
			assert.Same(t, feat, out)

			after, err := out.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after))
		})
	}
}

func TestDedupeOrderPreservation(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"properties": {
			"carmen:addressnumber": [null, [5, 3, 5, 3, 7]],
			"address_props": [{"i": 0}, {"i": 1}, {"i": 2}, {"i": 3}, {"i": 4}]
		},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiLineString", "coordinates": [[[0, 0], [1, 1]]]},
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2], [3, 3], [4, 4]]}
		]}
	}`)

	out, err := Dedupe(feat)
	require.NoError(t, err)

	numbers := out.Properties[PropAddressNumber].([]interface{})
	assert.Nil(t, numbers[0])
	assert.Equal(t, []interface{}{5.0, 3.0, 7.0}, numbers[1])
	assert.Equal(t, [][]float64{{0, 0}, {1, 1}, {4, 4}}, out.Geometry.Geometries[1].MultiPoint)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"i": 0.0},
		map[string]interface{}{"i": 1.0},
		map[string]interface{}{"i": 4.0},
	}, out.Properties[PropAddressProps])
	assert.Equal(t, [][][]float64{{{0, 0}, {1, 1}}}, out.Geometry.Geometries[0].MultiLineString)
}

func TestDedupeFalsySkip(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"properties": {
			"carmen:addressnumber": [["1", 0, "", null, "0", "1", "2"]]
		},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2], [3, 3], [4, 4], [5, 5], [6, 6]]}
		]}
	}`)

	out, err := Dedupe(feat)
	require.NoError(t, err)

	numbers := out.Properties[PropAddressNumber].([]interface{})
	assert.Equal(t, []interface{}{"1", "0", "2"}, numbers[0])
	assert.Equal(t, [][]float64{{0, 0}, {4, 4}, {6, 6}}, out.Geometry.Geometries[0].MultiPoint)
	// Missing metadata is replaced by empty objects
	assert.Equal(t, []interface{}{
		map[string]interface{}{},
		map[string]interface{}{},
		map[string]interface{}{},
	}, out.Properties[PropAddressProps])
}

func TestDedupeStringAndNumberDiffer(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"properties": {"carmen:addressnumber": [[10, "10", 10]]},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2]]}
		]}
	}`)
	out, err := Dedupe(feat)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{10.0, "10"}, out.Properties[PropAddressNumber].([]interface{})[0])
}

func TestDedupeAddressPropsOverwrittenPerSegment(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"properties": {
			"carmen:addressnumber": [[1, 1, 2], [7, 8]],
			"address_props": [{"p": "a"}, {"p": "b"}, {"p": "c"}]
		},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2]]},
			{"type": "MultiPoint", "coordinates": [[5, 5], [6, 6]]}
		]}
	}`)

	out, err := Dedupe(feat)
	require.NoError(t, err)

	// First segment keeps indices 0 and 2 -> props [a, c]; second segment reads props by its own indices from that list
	assert.Equal(t, []interface{}{
		map[string]interface{}{"p": "a"},
		map[string]interface{}{"p": "c"},
	}, out.Properties[PropAddressProps])
	assert.Equal(t, []interface{}{7.0, 8.0}, out.Properties[PropAddressNumber].([]interface{})[1])
}

const emptySegmentFeature = `{
	"type": "Feature",
	"properties": {
		"carmen:addressnumber": [[0, null, ""], [4, 4, 6]],
		"carmen:parityl": ["O", "E", null],
		"carmen:lfromhn": [1, 2, null],
		"carmen:ltohn": [11, 12, null],
		"carmen:parityr": ["E", "O", null],
		"carmen:rfromhn": [2, 1, null],
		"carmen:rtohn": [10, 13, null]
	},
	"geometry": {"type": "GeometryCollection", "geometries": [
		{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2]]},
		{"type": "MultiPoint", "coordinates": [[5, 5], [6, 6], [7, 7]]}
	]}
}`

func TestDedupeEmptySegmentRemoval(t *testing.T) {
	feat := mustFeature(t, emptySegmentFeature)

	out, err := Dedupe(feat)
	require.NoError(t, err)

	_, ok := out.Properties[PropAddressNumber]
	assert.False(t, ok, "address numbers must be deleted")

	assert.Equal(t, []interface{}{"O", "E"}, out.Properties[PropParityLeft])
	assert.Equal(t, []interface{}{1.0, 2.0}, out.Properties[PropFromLeft])
	assert.Equal(t, []interface{}{11.0, 12.0}, out.Properties[PropToLeft])
	assert.Equal(t, []interface{}{"E", "O"}, out.Properties[PropParityRight])
	assert.Equal(t, []interface{}{2.0, 1.0}, out.Properties[PropFromRight])
	assert.Equal(t, []interface{}{10.0, 13.0}, out.Properties[PropToRight])

	// Segment 0 geometry is gone, segment 1 is left untouched (duplicates included)
	require.Len(t, out.Geometry.Geometries, 1)
	assert.Equal(t, [][]float64{{5, 5}, {6, 6}, {7, 7}}, out.Geometry.Geometries[0].MultiPoint)
}

func TestDedupeEmptySegmentMissingRanges(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"properties": {"carmen:addressnumber": [[0]]},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0]]}
		]}
	}`)
	_, err := Dedupe(feat)
	require.Error(t, err)
	assert.True(t, IsInputShapeError(err))
	// Nothing was removed since the error is raised before the segment is dropped
	assert.Len(t, feat.Geometry.Geometries, 1)
}

func TestDedupeOrderingGuard(t *testing.T) {
	raw := `{
		"type": "Feature",
		"properties": {
			"carmen:addressnumber": [[1, 1]],
			"carmen:addressprops": {"postcode": {"0": "21093"}}
		},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1]]}
		]}
	}`
	feat := mustFeature(t, raw)

	_, err := Dedupe(feat)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderingViolation)

	after, err := feat.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(mustFeatureJSON(t, raw)), string(after))
	_, ok := feat.Properties[PropAddressProps]
	assert.False(t, ok)
}

func mustFeatureJSON(t *testing.T, raw string) []byte {
	t.Helper()
	b, err := mustFeature(t, raw).MarshalJSON()
	require.NoError(t, err)
	return b
}

func TestDedupeIdempotence(t *testing.T) {
	raw := `{
		"type": "Feature",
		"properties": {
			"carmen:addressnumber": [null, [5, 3, 5, 3, 7, 0]],
			"address_props": [{"a": 1}, {"a": 2}, {"a": 3}, {"a": 4}, {"a": 5}, {"a": 6}]
		},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiLineString", "coordinates": [[[0, 0], [1, 1]]]},
			{"type": "MultiPoint", "coordinates": [[0, 0], [1, 1], [2, 2], [3, 3], [4, 4], [5, 5]]}
		]}
	}`
	once, err := Dedupe(mustFeature(t, raw))
	require.NoError(t, err)
	onceJSON, err := once.MarshalJSON()
	require.NoError(t, err)

	twice, err := Dedupe(mustFeature(t, string(onceJSON)))
	require.NoError(t, err)
	twiceJSON, err := twice.MarshalJSON()
	require.NoError(t, err)

	assert.JSONEq(t, string(onceJSON), string(twiceJSON))
}

func TestDedupeMissingCoordinate(t *testing.T) {
	feat := mustFeature(t, `{
		"type": "Feature",
		"id": 12,
		"properties": {"carmen:addressnumber": [[1, 2, 3]]},
		"geometry": {"type": "GeometryCollection", "geometries": [
			{"type": "MultiPoint", "coordinates": [[0, 0]]}
		]}
	}`)
	_, err := Dedupe(feat)
	require.Error(t, err)
	assert.True(t, IsInputShapeError(err))
	assert.Contains(t, err.Error(), "feature 12")
}

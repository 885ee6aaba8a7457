package pt2itp

import (
	"encoding/json"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dulaneySplitFeature = `{
	"id": 1,
	"names": [{"display": "Dulaney Valley Road", "tokenized": "dulaney vly rd", "tokenless": "dulaney"}],
	"props": {
		"3": {"id": 3, "output": true, "number": "20"},
		"1": {"id": 1, "output": true, "number": 2},
		"2": {"id": 2, "output": false, "number": "10a"}
	},
	"network": {"type": "MultiLineString", "coordinates": [[[-79.43969249725342, 38.74246924858317], [-79.43917751312256, 38.74222238816381]]]},
	"address": {"type": "MultiPoint", "coordinates": [[-79.43893074989319, 38.74276213271957], [-79.43694591522217, 38.74308011985037], [-79.43537950515747, 38.74588336618241]]},
	"intersections": [[-79.43917751312256, 38.74222238816381]],
	"meta": [{}, {"postcode": "21093"}, {}]
}`

func TestSplitFeatureUnmarshal(t *testing.T) {
	feat := &SplitFeature{}
	require.NoError(t, json.Unmarshal([]byte(dulaneySplitFeature), feat))

	assert.Equal(t, int64(1), feat.ID)
	require.Len(t, feat.Names, 1)
	assert.Equal(t, "dulaney vly rd", feat.Names[0].Tokenized)
	assert.Equal(t, []AddressAttributes{
		{ID: 1, Output: true, Number: "2"},
		{ID: 2, Output: false, Number: "10a"},
		{ID: 3, Output: true, Number: "20"},
	}, feat.Addresses)
	assert.Equal(t, geojson.GeometryMultiLineString, feat.Network.Type)
	assert.Len(t, feat.Address.MultiPoint, 3)
	assert.Equal(t, [][]float64{{-79.43917751312256, 38.74222238816381}}, feat.Intersections)
	assert.Equal(t, "21093", feat.Meta[1]["postcode"])

	_, err := feat.validate()
	assert.NoError(t, err)
}

func TestSplitFeatureMarshal(t *testing.T) {
	feat := &SplitFeature{}
	require.NoError(t, json.Unmarshal([]byte(dulaneySplitFeature), feat))

	b, err := json.Marshal(feat)
	require.NoError(t, err)

	decoded := &SplitFeature{}
	require.NoError(t, json.Unmarshal(b, decoded))
	assert.Equal(t, feat, decoded)
}

func TestSplitFeatureUnmarshalErrors(t *testing.T) {
	feat := &SplitFeature{}
	err := json.Unmarshal([]byte(`{"id": 1, "props": {"first": {"id": 1, "number": "1"}}}`), feat)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id": 1, "props": {"1": {"id": 1, "number": [1]}}}`), feat)
	assert.Error(t, err)
}

func TestHouseNumber(t *testing.T) {
	tests := []struct {
		number  HouseNumber
		value   int
		numeric bool
	}{
		{"10", 10, true},
		{"10a", 10, true},
		{" 7 1/2", 7, true},
		{"A12", 0, false},
		{"", 0, false},
	}
	for _, test := range tests {
		value, ok := test.number.Numeric()
		assert.Equal(t, test.numeric, ok, string(test.number))
		assert.Equal(t, test.value, value, string(test.number))
	}
}

func TestReadSplitFeatures(t *testing.T) {
	input := strings.ReplaceAll(dulaneySplitFeature, "\n", "") + "\n\n" + strings.ReplaceAll(dulaneySplitFeature, "\n", "") + "\n"
	feats, err := ReadSplitFeatures(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, feats, 2)

	buf := &strings.Builder{}
	require.NoError(t, WriteSplitFeatures(buf, feats))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	_, err = ReadSplitFeatures(strings.NewReader("{\"id\": 1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

package pt2itp

import (
	"bytes"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineDelimited(t *testing.T) {
	first := geojson.NewFeature(geojson.NewPointGeometry([]float64{1, 2}))
	first.Properties["name"] = "first"
	second := geojson.NewFeature(geojson.NewLineStringGeometry([][]float64{{0, 0}, {1, 1}}))

	buf := &bytes.Buffer{}
	require.NoError(t, WriteLineDelimited(buf, []*geojson.Feature{first, second}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	// Record separators and blank lines are tolerated
	input := "\x1e" + lines[0] + "\n\n" + lines[1] + "\n"
	feats, err := ReadLineDelimited(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, feats, 2)
	assert.Equal(t, "first", feats[0].Properties["name"])
	assert.Equal(t, geojson.GeometryLineString, feats[1].Geometry.Type)

	_, err = ReadLineDelimited(strings.NewReader(lines[0] + "\n{\"type\": \n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPrepareWKT(t *testing.T) {
	line := toLineString([][]float64{{37.5, 55.7}, {37.6, 55.8}})
	assert.Equal(t, "LINESTRING(37.5 55.7,37.6 55.8)", PrepareWKTLinestring(line))
	assert.Equal(t, "POINT(37.5 55.7)", PrepareWKTPoint(line[0]))
}

package pt2itp

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

func lineToEuclidean(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = pointToEuclidean(pt)
	}
	return newLine
}

// toLineString converts GeoJSON coordinates to orb.LineString (extra dimensions are dropped).
// Consecutive repeated points are collapsed
func toLineString(coords [][]float64) orb.LineString {
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		pt := orb.Point{c[0], c[1]}
		if len(line) > 0 && line[len(line)-1].Equal(pt) {
			continue
		}
		line = append(line, pt)
	}
	return line
}

// fromLineString converts orb.LineString to GeoJSON coordinates
func fromLineString(line orb.LineString) [][]float64 {
	coords := make([][]float64, len(line))
	for i, pt := range line {
		coords[i] = []float64{pt.Lon(), pt.Lat()}
	}
	return coords
}

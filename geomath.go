package pt2itp

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	earthRadius = 6370.986884258304
	pi180       = math.Pi / 180.0
	pi180Rev    = 180.0 / math.Pi
)

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// radiansTodegrees r = deg  * 180 / pi
func radiansTodegrees(d float64) float64 {
	return d * pi180Rev
}

// greatCircleDistance returns distance between two geo-points (kilometers)
func greatCircleDistance(p, q orb.Point) float64 {
	lat1 := degreesToRadians(p.Lat())
	lon1 := degreesToRadians(p.Lon())
	lat2 := degreesToRadians(q.Lat())
	lon2 := degreesToRadians(q.Lon())
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	ans := c * earthRadius
	return ans
}

// getSphericalLength returns length for given line (kilometers)
func getSphericalLength(line orb.LineString) float64 {
	totalLength := 0.0
	if len(line) < 2 {
		return totalLength
	}
	for i := 1; i < len(line); i++ {
		totalLength += greatCircleDistance(line[i-1], line[i])
	}
	return totalLength
}

// pointOnSegmentByFraction returns a point on given segment using fraction of its length
func pointOnSegmentByFraction(p, q orb.Point, fraction float64) orb.Point {
	return orb.Point{
		(1-fraction)*p.Lon() + (fraction * q.Lon()),
		(1-fraction)*p.Lat() + (fraction * q.Lat()),
	}
}

// cross returns z-component of cross product of two vectors
func cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// segmentsIntersection checks if two segments intersect and returns fractions of intersection point on both of them
// p1, p2 - first segment
// p3, p4 - second segment
// Note: Euclidean space. Parallel (and collinear) segments are never reported
func segmentsIntersection(p1, p2, p3, p4 orb.Point) (float64, float64, bool) {
	r := orb.Point{p2[0] - p1[0], p2[1] - p1[1]}
	s := orb.Point{p4[0] - p3[0], p4[1] - p3[1]}
	det := cross(r, s)
	if det == 0 {
		return 0, 0, false
	}
	qp := orb.Point{p3[0] - p1[0], p3[1] - p1[1]}
	t := cross(qp, s) / det
	u := cross(qp, r) / det
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}

// projectionFraction returns fraction of segment [a, b] where the perpendicular from p falls (clamped to [0, 1])
func projectionFraction(a, b, p orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	return math.Max(0, math.Min(1, t))
}

// lineLocation is position of a point relative to a line
type lineLocation struct {
	segment  int
	fraction float64
	// foot is the closest point of the line (WGS84)
	foot orb.Point
	// distance from the point to the foot (meters)
	distance float64
	// along is distance from the line start to the foot (meters)
	along float64
	// side is 1 when point is on the left of the line, -1 when on the right, 0 when on the line
	side int
}

// locateOnLine finds the closest position of the line for given point
// line and pt are WGS84, lineEuclidean is the same line in EPSG:3857
func locateOnLine(line, lineEuclidean orb.LineString, pt orb.Point) lineLocation {
	ptEuclidean := pointToEuclidean(pt)
	_, segment := planar.DistanceFromWithIndex(lineEuclidean, ptEuclidean)
	if segment >= len(line)-1 {
		segment = len(line) - 2
	}
	a, b := lineEuclidean[segment], lineEuclidean[segment+1]
	fraction := projectionFraction(a, b, ptEuclidean)
	foot := pointOnSegmentByFraction(line[segment], line[segment+1], fraction)

	along := getSphericalLength(line[:segment+1]) + greatCircleDistance(line[segment], foot)

	side := 0
	orientation := cross(orb.Point{b[0] - a[0], b[1] - a[1]}, orb.Point{ptEuclidean[0] - a[0], ptEuclidean[1] - a[1]})
	if orientation > 0 {
		side = 1
	} else if orientation < 0 {
		side = -1
	}
	return lineLocation{
		segment:  segment,
		fraction: fraction,
		foot:     foot,
		distance: 1000 * greatCircleDistance(pt, foot),
		along:    1000 * along,
		side:     side,
	}
}

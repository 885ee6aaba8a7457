package pt2itp

import (
	"sort"

	"github.com/paulmach/orb"
)

const fractionEpsilon = 1e-9

// CutReason tells why network line was cut at some point
type CutReason uint16

const (
	CUT_CROSSING = CutReason(iota + 1)
	CUT_BEND
	CUT_INTERSECTION
)

func (iotaIdx CutReason) String() string {
	return [...]string{"crossing", "bend", "intersection"}[iotaIdx-1]
}

// cutPoint is position on network line where the line must be split
type cutPoint struct {
	segment  int
	fraction float64
	reason   CutReason
}

// networkLine is single network line in both WGS84 and EPSG:3857
type networkLine struct {
	geom          orb.LineString
	geomEuclidean orb.LineString
	cuts          []cutPoint
}

func newNetworkLines(coords [][][]float64) []*networkLine {
	lines := make([]*networkLine, 0, len(coords))
	for _, c := range coords {
		geom := toLineString(c)
		// Line of a single repeated point has no extent
		if len(geom) < 2 {
			continue
		}
		lines = append(lines, &networkLine{
			geom:          geom,
			geomEuclidean: lineToEuclidean(geom),
		})
	}
	return lines
}

// addCut registers cut point skipping ones which fall on the line ends
func (line *networkLine) addCut(segment int, fraction float64, reason CutReason) {
	lastSegment := len(line.geom) - 2
	if fraction >= 1-fractionEpsilon && segment < lastSegment {
		segment++
		fraction = 0
	}
	if segment == 0 && fraction <= fractionEpsilon {
		return
	}
	if segment == lastSegment && fraction >= 1-fractionEpsilon {
		return
	}
	line.cuts = append(line.cuts, cutPoint{segment: segment, fraction: fraction, reason: reason})
}

// findBends cuts line at vertices where travel direction turns sharper than threshold (radians)
func (line *networkLine) findBends(threshold float64) {
	for i := 1; i < len(line.geomEuclidean)-1; i++ {
		_, angle := movementAtVertex(line.geomEuclidean[i-1], line.geomEuclidean[i], line.geomEuclidean[i+1])
		if angle > threshold || angle < -threshold {
			line.addCut(i, 0, CUT_BEND)
		}
	}
}

// findCrossings cuts lines where they cross themselves or each other
func findCrossings(lines []*networkLine) {
	for a := range lines {
		for b := a; b < len(lines); b++ {
			first, second := lines[a], lines[b]
			for i := 0; i < len(first.geomEuclidean)-1; i++ {
				startJ := 0
				if a == b {
					// Neighbour segments of the same line always share a vertex
					startJ = i + 2
				}
				for j := startJ; j < len(second.geomEuclidean)-1; j++ {
					t, u, ok := segmentsIntersection(
						first.geomEuclidean[i], first.geomEuclidean[i+1],
						second.geomEuclidean[j], second.geomEuclidean[j+1],
					)
					if !ok {
						continue
					}
					first.addCut(i, t, CUT_CROSSING)
					second.addCut(j, u, CUT_CROSSING)
				}
			}
		}
	}
}

// findIntersections cuts lines at explicitly given points lying within tolerance (meters) of them
func findIntersections(lines []*networkLine, intersections [][]float64, tolerance float64) {
	for _, coord := range intersections {
		pt := orb.Point{coord[0], coord[1]}
		for _, line := range lines {
			loc := locateOnLine(line.geom, line.geomEuclidean, pt)
			if loc.distance > tolerance {
				continue
			}
			line.addCut(loc.segment, loc.fraction, CUT_INTERSECTION)
		}
	}
}

// runs splits line into intersection-free pieces
func (line *networkLine) runs() []orb.LineString {
	cuts := make([]cutPoint, len(line.cuts))
	copy(cuts, line.cuts)
	sort.Slice(cuts, func(i, j int) bool {
		if cuts[i].segment != cuts[j].segment {
			return cuts[i].segment < cuts[j].segment
		}
		return cuts[i].fraction < cuts[j].fraction
	})

	result := []orb.LineString{}
	run := orb.LineString{line.geom[0]}
	k := 0
	for i := 0; i < len(line.geom)-1; i++ {
		for ; k < len(cuts) && cuts[k].segment == i; k++ {
			pt := pointOnSegmentByFraction(line.geom[i], line.geom[i+1], cuts[k].fraction)
			run = appendDistinct(run, pt)
			if len(run) >= 2 {
				result = append(result, run)
			}
			run = orb.LineString{pt}
		}
		run = appendDistinct(run, line.geom[i+1])
	}
	if len(run) >= 2 {
		result = append(result, run)
	}
	return result
}

func appendDistinct(line orb.LineString, pt orb.Point) orb.LineString {
	if len(line) > 0 && line[len(line)-1].Equal(pt) {
		return line
	}
	return append(line, pt)
}

package pt2itp

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

const (
	defaultBendThreshold         = 0.75 * math.Pi
	defaultMaxMatchDistance      = 500.0
	defaultIntersectionTolerance = 1.0
)

// Splitter cuts road network of a cluster into intersection-free runs and distributes address points between them
type Splitter struct {
	logger zerolog.Logger

	outputMu sync.Mutex
	output   io.Writer

	stdout  bool
	debug   bool
	country string

	// bendThreshold is turn angle (radians) above which a vertex breaks the network
	bendThreshold float64
	// maxMatchDistance is the farthest distance (meters) an address point is matched from; zero disables the limit
	maxMatchDistance float64
	// intersectionTolerance is the farthest distance (meters) explicit intersection may lie from a line
	intersectionTolerance float64
}

func (s *Splitter) String() string {
	return fmt.Sprintf(`
Network splitter parameters:
	stdout enabled?: %t
	debug enabled?: %t
	country: '%s'
	bend_threshold (deg): %f
	max_match_distance (m): %f
	intersection_tolerance (m): %f
	`,
		s.stdout,
		s.debug,
		s.country,
		radiansTodegrees(s.bendThreshold),
		s.maxMatchDistance,
		s.intersectionTolerance,
	)
}

// NewSplitter returns splitter configured with given options
func NewSplitter(options ...func(*Splitter)) (*Splitter, error) {
	splitter := &Splitter{
		logger:                log.Logger,
		output:                os.Stdout,
		bendThreshold:         defaultBendThreshold,
		maxMatchDistance:      defaultMaxMatchDistance,
		intersectionTolerance: defaultIntersectionTolerance,
	}
	for _, option := range options {
		option(splitter)
	}
	if splitter.country != "" {
		region, err := language.ParseRegion(strings.ToUpper(splitter.country))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse country '%s'", splitter.country)
		}
		if !region.IsCountry() {
			return nil, fmt.Errorf("Region '%s' is not a country", splitter.country)
		}
		splitter.country = strings.ToLower(region.String())
	}
	if splitter.bendThreshold <= 0 || splitter.bendThreshold > math.Pi {
		return nil, fmt.Errorf("Bend threshold must be in (0, 180] degrees, got %f", radiansTodegrees(splitter.bendThreshold))
	}
	if splitter.debug {
		splitter.logger = splitter.logger.Level(zerolog.DebugLevel)
		splitter.logger.Debug().Msg(splitter.String())
	}
	return splitter, nil
}

// WithStdout enables writing of every produced feature as line-delimited GeoJSON
func WithStdout(stdout bool) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.stdout = stdout
	}
}

// WithOutput sets destination for WithStdout (os.Stdout by default)
func WithOutput(output io.Writer) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.output = output
	}
}

func WithDebug(debug bool) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.debug = debug
	}
}

// WithCountry sets ISO 3166-1 country code of the processed data
func WithCountry(country string) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.country = strings.TrimSpace(country)
	}
}

func WithLogger(logger zerolog.Logger) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.logger = logger
	}
}

// WithBendThreshold sets turn angle (degrees) which breaks network line
func WithBendThreshold(degrees float64) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.bendThreshold = degreesToRadians(degrees)
	}
}

// WithMaxMatchDistance sets the farthest distance (meters) between address point and network
func WithMaxMatchDistance(meters float64) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.maxMatchDistance = meters
	}
}

// WithIntersectionTolerance sets the farthest distance (meters) between explicit intersection and network
func WithIntersectionTolerance(meters float64) func(*Splitter) {
	return func(splitter *Splitter) {
		splitter.intersectionTolerance = meters
	}
}

// networkRun is intersection-free piece of network with addresses assigned to it
type networkRun struct {
	geom          orb.LineString
	geomEuclidean orb.LineString
	matched       []matchedAddress
}

// Split cuts network of given feature and returns one cluster feature per run
func (s *Splitter) Split(feat *SplitFeature) ([]*geojson.Feature, error) {
	if feat == nil {
		return nil, newInputShapeError(0, "feature is missing")
	}
	coords, err := feat.validate()
	if err != nil {
		return nil, err
	}

	lines := newNetworkLines(coords)
	for _, line := range lines {
		line.findBends(s.bendThreshold)
	}
	findCrossings(lines)
	findIntersections(lines, feat.Intersections, s.intersectionTolerance)

	runs := []*networkRun{}
	for i, line := range lines {
		lineRuns := line.runs()
		for _, cut := range line.cuts {
			s.logger.Debug().
				Int64("feature", feat.ID).
				Int("line", i).
				Int("segment", cut.segment).
				Float64("fraction", cut.fraction).
				Str("reason", cut.reason.String()).
				Msg("Network cut")
		}
		for _, run := range lineRuns {
			runs = append(runs, &networkRun{
				geom:          run,
				geomEuclidean: lineToEuclidean(run),
			})
			s.logger.Debug().
				Int64("feature", feat.ID).
				Int("line", i).
				Str("geom", PrepareWKTLinestring(run)).
				Msg("Network run")
		}
	}

	s.assignAddresses(feat, runs)

	result := make([]*geojson.Feature, 0, len(runs))
	for _, run := range runs {
		result = append(result, s.buildFeature(feat, run))
	}

	if s.stdout {
		s.outputMu.Lock()
		err = WriteLineDelimited(s.output, result)
		s.outputMu.Unlock()
		if err != nil {
			return nil, errors.Wrap(err, "Can't write features")
		}
	}
	s.logger.Debug().
		Int64("feature", feat.ID).
		Int("runs", len(runs)).
		Int("addresses", len(feat.Addresses)).
		Msg("Network split")
	return result, nil
}

// assignAddresses matches every address point against the nearest run. The first run wins ties
func (s *Splitter) assignAddresses(feat *SplitFeature, runs []*networkRun) {
	for idx, coord := range feat.Address.MultiPoint {
		pt := orb.Point{coord[0], coord[1]}
		var best *networkRun
		var bestLoc lineLocation
		for _, run := range runs {
			loc := locateOnLine(run.geom, run.geomEuclidean, pt)
			if best == nil || loc.distance < bestLoc.distance {
				best = run
				bestLoc = loc
			}
		}
		if best == nil {
			continue
		}
		if s.maxMatchDistance > 0 && bestLoc.distance > s.maxMatchDistance {
			s.logger.Debug().
				Int64("feature", feat.ID).
				Int64("address", feat.Addresses[idx].ID).
				Str("geom", PrepareWKTPoint(pt)).
				Float64("distance", bestLoc.distance).
				Msg("Address point is too far from network")
			continue
		}
		best.matched = append(best.matched, matchedAddress{
			index: idx,
			attrs: feat.Addresses[idx],
			coord: coord,
			loc:   bestLoc,
		})
	}
}

// buildFeature prepares cluster feature: GeometryCollection[MultiLineString, MultiPoint] with aligned properties
func (s *Splitter) buildFeature(feat *SplitFeature, run *networkRun) *geojson.Feature {
	numbers := []interface{}{}
	points := [][]float64{}
	props := []interface{}{}
	for _, addr := range run.matched {
		if !addr.attrs.Output {
			continue
		}
		numbers = append(numbers, string(addr.attrs.Number))
		coord := make([]float64, len(addr.coord))
		copy(coord, addr.coord)
		points = append(points, coord)
		meta := map[string]interface{}{}
		if addr.index < len(feat.Meta) {
			for k, v := range feat.Meta[addr.index] {
				meta[k] = v
			}
		}
		props = append(props, meta)
	}

	left, right := computeRanges(run.matched)
	rangeValues := map[string]interface{}{
		PropParityLeft:  left.parity,
		PropFromLeft:    left.from,
		PropToLeft:      left.to,
		PropParityRight: right.parity,
		PropFromRight:   right.from,
		PropToRight:     right.to,
	}

	network := geojson.NewMultiLineStringGeometry(fromLineString(run.geom))
	var out *geojson.Feature
	if len(numbers) > 0 {
		out = geojson.NewFeature(geojson.NewCollectionGeometry(network, geojson.NewMultiPointGeometry(points...)))
		out.Properties[PropAddressNumber] = []interface{}{nil, numbers}
		for prop, value := range rangeValues {
			out.Properties[prop] = []interface{}{[]interface{}{value}, nil}
		}
	} else {
		out = geojson.NewFeature(geojson.NewCollectionGeometry(network))
		out.Properties[PropAddressNumber] = []interface{}{nil}
		for prop, value := range rangeValues {
			out.Properties[prop] = []interface{}{[]interface{}{value}}
		}
	}
	out.ID = feat.ID
	out.Properties[PropAddressProps] = props

	displays := make([]string, 0, len(feat.Names))
	for _, name := range feat.Names {
		displays = append(displays, name.Display)
	}
	out.Properties[PropText] = strings.Join(displays, ",")
	if s.country != "" {
		out.Properties[PropGeocoderStack] = s.country
	}
	return out
}

// SplitResult is outcome of splitting single feature
type SplitResult struct {
	FeatureID int64
	Features  []*geojson.Feature
	Err       error
}

func (s *Splitter) splitWithContext(ctx context.Context, feat *SplitFeature) SplitResult {
	result := SplitResult{}
	if feat != nil {
		result.FeatureID = feat.ID
	}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	result.Features, result.Err = s.Split(feat)
	return result
}

// SplitAsync splits feature in background. Channel receives exactly one result and is closed afterwards
func (s *Splitter) SplitAsync(ctx context.Context, feat *SplitFeature) <-chan SplitResult {
	ch := make(chan SplitResult, 1)
	go func() {
		defer close(ch)
		ch <- s.splitWithContext(ctx, feat)
	}()
	return ch
}

// SplitBatch splits independent features using at most workers goroutines (unlimited if workers <= 0).
// Results keep order of input; failure of one feature does not stop the others
func (s *Splitter) SplitBatch(ctx context.Context, feats []*SplitFeature, workers int) []SplitResult {
	results := make([]SplitResult, len(feats))
	group := new(errgroup.Group)
	if workers > 0 {
		group.SetLimit(workers)
	}
	for i, feat := range feats {
		i, feat := i, feat
		group.Go(func() error {
			results[i] = s.splitWithContext(ctx, feat)
			if results[i].Err != nil {
				s.logger.Warn().
					Err(results[i].Err).
					Int64("feature", results[i].FeatureID).
					Msg("Can't split feature")
			}
			return nil
		})
	}
	_ = group.Wait()
	return results
}

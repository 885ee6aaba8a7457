package pt2itp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// namedWay is OSM way which is part of street network
type namedWay struct {
	ID    osm.WayID
	Name  string
	Nodes osm.WayNodes
}

// addressNode is OSM node carrying address tags
type addressNode struct {
	ID       osm.NodeID
	Lon, Lat float64
	Number   string
	Street   string
	Postcode string
}

// isPOI tells if way outlines an area or facility rather than a street
func isPOI(tags osm.Tags) bool {
	if tags.Find("area") == "yes" {
		return true
	}
	return tags.Find("building") != "" || tags.Find("amenity") != "" || tags.Find("leisure") != ""
}

// newOSMScanner guesses file format by extension. Nodes are skipped by PBF scanner when they are not needed
func newOSMScanner(ctx context.Context, file *os.File, skipNodes bool) (OSMScanner, error) {
	name := strings.ToLower(file.Name())
	switch {
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return osmxml.New(ctx, file), nil
	case strings.HasSuffix(name, ".pbf"):
		scanner := osmpbf.New(ctx, file, 4)
		scanner.SkipNodes = skipNodes
		scanner.SkipRelations = true
		return scanner, nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", filepath.Ext(name), file.Name())
	}
}

// ImportFromOSMFile Imports street network and address points from file of XML or PBF format (in OSM terms)
/*
	Ways with allowed tag and a name are grouped by tokenized name: every group becomes single SplitFeature.
	Nodes with both 'addr:housenumber' and 'addr:street' join the group with the same tokenized street name.
*/
func ImportFromOSMFile(ctx context.Context, fileName string, cfg *OsmConfiguration) ([]*SplitFeature, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	/* Process ways */
	st := time.Now()
	ways := []namedWay{}
	nodesSeen := make(map[osm.NodeID]struct{})
	{
		scannerWays, err := newOSMScanner(ctx, f, true)
		if err != nil {
			return nil, err
		}
		for scannerWays.Scan() {
			way, ok := scannerWays.Object().(*osm.Way)
			if !ok {
				continue
			}
			tag := way.Tags.Find(cfg.EntityName)
			if tag == "" || !cfg.CheckTag(tag) {
				continue
			}
			if isPOI(way.Tags) {
				continue
			}
			name := strings.TrimSpace(way.Tags.Find("name"))
			if name == "" {
				continue
			}
			preparedWay := namedWay{
				ID:    way.ID,
				Name:  name,
				Nodes: make(osm.WayNodes, len(way.Nodes)),
			}
			copy(preparedWay.Nodes, way.Nodes)
			ways = append(ways, preparedWay)
			for _, node := range way.Nodes {
				nodesSeen[node.ID] = struct{}{}
			}
		}
		if err := scannerWays.Err(); err != nil {
			scannerWays.Close()
			return nil, errors.Wrap(err, "Scanner error on Ways")
		}
		scannerWays.Close()
	}
	log.Info().Int("ways", len(ways)).Dur("duration", time.Since(st)).Msg("Ways scanned")

	// Seek file to start
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking")
	}

	/* Process nodes */
	st = time.Now()
	nodes := make(map[osm.NodeID][]float64, len(nodesSeen))
	addresses := []addressNode{}
	{
		scannerNodes, err := newOSMScanner(ctx, f, false)
		if err != nil {
			return nil, err
		}
		for scannerNodes.Scan() {
			node, ok := scannerNodes.Object().(*osm.Node)
			if !ok {
				continue
			}
			if _, ok := nodesSeen[node.ID]; ok {
				nodes[node.ID] = []float64{node.Lon, node.Lat}
			}
			number := strings.TrimSpace(node.Tags.Find("addr:housenumber"))
			street := strings.TrimSpace(node.Tags.Find("addr:street"))
			if number == "" || street == "" {
				continue
			}
			addresses = append(addresses, addressNode{
				ID:       node.ID,
				Lon:      node.Lon,
				Lat:      node.Lat,
				Number:   number,
				Street:   street,
				Postcode: node.Tags.Find("addr:postcode"),
			})
		}
		if err := scannerNodes.Err(); err != nil {
			scannerNodes.Close()
			return nil, errors.Wrap(err, "Scanner error on Nodes")
		}
		scannerNodes.Close()
	}
	log.Info().Int("nodes", len(nodes)).Int("addresses", len(addresses)).Dur("duration", time.Since(st)).Msg("Nodes scanned")

	return groupStreets(ways, nodes, addresses)
}

// groupStreets builds one SplitFeature per tokenized street name. Features keep order of first way occurrence
func groupStreets(ways []namedWay, nodes map[osm.NodeID][]float64, addresses []addressNode) ([]*SplitFeature, error) {
	type street struct {
		names     []Name
		displays  map[string]struct{}
		lines     [][][]float64
		addresses []addressNode
	}
	streets := map[string]*street{}
	order := []string{}
	for _, way := range ways {
		name := Tokenize(way.Name)
		s, ok := streets[name.Tokenized]
		if !ok {
			s = &street{displays: map[string]struct{}{}}
			streets[name.Tokenized] = s
			order = append(order, name.Tokenized)
		}
		if _, ok := s.displays[name.Display]; !ok {
			s.displays[name.Display] = struct{}{}
			s.names = append(s.names, name)
		}
		line := make([][]float64, 0, len(way.Nodes))
		for _, wayNode := range way.Nodes {
			coord, ok := nodes[wayNode.ID]
			if !ok {
				return nil, fmt.Errorf("Missing node with id: %d (way %d)", wayNode.ID, way.ID)
			}
			line = append(line, coord)
		}
		if len(line) < 2 {
			continue
		}
		s.lines = append(s.lines, line)
	}

	orphans := 0
	for _, addr := range addresses {
		s, ok := streets[Tokenize(addr.Street).Tokenized]
		if !ok {
			orphans++
			continue
		}
		s.addresses = append(s.addresses, addr)
	}
	if orphans > 0 {
		log.Warn().Int("addresses", orphans).Msg("Address points without matching street")
	}

	feats := make([]*SplitFeature, 0, len(order))
	for i, key := range order {
		s := streets[key]
		if len(s.lines) == 0 {
			continue
		}
		sort.Slice(s.addresses, func(a, b int) bool {
			return s.addresses[a].ID < s.addresses[b].ID
		})
		props := make(map[int64]AddressAttributes, len(s.addresses))
		points := make([][]float64, 0, len(s.addresses))
		meta := make([]map[string]interface{}, 0, len(s.addresses))
		for _, addr := range s.addresses {
			if _, ok := props[int64(addr.ID)]; ok {
				continue
			}
			props[int64(addr.ID)] = AddressAttributes{
				ID:     int64(addr.ID),
				Output: true,
				Number: HouseNumber(addr.Number),
			}
			points = append(points, []float64{addr.Lon, addr.Lat})
			m := map[string]interface{}{"osm:id": int64(addr.ID)}
			if addr.Postcode != "" {
				m["postcode"] = addr.Postcode
			}
			meta = append(meta, m)
		}
		feats = append(feats, NewSplitFeature(
			int64(i+1),
			s.names,
			props,
			geojson.NewMultiLineStringGeometry(s.lines...),
			geojson.NewMultiPointGeometry(points...),
			meta,
		))
	}
	return feats, nil
}

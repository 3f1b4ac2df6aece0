package osm2sidewalks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// OSMData is highways and buildings read from OSM file, geometry in lon/lat
type OSMData struct {
	ways  []*WayData
	nodes map[osm.NodeID]orb.Point
}

func newScanner(file *os.File, filename string) (OSMScanner, error) {
	// Guess file extension and prepare correct scanner
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf", ".osm.pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// ReadOSM scans ways first and then the nodes they reference
func ReadOSM(filename string, verbose bool) (*OSMData, error) {
	if verbose {
		Logf("Opening file: '%s'...\n", filename)
	}
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	/* Process ways */
	if verbose {
		Logf("\tProcessing ways... ")
	}
	st := time.Now()
	ways := []*WayData{}
	nodesSeen := make(map[osm.NodeID]struct{})
	{
		scannerWays, err := newScanner(file, filename)
		if err != nil {
			return nil, err
		}
		defer scannerWays.Close()

		// Scan ways
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != "way" {
				continue
			}
			way := obj.(*osm.Way)
			preparedWay := &WayData{
				ID:     way.ID,
				Nodes:  make([]osm.NodeID, 0, len(way.Nodes)),
				TagMap: make(osm.Tags, len(way.Tags)),
			}
			copy(preparedWay.TagMap, way.Tags)
			if !preparedWay.flattenTags(verbose) {
				continue
			}
			// Mark way's nodes as seen to skip unrelated nodes in further
			for _, node := range way.Nodes {
				nodesSeen[node.ID] = struct{}{}
				preparedWay.Nodes = append(preparedWay.Nodes, node.ID)
			}
			ways = append(ways, preparedWay)
		}
		err = scannerWays.Err()
		if err != nil {
			return nil, err
		}
	}
	if verbose {
		Logf("Done in %v\n", time.Since(st))
	}

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	if verbose {
		Logf("\tProcessing nodes... ")
	}
	st = time.Now()
	nodes := make(map[osm.NodeID]orb.Point, len(nodesSeen))
	{
		scannerNodes, err := newScanner(file, filename)
		if err != nil {
			return nil, err
		}
		defer scannerNodes.Close()

		// Scan nodes
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != "node" {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodesSeen[node.ID]; ok {
				delete(nodesSeen, node.ID)
				nodes[node.ID] = node.Point()
			}
		}
		err = scannerNodes.Err()
		if err != nil {
			return nil, err
		}
	}
	if verbose {
		Logf("Done in %v\n", time.Since(st))
		Logf("Number of ways: %d\n", len(ways))
		Logf("Number of nodes: %d\n", len(nodes))
	}
	return &OSMData{ways: ways, nodes: nodes}, nil
}

// Bound returns lon/lat bound of all loaded nodes
func (data *OSMData) Bound() orb.Bound {
	mp := make(orb.MultiPoint, 0, len(data.nodes))
	for _, pt := range data.nodes {
		mp = append(mp, pt)
	}
	return mp.Bound()
}

// Input converts loaded ways into pipeline input in the given local frame.
// Ways which lost too many nodes are skipped with warning.
func (data *OSMData) Input(frame *LocalFrame, verbose bool) Input {
	input := Input{}
	for _, way := range data.ways {
		line, missing := way.geometry(data.nodes)
		if missing > 0 && verbose {
			Logf("[WARNING]: Way %d references %d missing nodes\n", way.ID, missing)
		}
		switch way.Kind {
		case WAY_HIGHWAY:
			if len(line) < 2 {
				continue
			}
			input.Segments = append(input.Segments, StreetSegment{
				ID:            int64(len(input.Segments)),
				OSMWayID:      way.ID,
				RoadClass:     way.highway,
				DeclaredWidth: way.width,
				Tags:          way.TagMap,
				Geom:          frame.ForwardLine(line),
			})
		case WAY_BUILDING:
			if missing > 0 || !way.isClosed() {
				continue
			}
			input.Buildings = append(input.Buildings, Building{
				ID:   int64(way.ID),
				Geom: frame.ForwardPolygon(orb.Polygon{orb.Ring(line)}),
			})
		}
	}
	return input
}

package osm2sidewalks

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// WayKind tells what way is used for
type WayKind uint16

const (
	WAY_HIGHWAY = WayKind(iota + 1)
	WAY_BUILDING
)

func (iotaIdx WayKind) String() string {
	return [...]string{"highway", "building"}[iotaIdx-1]
}

// WayData is OSM way with the tags needed for sidewalk synthesis flattened
type WayData struct {
	ID       osm.WayID
	Nodes    []osm.NodeID
	TagMap   osm.Tags
	Kind     WayKind
	highway  string
	building string
	width    *float64
}

// flattenTags extracts tags used further. Returns false if way is neither highway nor building
func (way *WayData) flattenTags(verbose bool) bool {
	way.highway = way.TagMap.Find(TAG_HIGHWAY)
	way.building = way.TagMap.Find(TAG_BUILDING)
	if widthText := way.TagMap.Find(TAG_WIDTH); widthText != "" {
		if width, ok := parseWidth(widthText); ok {
			way.width = &width
		} else if verbose {
			Logf("[WARNING]: Unhandled `width` tag value has been met: '%s'. Way ID: '%d'\n", widthText, way.ID)
		}
	}
	switch {
	case way.highway != "":
		way.Kind = WAY_HIGHWAY
	case way.building != "" && way.building != "no":
		way.Kind = WAY_BUILDING
	default:
		return false
	}
	return true
}

// isClosed reports whether way forms ring
func (way *WayData) isClosed() bool {
	return len(way.Nodes) >= 4 && way.Nodes[0] == way.Nodes[len(way.Nodes)-1]
}

// geometry resolves node references. Missing nodes are skipped; returns number of missing ones
func (way *WayData) geometry(nodes map[osm.NodeID]orb.Point) (orb.LineString, int) {
	line := make(orb.LineString, 0, len(way.Nodes))
	missing := 0
	for _, id := range way.Nodes {
		pt, ok := nodes[id]
		if !ok {
			missing++
			continue
		}
		line = append(line, pt)
	}
	return line, missing
}

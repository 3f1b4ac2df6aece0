package osm2sidewalks

import (
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

const (
	TAG_HIGHWAY        = "highway"
	TAG_FOOTWAY        = "footway"
	TAG_WIDTH          = "width"
	TAG_SIDEWALK       = "sidewalk"
	TAG_SIDEWALK_LEFT  = "sidewalk:left"
	TAG_SIDEWALK_RIGHT = "sidewalk:right"
	TAG_SIDEWALK_BOTH  = "sidewalk:both"
	TAG_BUILDING       = "building"
)

var (
	sidewalkYesValues = map[string]struct{}{
		"yes":      {},
		"both":     {},
		"separate": {},
	}

	sidewalkNoValues = map[string]struct{}{
		"no":   {},
		"none": {},
	}
)

// parseWidth parses OSM `width` values like "7", "7.5", "7 m" or "7,5".
// Returns false if the value can't be understood.
func parseWidth(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "m")
	text = strings.TrimSpace(text)
	text = strings.Replace(text, ",", ".", 1)
	if text == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// isExistingSidewalk reports whether tags describe already mapped sidewalk
func isExistingSidewalk(tags osm.Tags) bool {
	return tags.Find(TAG_HIGHWAY) == "footway" && tags.Find(TAG_FOOTWAY) == "sidewalk"
}

// isExistingCrossing reports whether tags describe already mapped crossing
func isExistingCrossing(tags osm.Tags) bool {
	return tags.Find(TAG_HIGHWAY) == "footway" && tags.Find(TAG_FOOTWAY) == "crossing"
}

package osm2sidewalks

import (
	"github.com/paulmach/osm"
)

// SidewalkPresence is the declared sidewalk layout of a street segment
type SidewalkPresence uint16

const (
	SIDEWALK_UNSPECIFIED = SidewalkPresence(iota + 1)
	SIDEWALK_BOTH
	SIDEWALK_LEFT_ONLY
	SIDEWALK_RIGHT_ONLY
	SIDEWALK_NONE
)

func (iotaIdx SidewalkPresence) String() string {
	return [...]string{"unspecified", "both", "left", "right", "no"}[iotaIdx-1]
}

// excludesLeft reports whether the left side of the segment must stay without sidewalk
func (iotaIdx SidewalkPresence) excludesLeft() bool {
	return iotaIdx == SIDEWALK_RIGHT_ONLY || iotaIdx == SIDEWALK_NONE
}

// excludesRight reports whether the right side of the segment must stay without sidewalk
func (iotaIdx SidewalkPresence) excludesRight() bool {
	return iotaIdx == SIDEWALK_LEFT_ONLY || iotaIdx == SIDEWALK_NONE
}

// ClassifySidewalk resolves `sidewalk`, `sidewalk:both`, `sidewalk:left` and `sidewalk:right`
// tags into single SidewalkPresence value.
//
// Generic `sidewalk` tag has priority, then `sidewalk:both`, then per-side tags.
func ClassifySidewalk(tags osm.Tags) SidewalkPresence {
	switch main := tags.Find(TAG_SIDEWALK); main {
	case "":
		// Look for side-specific tags below
	case "left":
		return SIDEWALK_LEFT_ONLY
	case "right":
		return SIDEWALK_RIGHT_ONLY
	default:
		if _, ok := sidewalkYesValues[main]; ok {
			return SIDEWALK_BOTH
		}
		if _, ok := sidewalkNoValues[main]; ok {
			return SIDEWALK_NONE
		}
		return SIDEWALK_UNSPECIFIED
	}

	both := tags.Find(TAG_SIDEWALK_BOTH)
	if _, ok := sidewalkNoValues[both]; ok {
		return SIDEWALK_NONE
	}
	if _, ok := sidewalkYesValues[both]; ok {
		return SIDEWALK_BOTH
	}

	_, leftNo := sidewalkNoValues[tags.Find(TAG_SIDEWALK_LEFT)]
	_, rightNo := sidewalkNoValues[tags.Find(TAG_SIDEWALK_RIGHT)]
	switch {
	case leftNo && rightNo:
		return SIDEWALK_NONE
	case leftNo:
		return SIDEWALK_RIGHT_ONLY
	case rightNo:
		return SIDEWALK_LEFT_ONLY
	}
	_, leftYes := sidewalkYesValues[tags.Find(TAG_SIDEWALK_LEFT)]
	_, rightYes := sidewalkYesValues[tags.Find(TAG_SIDEWALK_RIGHT)]
	if leftYes && rightYes {
		return SIDEWALK_BOTH
	}
	return SIDEWALK_UNSPECIFIED
}

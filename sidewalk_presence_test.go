package osm2sidewalks

import (
	"testing"

	"github.com/paulmach/osm"
)

func TestClassifySidewalk(t *testing.T) {
	cases := []struct {
		tags    osm.Tags
		correct SidewalkPresence
	}{
		{osm.Tags{}, SIDEWALK_UNSPECIFIED},
		{osm.Tags{{Key: "sidewalk", Value: "both"}}, SIDEWALK_BOTH},
		{osm.Tags{{Key: "sidewalk", Value: "separate"}}, SIDEWALK_BOTH},
		{osm.Tags{{Key: "sidewalk", Value: "left"}}, SIDEWALK_LEFT_ONLY},
		{osm.Tags{{Key: "sidewalk", Value: "right"}}, SIDEWALK_RIGHT_ONLY},
		{osm.Tags{{Key: "sidewalk", Value: "no"}}, SIDEWALK_NONE},
		{osm.Tags{{Key: "sidewalk", Value: "none"}}, SIDEWALK_NONE},
		{osm.Tags{{Key: "sidewalk", Value: "weird"}}, SIDEWALK_UNSPECIFIED},
		{osm.Tags{{Key: "sidewalk:both", Value: "no"}}, SIDEWALK_NONE},
		{osm.Tags{{Key: "sidewalk:both", Value: "yes"}}, SIDEWALK_BOTH},
		{osm.Tags{{Key: "sidewalk:left", Value: "no"}}, SIDEWALK_RIGHT_ONLY},
		{osm.Tags{{Key: "sidewalk:right", Value: "no"}}, SIDEWALK_LEFT_ONLY},
		{osm.Tags{{Key: "sidewalk:left", Value: "no"}, {Key: "sidewalk:right", Value: "no"}}, SIDEWALK_NONE},
		{osm.Tags{{Key: "sidewalk:left", Value: "yes"}, {Key: "sidewalk:right", Value: "yes"}}, SIDEWALK_BOTH},
		{osm.Tags{{Key: "sidewalk:left", Value: "yes"}}, SIDEWALK_UNSPECIFIED},
		// generic tag wins over side-specific ones
		{osm.Tags{{Key: "sidewalk", Value: "right"}, {Key: "sidewalk:right", Value: "no"}}, SIDEWALK_RIGHT_ONLY},
	}
	for i, c := range cases {
		if got := ClassifySidewalk(c.tags); got != c.correct {
			t.Errorf("Case #%d: presence should be '%s', but got '%s'", i, c.correct, got)
		}
	}
}

func TestSidewalkPresenceSides(t *testing.T) {
	cases := []struct {
		presence    SidewalkPresence
		left, right bool
	}{
		{SIDEWALK_UNSPECIFIED, false, false},
		{SIDEWALK_BOTH, false, false},
		{SIDEWALK_LEFT_ONLY, false, true},
		{SIDEWALK_RIGHT_ONLY, true, false},
		{SIDEWALK_NONE, true, true},
	}
	for _, c := range cases {
		if c.presence.excludesLeft() != c.left {
			t.Errorf("Left exclusion for '%s' should be %t, but got %t", c.presence, c.left, c.presence.excludesLeft())
		}
		if c.presence.excludesRight() != c.right {
			t.Errorf("Right exclusion for '%s' should be %t, but got %t", c.presence, c.right, c.presence.excludesRight())
		}
	}
}

package osm2sidewalks

type HighwayType uint16

const (
	HIGHWAY_MOTORWAY = HighwayType(iota + 1)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_SERVICE
	HIGHWAY_UNCLASSIFIED
	HIGHWAY_ROAD
	HIGHWAY_TRACK
	HIGHWAY_BUSWAY
	HIGHWAY_CYCLEWAY
	HIGHWAY_FOOTWAY
	HIGHWAY_PEDESTRIAN
	HIGHWAY_PATH
	HIGHWAY_STEPS
	HIGHWAY_BRIDLEWAY
	HIGHWAY_CORRIDOR
)

func (iotaIdx HighwayType) String() string {
	return [...]string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "living_street", "service", "unclassified", "road", "track", "busway", "cycleway", "footway", "pedestrian", "path", "steps", "bridleway", "corridor"}[iotaIdx-1]
}

func getHighwayType(str string) HighwayType {
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return 0
}

// isPedestrianHighway reports classes which are pedestrian infrastructure already
// and must never be buffered as roads
func isPedestrianHighway(str string) bool {
	_, ok := pedestrianHighways[getHighwayType(str)]
	return ok
}

var (
	highwaysTypes = map[string]HighwayType{
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"service":        HIGHWAY_SERVICE,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
		"road":           HIGHWAY_ROAD,
		"track":          HIGHWAY_TRACK,
		"busway":         HIGHWAY_BUSWAY,
		"cycleway":       HIGHWAY_CYCLEWAY,
		"footway":        HIGHWAY_FOOTWAY,
		"pedestrian":     HIGHWAY_PEDESTRIAN,
		"path":           HIGHWAY_PATH,
		"steps":          HIGHWAY_STEPS,
		"bridleway":      HIGHWAY_BRIDLEWAY,
		"corridor":       HIGHWAY_CORRIDOR,
	}

	pedestrianHighways = map[HighwayType]struct{}{
		HIGHWAY_CYCLEWAY:   {},
		HIGHWAY_FOOTWAY:    {},
		HIGHWAY_PEDESTRIAN: {},
		HIGHWAY_PATH:       {},
		HIGHWAY_STEPS:      {},
		HIGHWAY_BRIDLEWAY:  {},
		HIGHWAY_CORRIDOR:   {},
	}

	// Full carriageway width in meters
	defaultWidthByHighway = map[string]float64{
		"motorway":       20.0,
		"motorway_link":  10.0,
		"trunk":          20.0,
		"trunk_link":     10.0,
		"primary":        15.0,
		"primary_link":   8.0,
		"secondary":      12.0,
		"secondary_link": 7.0,
		"tertiary":       10.0,
		"tertiary_link":  6.0,
		"residential":    8.0,
		"living_street":  6.0,
		"service":        5.0,
		"unclassified":   7.0,
		"road":           7.0,
		"track":          3.0,
		"busway":         7.0,
		"cycleway":       0.0,
		"footway":        0.0,
		"pedestrian":     0.0,
		"path":           0.0,
		"steps":          0.0,
		"bridleway":      0.0,
		"corridor":       0.0,
	}
)

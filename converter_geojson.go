package osm2sidewalks

import (
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// Properties of input line features, mapped onto OSM tags
var geojsonTagProperties = []string{
	TAG_SIDEWALK,
	TAG_SIDEWALK_LEFT,
	TAG_SIDEWALK_RIGHT,
	TAG_SIDEWALK_BOTH,
	TAG_FOOTWAY,
}

// ReadGeoJSON reads feature collection already expressed in local planar frame.
// Line features become street segments (`road_class` or `highway` property gives the class),
// polygon features become buildings.
func ReadGeoJSON(r io.Reader) (Input, error) {
	input := Input{}
	data, err := io.ReadAll(r)
	if err != nil {
		return input, errors.Wrap(err, "Can't read GeoJSON")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return input, errors.Wrap(err, "Can't parse GeoJSON")
	}
	polys := []orb.Polygon{}
	for _, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		switch feature.Geometry.Type {
		case geojson.GeometryLineString:
			input.Segments = append(input.Segments, segmentFromFeature(int64(len(input.Segments)), feature, coordsLine(feature.Geometry.LineString)))
		case geojson.GeometryMultiLineString:
			for _, part := range feature.Geometry.MultiLineString {
				input.Segments = append(input.Segments, segmentFromFeature(int64(len(input.Segments)), feature, coordsLine(part)))
			}
		case geojson.GeometryPolygon:
			polys = append(polys, coordsPolygon(feature.Geometry.Polygon))
		case geojson.GeometryMultiPolygon:
			for _, part := range feature.Geometry.MultiPolygon {
				polys = append(polys, coordsPolygon(part))
			}
		}
	}
	input.Buildings = buildingsFromPolygons(polys)
	return input, nil
}

func segmentFromFeature(id int64, feature *geojson.Feature, line orb.LineString) StreetSegment {
	segment := StreetSegment{ID: id, Geom: line}
	if class, err := feature.PropertyString("road_class"); err == nil {
		segment.RoadClass = class
	} else if class, err := feature.PropertyString(TAG_HIGHWAY); err == nil {
		segment.RoadClass = class
	}
	if width, ok := propertyWidth(feature.Properties[TAG_WIDTH]); ok {
		segment.DeclaredWidth = &width
	}
	segment.Tags = osm.Tags{{Key: TAG_HIGHWAY, Value: segment.RoadClass}}
	for _, key := range geojsonTagProperties {
		if value, err := feature.PropertyString(key); err == nil && value != "" {
			segment.Tags = append(segment.Tags, osm.Tag{Key: key, Value: value})
		}
	}
	return segment
}

// propertyWidth accepts numeric and textual widths; null means not declared
func propertyWidth(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, v > 0
	case string:
		return parseWidth(v)
	}
	return 0, false
}

func coordsPolygon(rings [][][]float64) orb.Polygon {
	poly := make(orb.Polygon, len(rings))
	for i, ring := range rings {
		poly[i] = orb.Ring(coordsLine(ring))
	}
	return poly
}

// ToGeoJSON returns sidewalks, crossings and kerbs as one feature collection.
// Every feature carries `layer` property: sidewalk, crossing or kerb.
func (result *Result) ToGeoJSON(frame *LocalFrame) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, sidewalk := range result.Sidewalks {
		geom, err := outputLine(frame, sidewalk.Geom)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't reproject sidewalk %d", sidewalk.ID)
		}
		feature := geojson.NewLineStringFeature(lineCoords(geom))
		feature.ID = sidewalk.ID
		feature.SetProperty("layer", "sidewalk")
		feature.SetProperty(TAG_HIGHWAY, "footway")
		feature.SetProperty(TAG_FOOTWAY, sidewalk.Kind)
		fc.AddFeature(feature)
	}
	for _, crossing := range result.Crossings {
		geom, err := outputLine(frame, crossing.Geom)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't reproject crossing %d", crossing.ID)
		}
		feature := geojson.NewLineStringFeature(lineCoords(geom))
		feature.ID = crossing.ID
		feature.SetProperty("layer", "crossing")
		feature.SetProperty(TAG_HIGHWAY, "footway")
		feature.SetProperty(TAG_FOOTWAY, "crossing")
		feature.SetProperty("origin", crossing.Origin.String())
		feature.SetProperty("road_width", crossing.RoadWidth)
		feature.SetProperty("length", crossing.Length)
		fc.AddFeature(feature)
	}
	for _, kerb := range result.Kerbs {
		pt, err := outputPoint(frame, kerb.Point)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't reproject kerb %d", kerb.ID)
		}
		feature := geojson.NewPointFeature([]float64{pt[0], pt[1]})
		feature.ID = kerb.ID
		feature.SetProperty("layer", "kerb")
		feature.SetProperty("barrier", "kerb")
		feature.SetProperty("crossing_id", kerb.CrossingID)
		feature.SetProperty("bearing", kerb.Bearing)
		fc.AddFeature(feature)
	}
	return fc, nil
}

// WriteGeoJSON encodes result feature collection into w
func (result *Result) WriteGeoJSON(w io.Writer, frame *LocalFrame) error {
	fc, err := result.ToGeoJSON(frame)
	if err != nil {
		return err
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't convert result to GeoJSON")
	}
	if _, err = w.Write(b); err != nil {
		return errors.Wrap(err, "Can't write GeoJSON")
	}
	return nil
}

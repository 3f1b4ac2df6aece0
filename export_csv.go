package osm2sidewalks

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// outputLine converts planar line into output frame. Nil frame keeps planar coordinates
func outputLine(frame *LocalFrame, line orb.LineString) (orb.LineString, error) {
	if frame == nil {
		return line, nil
	}
	return frame.InverseLine(line)
}

func outputPoint(frame *LocalFrame, pt orb.Point) (orb.Point, error) {
	if frame == nil {
		return pt, nil
	}
	return frame.Inverse(pt)
}

// ExportToCSV writes sidewalks, crossings and kerbs into three ';'-separated files with WKT
// geometry. E.g. for 'city.csv': 'city_sidewalks.csv', 'city_crossings.csv', 'city_kerbs.csv'
func (result *Result) ExportToCSV(fname string, frame *LocalFrame) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameSidewalks := fnameParts[0] + "_sidewalks.csv"
	fnameCrossings := fnameParts[0] + "_crossings.csv"
	fnameKerbs := fnameParts[0] + "_kerbs.csv"

	err := result.exportSidewalksToCSV(fnameSidewalks, frame)
	if err != nil {
		return errors.Wrap(err, "Can't export sidewalks")
	}

	err = result.exportCrossingsToCSV(fnameCrossings, frame)
	if err != nil {
		return errors.Wrap(err, "Can't export crossings")
	}

	err = result.exportKerbsToCSV(fnameKerbs, frame)
	if err != nil {
		return errors.Wrap(err, "Can't export kerbs")
	}
	return nil
}

func newCSVWriter(fname string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(fname)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't create file")
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	return file, writer, nil
}

func (result *Result) exportSidewalksToCSV(fname string, frame *LocalFrame) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "highway", "footway", "length", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, sidewalk := range result.Sidewalks {
		geom, err := outputLine(frame, sidewalk.Geom)
		if err != nil {
			return errors.Wrapf(err, "Can't reproject sidewalk %d", sidewalk.ID)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", sidewalk.ID),
			"footway",
			sidewalk.Kind,
			fmt.Sprintf("%f", planar.Length(sidewalk.Geom)),
			wkt.MarshalString(geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write sidewalk")
		}
	}
	return nil
}

func (result *Result) exportCrossingsToCSV(fname string, frame *LocalFrame) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "origin", "segment_id", "road_width", "length", "expected_length", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, crossing := range result.Crossings {
		geom, err := outputLine(frame, crossing.Geom)
		if err != nil {
			return errors.Wrapf(err, "Can't reproject crossing %d", crossing.ID)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", crossing.ID),
			crossing.Origin.String(),
			fmt.Sprintf("%d", crossing.SegmentID),
			fmt.Sprintf("%f", crossing.RoadWidth),
			fmt.Sprintf("%f", crossing.Length),
			fmt.Sprintf("%f", crossing.ExpectedLength),
			wkt.MarshalString(geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write crossing")
		}
	}
	return nil
}

func (result *Result) exportKerbsToCSV(fname string, frame *LocalFrame) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "crossing_id", "bearing", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, kerb := range result.Kerbs {
		geom, err := outputPoint(frame, kerb.Point)
		if err != nil {
			return errors.Wrapf(err, "Can't reproject kerb %d", kerb.ID)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", kerb.ID),
			fmt.Sprintf("%d", kerb.CrossingID),
			fmt.Sprintf("%f", kerb.Bearing),
			wkt.MarshalString(geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write kerb")
		}
	}
	return nil
}

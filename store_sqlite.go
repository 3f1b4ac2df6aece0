package osm2sidewalks

import (
	"database/sql"
	_ "embed"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// schema.sql creates tables for runs and their sidewalks, crossings and kerbs.
//
//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists pipeline results; every saved run gets its own UUID
type SQLiteStore struct {
	*sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open database")
	}
	_, err = db.Exec(schemaSQL)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't initialize schema")
	}
	return &SQLiteStore{db}, nil
}

// SaveResult stores result in a single transaction and returns generated run ID
func (store *SQLiteStore) SaveResult(result *Result, frame *LocalFrame) (string, error) {
	runID := uuid.New().String()
	tx, err := store.Begin()
	if err != nil {
		return "", errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()

	segments, protoblocks := 0, 0
	if result.Network != nil {
		segments = len(result.Network.Segments)
	}
	if result.Protoblocks != nil {
		protoblocks = len(result.Protoblocks.Blocks)
	}
	_, err = tx.Exec(`INSERT INTO runs (id, segments, protoblocks, empty_network, cancelled) VALUES (?, ?, ?, ?, ?)`,
		runID, segments, protoblocks, result.EmptyNetwork, result.Cancelled)
	if err != nil {
		return "", errors.Wrap(err, "Can't insert run")
	}

	for _, sidewalk := range result.Sidewalks {
		geom, err := outputLine(frame, sidewalk.Geom)
		if err != nil {
			return "", errors.Wrapf(err, "Can't reproject sidewalk %d", sidewalk.ID)
		}
		_, err = tx.Exec(`INSERT INTO sidewalks (run_id, id, kind, length, geom) VALUES (?, ?, ?, ?, ?)`,
			runID, sidewalk.ID, sidewalk.Kind, planar.Length(sidewalk.Geom), wkt.MarshalString(geom))
		if err != nil {
			return "", errors.Wrap(err, "Can't insert sidewalk")
		}
	}
	for _, crossing := range result.Crossings {
		geom, err := outputLine(frame, crossing.Geom)
		if err != nil {
			return "", errors.Wrapf(err, "Can't reproject crossing %d", crossing.ID)
		}
		_, err = tx.Exec(`INSERT INTO crossings (run_id, id, origin, segment_id, road_width, length, expected_length, geom) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, crossing.ID, crossing.Origin.String(), crossing.SegmentID, crossing.RoadWidth, crossing.Length, crossing.ExpectedLength, wkt.MarshalString(geom))
		if err != nil {
			return "", errors.Wrap(err, "Can't insert crossing")
		}
	}
	for _, kerb := range result.Kerbs {
		pt, err := outputPoint(frame, kerb.Point)
		if err != nil {
			return "", errors.Wrapf(err, "Can't reproject kerb %d", kerb.ID)
		}
		_, err = tx.Exec(`INSERT INTO kerbs (run_id, id, crossing_id, bearing, geom) VALUES (?, ?, ?, ?, ?)`,
			runID, kerb.ID, kerb.CrossingID, kerb.Bearing, wkt.MarshalString(pt))
		if err != nil {
			return "", errors.Wrap(err, "Can't insert kerb")
		}
	}
	if err = tx.Commit(); err != nil {
		return "", errors.Wrap(err, "Can't commit run")
	}
	return runID, nil
}

// CountFeatures returns number of stored sidewalks, crossings and kerbs of the run
func (store *SQLiteStore) CountFeatures(runID string) (int, int, int, error) {
	counts := [3]int{}
	for i, table := range []string{"sidewalks", "crossings", "kerbs"} {
		err := store.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE run_id = ?`, runID).Scan(&counts[i])
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "Can't count %s", table)
		}
	}
	return counts[0], counts[1], counts[2], nil
}

package osm2sidewalks

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyNetwork is returned by CleanNetwork when nothing usable is left after cleaning.
	// It is not fatal: callers decide whether an empty network aborts their run.
	ErrEmptyNetwork = errors.New("No usable network")
	// ErrZeroLengthCrossing is returned by PlaceKerbs for degenerate crossings
	ErrZeroLengthCrossing = errors.New("Zero-length crossing")
)

// InvalidGeometryError reports malformed input geometry. It aborts the run.
type InvalidGeometryError struct {
	FeatureID int64
	Reason    string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("Invalid geometry for feature %d: %s", e.FeatureID, e.Reason)
}

// PolygonizationError reports a failure inside the polygon boolean-algebra engine
type PolygonizationError struct {
	Op    string
	Cause error
}

func (e *PolygonizationError) Error() string {
	return fmt.Sprintf("Geometry engine failed during '%s': %v", e.Op, e.Cause)
}

func (e *PolygonizationError) Unwrap() error {
	return e.Cause
}

// ReprojectionError is raised by LocalFrame when coordinates can't be mapped between frames
type ReprojectionError struct {
	X, Y float64
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("Can't reproject coordinate (%f, %f)", e.X, e.Y)
}

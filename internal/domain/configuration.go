// Package domain holds the immutable problem data model: tasks, robots,
// species, plans, and allocations. Everything here is a value or an
// immutable pointer-to-value; nothing is mutated after problem construction
// (see SPEC_FULL.md §3 "Lifecycle").
package domain

import (
	"encoding/json"
	"strconv"
)

// Point is a 3D coordinate. Ground robots and tasks use Z=0.
type Point struct {
	X, Y, Z float64
}

// Configuration is an opaque geometric configuration as seen by the core:
// the allocation search and scheduler never interpret it directly, they
// only pass it to a MotionDurationOracle. Pos is populated so the default
// euclidean-distance oracle (SPEC_FULL.md §4.1) has something to measure;
// Raw carries whatever a concrete motion planner needs and is round-tripped
// opaquely through JSON.
type Configuration struct {
	ID  string          `json:"id"`
	Pos Point           `json:"pos"`
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Key returns a stable identity for memoization keys. Two configurations
// with the same ID are considered the same geometric point by the oracle
// cache, regardless of floating point Pos jitter.
func (c Configuration) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Pos.key()
}

func (p Point) key() string {
	// 3 decimal places: coordinates are keyed at a resolution of 1e-3, so
	// configurations whose coordinates round to the same thousandth share a
	// key and are treated as the same point.
	return fmtFloat(p.X) + "," + fmtFloat(p.Y) + "," + fmtFloat(p.Z)
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

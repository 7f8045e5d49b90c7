package projection

import (
	"fmt"
	"strings"
)

// Mode selects what a compiled query returns.
type Mode string

const (
	// ModeKey returns the geometry hash (document key) of each match.
	ModeKey Mode = "key"

	// ModeShape returns key, distance when computed, and stored geometry.
	ModeShape Mode = "shape"

	// ModeData returns key, geometry and the full climate record.
	ModeData Mode = "data"

	// ModeMin and the following modes reduce all matches to one record.
	ModeMin      Mode = "min"
	ModeAverage  Mode = "average"
	ModeMax      Mode = "max"
	ModeStdDev   Mode = "stddev"
	ModeVariance Mode = "variance"
)

// Modes lists every mode in canonical order.
var Modes = []Mode{ModeKey, ModeShape, ModeData, ModeMin, ModeAverage, ModeMax, ModeStdDev, ModeVariance}

var modeAliases = map[string]Mode{
	"key":                ModeKey,
	"shape":              ModeShape,
	"data":               ModeData,
	"min":                ModeMin,
	"avg":                ModeAverage,
	"average":            ModeAverage,
	"mean":               ModeAverage,
	"max":                ModeMax,
	"std":                ModeStdDev,
	"stddev":             ModeStdDev,
	"standard-deviation": ModeStdDev,
	"var":                ModeVariance,
	"variance":           ModeVariance,
}

// ParseMode converts a mode name to a Mode. Matching is case-insensitive and
// accepts the short legacy names (KEY, SHAPE, DATA, MIN, AVG, MAX, STD, VAR).
func ParseMode(s string) (Mode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown result mode %q", s)
	}
	return m, nil
}

// Valid reports whether m is a recognised mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeKey, ModeShape, ModeData, ModeMin, ModeAverage, ModeMax, ModeStdDev, ModeVariance:
		return true
	default:
		return false
	}
}

// IsAggregate reports whether m reduces all matches to a single record.
func (m Mode) IsAggregate() bool {
	_, ok := aggregateFuncs[m]
	return ok
}

// NeedsClimateData reports whether m reads the properties record.
func (m Mode) NeedsClimateData() bool {
	return m == ModeData || m.IsAggregate()
}

// Paginated reports whether a LIMIT clause applies to m.
func (m Mode) Paginated() bool {
	return m.Valid() && !m.IsAggregate()
}

// aggregateFuncs maps aggregate modes to the engine's reduction functions.
// Standard deviation and variance are the population forms.
var aggregateFuncs = map[Mode]string{
	ModeMin:      "MIN",
	ModeAverage:  "AVG",
	ModeMax:      "MAX",
	ModeStdDev:   "STDDEV_POPULATION",
	ModeVariance: "VARIANCE_POPULATION",
}

// AggregateFunc returns the AQL aggregate function for an aggregate mode.
func (m Mode) AggregateFunc() (string, bool) {
	fn, ok := aggregateFuncs[m]
	return fn, ok
}

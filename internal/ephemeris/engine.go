// Package ephemeris computes ecliptic positions for chart bodies. The planets
// come from an external engine; asteroids, fixed stars and hypothetical
// points come from a supplementary catalog.
package ephemeris

import (
	"errors"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"woflstrology/internal/model"
)

var (
	// ErrEphemerisUnavailable means no source could place the body.
	ErrEphemerisUnavailable = errors.New("position unavailable")
	// ErrUnsupportedBody means a source does not carry the body at all.
	ErrUnsupportedBody = errors.New("unsupported body")
)

// Source returns the geocentric ecliptic position of a body.
type Source interface {
	Name() string
	Position(t time.Time, c model.Coordinates, body model.Body) (model.Position, error)
}

// Engine is a Source that can also cast the chart angles.
type Engine interface {
	Source
	Angles(t time.Time, c model.Coordinates) (model.Angles, error)
}

// speedStep is half the central difference window, in days.
const speedStep = 0.25

// JDE converts t to a Julian ephemeris day. ΔT is ignored.
func JDE(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// normDeg maps degrees into [0,360).
func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// deltaDeg is the signed shortest arc from a to b, in (-180,180].
func deltaDeg(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// speed estimates degrees per day by central difference across 0° Aries.
func speed(lonAt func(jde float64) float64, jde float64) float64 {
	return deltaDeg(lonAt(jde-speedStep), lonAt(jde+speedStep)) / (2 * speedStep)
}

// precessionPerCentury is general precession in longitude, degrees.
const precessionPerCentury = 1.396971

// precess moves a J2000 longitude to the equinox of date.
func precess(lonJ2000, jde float64) float64 {
	return normDeg(lonJ2000 + precessionPerCentury*(jde-2451545.0)/36525)
}

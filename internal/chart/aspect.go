package chart

import (
	"math"

	"woflstrology/internal/model"
)

// AspectDef is one row of the orb table.
type AspectDef struct {
	Type  model.AspectType
	Angle float64
	Orb   float64
}

// DefaultAspects is the orb table used for natal, transit and synastry aspects.
// Quincunx is only consulted for yod detection and is not part of this table.
var DefaultAspects = []AspectDef{
	{model.Conjunction, 0, 8},
	{model.Opposition, 180, 8},
	{model.Trine, 120, 6},
	{model.Square, 90, 6},
	{model.Sextile, 60, 4},
}

// ExactAspects is the tight table used when forecasting exact transit hits.
var ExactAspects = []AspectDef{
	{model.Conjunction, 0, 1},
	{model.Opposition, 180, 1},
	{model.Trine, 120, 1},
	{model.Square, 90, 1},
}

// AspectOrder ranks aspect types for display.
var AspectOrder = []model.AspectType{
	model.Conjunction, model.Opposition, model.Trine, model.Square, model.Sextile, model.Quincunx,
}

// Separation returns the minimal angle between two longitudes, in [0,180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Classify finds the aspect formed by a separation. When several windows match
// the narrowest orb wins; equal orbs fall back to the closer exact angle and
// then to table order.
func Classify(table []AspectDef, sep float64) (AspectDef, float64, bool) {
	var (
		best    AspectDef
		bestDev float64
		found   bool
	)
	for _, def := range table {
		dev := math.Abs(sep - def.Angle)
		if dev > def.Orb {
			continue
		}
		if !found || def.Orb < best.Orb || (def.Orb == best.Orb && dev < bestDev) {
			best, bestDev, found = def, dev, true
		}
	}
	return best, bestDev, found
}

// Within reports whether two longitudes are within orb of an exact angle.
func Within(a, b, angle, orb float64) bool {
	return math.Abs(Separation(a, b)-angle) <= orb
}

// FindAspects checks every unordered pair of bodies in chart order.
func FindAspects(table []AspectDef, bodies []model.BodyPosition) []model.Aspect {
	var aspects []model.Aspect
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			sep := Separation(bodies[i].Longitude, bodies[j].Longitude)
			def, dev, ok := Classify(table, sep)
			if !ok {
				continue
			}
			aspects = append(aspects, model.Aspect{
				A:          bodies[i].Body,
				B:          bodies[j].Body,
				Type:       def.Type,
				Separation: sep,
				Orb:        dev,
			})
		}
	}
	return aspects
}

// AspectRank returns the display rank of an aspect type.
func AspectRank(t model.AspectType) int {
	for i, a := range AspectOrder {
		if a == t {
			return i
		}
	}
	return len(AspectOrder)
}

// WithOrbs returns a copy of table with orbs replaced for the aspect types
// named in overrides. Unknown names are ignored.
func WithOrbs(table []AspectDef, overrides map[string]float64) []AspectDef {
	out := make([]AspectDef, len(table))
	copy(out, table)
	for i, def := range out {
		if orb, ok := overrides[string(def.Type)]; ok && orb > 0 {
			out[i].Orb = orb
		}
	}
	return out
}

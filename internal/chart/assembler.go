package chart

import (
	"time"

	"woflstrology/internal/model"
)

// Assembler builds charts from ephemeris output.
type Assembler struct {
	System  HouseSystem
	Aspects []AspectDef
}

// NewAssembler creates an Assembler using the default orb table.
func NewAssembler(system HouseSystem) *Assembler {
	if system == "" {
		system = HouseEqual
	}
	return &Assembler{System: system, Aspects: DefaultAspects}
}

// Build places each position in a sign and house and derives the aspect list.
// Positions keep their input order.
func (a *Assembler) Build(t time.Time, loc model.Location, positions []model.Position, angles model.Angles) *model.Chart {
	c := &model.Chart{
		Time:        t,
		Location:    loc,
		HouseSystem: string(a.System),
		Angles:      angles,
		Cusps:       Cusps(a.System, angles),
	}
	for _, p := range positions {
		lon := Normalize(p.Longitude)
		c.Bodies = append(c.Bodies, model.BodyPosition{
			Body:          p.Body,
			Longitude:     lon,
			Speed:         p.Speed,
			Sign:          SignOf(lon),
			DegreesInSign: DegreesInSign(lon),
			House:         HouseOf(lon, c.Cusps),
			Retrograde:    p.Speed < 0,
		})
	}
	c.Aspects = FindAspects(a.Aspects, c.Bodies)
	return c
}

// Rehouse returns a copy of c with houses recomputed for other angles. Used for
// relocation charts, where the planets stay put and the houses move.
func (a *Assembler) Rehouse(c *model.Chart, loc model.Location, angles model.Angles) *model.Chart {
	out := *c
	out.Location = loc
	out.Angles = angles
	out.Cusps = Cusps(a.System, angles)
	out.Bodies = make([]model.BodyPosition, len(c.Bodies))
	for i, b := range c.Bodies {
		b.House = HouseOf(b.Longitude, out.Cusps)
		out.Bodies[i] = b
	}
	return &out
}

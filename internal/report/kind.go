package report

import (
	"fmt"
	"strings"
	"time"

	"woflstrology/internal/chart"
	"woflstrology/internal/model"
)

// Kind selects which sections a report contains.
type Kind string

const (
	Daily         Kind = "daily"
	Natal         Kind = "natal"
	Compatibility Kind = "compatibility"
	Synastry      Kind = "synastry"
	Transits      Kind = "transits"
	Forecast      Kind = "forecast"
	SolarReturn   Kind = "solar-return"
	Progressions  Kind = "progressions"
	Relocation    Kind = "relocation"
	Asteroids     Kind = "asteroids"
)

// Kinds lists every report kind in menu order.
var Kinds = []Kind{Daily, Natal, Compatibility, Synastry, Transits, Forecast, SolarReturn, Progressions, Relocation, Asteroids}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "compat":
		return Compatibility, nil
	case "relocate":
		return Relocation, nil
	case "solar_return":
		return SolarReturn, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Star is a fixed star position at the reading date.
type Star struct {
	Name      string
	Longitude float64
}

// Hit is one exact transit found by the forecast scan.
type Hit struct {
	Date time.Time
	chart.CrossAspect
}

// AsteroidPlacement pairs a catalogue number with its natal position.
type AsteroidPlacement struct {
	Number   int
	Position model.BodyPosition
}

// ThemeHit is a themed asteroid conjunct a natal body.
type ThemeHit struct {
	Number   int
	Asteroid model.BodyPosition
	Natal    model.Body
	Orb      float64
}

// ThemeScan is one thematic asteroid group checked against the natal chart.
type ThemeScan struct {
	Title       string
	Description string
	Hits        []ThemeHit
	Missing     []string // "Name (number)" for group members nobody could place
}

// MoonCourse describes the Moon's remaining path through its current sign.
type MoonCourse struct {
	Void       bool
	Sign       string
	NextSign   string
	Ingress    time.Time
	LastAspect time.Time // zero when no further aspect was found
}

// Input is everything a report can draw on. Only the charts a kind needs
// have to be set.
type Input struct {
	Name        string
	Date        time.Time // reading date, also the seed for text selection
	Natal       *model.Chart
	Current     *model.Chart
	Partner     *model.Chart
	PartnerName string
	PartnerSign string
	Derived     *model.Chart // solar return, progressed or relocated chart
	Aspects     []chart.AspectDef
	Forecast    []Hit
	Asteroids   []AsteroidPlacement
	Themes      []ThemeScan
	Stars       []Star
	Moon        *MoonCourse
}

func (in *Input) seed(extra string) string {
	return in.Date.Format("2006-01-02") + "|" + in.Name + "|" + extra
}

func (in *Input) table() []chart.AspectDef {
	if len(in.Aspects) > 0 {
		return in.Aspects
	}
	return chart.DefaultAspects
}

func sunSign(c *model.Chart) string {
	if c == nil {
		return ""
	}
	if p, ok := c.Body(model.Sun); ok {
		return p.Sign
	}
	return ""
}

func (in *Input) partnerSign() string {
	if s := sunSign(in.Partner); s != "" {
		return s
	}
	if s, ok := chart.SignByName(in.PartnerSign); ok {
		return s
	}
	return ""
}

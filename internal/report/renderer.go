package report

import (
	"errors"
	"fmt"
	"strings"

	"woflstrology/internal/content"
)

var (
	ErrUnknownKind  = errors.New("unknown report kind")
	ErrMissingChart = errors.New("report input is missing a chart")
)

// Renderer turns charts into Markdown text. It only formats; every
// calculation it needs is either in Input or a pure chart helper.
type Renderer struct {
	db *content.Database
}

func NewRenderer(db *content.Database) *Renderer {
	return &Renderer{db: db}
}

type section func(r *Renderer, b *strings.Builder, in *Input)

var sections = map[Kind][]section{
	Daily:         {dailyHeader, personalSky, generalHoroscope, retrogradeInfluences, natalContext, moonCourse},
	Natal:         {natalHeader, risingSign, corePlacements, natalRetrogrades, natalAspects, chartPatterns, elementBalance, modalityBalance, dominantPlanet, lunarPhase, chironPlacement, fixedStars, sabianSymbols, planetaryHour},
	Compatibility: {compatHeader, elementDynamic, relationalPatterns, compatGuidance, signPair, relationshipClimate},
	Synastry:      {synastryHeader, interaspects},
	Transits:      {transitsHeader, activeTransits, moonCourse},
	Forecast:      {forecastHeader, upcomingTransits},
	SolarReturn:   {solarReturnHeader, derivedRising, solarReturnPlacements, solarReturnMeaning, houseEmphasis},
	Progressions:  {progressionsHeader, progressedPlacements, progressedMoon, progressionsMeaning},
	Relocation:    {relocationHeader, relocatedAngles, houseShifts, derivedRising},
	Asteroids:     {asteroidsHeader, asteroidPlacements, themeScans, chironPlacement},
}

type requirement struct {
	name  string
	check func(*Input) bool
}

var (
	needNatal   = requirement{"natal", func(in *Input) bool { return in.Natal != nil }}
	needCurrent = requirement{"current", func(in *Input) bool { return in.Current != nil }}
	needPartner = requirement{"partner", func(in *Input) bool { return in.Partner != nil }}
	needDerived = requirement{"derived", func(in *Input) bool { return in.Derived != nil }}
	needSign    = requirement{"partner sign", func(in *Input) bool { return in.partnerSign() != "" }}
)

var requires = map[Kind][]requirement{
	Daily:         {needCurrent},
	Natal:         {needNatal},
	Compatibility: {needNatal, needSign},
	Synastry:      {needNatal, needPartner},
	Transits:      {needNatal, needCurrent},
	Forecast:      {needNatal},
	SolarReturn:   {needNatal, needDerived},
	Progressions:  {needNatal, needDerived},
	Relocation:    {needNatal, needDerived},
	Asteroids:     {needNatal},
}

// Render runs the sections registered for kind, in order.
func (r *Renderer) Render(kind Kind, in *Input) (string, error) {
	secs, ok := sections[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if in == nil {
		in = &Input{}
	}
	for _, req := range requires[kind] {
		if !req.check(in) {
			return "", fmt.Errorf("%w: %s report needs %s", ErrMissingChart, kind, req.name)
		}
	}
	var b strings.Builder
	for _, sec := range secs {
		sec(r, &b, in)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

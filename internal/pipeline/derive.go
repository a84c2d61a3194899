package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"woflstrology/internal/chart"
	"woflstrology/internal/ephemeris"
	"woflstrology/internal/model"
	"woflstrology/internal/report"
)

const (
	solarReturnWindow = 48 // hours either side of the birthday
	moonScanHours     = 72
	daysPerYear       = 365.2425
)

// signedArc is the shortest signed arc from a to b, in (-180,180].
func signedArc(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// solarReturn finds the moment in the year of at when the Sun is back on
// its natal degree and casts a chart for it at loc. An hourly scan around
// the birthday is refined with one linear step.
func (s *Service) solarReturn(natal *model.Chart, at time.Time, loc model.Location) (*model.Chart, error) {
	sun, ok := natal.Body(model.Sun)
	if !ok {
		return nil, fmt.Errorf("natal Sun: %w", ephemeris.ErrEphemerisUnavailable)
	}
	zone := natal.Location.Zone()
	born := natal.Time.In(zone)
	guess := time.Date(at.In(zone).Year(), born.Month(), born.Day(), born.Hour(), born.Minute(), 0, 0, zone)

	best, bestArc := guess, math.Inf(1)
	for h := -solarReturnWindow; h <= solarReturnWindow; h++ {
		t := guess.Add(time.Duration(h) * time.Hour)
		p, err := s.eph.Position(t, loc.Coordinates, model.Sun)
		if err != nil {
			return nil, fmt.Errorf("sun position: %w", err)
		}
		if d := math.Abs(signedArc(p.Longitude, sun.Longitude)); d < bestArc {
			best, bestArc = t, d
		}
	}
	if p, err := s.eph.Position(best, loc.Coordinates, model.Sun); err == nil && p.Speed > 0 {
		days := signedArc(p.Longitude, sun.Longitude) / p.Speed
		best = best.Add(time.Duration(days * 24 * float64(time.Hour)))
	}
	s.logger.Debug("solar return found", zap.Time("time", best), zap.Float64("arc", bestArc))
	return s.cast(best, loc, s.chartBodies(nil))
}

// progress casts the secondary progressed chart: one day after birth for
// each year of life.
func (s *Service) progress(natal *model.Chart, at time.Time) (*model.Chart, error) {
	years := at.Sub(natal.Time).Hours() / 24 / daysPerYear
	if years < 0 {
		years = 0
	}
	t := natal.Time.Add(time.Duration(years * 24 * float64(time.Hour)))
	return s.cast(t, natal.Location, s.chartBodies(nil))
}

// relocate keeps the natal positions and recomputes angles and houses for
// another place.
func (s *Service) relocate(ctx context.Context, natal *model.Chart, req Request) (*model.Chart, error) {
	target := req.RelocateTo
	if target == "" {
		target = req.Place
	}
	if strings.TrimSpace(target) == "" {
		return nil, ErrRelocationRequired
	}
	loc := s.resolve(ctx, target)
	angles, err := s.eph.Angles(natal.Time, loc.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("angles: %w", err)
	}
	return s.asm.Rehouse(natal, loc, angles), nil
}

// forecast steps weekly through the coming months and keeps the first week
// each slow planet comes within a degree of an exact aspect to a natal body.
func (s *Service) forecast(natal *model.Chart, from time.Time, months int) []report.Hit {
	end := from.AddDate(0, months, 0)
	seen := make(map[string]bool)
	var hits []report.Hit
	for t := from; t.Before(end); t = t.AddDate(0, 0, 7) {
		res := s.eph.Positions(t, natal.Location.Coordinates, model.SlowPlanets)
		sky := &model.Chart{}
		for _, p := range res.Positions {
			sky.Bodies = append(sky.Bodies, model.BodyPosition{Body: p.Body, Longitude: p.Longitude})
		}
		for _, a := range chart.Transits(chart.ExactAspects, sky, natal) {
			k := string(a.From) + "|" + string(a.Type) + "|" + string(a.To)
			if seen[k] {
				continue
			}
			seen[k] = true
			hits = append(hits, report.Hit{Date: t, CrossAspect: a})
		}
	}
	if len(hits) > s.forecastLimit {
		hits = hits[:s.forecastLimit]
	}
	return hits
}

// asteroidList is the configured set plus requested names, resolved
// through the directory when one is wired.
func (s *Service) asteroidList(extra []model.Body) []Asteroid {
	out := make([]Asteroid, 0, len(s.asteroids)+len(extra))
	have := make(map[string]bool)
	for _, a := range s.asteroids {
		out = append(out, a)
		have[strings.ToLower(string(a.Body))] = true
	}
	for _, name := range extra {
		a := s.lookupAsteroid(string(name))
		if have[strings.ToLower(string(a.Body))] {
			continue
		}
		have[strings.ToLower(string(a.Body))] = true
		out = append(out, a)
	}
	return out
}

func (s *Service) lookupAsteroid(name string) Asteroid {
	name = strings.TrimSpace(name)
	if s.directory != nil {
		for _, e := range s.directory.Search(name) {
			if e.Kind != model.KindAsteroid {
				continue
			}
			if strings.EqualFold(e.Name, name) || strconv.Itoa(e.Number) == name {
				return Asteroid{Number: e.Number, Body: model.Body(e.Name)}
			}
		}
	}
	return Asteroid{Body: model.Body(name)}
}

// placeAsteroids positions each asteroid at birth in the natal houses.
// Bodies no source can place are returned separately.
func (s *Service) placeAsteroids(natal *model.Chart, extra []model.Body) ([]report.AsteroidPlacement, []model.Body) {
	var (
		out     []report.AsteroidPlacement
		missing []model.Body
	)
	for _, a := range s.asteroidList(extra) {
		bp, ok := natal.Body(a.Body)
		if !ok {
			p, err := s.eph.Position(natal.Time, natal.Location.Coordinates, a.Body)
			if err != nil {
				s.logger.Warn("asteroid omitted", zap.String("body", string(a.Body)), zap.Error(err))
				s.metrics.BodyUnavailable(string(a.Body))
				missing = append(missing, a.Body)
				continue
			}
			lon := chart.Normalize(p.Longitude)
			bp = model.BodyPosition{
				Body:          a.Body,
				Longitude:     lon,
				Speed:         p.Speed,
				Sign:          chart.SignOf(lon),
				DegreesInSign: chart.DegreesInSign(lon),
				House:         chart.HouseOf(lon, natal.Cusps),
				Retrograde:    p.Speed < 0,
			}
		}
		out = append(out, report.AsteroidPlacement{Number: a.Number, Position: bp})
	}
	return out, missing
}

// fixedStars positions the configured stars at t. Stars are skipped
// quietly when the catalogue lacks them.
func (s *Service) fixedStars(t time.Time, c model.Coordinates) []report.Star {
	var out []report.Star
	for _, name := range s.stars {
		p, err := s.eph.Position(t, c, name)
		if err != nil {
			s.logger.Debug("fixed star skipped", zap.String("star", string(name)), zap.Error(err))
			continue
		}
		out = append(out, report.Star{Name: string(name), Longitude: p.Longitude})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Longitude < out[j].Longitude })
	return out
}

var moonAspects = append(append([]chart.AspectDef{}, chart.ExactAspects...),
	chart.AspectDef{Type: model.Sextile, Angle: 60, Orb: 1})

var moonTargets = []model.Body{
	model.Sun, model.Mercury, model.Venus, model.Mars, model.Jupiter,
	model.Saturn, model.Uranus, model.Neptune, model.Pluto,
}

// moonCourse follows the Moon hour by hour until it changes sign. It is
// void of course when no major aspect to the Sun or a planet falls in that
// stretch. Other bodies are extrapolated from their speed at the start.
// Returns nil when no ingress is found within three days.
func (s *Service) moonCourse(at time.Time, c model.Coordinates) *report.MoonCourse {
	moon, err := s.eph.Position(at, c, model.Moon)
	if err != nil {
		s.logger.Debug("moon course skipped", zap.Error(err))
		return nil
	}
	idx := chart.SignIndex(moon.Longitude)
	course := &report.MoonCourse{Sign: chart.Signs[idx], NextSign: chart.Signs[(idx+1)%12]}
	targets := s.eph.Positions(at, c, moonTargets).Positions

	for h := 0; h <= moonScanHours; h++ {
		t := at.Add(time.Duration(h) * time.Hour)
		if h > 0 {
			if moon, err = s.eph.Position(t, c, model.Moon); err != nil {
				return nil
			}
		}
		if chart.SignIndex(moon.Longitude) != idx {
			course.Ingress = t
			break
		}
		for _, p := range targets {
			lon := p.Longitude + p.Speed*float64(h)/24
			if _, _, ok := chart.Classify(moonAspects, chart.Separation(moon.Longitude, lon)); ok {
				course.LastAspect = t
			}
		}
	}
	if course.Ingress.IsZero() {
		return nil
	}
	course.Void = course.LastAspect.IsZero()
	return course
}

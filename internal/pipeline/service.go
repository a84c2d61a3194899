// Package pipeline runs one reading request from place lookup to rendered
// text: resolve, compute positions, assemble charts, render, record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"woflstrology/internal/chart"
	"woflstrology/internal/content"
	"woflstrology/internal/ephemeris"
	"woflstrology/internal/geo"
	"woflstrology/internal/metrics"
	"woflstrology/internal/model"
	"woflstrology/internal/recorder"
	"woflstrology/internal/report"
)

var (
	ErrBirthRequired      = errors.New("birth date required")
	ErrPartnerRequired    = errors.New("partner birth data required")
	ErrRelocationRequired = errors.New("relocation place required")
)

// Locator resolves a place and never fails; the error explains a fallback.
type Locator interface {
	ResolveOrDefault(ctx context.Context, query string) (model.Location, error)
}

// Ephemeris is the subset of the ephemeris adapter the pipeline uses.
type Ephemeris interface {
	Positions(t time.Time, c model.Coordinates, bodies []model.Body) ephemeris.Result
	Position(t time.Time, c model.Coordinates, body model.Body) (model.Position, error)
	Angles(t time.Time, c model.Coordinates) (model.Angles, error)
}

// Directory finds catalogue bodies by name or number.
type Directory interface {
	Search(q string) []ephemeris.Entry
}

// Asteroid is a minor body shown in the asteroid report.
type Asteroid struct {
	Number int
	Body   model.Body
}

var DefaultAsteroids = []Asteroid{
	{1, "Ceres"},
	{2, "Pallas"},
	{3, "Juno"},
	{4, "Vesta"},
	{16, "Psyche"},
	{433, "Eros"},
	{1181, "Lilith"},
}

const (
	defaultForecastMonths = 6
	defaultForecastLimit  = 12
)

// Deps wires a Service. Locations, Ephemeris and Content are required.
type Deps struct {
	Locations Locator
	Ephemeris Ephemeris
	Assembler *chart.Assembler
	Content   *content.Database
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Directory Directory
	Zones     geo.ZoneFinder
	Bodies    []model.Body // tracked set for every chart
	Stars     []model.Body // fixed stars checked against natal points
	Asteroids []Asteroid
	Now       func() time.Time

	ForecastMonths int
	ForecastLimit  int
}

// Service generates readings.
type Service struct {
	locations Locator
	eph       Ephemeris
	asm       *chart.Assembler
	renderer  *report.Renderer
	rec       recorder.Recorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	directory Directory
	zones     geo.ZoneFinder
	bodies    []model.Body
	stars     []model.Body
	asteroids []Asteroid
	now       func() time.Time

	forecastMonths int
	forecastLimit  int
}

// NewService fills in defaults for everything optional.
func NewService(d Deps) (*Service, error) {
	if d.Locations == nil {
		return nil, errors.New("pipeline: locations resolver is required")
	}
	if d.Ephemeris == nil {
		return nil, errors.New("pipeline: ephemeris is required")
	}
	if d.Content == nil {
		return nil, errors.New("pipeline: content database is required")
	}
	s := &Service{
		locations:      d.Locations,
		eph:            d.Ephemeris,
		asm:            d.Assembler,
		rec:            d.Recorder,
		metrics:        d.Metrics,
		logger:         d.Logger,
		directory:      d.Directory,
		zones:          d.Zones,
		bodies:         d.Bodies,
		stars:          d.Stars,
		asteroids:      d.Asteroids,
		now:            d.Now,
		forecastMonths: d.ForecastMonths,
		forecastLimit:  d.ForecastLimit,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.asm == nil {
		s.asm = chart.NewAssembler(chart.HouseEqual)
	}
	if s.rec == nil {
		s.rec = recorder.NewNoopRecorder()
	}
	if len(s.bodies) == 0 {
		s.bodies = model.Planets
	}
	if s.asteroids == nil {
		s.asteroids = DefaultAsteroids
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.forecastMonths <= 0 {
		s.forecastMonths = defaultForecastMonths
	}
	if s.forecastLimit <= 0 {
		s.forecastLimit = defaultForecastLimit
	}

	logger, m := s.logger, s.metrics
	db := d.Content.WithMissHook(func(category, key string) {
		logger.Warn("content missing, using placeholder", zap.String("category", category), zap.String("key", key))
		m.ContentMiss(category)
	})
	s.renderer = report.NewRenderer(db)
	return s, nil
}

// BirthQuery describes when and where someone was born. Time is a wall
// clock reading; its zone is replaced by the birthplace's zone.
type BirthQuery struct {
	Name        string
	Time        time.Time
	Place       string
	Coordinates *model.Coordinates // skips geocoding when set
	Location    *model.Location    // already resolved, e.g. from a saved profile
}

// Request is one reading to generate.
type Request struct {
	Kind           report.Kind
	Birth          BirthQuery
	Partner        *BirthQuery
	PartnerSign    string
	At             time.Time // zero means now
	Place          string    // where the reader is now; empty means the birthplace
	RelocateTo     string
	Bodies         []model.Body // extra natal bodies, or extra asteroids for the asteroid report
	Themes         []string     // asteroid themes to scan, see Themes
	ForecastMonths int
}

// Reading is a rendered report plus the charts behind it.
type Reading struct {
	ID          string
	Kind        report.Kind
	Text        string
	Natal       *model.Chart
	Current     *model.Chart
	Derived     *model.Chart
	Location    model.Location
	Unavailable []model.Body
	CreatedAt   time.Time
}

// Generate runs the whole pipeline for req. Degradations (unknown place,
// missing body, content gap) are logged and absorbed; anything else fails
// the request.
func (s *Service) Generate(ctx context.Context, req Request) (*Reading, error) {
	start := s.now()
	kind, err := report.ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	at := req.At
	if at.IsZero() {
		at = start
	}

	in := &report.Input{
		Name:        req.Birth.Name,
		PartnerSign: req.PartnerSign,
		Aspects:     s.asm.Aspects,
	}
	reading := &Reading{Kind: kind, CreatedAt: start}

	hasBirth := !req.Birth.Time.IsZero()
	if !hasBirth && kind != report.Daily {
		return nil, fmt.Errorf("%w: %s reading", ErrBirthRequired, kind)
	}
	if hasBirth {
		birth, err := s.locate(ctx, req.Birth)
		if err != nil {
			return nil, err
		}
		natalBodies := s.chartBodies(req.Bodies)
		if kind == report.Asteroids {
			natalBodies = s.chartBodies(nil)
		}
		natal, err := s.cast(birth.Time, birth.Location, natalBodies)
		if err != nil {
			return nil, fmt.Errorf("natal chart: %w", err)
		}
		in.Natal = natal
		reading.Natal = natal
		reading.Location = birth.Location
		reading.Unavailable = append(reading.Unavailable, natal.Unavailable...)
	}

	here := reading.Location
	if req.Place != "" || !hasBirth {
		here = s.resolve(ctx, req.Place)
		if !hasBirth {
			reading.Location = here
		}
	}
	in.Date = at.In(here.Zone())

	switch kind {
	case report.Daily, report.Transits, report.Compatibility:
		current, err := s.cast(at, here, s.bodies)
		if err != nil {
			return nil, fmt.Errorf("current chart: %w", err)
		}
		in.Current = current
		reading.Current = current
		if kind != report.Compatibility {
			in.Moon = s.moonCourse(at, here.Coordinates)
		}
	}

	switch kind {
	case report.Natal:
		in.Stars = s.fixedStars(in.Natal.Time, in.Natal.Location.Coordinates)
	case report.Compatibility, report.Synastry:
		if req.Partner == nil {
			if kind == report.Synastry {
				return nil, ErrPartnerRequired
			}
			break
		}
		partner, err := s.locate(ctx, *req.Partner)
		if err != nil {
			return nil, fmt.Errorf("partner: %w", err)
		}
		in.Partner, err = s.cast(partner.Time, partner.Location, s.bodies)
		if err != nil {
			return nil, fmt.Errorf("partner chart: %w", err)
		}
		in.PartnerName = req.Partner.Name
	case report.SolarReturn:
		in.Derived, err = s.solarReturn(in.Natal, at, here)
	case report.Progressions:
		in.Derived, err = s.progress(in.Natal, at)
	case report.Relocation:
		in.Derived, err = s.relocate(ctx, in.Natal, req)
	case report.Forecast:
		months := req.ForecastMonths
		if months <= 0 {
			months = s.forecastMonths
		}
		in.Forecast = s.forecast(in.Natal, at, months)
	case report.Asteroids:
		var (
			missing []model.Body
			themes  []Theme
		)
		if themes, err = selectThemes(req.Themes); err != nil {
			break
		}
		in.Asteroids, missing = s.placeAsteroids(in.Natal, req.Bodies)
		in.Themes = s.scanThemes(in.Natal, themes)
		reading.Unavailable = append(reading.Unavailable, missing...)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	reading.Derived = in.Derived

	text, err := s.renderer.Render(kind, in)
	if err != nil {
		return nil, err
	}
	reading.Text = text

	s.record(reading, req)
	s.metrics.ReadingGenerated(string(kind), s.now().Sub(start))
	s.logger.Info("reading generated",
		zap.String("id", reading.ID),
		zap.String("kind", string(kind)),
		zap.String("location", reading.Location.Name),
		zap.Bool("fallback", reading.Location.Fallback),
		zap.Int("unavailable", len(reading.Unavailable)))
	return reading, nil
}

// resolve looks up a place, counting fallbacks for non-empty queries.
func (s *Service) resolve(ctx context.Context, query string) model.Location {
	loc, err := s.locations.ResolveOrDefault(ctx, query)
	if err != nil && strings.TrimSpace(query) != "" {
		s.metrics.GeocodeFallback()
	}
	return loc
}

// locate resolves a birthplace and pins the birth time to its zone.
func (s *Service) locate(ctx context.Context, q BirthQuery) (model.BirthData, error) {
	var loc model.Location
	switch {
	case q.Location != nil:
		loc = *q.Location
	case q.Coordinates != nil:
		name := q.Place
		if name == "" {
			name = fmt.Sprintf("%.4f, %.4f", q.Coordinates.Lat, q.Coordinates.Lon)
		}
		loc = s.zones.Apply(model.Location{Query: q.Place, Name: name, Coordinates: *q.Coordinates, Source: "manual"})
	default:
		loc = s.resolve(ctx, q.Place)
	}

	t := q.Time
	bd := model.BirthData{
		Name:     q.Name,
		Time:     time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc.Zone()),
		Location: loc,
	}
	if err := model.Validate(bd); err != nil {
		return bd, fmt.Errorf("birth data: %w", err)
	}
	return bd, nil
}

// chartBodies is the tracked set plus Chiron and any extras.
func (s *Service) chartBodies(extra []model.Body) []model.Body {
	out := make([]model.Body, 0, len(s.bodies)+1+len(extra))
	out = append(out, s.bodies...)
	out = append(out, model.Chiron)
	return append(out, extra...)
}

// cast computes positions and angles and assembles a chart. Bodies nobody
// can place are omitted and listed in Unavailable.
func (s *Service) cast(t time.Time, loc model.Location, bodies []model.Body) (*model.Chart, error) {
	res := s.eph.Positions(t, loc.Coordinates, bodies)
	angles, err := s.eph.Angles(t, loc.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("angles: %w", err)
	}
	c := s.asm.Build(t, loc, res.Positions, angles)
	c.Unavailable = res.Unavailable
	for _, b := range res.Unavailable {
		s.metrics.BodyUnavailable(string(b))
	}
	return c, nil
}

func (s *Service) record(r *Reading, req Request) {
	evt := &recorder.ReadingEvent{
		Kind:      string(r.Kind),
		Subject:   req.Birth.Name,
		Query:     req.Birth.Place,
		Location:  r.Location.Name,
		Lat:       r.Location.Coordinates.Lat,
		Lon:       r.Location.Coordinates.Lon,
		Fallback:  r.Location.Fallback,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
	if evt.Query == "" {
		evt.Query = req.Place
	}
	c := r.Natal
	if c == nil {
		c = r.Current
	}
	if c != nil {
		if p, ok := c.Body(model.Sun); ok {
			evt.SunSign = p.Sign
		}
		if p, ok := c.Body(model.Moon); ok {
			evt.MoonSign = p.Sign
		}
		evt.Rising = chart.SignOf(c.Angles.Ascendant)
	}
	for _, b := range r.Unavailable {
		evt.Unavailable = append(evt.Unavailable, string(b))
	}
	if err := s.rec.RecordReading(evt); err != nil {
		s.logger.Warn("failed to record reading", zap.Error(err))
	}
	r.ID = evt.ID
	if r.ID == "" {
		r.ID = recorder.NewID()
	}
}

// Recorder exposes the history store for delivery logging.
func (s *Service) Recorder() recorder.Recorder { return s.rec }

package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

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
	birthClock = time.Date(1990, 8, 1, 14, 30, 0, 0, time.UTC) // wall clock, London
	birthUTC   = time.Date(1990, 8, 1, 13, 30, 0, 0, time.UTC) // same instant, BST removed
	readingAt  = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func greenwich() model.Location {
	return model.Location{
		Name:        "Greenwich, London",
		Coordinates: model.Coordinates{Lat: 51.4779, Lon: -0.0015},
		TimeZone:    "Europe/London",
		Source:      "default",
	}
}

func staticSky() map[model.Body][2]float64 {
	return map[model.Body][2]float64{
		model.Sun:     {130, 0},
		model.Moon:    {40, 0},
		model.Mercury: {120, -0.5},
		model.Venus:   {100, 0},
		model.Mars:    {200, 0},
		model.Jupiter: {102, 0},
		model.Saturn:  {290, 0},
		model.Uranus:  {275, 0},
		model.Neptune: {283, 0},
		model.Pluto:   {226, 0},
	}
}

type harness struct {
	svc     *Service
	metrics *metrics.Metrics
	rec     *recorder.SQLiteRecorder
}

func newHarness(t *testing.T, eng *ephemeris.MockEngine, tweak ...func(*Deps)) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cat, err := ephemeris.LoadCatalog("", ephemeris.NewMeeusEngine("", logger))
	require.NoError(t, err)
	db, err := content.Default()
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	m := metrics.New()
	deps := Deps{
		Locations: geo.NewFallback(&geo.CoordinateResolver{}, greenwich(), logger),
		Ephemeris: ephemeris.NewAdapter(eng, logger, cat),
		Content:   db,
		Recorder:  rec,
		Metrics:   m,
		Logger:    logger,
		Directory: cat,
		Stars:     cat.Bodies(model.KindFixedStar),
		Now:       func() time.Time { return readingAt },
	}
	for _, f := range tweak {
		f(&deps)
	}
	svc, err := NewService(deps)
	require.NoError(t, err)
	return &harness{svc: svc, metrics: m, rec: rec}
}

func TestNewService_RequiresCoreDeps(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestGenerate_UnresolvablePlaceFallsBack(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{Ascendant: 0, Midheaven: 270}, staticSky()))

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:  report.Natal,
		Birth: BirthQuery{Name: "Ada", Time: birthClock, Place: "Atlantis"},
	})
	require.NoError(t, err)

	assert.True(t, r.Location.Fallback)
	assert.Equal(t, "Greenwich, London", r.Location.Name)
	assert.Equal(t, "Atlantis", r.Location.Query)
	assert.Contains(t, r.Text, "Natal Chart Reading")
	assert.Contains(t, r.Text, "default location was used")
	assert.Contains(t, r.Text, "**Sun in Leo**")
	assert.Equal(t, birthUTC, r.Natal.Time.UTC())
	assert.Empty(t, r.Unavailable)
	assert.NotEmpty(t, r.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GeocodeFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Readings.WithLabelValues("natal")))

	got, err := h.rec.Recent(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
	assert.Equal(t, "natal", got[0].Kind)
	assert.Equal(t, "Leo", got[0].SunSign)
	assert.Equal(t, "Taurus", got[0].MoonSign)
	assert.Equal(t, "Aries", got[0].Rising)
	assert.True(t, got[0].Fallback)
}

func TestGenerate_MissingAsteroidIsOmitted(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:   report.Asteroids,
		Birth:  BirthQuery{Time: birthClock, Place: "51.48, 0"},
		Bodies: []model.Body{"Nonexistium", "hygiea"},
	})
	require.NoError(t, err)

	assert.Equal(t, []model.Body{"Nonexistium"}, r.Unavailable)
	assert.Contains(t, r.Text, "**Ceres**")
	assert.Contains(t, r.Text, "**Hygiea**")
	assert.NotContains(t, r.Text, "Nonexistium")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BodiesUnavailable.WithLabelValues("Nonexistium")))
}

func TestGenerate_AsteroidThemes(t *testing.T) {
	sky := staticSky()
	sky["Eros"] = [2]float64{101.5, 0}
	sky["Amor"] = [2]float64{20, 0}
	sky["Sappho"] = [2]float64{60, 0}
	sky["Hygiea"] = [2]float64{250, 0}
	sky["Cupido"] = [2]float64{100, 0}
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, sky))

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:   report.Asteroids,
		Birth:  BirthQuery{Time: birthClock, Place: "51.48, 0"},
		Themes: []string{"love_and_romance", "Healing", "love"},
	})
	require.NoError(t, err)

	assert.Empty(t, r.Unavailable)
	assert.Equal(t, 1, strings.Count(r.Text, "Thematic Asteroids: Love and Romance"))
	assert.Contains(t, r.Text, "• **Eros** (433) conjunct natal **Venus**, orb 1.5°")
	assert.Contains(t, r.Text, "• **Eros** (433) conjunct natal **Jupiter**, orb 0.5°")
	assert.NotContains(t, r.Text, "**Cupido** (763)")
	assert.Contains(t, r.Text, "Not in the catalogue: Cupido (763), Valentine (447), Aphrodite (1388)")
	assert.Contains(t, r.Text, "Thematic Asteroids: Healing")
	assert.Contains(t, r.Text, "Not in the catalogue: Panacea (2878)")
	assert.Contains(t, r.Text, "No conjunctions with natal planets.")

	_, err = h.svc.Generate(context.Background(), Request{
		Kind:   report.Asteroids,
		Birth:  BirthQuery{Time: birthClock, Place: "51.48, 0"},
		Themes: []string{"gardening"},
	})
	assert.ErrorIs(t, err, ErrUnknownTheme)
}

func TestSelectThemes(t *testing.T) {
	got, err := selectThemes([]string{" creative-arts ", "SPIRITUAL", ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "creative", got[0].Key)
	assert.Equal(t, "spiritual", got[1].Key)

	got, err = selectThemes([]string{"healing", "all"})
	require.NoError(t, err)
	assert.Len(t, got, len(Themes))

	got, err = selectThemes(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = selectThemes([]string{"wealth"})
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.Equal(t, []string{"love", "career", "spiritual", "healing", "creative"}, ThemeKeys())
}

func TestGenerate_ExtraBodyMissingFromNatal(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:   report.Natal,
		Birth:  BirthQuery{Time: birthClock, Coordinates: &model.Coordinates{Lat: 48.85, Lon: 2.35}},
		Bodies: []model.Body{"Vulcan"},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Body{"Vulcan"}, r.Natal.Unavailable)
	assert.Equal(t, "manual", r.Location.Source)
	assert.Contains(t, r.Text, "Natal Chart Reading")
}

func TestGenerate_PolarBirthplace(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := newHarness(t, nil, func(d *Deps) {
		engine := ephemeris.NewMeeusEngine("", logger)
		cat, err := ephemeris.LoadCatalog("", engine)
		require.NoError(t, err)
		d.Ephemeris = ephemeris.NewAdapter(engine, logger, cat)
	})

	for _, lat := range []float64{90, -90} {
		r, err := h.svc.Generate(context.Background(), Request{
			Kind:  report.Natal,
			Birth: BirthQuery{Name: "Pole", Time: birthClock, Coordinates: &model.Coordinates{Lat: lat, Lon: 0}},
		})
		require.NoError(t, err, lat)
		assert.Empty(t, r.Unavailable, lat)
		assert.False(t, math.IsNaN(r.Natal.Angles.Ascendant), lat)
		assert.Contains(t, r.Text, "Natal Chart Reading")
	}
}

func TestGenerate_DailyWithoutBirth(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{Ascendant: 90}, staticSky()))

	r, err := h.svc.Generate(context.Background(), Request{Kind: report.Daily, Place: "51.5, -0.12"})
	require.NoError(t, err)
	assert.Nil(t, r.Natal)
	require.NotNil(t, r.Current)
	assert.Equal(t, readingAt, r.Current.Time)
	assert.Equal(t, "manual", r.Location.Source)
	assert.Contains(t, r.Text, "Daily Horoscope")
	assert.Zero(t, testutil.ToFloat64(h.metrics.GeocodeFallbacks))
}

func TestGenerate_RequestErrors(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))
	ctx := context.Background()
	born := BirthQuery{Time: birthClock, Place: "51.48, 0"}

	_, err := h.svc.Generate(ctx, Request{Kind: report.Natal})
	assert.ErrorIs(t, err, ErrBirthRequired)

	_, err = h.svc.Generate(ctx, Request{Kind: report.Synastry, Birth: born})
	assert.ErrorIs(t, err, ErrPartnerRequired)

	_, err = h.svc.Generate(ctx, Request{Kind: report.Relocation, Birth: born})
	assert.ErrorIs(t, err, ErrRelocationRequired)

	_, err = h.svc.Generate(ctx, Request{Kind: "tarot", Birth: born})
	assert.ErrorIs(t, err, report.ErrUnknownKind)

	_, err = h.svc.Generate(ctx, Request{Kind: report.Compatibility, Birth: born})
	assert.ErrorIs(t, err, report.ErrMissingChart)
}

func TestGenerate_EngineFailurePropagates(t *testing.T) {
	eng := ephemeris.NewMockEngine(model.Angles{}, staticSky())
	eng.Err = assert.AnError
	h := newHarness(t, eng)

	_, err := h.svc.Generate(context.Background(), Request{Kind: report.Natal, Birth: BirthQuery{Time: birthClock}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerate_CompatibilityAndSynastry(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))
	ctx := context.Background()
	born := BirthQuery{Name: "Ada", Time: birthClock, Place: "51.48, 0"}

	r, err := h.svc.Generate(ctx, Request{Kind: "compat", Birth: born, PartnerSign: "aries", At: readingAt})
	require.NoError(t, err)
	assert.Equal(t, report.Compatibility, r.Kind)
	assert.Contains(t, r.Text, "Relationship Compatibility")
	assert.Contains(t, r.Text, "**Aries** (Fire)")

	r, err = h.svc.Generate(ctx, Request{
		Kind:    report.Synastry,
		Birth:   born,
		Partner: &BirthQuery{Name: "Sam", Time: time.Date(1992, 2, 3, 8, 0, 0, 0, time.UTC), Coordinates: &model.Coordinates{Lat: 40.71, Lon: -74}},
	})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Synastry Analysis")
	assert.Contains(t, r.Text, "with Sam")
}

func TestGenerate_SolarReturn(t *testing.T) {
	sky := staticSky()
	sky[model.Sun] = [2]float64{130, 360 / daysPerYear}
	eng := ephemeris.NewMockEngine(model.Angles{}, sky)
	eng.Epoch = birthUTC
	h := newHarness(t, eng)

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:  report.SolarReturn,
		Birth: BirthQuery{Time: birthClock, Place: "51.48, 0"},
		At:    readingAt,
	})
	require.NoError(t, err)
	require.NotNil(t, r.Derived)

	sun, ok := r.Derived.Body(model.Sun)
	require.True(t, ok)
	assert.InDelta(t, 130, sun.Longitude, 0.01)
	assert.Equal(t, 2024, r.Derived.Time.Year())
	birthday := time.Date(2024, 8, 1, 13, 30, 0, 0, time.UTC)
	assert.InDelta(t, 0, r.Derived.Time.Sub(birthday).Hours(), 48)
	assert.Contains(t, r.Text, "Solar Return 2024")
}

func TestGenerate_Progressions(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))
	born := BirthQuery{Time: birthClock, Place: "51.48, 0"}

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:  report.Progressions,
		Birth: born,
		At:    birthUTC.AddDate(30, 0, 0),
	})
	require.NoError(t, err)
	days := r.Derived.Time.Sub(r.Natal.Time).Hours() / 24
	assert.InDelta(t, 30, days, 0.1)
	assert.Contains(t, r.Text, "Secondary Progressions")
}

func TestGenerate_Relocation(t *testing.T) {
	h := newHarness(t, ephemeris.NewMockEngine(model.Angles{Ascendant: 200, Midheaven: 110}, staticSky()))

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:       report.Relocation,
		Birth:      BirthQuery{Time: birthClock, Place: "51.48, 0"},
		RelocateTo: "40.7128, -74.0060",
	})
	require.NoError(t, err)
	assert.True(t, r.Derived.Time.Equal(r.Natal.Time))
	assert.Equal(t, "manual", r.Derived.Location.Source)
	assert.Contains(t, r.Text, "Relocation Chart")
	assert.Contains(t, r.Text, "Relocated Rising Sign")
}

func TestGenerate_Forecast(t *testing.T) {
	sky := staticSky()
	days := readingAt.Sub(birthUTC).Hours() / 24
	sky[model.Jupiter] = [2]float64{chart.Normalize(128 - 0.08*days), 0.08}
	eng := ephemeris.NewMockEngine(model.Angles{}, sky)
	eng.Epoch = birthUTC
	h := newHarness(t, eng, func(d *Deps) { d.ForecastLimit = 100 })

	r, err := h.svc.Generate(context.Background(), Request{
		Kind:           report.Forecast,
		Birth:          BirthQuery{Time: birthClock, Place: "51.48, 0"},
		At:             readingAt,
		ForecastMonths: 2,
	})
	require.NoError(t, err)

	assert.Contains(t, r.Text, "Upcoming Transits")
	assert.Contains(t, r.Text, "**2024-03-15**: Jupiter Conjunction Natal Sun")
}

func TestMoonCourse(t *testing.T) {
	sky := func() map[model.Body][2]float64 {
		return map[model.Body][2]float64{
			model.Moon:    {25, 13.2},
			model.Sun:     {180, 1},
			model.Mercury: {40, 0},
			model.Venus:   {70, 0},
			model.Mars:    {100, 0},
			model.Jupiter: {130, 0},
			model.Saturn:  {160, 0},
			model.Uranus:  {190, 0},
			model.Neptune: {220, 0},
			model.Pluto:   {250, 0},
		}
	}

	t.Run("void", func(t *testing.T) {
		eng := ephemeris.NewMockEngine(model.Angles{}, sky())
		eng.Epoch = readingAt
		h := newHarness(t, eng)

		course := h.svc.moonCourse(readingAt, model.Coordinates{})
		require.NotNil(t, course)
		assert.True(t, course.Void)
		assert.Equal(t, "Aries", course.Sign)
		assert.Equal(t, "Taurus", course.NextSign)
		assert.Equal(t, readingAt.Add(10*time.Hour), course.Ingress)
		assert.True(t, course.LastAspect.IsZero())
	})

	t.Run("last aspect before ingress", func(t *testing.T) {
		s := sky()
		s[model.Saturn] = [2]float64{117, 0}
		eng := ephemeris.NewMockEngine(model.Angles{}, s)
		eng.Epoch = readingAt
		h := newHarness(t, eng)

		course := h.svc.moonCourse(readingAt, model.Coordinates{})
		require.NotNil(t, course)
		assert.False(t, course.Void)
		assert.Equal(t, readingAt.Add(5*time.Hour), course.LastAspect)
	})

	t.Run("no ingress", func(t *testing.T) {
		h := newHarness(t, ephemeris.NewMockEngine(model.Angles{}, staticSky()))
		assert.Nil(t, h.svc.moonCourse(readingAt, model.Coordinates{}))
	})
}

func TestSignedArc(t *testing.T) {
	assert.InDelta(t, 2, signedArc(359, 1), 1e-9)
	assert.InDelta(t, -2, signedArc(1, 359), 1e-9)
	assert.InDelta(t, 180, math.Abs(signedArc(0, 180)), 1e-9)
}

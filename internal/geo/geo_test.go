package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"woflstrology/internal/model"
)

const londonJSON = `[{"lat":"51.5073219","lon":"-0.1276474","name":"London","display_name":"London, Greater London, England, United Kingdom","type":"city","address":{"city":"London","country":"United Kingdom"}}]`

func TestNominatimResolver_Resolve(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	r := NewNominatimResolver(srv.URL+"/", "woflstrology-test", "", time.Second)
	loc, err := r.Resolve(context.Background(), "  London ")
	require.NoError(t, err)

	assert.Equal(t, "London", gotQuery)
	assert.Equal(t, "woflstrology-test", gotUA)
	assert.Equal(t, "London, United Kingdom", loc.Name)
	assert.InDelta(t, 51.507, loc.Coordinates.Lat, 1e-3)
	assert.InDelta(t, -0.128, loc.Coordinates.Lon, 1e-3)
	assert.Equal(t, "Europe/London", loc.TimeZone)
	assert.Equal(t, "nominatim", loc.Source)
	assert.False(t, loc.Fallback)
}

func TestNominatimResolver_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		query    string
		notFound bool
	}{
		{"no match", http.StatusOK, `[]`, "Atlantis", true},
		{"server error", http.StatusInternalServerError, `oops`, "Paris", false},
		{"garbage", http.StatusOK, `{"not":"a list"}`, "Paris", false},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"2.3"}]`, "Paris", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewNominatimResolver(srv.URL, "ua", "", time.Second).Resolve(context.Background(), tt.query)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrLocationNotFound))
		})
	}

	_, err := NewNominatimResolver("http://127.0.0.1:1", "ua", "", time.Second).Resolve(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		ok       bool
	}{
		{"51.5, -0.12", 51.5, -0.12, true},
		{"40.7128 -74.0060", 40.7128, -74.006, true},
		{"33.9S 151.2E", -33.9, 151.2, true},
		{"48.85n,2.35e", 48.85, 2.35, true},
		{"35°N 139°E", 35, 139, true},
		{"London", 0, 0, false},
		{"New York", 0, 0, false},
		{"95, 10", 0, 0, false},
		{"10, 200", 0, 0, false},
		{"1, 2, 3", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, ok := ParseCoordinates(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.lat, c.Lat, 1e-9)
				assert.InDelta(t, tt.lon, c.Lon, 1e-9)
			}
		})
	}
}

type stubResolver struct {
	calls int
	loc   model.Location
	err   error
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Resolve(_ context.Context, _ string) (model.Location, error) {
	s.calls++
	return s.loc, s.err
}

func TestCoordinateResolver(t *testing.T) {
	next := &stubResolver{loc: model.Location{Name: "from next"}}
	r := &CoordinateResolver{Next: next}

	loc, err := r.Resolve(context.Background(), "51.5074, -0.1278")
	require.NoError(t, err)
	assert.Equal(t, "manual", loc.Source)
	assert.Equal(t, "Europe/London", loc.TimeZone)
	assert.Zero(t, next.calls)

	loc, err = r.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "from next", loc.Name)
	assert.Equal(t, 1, next.calls)

	_, err = (&CoordinateResolver{}).Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestNauticalZone(t *testing.T) {
	tests := []struct {
		lon    float64
		name   string
		offset int
	}{
		{0, "UTC+00", 0},
		{29, "UTC+02", 7200},
		{-74, "UTC-05", -18000},
		{179, "UTC+12", 43200},
	}
	for _, tt := range tests {
		name, offset := nauticalZone(tt.lon)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.offset, offset)
	}
}

func TestZoneFinder(t *testing.T) {
	var z ZoneFinder
	name, offset := z.Zone(model.Coordinates{Lat: 51.5074, Lon: -0.1278})
	assert.Equal(t, "Europe/London", name)
	assert.Zero(t, offset)

	loc := z.Apply(model.Location{Coordinates: model.Coordinates{Lat: 40.7128, Lon: -74.006}})
	assert.Equal(t, "America/New_York", loc.TimeZone)
}

func TestFallback(t *testing.T) {
	def := model.Location{Name: "Greenwich", Coordinates: model.Coordinates{Lat: 51.48}, TimeZone: "Europe/London"}

	t.Run("empty query", func(t *testing.T) {
		f := NewFallback(&stubResolver{}, def, zap.NewNop())
		loc, err := f.ResolveOrDefault(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.True(t, loc.Fallback)
		assert.Equal(t, "Greenwich", loc.Name)
		assert.Equal(t, "default", loc.Source)
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubResolver{err: ErrLocationNotFound}
		loc, err := NewFallback(stub, def, nil).ResolveOrDefault(context.Background(), "Xyzzyville")
		assert.ErrorIs(t, err, ErrLocationNotFound)
		assert.True(t, loc.Fallback)
		assert.Equal(t, "Xyzzyville", loc.Query)
		assert.InDelta(t, 51.48, loc.Coordinates.Lat, 1e-9)
	})

	t.Run("resolved", func(t *testing.T) {
		stub := &stubResolver{loc: model.Location{Name: "Paris"}}
		loc, err := NewFallback(stub, def, nil).ResolveOrDefault(context.Background(), "Paris")
		require.NoError(t, err)
		assert.False(t, loc.Fallback)
		assert.Equal(t, "Paris", loc.Name)
	})
}

func TestBreakerResolver(t *testing.T) {
	down := &stubResolver{err: errors.New("connection refused")}
	b := NewBreakerResolver(down, time.Hour, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := b.Resolve(context.Background(), "Paris")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, down.calls)
}

func TestBreakerResolver_MissesDoNotTrip(t *testing.T) {
	missing := &stubResolver{err: ErrLocationNotFound}
	b := NewBreakerResolver(missing, time.Hour, nil)

	for i := 0; i < 5; i++ {
		_, err := b.Resolve(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, ErrLocationNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 5, missing.calls)
}

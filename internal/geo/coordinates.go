package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"woflstrology/internal/model"
)

// ParseCoordinates reads "lat, lon" or "lat lon". Hemisphere suffixes
// N/S/E/W are accepted in place of signs.
func ParseCoordinates(s string) (model.Coordinates, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return model.Coordinates{}, false
	}
	lat, ok := parseAxis(fields[0], 'N', 'S')
	if !ok {
		return model.Coordinates{}, false
	}
	lon, ok := parseAxis(fields[1], 'E', 'W')
	if !ok {
		return model.Coordinates{}, false
	}
	c := model.Coordinates{Lat: lat, Lon: lon}
	if model.Validate(c) != nil {
		return model.Coordinates{}, false
	}
	return c, true
}

func parseAxis(s string, pos, neg byte) (float64, bool) {
	s = strings.TrimSuffix(strings.ToUpper(s), "°")
	sign := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case pos:
			s = s[:n-1]
		case neg:
			s, sign = s[:n-1], -1
		}
	}
	s = strings.TrimSuffix(s, "°")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * sign, true
}

// CoordinateResolver accepts literal coordinates and hands anything else to Next.
type CoordinateResolver struct {
	Next  Resolver
	Zones ZoneFinder
}

func (r *CoordinateResolver) Name() string {
	if r.Next != nil {
		return "coordinates+" + r.Next.Name()
	}
	return "coordinates"
}

func (r *CoordinateResolver) Resolve(ctx context.Context, query string) (model.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Location{}, ErrEmptyQuery
	}
	if c, ok := ParseCoordinates(query); ok {
		return r.Zones.Apply(model.Location{
			Query:       query,
			Name:        fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon),
			Coordinates: c,
			Source:      "manual",
		}), nil
	}
	if r.Next == nil {
		return model.Location{}, fmt.Errorf("%q: %w", query, ErrLocationNotFound)
	}
	return r.Next.Resolve(ctx, query)
}

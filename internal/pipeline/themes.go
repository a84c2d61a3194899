package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"woflstrology/internal/chart"
	"woflstrology/internal/model"
	"woflstrology/internal/report"
)

// ErrUnknownTheme is returned for a theme name not in Themes.
var ErrUnknownTheme = errors.New("unknown asteroid theme")

// themeOrb is the widest separation counted as a conjunction.
const themeOrb = 3.0

// Theme is a named group of asteroids checked for conjunctions with the
// natal planets.
type Theme struct {
	Key         string
	Title       string
	Description string
	Asteroids   []Asteroid
}

var Themes = []Theme{
	{"love", "Love and Romance", "Asteroids of attraction, desire and affection.", []Asteroid{
		{433, "Eros"}, {763, "Cupido"}, {1221, "Amor"}, {447, "Valentine"}, {80, "Sappho"}, {1388, "Aphrodite"},
	}},
	{"career", "Career and Success", "Asteroids of fortune and plenty.", []Asteroid{
		{19, "Fortuna"}, {151, "Abundantia"},
	}},
	{"spiritual", "Spiritual and Karmic", "Asteroids of consequence, fate and hidden knowledge.", []Asteroid{
		{3811, "Karma"}, {128, "Nemesis"}, {896, "Sphinx"},
	}},
	{"healing", "Healing", "Asteroids of health and remedy.", []Asteroid{
		{10, "Hygiea"}, {2878, "Panacea"},
	}},
	{"creative", "Creative Arts", "Asteroids of the muses.", []Asteroid{
		{7, "Iris"}, {22, "Kalliope"}, {27, "Euterpe"}, {62, "Erato"}, {81, "Terpsichore"},
	}},
}

// ThemeKeys lists the accepted theme names.
func ThemeKeys() []string {
	out := make([]string, len(Themes))
	for i, t := range Themes {
		out[i] = t.Key
	}
	return out
}

// findTheme accepts a key ("love") or a title in any case and separator
// ("love_and_romance", "Love and Romance").
func findTheme(name string) (Theme, bool) {
	norm := func(s string) string {
		return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return r == ' ' || r == '_' || r == '-'
		}), " ")
	}
	n := norm(name)
	for _, t := range Themes {
		if n == t.Key || n == norm(t.Title) {
			return t, true
		}
	}
	return Theme{}, false
}

// selectThemes resolves requested names; "all" picks every theme.
func selectThemes(names []string) ([]Theme, error) {
	var out []Theme
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "all") {
			return Themes, nil
		}
		t, ok := findTheme(name)
		if !ok {
			return nil, fmt.Errorf("%w %q (choose from %s)", ErrUnknownTheme, name, strings.Join(ThemeKeys(), ", "))
		}
		if !seen[t.Key] {
			seen[t.Key] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// asteroidByNumber finds a catalogue asteroid by its minor planet number.
// Names are not used so that a hypothetical point sharing a name is never
// mistaken for the asteroid.
func (s *Service) asteroidByNumber(n int) (model.Body, bool) {
	if s.directory == nil {
		return "", false
	}
	for _, e := range s.directory.Search(strconv.Itoa(n)) {
		if e.Kind == model.KindAsteroid && e.Number == n {
			return model.Body(e.Name), true
		}
	}
	return "", false
}

// scanThemes checks every asteroid of each theme against the natal planets.
func (s *Service) scanThemes(natal *model.Chart, themes []Theme) []report.ThemeScan {
	var planets []model.BodyPosition
	for _, b := range model.Planets {
		if bp, ok := natal.Body(b); ok {
			planets = append(planets, bp)
		}
	}

	out := make([]report.ThemeScan, 0, len(themes))
	for _, t := range themes {
		scan := report.ThemeScan{Title: t.Title, Description: t.Description}
		for _, a := range t.Asteroids {
			body, ok := s.asteroidByNumber(a.Number)
			if !ok {
				scan.Missing = append(scan.Missing, fmt.Sprintf("%s (%d)", a.Body, a.Number))
				continue
			}
			p, err := s.eph.Position(natal.Time, natal.Location.Coordinates, body)
			if err != nil {
				s.logger.Warn("themed asteroid omitted", zap.String("body", string(body)), zap.Error(err))
				scan.Missing = append(scan.Missing, fmt.Sprintf("%s (%d)", a.Body, a.Number))
				continue
			}
			lon := chart.Normalize(p.Longitude)
			pos := model.BodyPosition{
				Body:          body,
				Longitude:     lon,
				Speed:         p.Speed,
				Sign:          chart.SignOf(lon),
				DegreesInSign: chart.DegreesInSign(lon),
				House:         chart.HouseOf(lon, natal.Cusps),
				Retrograde:    p.Speed < 0,
			}
			for _, np := range planets {
				if orb := chart.Separation(lon, np.Longitude); orb <= themeOrb {
					scan.Hits = append(scan.Hits, report.ThemeHit{Number: a.Number, Asteroid: pos, Natal: np.Body, Orb: orb})
				}
			}
		}
		out = append(out, scan)
	}
	return out
}

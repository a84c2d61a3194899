package ephemeris

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"woflstrology/internal/model"
)

//go:embed bodies.yaml
var defaultBodies []byte

// gaussDeg is the Gaussian gravitational constant in degrees per day.
const gaussDeg = 0.9856076686

// OrbitalBody is a minor body given by osculating J2000 elements.
type OrbitalBody struct {
	Name   string         `yaml:"name"`
	Number int            `yaml:"number"`
	Kind   model.BodyKind `yaml:"kind"`
	Epoch  float64        `yaml:"epoch"` // JD of the elements
	A      float64        `yaml:"a"`     // semimajor axis, AU
	E      float64        `yaml:"e"`
	I      float64        `yaml:"i"`    // inclination, deg
	Node   float64        `yaml:"node"` // longitude of ascending node, deg
	Peri   float64        `yaml:"peri"` // argument of perihelion, deg
	M      float64        `yaml:"m"`    // mean anomaly at epoch, deg
}

// MeanPoint moves uniformly from a J2000 longitude.
type MeanPoint struct {
	Name string         `yaml:"name"`
	Kind model.BodyKind `yaml:"kind"`
	Lon  float64        `yaml:"lon"`  // longitude at J2000, deg
	Rate float64        `yaml:"rate"` // deg per day
}

// FixedStar is a star at its J2000 ecliptic position.
type FixedStar struct {
	Name      string  `yaml:"name"`
	Lon       float64 `yaml:"lon"`
	Lat       float64 `yaml:"lat"`
	Magnitude float64 `yaml:"magnitude"`
	Nature    string  `yaml:"nature"`
}

// Entry is one name search hit.
type Entry struct {
	Name   string
	Number int
	Kind   model.BodyKind
}

// Catalog serves bodies the engine does not carry. It is read-only once built.
type Catalog struct {
	Asteroids []OrbitalBody `yaml:"asteroids"`
	Points    []MeanPoint   `yaml:"points"`
	Stars     []FixedStar   `yaml:"stars"`

	earth     EarthLocator
	asteroids map[string]*OrbitalBody
	points    map[string]*MeanPoint
	stars     map[string]*FixedStar
}

// LoadCatalog reads a bodies file, or the built-in one when path is empty.
func LoadCatalog(path string, earth EarthLocator) (*Catalog, error) {
	data := defaultBodies
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read bodies file: %w", err)
		}
		data = b
	}
	return ParseCatalog(data, earth)
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(data []byte, earth EarthLocator) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse bodies: %w", err)
	}
	c.earth = earth
	c.asteroids = make(map[string]*OrbitalBody, len(c.Asteroids))
	c.points = make(map[string]*MeanPoint, len(c.Points))
	c.stars = make(map[string]*FixedStar, len(c.Stars))
	for i := range c.Asteroids {
		a := &c.Asteroids[i]
		if a.A <= 0 || a.E < 0 || a.E >= 1 {
			return nil, fmt.Errorf("parse bodies: %s: elliptic elements required", a.Name)
		}
		if a.Kind == "" {
			a.Kind = model.KindAsteroid
		}
		c.asteroids[key(a.Name)] = a
		if a.Number > 0 {
			c.asteroids[strconv.Itoa(a.Number)] = a
		}
	}
	for i := range c.Points {
		p := &c.Points[i]
		if p.Kind == "" {
			p.Kind = model.KindHypothetical
		}
		c.points[key(p.Name)] = p
	}
	for i := range c.Stars {
		c.stars[key(c.Stars[i].Name)] = &c.Stars[i]
	}
	return c, nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Catalog) Name() string { return "catalog" }

// Kind reports where body comes from, or "" when the catalog lacks it.
func (c *Catalog) Kind(body model.Body) model.BodyKind {
	k := key(string(body))
	if a, ok := c.asteroids[k]; ok {
		return a.Kind
	}
	if p, ok := c.points[k]; ok {
		return p.Kind
	}
	if _, ok := c.stars[k]; ok {
		return model.KindFixedStar
	}
	return ""
}

// Star returns the catalog entry for a fixed star.
func (c *Catalog) Star(name string) (FixedStar, bool) {
	s, ok := c.stars[key(name)]
	if !ok {
		return FixedStar{}, false
	}
	return *s, true
}

// Position places an asteroid, point or star. Unknown names return ErrUnsupportedBody.
func (c *Catalog) Position(t time.Time, _ model.Coordinates, body model.Body) (model.Position, error) {
	k := key(string(body))
	jde := JDE(t)

	if a, ok := c.asteroids[k]; ok {
		if c.earth == nil {
			return model.Position{}, fmt.Errorf("%s: no earth position for geocentric conversion: %w", body, ErrEphemerisUnavailable)
		}
		lonAt := func(j float64) float64 {
			lon, _ := c.asteroidLonLat(a, j)
			return lon
		}
		lon, lat := c.asteroidLonLat(a, jde)
		return model.Position{Body: model.Body(a.Name), Longitude: lon, Latitude: lat, Speed: speed(lonAt, jde)}, nil
	}
	if p, ok := c.points[k]; ok {
		return model.Position{
			Body:      model.Body(p.Name),
			Longitude: normDeg(p.Lon + p.Rate*(jde-2451545.0)),
			Speed:     p.Rate,
		}, nil
	}
	if s, ok := c.stars[k]; ok {
		return model.Position{
			Body:      model.Body(s.Name),
			Longitude: precess(s.Lon, jde),
			Latitude:  s.Lat,
			Speed:     precessionPerCentury / 36525,
		}, nil
	}
	return model.Position{}, fmt.Errorf("%s: %w", body, ErrUnsupportedBody)
}

func (c *Catalog) asteroidLonLat(a *OrbitalBody, jde float64) (float64, float64) {
	n := gaussDeg / math.Pow(a.A, 1.5)
	m := unit.AngleFromDeg(a.M + n*(jde-a.Epoch))
	h := keplerPosition(a.A, a.E,
		unit.AngleFromDeg(a.I), unit.AngleFromDeg(a.Node), unit.AngleFromDeg(a.Peri), m)
	h.L = unit.AngleFromDeg(precess(h.L.Deg(), jde))
	return geocentric(h, c.earth.Earth(jde))
}

// Search finds catalog bodies whose name contains q, or whose number is q.
// Results are sorted by name.
func (c *Catalog) Search(q string) []Entry {
	q = key(q)
	if q == "" {
		return nil
	}
	var out []Entry
	for _, a := range c.Asteroids {
		if strings.Contains(key(a.Name), q) || strconv.Itoa(a.Number) == q {
			out = append(out, Entry{Name: a.Name, Number: a.Number, Kind: a.Kind})
		}
	}
	for _, p := range c.Points {
		if strings.Contains(key(p.Name), q) {
			out = append(out, Entry{Name: p.Name, Kind: p.Kind})
		}
	}
	for _, s := range c.Stars {
		if strings.Contains(key(s.Name), q) {
			out = append(out, Entry{Name: s.Name, Kind: model.KindFixedStar})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Bodies lists catalog bodies of one kind in file order.
func (c *Catalog) Bodies(kind model.BodyKind) []model.Body {
	var out []model.Body
	for _, a := range c.Asteroids {
		if a.Kind == kind {
			out = append(out, model.Body(a.Name))
		}
	}
	for _, p := range c.Points {
		if p.Kind == kind {
			out = append(out, model.Body(p.Name))
		}
	}
	if kind == model.KindFixedStar {
		for _, s := range c.Stars {
			out = append(out, model.Body(s.Name))
		}
	}
	return out
}

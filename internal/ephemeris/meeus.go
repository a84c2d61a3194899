package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
	"go.uber.org/zap"

	"woflstrology/internal/model"
)

// planetIndex maps bodies to planetposition indexes, which also key keplerian.
var planetIndex = map[model.Body]int{
	model.Mercury: planetposition.Mercury,
	model.Venus:   planetposition.Venus,
	model.Mars:    planetposition.Mars,
	model.Jupiter: planetposition.Jupiter,
	model.Saturn:  planetposition.Saturn,
	model.Uranus:  planetposition.Uranus,
	model.Neptune: planetposition.Neptune,
}

// Heliocentric is an ecliptic position relative to the Sun.
type Heliocentric struct {
	L, B unit.Angle
	R    float64 // AU
}

func (h Heliocentric) xyz() (x, y, z float64) {
	sl, cl := math.Sincos(h.L.Rad())
	sb, cb := math.Sincos(h.B.Rad())
	return h.R * cb * cl, h.R * cb * sl, h.R * sb
}

// EarthLocator gives Earth's heliocentric position for geocentric conversion.
type EarthLocator interface {
	Earth(jde float64) Heliocentric
}

// MeeusEngine places the Sun, Moon and planets with github.com/soniakeys/meeus.
// Mercury to Neptune use VSOP87 when the data files were loaded and mean
// orbital elements otherwise.
type MeeusEngine struct {
	vsop   map[int]*planetposition.V87Planet
	logger *zap.Logger
}

// NewMeeusEngine loads VSOP87 files from dir when dir is set. Any load failure
// falls back to mean elements for every planet.
func NewMeeusEngine(dir string, logger *zap.Logger) *MeeusEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &MeeusEngine{logger: logger}
	if dir == "" {
		return e
	}
	vsop := make(map[int]*planetposition.V87Planet)
	for _, ib := range []int{
		planetposition.Mercury, planetposition.Venus, planetposition.Earth, planetposition.Mars,
		planetposition.Jupiter, planetposition.Saturn, planetposition.Uranus, planetposition.Neptune,
	} {
		p, err := planetposition.LoadPlanetPath(ib, dir)
		if err != nil {
			logger.Warn("VSOP87 data not loaded, using mean elements",
				zap.String("dir", dir), zap.Error(err))
			return e
		}
		vsop[ib] = p
	}
	e.vsop = vsop
	logger.Debug("VSOP87 data loaded", zap.String("dir", dir))
	return e
}

func (e *MeeusEngine) Name() string {
	if e.vsop != nil {
		return "meeus-vsop87"
	}
	return "meeus-elements"
}

// Earth returns Earth's heliocentric position. Without VSOP87 data it is the
// geometric Sun of date turned around.
func (e *MeeusEngine) Earth(jde float64) Heliocentric {
	if e.vsop != nil {
		l, b, r := e.vsop[planetposition.Earth].Position(jde)
		return Heliocentric{L: l, B: b, R: r}
	}
	T := base.J2000Century(jde)
	s, _ := solar.True(T)
	return Heliocentric{L: s + math.Pi, R: solar.Radius(T)}
}

func (e *MeeusEngine) heliocentric(ib int, jde float64) Heliocentric {
	if e.vsop != nil {
		l, b, r := e.vsop[ib].Position(jde)
		return Heliocentric{L: l, B: b, R: r}
	}
	return meanHeliocentric(ib, jde)
}

// orbit holds J2000 keplerian elements and their rates per Julian century:
// semi-major axis (AU), eccentricity, inclination, mean longitude, longitude
// of perihelion and longitude of the ascending node (degrees).
type orbit struct {
	a, e, i, l, peri, node       float64
	da, de, di, dl, dperi, dnode float64
}

// keplerian are the JPL approximate elements for 1800 to 2050.
var keplerian = map[int]orbit{
	planetposition.Mercury: {0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081},
	planetposition.Venus: {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418},
	planetposition.Mars: {1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343},
	planetposition.Jupiter: {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106},
	planetposition.Saturn: {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794},
	planetposition.Uranus: {19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589},
	planetposition.Neptune: {30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.00508664},
}

// meanHeliocentric solves Kepler's equation over the J2000 elements and
// precesses the result to the equinox of date.
func meanHeliocentric(ib int, jde float64) Heliocentric {
	o := keplerian[ib]
	T := base.J2000Century(jde)
	a := o.a + o.da*T
	ecc := o.e + o.de*T
	inc := o.i + o.di*T
	l := o.l + o.dl*T
	peri := o.peri + o.dperi*T
	node := o.node + o.dnode*T
	h := keplerPosition(a, ecc,
		unit.AngleFromDeg(inc), unit.AngleFromDeg(node),
		unit.AngleFromDeg(peri-node), unit.AngleFromDeg(normDeg(l-peri)))
	h.L = unit.AngleFromDeg(precess(h.L.Deg(), jde))
	return h
}

// keplerPosition converts orbital elements to a heliocentric ecliptic position.
// w is the argument of perihelion and m the mean anomaly.
func keplerPosition(a, ecc float64, inc, node, w, m unit.Angle) Heliocentric {
	m = unit.Angle(math.Mod(m.Rad(), 2*math.Pi))
	ea, err := kepler.Kepler2(ecc, m, 10)
	if err != nil {
		ea = kepler.Kepler3(ecc, m)
	}
	nu := kepler.True(ea, ecc)
	r := kepler.Radius(ea, ecc, a)

	u := w.Rad() + nu.Rad()
	su, cu := math.Sincos(u)
	sn, cn := math.Sincos(node.Rad())
	si, ci := math.Sincos(inc.Rad())
	x := r * (cn*cu - sn*su*ci)
	y := r * (sn*cu + cn*su*ci)
	z := r * su * si
	return Heliocentric{
		L: unit.Angle(math.Atan2(y, x)),
		B: unit.Angle(math.Atan2(z, math.Hypot(x, y))),
		R: r,
	}
}

// geocentric returns the ecliptic longitude and latitude of body as seen from earth.
func geocentric(body, earth Heliocentric) (lon, lat float64) {
	x, y, z := body.xyz()
	x0, y0, z0 := earth.xyz()
	x, y, z = x-x0, y-y0, z-z0
	return normDeg(unit.Angle(math.Atan2(y, x)).Deg()), unit.Angle(math.Atan2(z, math.Hypot(x, y))).Deg()
}

func (e *MeeusEngine) lonLat(body model.Body, jde float64) (float64, float64, error) {
	switch body {
	case model.Sun:
		return normDeg(solar.ApparentLongitude(base.J2000Century(jde)).Deg()), 0, nil
	case model.Moon:
		lon, lat, _ := moonposition.Position(jde)
		return normDeg(lon.Deg()), lat.Deg(), nil
	case model.Pluto:
		// pluto.Heliocentric is referred to J2000
		l, b, r := pluto.Heliocentric(jde)
		l = unit.AngleFromDeg(precess(l.Deg(), jde))
		lon, lat := geocentric(Heliocentric{L: l, B: b, R: r}, e.Earth(jde))
		return lon, lat, nil
	}
	ib, ok := planetIndex[body]
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w", body, ErrUnsupportedBody)
	}
	lon, lat := geocentric(e.heliocentric(ib, jde), e.Earth(jde))
	return lon, lat, nil
}

// Position returns the body's geocentric longitude and daily motion.
func (e *MeeusEngine) Position(t time.Time, _ model.Coordinates, body model.Body) (model.Position, error) {
	jde := JDE(t)
	lon, lat, err := e.lonLat(body, jde)
	if err != nil {
		return model.Position{}, err
	}
	lonAt := func(j float64) float64 {
		l, _, _ := e.lonLat(body, j)
		return l
	}
	return model.Position{
		Body:      body,
		Longitude: lon,
		Latitude:  lat,
		Speed:     speed(lonAt, jde),
	}, nil
}

// maxHouseLatitude keeps tan(latitude) finite at the poles.
const maxHouseLatitude = 89.9999

// Angles computes the ascendant and midheaven from apparent sidereal time
// and the mean obliquity.
func (e *MeeusEngine) Angles(t time.Time, c model.Coordinates) (model.Angles, error) {
	if math.Abs(c.Lat) > maxHouseLatitude {
		e.logger.Warn("latitude clamped for house angles",
			zap.Float64("lat", c.Lat), zap.Float64("max", maxHouseLatitude))
		c.Lat = math.Copysign(maxHouseLatitude, c.Lat)
	}
	jd := JDE(t)
	ramc := sidereal.Apparent(jd).Rad() + unit.AngleFromDeg(c.Lon).Rad()
	eps := nutation.MeanObliquity(jd).Rad()
	phi := unit.AngleFromDeg(c.Lat).Rad()

	sr, cr := math.Sincos(ramc)
	se, ce := math.Sincos(eps)
	mc := math.Atan2(sr, cr*ce)
	asc := math.Atan2(cr, -(sr*ce + math.Tan(phi)*se))

	return model.Angles{
		Ascendant: normDeg(unit.Angle(asc).Deg()),
		Midheaven: normDeg(unit.Angle(mc).Deg()),
	}, nil
}

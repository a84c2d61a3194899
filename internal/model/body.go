package model

// Body identifies a tracked celestial body or chart point.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
	Pluto   Body = "Pluto"
	Chiron  Body = "Chiron"
)

// BodyKind groups bodies by where their positions come from.
type BodyKind string

const (
	KindLuminary     BodyKind = "luminary"
	KindPlanet       BodyKind = "planet"
	KindAsteroid     BodyKind = "asteroid"
	KindFixedStar    BodyKind = "fixed_star"
	KindHypothetical BodyKind = "hypothetical"
	KindPoint        BodyKind = "point"
)

// Planets is the default tracked set, in traditional order.
var Planets = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// SlowPlanets are the outer bodies whose transits are forecast.
var SlowPlanets = []Body{Jupiter, Saturn, Uranus, Neptune, Pluto}

// IsLuminary reports whether b is the Sun or the Moon.
func (b Body) IsLuminary() bool { return b == Sun || b == Moon }

func (b Body) String() string { return string(b) }

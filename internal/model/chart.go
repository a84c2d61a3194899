package model

import "time"

// Position is the raw output of an ephemeris source.
type Position struct {
	Body      Body
	Longitude float64 // ecliptic longitude, degrees [0,360)
	Latitude  float64 // ecliptic latitude, degrees
	Speed     float64 // degrees per day, negative when retrograde
}

// Angles are the chart angles for a moment and place.
type Angles struct {
	Ascendant float64
	Midheaven float64
}

// BodyPosition is a body placed in a chart.
type BodyPosition struct {
	Body          Body    `json:"body"`
	Longitude     float64 `json:"longitude"`
	Speed         float64 `json:"speed"`
	Sign          string  `json:"sign"`
	DegreesInSign float64 `json:"degrees_in_sign"`
	House         int     `json:"house"`
	Retrograde    bool    `json:"retrograde"`
}

// AspectType names a major or minor aspect.
type AspectType string

const (
	Conjunction AspectType = "conjunction"
	Opposition  AspectType = "opposition"
	Trine       AspectType = "trine"
	Square      AspectType = "square"
	Sextile     AspectType = "sextile"
	Quincunx    AspectType = "quincunx"
)

// Aspect is an angular relationship between two bodies.
type Aspect struct {
	A          Body       `json:"a"`
	B          Body       `json:"b"`
	Type       AspectType `json:"type"`
	Separation float64    `json:"separation"`
	Orb        float64    `json:"orb"` // distance from the exact angle
}

// Chart is a natal or transit chart. Built once per request.
type Chart struct {
	Time        time.Time      `json:"time"`
	Location    Location       `json:"location"`
	HouseSystem string         `json:"house_system"`
	Angles      Angles         `json:"angles"`
	Cusps       [12]float64    `json:"cusps"`
	Bodies      []BodyPosition `json:"bodies"`
	Aspects     []Aspect       `json:"aspects"`
	Unavailable []Body         `json:"unavailable,omitempty"`
}

// Body returns the placement of b and whether it is in the chart.
func (c *Chart) Body(b Body) (BodyPosition, bool) {
	for _, p := range c.Bodies {
		if p.Body == b {
			return p, true
		}
	}
	return BodyPosition{}, false
}

// Retrogrades returns the retrograde bodies other than the luminaries.
func (c *Chart) Retrogrades() []BodyPosition {
	var out []BodyPosition
	for _, p := range c.Bodies {
		if p.Retrograde && !p.Body.IsLuminary() {
			out = append(out, p)
		}
	}
	return out
}

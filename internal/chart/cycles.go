package chart

import (
	"math"
	"time"

	"woflstrology/internal/model"
)

// LunarPhase returns one of eight phase keys from the Sun→Moon angle.
func LunarPhase(sunLon, moonLon float64) (string, float64) {
	angle := Normalize(moonLon - sunLon)
	phases := []string{
		"new_moon", "crescent_moon", "first_quarter", "gibbous_moon",
		"full_moon", "disseminating_moon", "last_quarter", "balsamic_moon",
	}
	return phases[int(angle/45)%8], angle
}

var chaldean = []model.Body{model.Saturn, model.Jupiter, model.Mars, model.Sun, model.Venus, model.Mercury, model.Moon}

var dayRulers = map[time.Weekday]model.Body{
	time.Sunday:    model.Sun,
	time.Monday:    model.Moon,
	time.Tuesday:   model.Mars,
	time.Wednesday: model.Mercury,
	time.Thursday:  model.Jupiter,
	time.Friday:    model.Venus,
	time.Saturday:  model.Saturn,
}

// PlanetaryHour returns the ruler of the clock hour of t. The first hour of
// each day belongs to the day ruler; later hours follow the Chaldean order.
func PlanetaryHour(t time.Time) model.Body {
	first := dayRulers[t.Weekday()]
	idx := 0
	for i, p := range chaldean {
		if p == first {
			idx = i
			break
		}
	}
	return chaldean[(idx+t.Hour())%7]
}

// SabianDegree rounds a longitude up to its Sabian degree, 1..360.
func SabianDegree(lon float64) int {
	d := int(math.Ceil(Normalize(lon)))
	if d == 0 {
		return 360
	}
	return d
}

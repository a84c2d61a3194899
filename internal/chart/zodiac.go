// Package chart turns ecliptic longitudes into signs, houses and aspects.
package chart

import (
	"math"
	"strings"

	"woflstrology/internal/model"
)

// Signs is the fixed zodiac order starting at 0° Aries.
var Signs = []string{
	"Aries", "Taurus", "Gemini", "Cancer",
	"Leo", "Virgo", "Libra", "Scorpio",
	"Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Elements in canonical report order.
var Elements = []string{"Fire", "Earth", "Air", "Water"}

// Modalities in canonical report order.
var Modalities = []string{"Cardinal", "Fixed", "Mutable"}

// Rulerships maps each planet to the signs it rules.
var Rulerships = map[model.Body][]string{
	model.Sun:     {"Leo"},
	model.Moon:    {"Cancer"},
	model.Mercury: {"Gemini", "Virgo"},
	model.Venus:   {"Taurus", "Libra"},
	model.Mars:    {"Aries", "Scorpio"},
	model.Jupiter: {"Sagittarius", "Pisces"},
	model.Saturn:  {"Capricorn", "Aquarius"},
	model.Uranus:  {"Aquarius"},
	model.Neptune: {"Pisces"},
	model.Pluto:   {"Scorpio"},
}

// Normalize maps any longitude into [0,360).
func Normalize(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// SignIndex returns floor(lon/30) mod 12.
func SignIndex(lon float64) int {
	return int(math.Floor(Normalize(lon)/30)) % 12
}

// SignOf returns the zodiac sign for an ecliptic longitude.
func SignOf(lon float64) string {
	return Signs[SignIndex(lon)]
}

// DegreesInSign returns the position within the sign, [0,30).
func DegreesInSign(lon float64) float64 {
	return math.Mod(Normalize(lon), 30)
}

// SignByName matches a sign name case-insensitively and returns its canonical spelling.
func SignByName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Signs {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

// ElementOf returns Fire, Earth, Air or Water for a sign name, or "Unknown".
func ElementOf(sign string) string {
	for i, s := range Signs {
		if s == sign {
			return Elements[i%4]
		}
	}
	return "Unknown"
}

// ModalityOf returns Cardinal, Fixed or Mutable for a sign name, or "Unknown".
func ModalityOf(sign string) string {
	for i, s := range Signs {
		if s == sign {
			return Modalities[i%3]
		}
	}
	return "Unknown"
}

// RulesSign reports whether planet rules sign.
func RulesSign(planet model.Body, sign string) bool {
	for _, s := range Rulerships[planet] {
		if s == sign {
			return true
		}
	}
	return false
}

// RulersOf returns the planets ruling sign, in Planets order.
func RulersOf(sign string) []model.Body {
	var out []model.Body
	for _, p := range model.Planets {
		if RulesSign(p, sign) {
			out = append(out, p)
		}
	}
	return out
}

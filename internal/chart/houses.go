package chart

import (
	"fmt"
	"strings"

	"woflstrology/internal/model"
)

// HouseSystem selects how cusps are derived from the chart angles.
type HouseSystem string

const (
	HouseEqual     HouseSystem = "equal"
	HouseWholeSign HouseSystem = "whole-sign"
	HousePorphyry  HouseSystem = "porphyry"
)

// ParseHouseSystem accepts the config spelling of a house system; empty means equal.
func ParseHouseSystem(s string) (HouseSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equal", "e":
		return HouseEqual, nil
	case "whole-sign", "whole_sign", "wholesign", "w":
		return HouseWholeSign, nil
	case "porphyry", "o":
		return HousePorphyry, nil
	default:
		return "", fmt.Errorf("unknown house system %q", s)
	}
}

// HouseMeaning is the short name and description of a house.
type HouseMeaning struct {
	Name        string
	Description string
}

// HouseMeanings is indexed by house number 1..12; index 0 is unused.
var HouseMeanings = [13]HouseMeaning{
	{},
	{"Self", "identity, appearance, vitality, life force"},
	{"Resources", "money, possessions, values, self-worth"},
	{"Communication", "siblings, short trips, learning, daily communication"},
	{"Home", "family, roots, foundations, private life"},
	{"Pleasure", "creativity, romance, children, self-expression"},
	{"Health", "daily work, service, health, routines"},
	{"Relationships", "partnerships, marriage, contracts, open enemies"},
	{"Transformation", "death, rebirth, shared resources, occult, sex"},
	{"Wisdom", "philosophy, higher learning, long journeys, spirituality"},
	{"Career", "public life, reputation, career, authority"},
	{"Community", "friends, groups, hopes, dreams, social networks"},
	{"Subconscious", "secrets, hidden enemies, karma, spirituality, solitude"},
}

// Cusps returns the twelve house cusps for a house system.
func Cusps(system HouseSystem, angles model.Angles) [12]float64 {
	var cusps [12]float64
	asc := Normalize(angles.Ascendant)
	switch system {
	case HouseWholeSign:
		start := float64(SignIndex(asc)) * 30
		for i := range cusps {
			cusps[i] = Normalize(start + float64(i)*30)
		}
	case HousePorphyry:
		mc := Normalize(angles.Midheaven)
		ic := Normalize(mc + 180)
		dsc := Normalize(asc + 180)
		// quadrants run ASC→IC→DSC→MC in zodiacal order
		q1 := arc(asc, ic) / 3
		q2 := arc(ic, dsc) / 3
		cusps[0] = asc
		cusps[1] = Normalize(asc + q1)
		cusps[2] = Normalize(asc + 2*q1)
		cusps[3] = ic
		cusps[4] = Normalize(ic + q2)
		cusps[5] = Normalize(ic + 2*q2)
		for i := 6; i < 12; i++ {
			cusps[i] = Normalize(cusps[i-6] + 180)
		}
	default:
		for i := range cusps {
			cusps[i] = Normalize(asc + float64(i)*30)
		}
	}
	return cusps
}

// HouseOf returns the 1-based house containing lon.
func HouseOf(lon float64, cusps [12]float64) int {
	lon = Normalize(lon)
	for i := 0; i < 12; i++ {
		cur := cusps[i]
		next := cusps[(i+1)%12]
		if cur < next {
			if lon >= cur && lon < next {
				return i + 1
			}
		} else if cur > next {
			if lon >= cur || lon < next {
				return i + 1
			}
		}
	}
	return 1
}

// arc is the zodiacal distance travelling forward from a to b.
func arc(a, b float64) float64 {
	return Normalize(b - a)
}

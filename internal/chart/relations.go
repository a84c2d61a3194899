package chart

import (
	"sort"

	"woflstrology/internal/model"
)

// Compatibility classifies how two elements get along.
type Compatibility string

const (
	Harmonious  Compatibility = "harmonious"
	Challenging Compatibility = "challenging"
	Neutral     Compatibility = "neutral"
)

// ElementCompatibility: same element and Fire/Air, Earth/Water are harmonious;
// Fire/Water and Earth/Air are challenging; the rest is neutral.
func ElementCompatibility(e1, e2 string) Compatibility {
	if e1 == e2 {
		return Harmonious
	}
	switch e1 + "_" + e2 {
	case "Fire_Air", "Air_Fire", "Earth_Water", "Water_Earth":
		return Harmonious
	case "Fire_Water", "Water_Fire", "Earth_Air", "Air_Earth":
		return Challenging
	}
	return Neutral
}

// CrossAspect links a body in one chart to a body in another.
type CrossAspect struct {
	From       model.Body // transiting body, or first person's body
	To         model.Body // natal body, or second person's body
	Type       model.AspectType
	Separation float64
	Orb        float64
	House      int // house of To in its own chart
}

// Interaspects compares every body of a with every body of b, tightest first.
func Interaspects(table []AspectDef, a, b *model.Chart) []CrossAspect {
	var out []CrossAspect
	for _, pa := range a.Bodies {
		for _, pb := range b.Bodies {
			sep := Separation(pa.Longitude, pb.Longitude)
			def, dev, ok := Classify(table, sep)
			if !ok {
				continue
			}
			out = append(out, CrossAspect{
				From:       pa.Body,
				To:         pb.Body,
				Type:       def.Type,
				Separation: sep,
				Orb:        dev,
				House:      pb.House,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orb < out[j].Orb })
	return out
}

// Transits are the aspects current bodies make to natal bodies.
func Transits(table []AspectDef, current, natal *model.Chart) []CrossAspect {
	return Interaspects(table, current, natal)
}

var keySynastryPairs = map[[2]model.Body]bool{
	{model.Sun, model.Moon}:   true,
	{model.Moon, model.Sun}:   true,
	{model.Venus, model.Mars}: true,
	{model.Mars, model.Venus}: true,
	{model.Sun, model.Venus}:  true,
	{model.Venus, model.Sun}:  true,
	{model.Moon, model.Venus}: true,
	{model.Venus, model.Moon}: true,
}

// IsKeySynastryPair reports the classic relationship pairings.
func IsKeySynastryPair(a, b model.Body) bool {
	return keySynastryPairs[[2]model.Body{a, b}]
}

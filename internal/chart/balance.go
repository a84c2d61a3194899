package chart

import "woflstrology/internal/model"

// Level buckets a share of the chart.
type Level string

const (
	LevelHigh     Level = "high"
	LevelBalanced Level = "balanced"
	LevelLow      Level = "low"
)

// Share is how many bodies fall into one element or modality.
type Share struct {
	Name       string
	Count      int
	Percentage float64
	Level      Level
}

// ElementBalance counts bodies per element. Above 40% is high, below 15% is low.
func ElementBalance(bodies []model.BodyPosition) []Share {
	return balance(bodies, Elements, ElementOf, 15)
}

// ModalityBalance counts bodies per modality. Above 40% is high, below 20% is low.
func ModalityBalance(bodies []model.BodyPosition) []Share {
	return balance(bodies, Modalities, ModalityOf, 20)
}

func balance(bodies []model.BodyPosition, names []string, classify func(string) string, low float64) []Share {
	counts := map[string]int{}
	for _, b := range bodies {
		counts[classify(b.Sign)]++
	}
	out := make([]Share, 0, len(names))
	for _, name := range names {
		s := Share{Name: name, Count: counts[name], Level: LevelBalanced}
		if len(bodies) > 0 {
			s.Percentage = float64(s.Count) / float64(len(bodies)) * 100
		}
		switch {
		case s.Percentage > 40:
			s.Level = LevelHigh
		case s.Percentage < low:
			s.Level = LevelLow
		}
		out = append(out, s)
	}
	return out
}

var angularHouses = map[int]bool{1: true, 4: true, 7: true, 10: true}

// DominantPlanet scores each body: +5 for ruling the ascendant sign, +3 in an
// angular house, +4 in a sign it rules, +1 per aspect. Ties go to the body
// listed first.
func DominantPlanet(c *model.Chart) (model.Body, int) {
	scores := map[model.Body]int{}
	ascSign := SignOf(c.Angles.Ascendant)
	for _, b := range c.Bodies {
		if RulesSign(b.Body, ascSign) {
			scores[b.Body] += 5
		}
		if angularHouses[b.House] {
			scores[b.Body] += 3
		}
		if RulesSign(b.Body, b.Sign) {
			scores[b.Body] += 4
		}
	}
	for _, a := range c.Aspects {
		scores[a.A]++
		scores[a.B]++
	}
	var (
		best      model.Body
		bestScore = -1
	)
	for _, b := range c.Bodies {
		if scores[b.Body] > bestScore {
			best, bestScore = b.Body, scores[b.Body]
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}
	return best, bestScore
}

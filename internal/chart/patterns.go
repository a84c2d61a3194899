package chart

import (
	"sort"

	"woflstrology/internal/model"
)

// PatternType names a multi-body configuration.
type PatternType string

const (
	GrandTrine PatternType = "grand_trine"
	GrandCross PatternType = "grand_cross"
	TSquare    PatternType = "t_square"
	Stellium   PatternType = "stellium"
	Yod        PatternType = "yod"
)

// Pattern is a detected configuration. Apex is set for T-squares and yods,
// Element for grand trines and Sign for stelliums.
type Pattern struct {
	Type    PatternType
	Bodies  []model.Body
	Apex    model.Body
	Element string
	Sign    string
}

const (
	patternOrb  = 8.0
	sextileOrb  = 6.0
	quincunxOrb = 3.0
)

// DetectPatterns finds grand trines, grand crosses, T-squares, stelliums and yods.
func DetectPatterns(bodies []model.BodyPosition) []Pattern {
	var out []Pattern
	seen := map[string]bool{}
	add := func(p Pattern, members ...model.Body) {
		key := string(p.Type) + ":" + memberKey(members)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}
	in := func(i, j int, angle, orb float64) bool {
		return Within(bodies[i].Longitude, bodies[j].Longitude, angle, orb)
	}
	n := len(bodies)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if in(i, j, 120, patternOrb) && in(j, k, 120, patternOrb) && in(i, k, 120, patternOrb) {
					members := []model.Body{bodies[i].Body, bodies[j].Body, bodies[k].Body}
					add(Pattern{
						Type:    GrandTrine,
						Bodies:  members,
						Element: dominantElement(bodies[i].Sign, bodies[j].Sign, bodies[k].Sign),
					}, members...)
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !in(i, j, 180, patternOrb) {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j || !in(i, k, 90, patternOrb) {
					continue
				}
				if in(j, k, 90, patternOrb) {
					add(Pattern{
						Type:   TSquare,
						Bodies: []model.Body{bodies[i].Body, bodies[j].Body},
						Apex:   bodies[k].Body,
					}, bodies[i].Body, bodies[j].Body, bodies[k].Body)
				}
				for l := 0; l < n; l++ {
					if l == i || l == j || l == k {
						continue
					}
					if in(j, l, 90, patternOrb) && in(k, l, 180, patternOrb) {
						members := []model.Body{bodies[i].Body, bodies[j].Body, bodies[k].Body, bodies[l].Body}
						add(Pattern{Type: GrandCross, Bodies: members}, members...)
					}
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !in(i, j, 60, sextileOrb) {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				if in(i, k, 150, quincunxOrb) && in(j, k, 150, quincunxOrb) {
					add(Pattern{
						Type:   Yod,
						Bodies: []model.Body{bodies[i].Body, bodies[j].Body},
						Apex:   bodies[k].Body,
					}, bodies[i].Body, bodies[j].Body, bodies[k].Body)
				}
			}
		}
	}

	bySign := map[string][]model.Body{}
	for _, b := range bodies {
		bySign[b.Sign] = append(bySign[b.Sign], b.Body)
	}
	for _, sign := range Signs {
		if members := bySign[sign]; len(members) >= 3 {
			add(Pattern{Type: Stellium, Bodies: members, Sign: sign}, members...)
		}
	}
	return out
}

func memberKey(members []model.Body) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = string(m)
	}
	sort.Strings(names)
	key := ""
	for _, n := range names {
		key += n + ","
	}
	return key
}

func dominantElement(signs ...string) string {
	counts := map[string]int{}
	for _, s := range signs {
		counts[ElementOf(s)]++
	}
	best, bestN := "", 0
	for _, e := range Elements {
		if counts[e] > bestN {
			best, bestN = e, counts[e]
		}
	}
	return best
}

package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"woflstrology/internal/chart"
	"woflstrology/internal/content"
	"woflstrology/internal/model"
)

const (
	starOrb  = 1.0
	retroTag = " ℞"
)

var corePlanets = []model.Body{model.Sun, model.Moon, model.Mercury, model.Venus, model.Mars}

func retroMark(p model.BodyPosition) string {
	if p.Retrograde {
		return retroTag
	}
	return ""
}

func natalHeader(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("🪐 **Natal Chart Reading**")
	if in.Name != "" {
		b.WriteString(" | " + in.Name)
	}
	loc := in.Natal.Location
	b.WriteString(fmt.Sprintf("\n\n*Born %s", in.Natal.Time.In(loc.Zone()).Format("2 January 2006 15:04 MST")))
	if loc.Name != "" {
		b.WriteString(" in " + loc.Name)
	}
	if loc.Fallback {
		b.WriteString(", birthplace not found so the default location was used")
	}
	b.WriteString(fmt.Sprintf(" (%s houses)*\n\n", in.Natal.HouseSystem))
}

func risingSign(r *Renderer, b *strings.Builder, in *Input) {
	asc := chart.SignOf(in.Natal.Angles.Ascendant)
	b.WriteString(fmt.Sprintf("**Rising Sign (Ascendant): %s**\n", asc))
	b.WriteString(r.db.LookupOr(content.RisingSign, asc, "Your rising sign shapes how you meet the world.") + "\n\n")
}

func corePlacements(r *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Core Planetary Placements:**\n\n")
	for _, body := range corePlanets {
		p, ok := in.Natal.Body(body)
		if !ok {
			continue
		}
		key := string(body) + "_" + p.Sign
		text := r.db.LookupOr(content.PlanetInSign, key,
			fmt.Sprintf("Your %s in %s shapes this planetary energy.", body, p.Sign))
		b.WriteString(fmt.Sprintf("• **%s in %s** (House %d)%s\n  %s\n\n", body, p.Sign, p.House, retroMark(p), text))
	}
}

func natalRetrogrades(r *Renderer, b *strings.Builder, in *Input) {
	retros := in.Natal.Retrogrades()
	if len(retros) == 0 {
		return
	}
	b.WriteString("**Natal Retrograde Planets:**\n\n")
	b.WriteString(fmt.Sprintf("You were born with %d planet(s) in retrograde motion:\n\n", len(retros)))
	for _, p := range retros {
		text := r.db.LookupOr(content.NatalRetrograde, string(p.Body),
			fmt.Sprintf("%s retrograde at birth indicates internal processing.", p.Body))
		b.WriteString(fmt.Sprintf("• **%s Retrograde**: %s\n\n", p.Body, text))
	}
}

// aspectText tries both body orders before falling back.
func (r *Renderer) aspectText(a, b model.Body, typ model.AspectType) string {
	for _, key := range []string{string(a) + "_" + string(b), string(b) + "_" + string(a)} {
		if s, err := r.db.Lookup(content.AspectMeanings, key+"."+string(typ)); err == nil {
			return s
		}
	}
	return r.db.LookupOr(content.AspectMeanings, string(a)+"_"+string(b)+"."+string(typ),
		fmt.Sprintf("These planetary energies interact through %s.", typ))
}

func natalAspects(r *Renderer, b *strings.Builder, in *Input) {
	if len(in.Natal.Aspects) == 0 {
		return
	}
	aspects := make([]model.Aspect, len(in.Natal.Aspects))
	copy(aspects, in.Natal.Aspects)
	sort.SliceStable(aspects, func(i, j int) bool {
		return chart.AspectRank(aspects[i].Type) < chart.AspectRank(aspects[j].Type)
	})
	b.WriteString("**Major Aspects - The Story of Your Inner Dynamics:**\n\n")
	for _, a := range aspects {
		b.WriteString(fmt.Sprintf("**%s %s %s** (%.1f°)\n%s\n\n", a.A, title(string(a.Type)), a.B, a.Separation, r.aspectText(a.A, a.B, a.Type)))
	}
	b.WriteString(fmt.Sprintf("*Your chart contains %d aspects.*\n\n", len(aspects)))
}

func bodyNames(bodies []model.Body) string {
	names := make([]string, len(bodies))
	for i, body := range bodies {
		names[i] = string(body)
	}
	return strings.Join(names, ", ")
}

func chartPatterns(r *Renderer, b *strings.Builder, in *Input) {
	patterns := chart.DetectPatterns(in.Natal.Bodies)
	if len(patterns) == 0 {
		return
	}
	b.WriteString("**Special Chart Patterns - Configurations of Destiny:**\n\n")
	for _, p := range patterns {
		names := bodyNames(p.Bodies)
		switch p.Type {
		case chart.Stellium:
			b.WriteString(fmt.Sprintf("**Stellium in %s**: %s\n", p.Sign, names))
		case chart.TSquare:
			b.WriteString(fmt.Sprintf("**T-Square**: %s with apex at %s\n", names, p.Apex))
		case chart.Yod:
			b.WriteString(fmt.Sprintf("**Yod (Finger of God)**: %s pointing to %s\n", names, p.Apex))
		case chart.GrandTrine:
			b.WriteString(fmt.Sprintf("**Grand Trine in %s**: %s\n", p.Element, names))
		default:
			b.WriteString(fmt.Sprintf("**%s**: %s\n", title(string(p.Type)), names))
		}
		key := string(p.Type)
		b.WriteString(r.db.LookupOr(content.ChartPatterns, key+".description", "") + "\n")
		b.WriteString(r.db.LookupOr(content.ChartPatterns, key+".interpretation", content.Neutral) + "\n\n")
	}
}

func writeShares(r *Renderer, b *strings.Builder, category string, shares []chart.Share) {
	for _, s := range shares {
		keywords := r.db.LookupOr(category, s.Name+".keywords", "")
		b.WriteString(fmt.Sprintf("**%s** (%d planets, %.0f%%) - *%s*\n", s.Name, s.Count, s.Percentage, keywords))
		b.WriteString(r.db.LookupOr(category, s.Name+"."+string(s.Level), content.Neutral) + "\n\n")
	}
}

func elementBalance(r *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Elemental Balance - Your Fundamental Nature:**\n\n")
	writeShares(r, b, content.ElementMeanings, chart.ElementBalance(in.Natal.Bodies))
}

func modalityBalance(r *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Modality Balance - Your Approach to Life:**\n\n")
	writeShares(r, b, content.ModalityMeanings, chart.ModalityBalance(in.Natal.Bodies))
}

func dominantPlanet(r *Renderer, b *strings.Builder, in *Input) {
	body, score := chart.DominantPlanet(in.Natal)
	if body == "" {
		return
	}
	b.WriteString("**Chart Ruler - Your Dominant Energy:**\n\n")
	b.WriteString(fmt.Sprintf("**%s** dominates your chart (influence score: %d)\n", body, score))
	b.WriteString(r.db.LookupOr(content.DominantPlanet, string(body),
		fmt.Sprintf("%s energy shapes your life significantly.", body)) + "\n\n")
}

func lunarPhase(r *Renderer, b *strings.Builder, in *Input) {
	sun, okSun := in.Natal.Body(model.Sun)
	moon, okMoon := in.Natal.Body(model.Moon)
	if !okSun || !okMoon {
		return
	}
	phase, angle := chart.LunarPhase(sun.Longitude, moon.Longitude)
	b.WriteString("**Lunar Phase at Birth:**\n\n")
	b.WriteString(fmt.Sprintf("**%s** (%.1f° from Sun) - *%s*\n", r.db.LookupOr(content.LunarPhases, phase+".phase", title(phase)),
		angle, r.db.LookupOr(content.LunarPhases, phase+".keywords", "")))
	b.WriteString(r.db.LookupOr(content.LunarPhases, phase+".interpretation", content.Neutral) + "\n\n")
}

func chironPlacement(r *Renderer, b *strings.Builder, in *Input) {
	p, ok := in.Natal.Body(model.Chiron)
	if !ok {
		return
	}
	b.WriteString("**Chiron - The Wounded Healer:**\n\n")
	b.WriteString(r.db.LookupOr(content.Chiron, "description", "") + "\n\n")
	b.WriteString(fmt.Sprintf("**Chiron in %s** (%.1f°, House %d)%s\n", p.Sign, p.DegreesInSign, p.House, retroMark(p)))
	b.WriteString(r.db.LookupOr(content.Chiron, "chiron_in_sign."+p.Sign, content.Neutral) + "\n\n")
}

type starContact struct {
	star  string
	point string
	orb   float64
}

// starContacts finds fixed stars within one degree of a body or angle.
func starContacts(in *Input) []starContact {
	points := make([]model.BodyPosition, 0, len(in.Natal.Bodies)+2)
	points = append(points, in.Natal.Bodies...)
	points = append(points,
		model.BodyPosition{Body: "Ascendant", Longitude: in.Natal.Angles.Ascendant},
		model.BodyPosition{Body: "Midheaven", Longitude: in.Natal.Angles.Midheaven})
	var out []starContact
	for _, s := range in.Stars {
		for _, p := range points {
			if p.Body == model.Body(s.Name) {
				continue
			}
			if sep := chart.Separation(s.Longitude, p.Longitude); sep <= starOrb {
				out = append(out, starContact{star: s.Name, point: string(p.Body), orb: sep})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].orb < out[j].orb })
	return out
}

func fixedStars(r *Renderer, b *strings.Builder, in *Input) {
	contacts := starContacts(in)
	if len(contacts) == 0 {
		return
	}
	b.WriteString("**Fixed Star Conjunctions:**\n\n")
	b.WriteString(r.db.LookupOr(content.FixedStars, "description", "") + "\n\n")
	for _, c := range contacts {
		b.WriteString(fmt.Sprintf("**%s conjunct %s** (within %.2f°)", c.star, c.point, c.orb))
		if kw, err := r.db.Lookup(content.FixedStars, "stars."+c.star+".keywords"); err == nil {
			b.WriteString(" - *" + kw + "*")
		}
		b.WriteString("\n")
		b.WriteString(r.db.LookupOr(content.FixedStars, "stars."+c.star+".interpretation", content.Neutral) + "\n\n")
	}
}

func sabianLine(r *Renderer, b *strings.Builder, name string, lon float64) {
	deg := chart.SabianDegree(lon)
	sign := chart.SignOf(float64(deg) - 0.5)
	inSign := (deg-1)%30 + 1
	key := "symbols." + strconv.Itoa(deg)
	b.WriteString(fmt.Sprintf("**%s at %s %d°**\n", name, sign, inSign))
	if sym, err := r.db.Lookup(content.SabianSymbols, key+".symbol"); err == nil {
		b.WriteString(fmt.Sprintf("**Symbol:** %s\n", sym))
		b.WriteString(r.db.LookupOr(content.SabianSymbols, key+".interpretation", "") + "\n\n")
		return
	}
	b.WriteString("*No symbol is recorded for this degree.*\n\n")
}

func sabianSymbols(r *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Your Key Degree Meanings:**\n\n")
	if sun, ok := in.Natal.Body(model.Sun); ok {
		sabianLine(r, b, "Sun", sun.Longitude)
	}
	if moon, ok := in.Natal.Body(model.Moon); ok {
		sabianLine(r, b, "Moon", moon.Longitude)
	}
	sabianLine(r, b, "Ascendant", in.Natal.Angles.Ascendant)
	sabianLine(r, b, "Midheaven", in.Natal.Angles.Midheaven)
}

func planetaryHour(r *Renderer, b *strings.Builder, in *Input) {
	if in.Date.IsZero() {
		return
	}
	ruler := chart.PlanetaryHour(in.Date)
	b.WriteString("**Current Planetary Hour:**\n\n")
	b.WriteString(fmt.Sprintf("At %s the hour is ruled by **%s**.\n", in.Date.Format("3:04 PM"), ruler))
	b.WriteString(r.db.LookupOr(content.PlanetaryHours, string(ruler), "This planetary hour influences current activities.") + "\n\n")
}

package report

import (
	"fmt"
	"strings"

	"woflstrology/internal/chart"
	"woflstrology/internal/content"
	"woflstrology/internal/model"
)

const (
	maxInteraspects = 10
	patternSample   = 3
)

func compatHeader(_ *Renderer, b *strings.Builder, in *Input) {
	own, other := in.userSign(), in.partnerSign()
	b.WriteString("💞 **Relationship Compatibility**\n\n")
	b.WriteString(fmt.Sprintf("**%s** (%s) ♥ **%s** (%s)", own, chart.ElementOf(own), other, chart.ElementOf(other)))
	if in.PartnerName != "" {
		b.WriteString(" | with " + in.PartnerName)
	}
	b.WriteString("\n\n")
}

func elementDynamic(r *Renderer, b *strings.Builder, in *Input) {
	key := chart.ElementOf(in.userSign()) + "_" + chart.ElementOf(in.partnerSign())
	text := r.db.LookupOr(content.ElementDynamics, key,
		"This pairing brings together different energetic qualities that require conscious navigation.")
	b.WriteString(fmt.Sprintf("**Elemental Dynamic:**\n%s\n\n", text))
}

func relationalPatterns(r *Renderer, b *strings.Builder, in *Input) {
	patterns, err := r.db.Sample(content.RelationshipLore, "", in.seed(in.partnerSign()), patternSample)
	if err != nil || len(patterns) == 0 {
		return
	}
	b.WriteString("**Relational Patterns to Consider:**\n")
	for _, p := range patterns {
		b.WriteString("• " + p + "\n")
	}
	b.WriteString("\n")
}

func compatGuidance(r *Renderer, b *strings.Builder, in *Input) {
	typ := chart.ElementCompatibility(chart.ElementOf(in.userSign()), chart.ElementOf(in.partnerSign()))
	advice := r.db.PickOr(content.CompatAdvice, string(typ), in.seed("advice"), content.Neutral)
	b.WriteString(fmt.Sprintf("**Astrological Guidance** (%s):\n%s\n\n", typ, advice))
}

func signPair(r *Renderer, b *strings.Builder, in *Input) {
	own, other := in.userSign(), in.partnerSign()
	for _, key := range []string{own + "_" + other, other + "_" + own} {
		if s, err := r.db.Lookup(content.SignPairs, key); err == nil {
			b.WriteString(fmt.Sprintf("**%s and %s:**\n%s\n\n", own, other, s))
			return
		}
	}
}

type influence struct {
	label string
	key   string
}

// relationshipInfluences derives the active sky factors from the current
// chart: relationship planets retrograde, and outer planets touching natal
// Venus or Mars.
func relationshipInfluences(in *Input) []influence {
	if in.Current == nil {
		return nil
	}
	var out []influence
	retro := map[model.Body]influence{
		model.Venus:   {"Venus Retrograde", "venus_retrograde"},
		model.Mars:    {"Mars Retrograde", "mars_retrograde"},
		model.Mercury: {"Mercury Retrograde", "mercury_retrograde"},
	}
	for _, body := range []model.Body{model.Venus, model.Mars, model.Mercury} {
		if p, ok := in.Current.Body(body); ok && p.Retrograde {
			out = append(out, retro[body])
		}
	}
	outer := []struct {
		body model.Body
		inf  influence
	}{
		{model.Jupiter, influence{"Jupiter's Expansion", "jupiter_expansion"}},
		{model.Neptune, influence{"Neptune's Veil", "neptune_illusion"}},
		{model.Pluto, influence{"Pluto's Depth", "pluto_transformation"}},
	}
	if in.Natal == nil {
		return out
	}
	hits := chart.Transits(in.table(), in.Current, in.Natal)
	for _, o := range outer {
		for _, h := range hits {
			if h.From == o.body && (h.To == model.Venus || h.To == model.Mars) {
				out = append(out, o.inf)
				break
			}
		}
	}
	return out
}

func relationshipClimate(r *Renderer, b *strings.Builder, in *Input) {
	infl := relationshipInfluences(in)
	if len(infl) == 0 {
		b.WriteString("**Current Cosmic Climate:**\nNo major planetary retrogrades currently affect relationship dynamics. " +
			"This period favours forward movement and clarity in romantic matters.\n\n")
		return
	}
	b.WriteString("**Current Cosmic Influences on Relationships:**\n")
	for _, i := range infl {
		text := r.db.PickOr(content.RelationshipTransit, i.key, in.seed(i.key), content.Neutral)
		b.WriteString(fmt.Sprintf("\n• **%s**: %s\n", i.label, text))
	}
	b.WriteString("\n")
}

func synastryHeader(_ *Renderer, b *strings.Builder, in *Input) {
	own, other := in.userSign(), sunSign(in.Partner)
	b.WriteString("💫 **Synastry Analysis - Deep Chart Compatibility**\n\n")
	b.WriteString(fmt.Sprintf("**%s** ♥ **%s**", own, other))
	if in.PartnerName != "" {
		b.WriteString(" | with " + in.PartnerName)
	}
	b.WriteString("\n\nBeyond sun sign compatibility, here's how your complete charts interact:\n\n")
	typ := chart.ElementCompatibility(chart.ElementOf(own), chart.ElementOf(other))
	b.WriteString(fmt.Sprintf("*Sun elements: %s and %s, a %s pairing.*\n\n", chart.ElementOf(own), chart.ElementOf(other), typ))
}

var synastryVerbs = map[model.AspectType]string{
	model.Conjunction: "merge energies, and you activate this in each other powerfully",
	model.Opposition:  "create tension, and you challenge each other in this area",
	model.Trine:       "flow harmoniously, and this comes naturally between you",
	model.Square:      "create friction, and you grow through this dynamic tension",
	model.Sextile:     "offer opportunity, and conscious effort enhances this connection",
}

func interaspects(_ *Renderer, b *strings.Builder, in *Input) {
	all := chart.Interaspects(in.table(), in.Natal, in.Partner)
	if len(all) == 0 {
		b.WriteString("No close interaspects link these charts.\n\n")
		return
	}
	b.WriteString("**Most Significant Interaspects:**\n\n")
	shown := all
	if len(shown) > maxInteraspects {
		shown = shown[:maxInteraspects]
	}
	for _, a := range shown {
		if chart.IsKeySynastryPair(a.From, a.To) {
			b.WriteString("⭐ ")
		}
		b.WriteString(fmt.Sprintf("**Your %s %s Their %s** (%.1f°)\n", a.From, a.Type, a.To, a.Separation))
		b.WriteString(fmt.Sprintf("Your %s and their %s %s.\n\n", a.From, a.To, synastryVerbs[a.Type]))
	}
	if extra := len(all) - len(shown); extra > 0 {
		b.WriteString(fmt.Sprintf("*Plus %d additional interaspects weaving your charts together.*\n\n", extra))
	}
}

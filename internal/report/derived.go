package report

import (
	"fmt"
	"sort"
	"strings"

	"woflstrology/internal/chart"
	"woflstrology/internal/content"
	"woflstrology/internal/model"
)

const maxActiveTransits = 10

func transitsHeader(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString(fmt.Sprintf("🔭 **Transits to Your Natal Chart** | %s\n\n", in.Date.Format("2 January 2006")))
}

func activeTransits(r *Renderer, b *strings.Builder, in *Input) {
	hits := chart.Transits(in.table(), in.Current, in.Natal)
	if len(hits) == 0 {
		b.WriteString("No major transits are active right now.\n\n")
		return
	}
	if len(hits) > maxActiveTransits {
		hits = hits[:maxActiveTransits]
	}
	b.WriteString("**Active Transits Right Now:**\n\n")
	for _, h := range hits {
		b.WriteString(fmt.Sprintf("**%s %s Natal %s** (House %d, orb %.1f°)\n", h.From, title(string(h.Type)), h.To, h.House, h.Orb))
		b.WriteString(r.db.LookupOr(content.Transits, string(h.Type)+"."+string(h.From), content.Neutral) + "\n\n")
	}
}

func forecastHeader(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString(fmt.Sprintf("🔮 **Upcoming Transits** | from %s\n\n", in.Date.Format("2 January 2006")))
}

func upcomingTransits(_ *Renderer, b *strings.Builder, in *Input) {
	if len(in.Forecast) == 0 {
		b.WriteString("No exact slow-planet transits are due in the coming months.\n\n")
		return
	}
	hits := make([]Hit, len(in.Forecast))
	copy(hits, in.Forecast)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Date.Before(hits[j].Date) })
	for _, h := range hits {
		b.WriteString(fmt.Sprintf("**%s**: %s %s Natal %s (House %d)\n",
			h.Date.Format("2006-01-02"), h.From, title(string(h.Type)), h.To, h.House))
	}
	b.WriteString("\n")
}

func solarReturnHeader(_ *Renderer, b *strings.Builder, in *Input) {
	zone := in.Derived.Location.Zone()
	b.WriteString(fmt.Sprintf("☀️ **Solar Return %d**\n\n", in.Derived.Time.In(zone).Year()))
	b.WriteString(fmt.Sprintf("The Sun returns to its natal degree on %s", in.Derived.Time.In(zone).Format("2 January 2006 at 15:04 MST")))
	if in.Derived.Location.Name != "" {
		b.WriteString(" (" + in.Derived.Location.Name + ")")
	}
	b.WriteString(".\n\n")
}

func derivedRising(r *Renderer, b *strings.Builder, in *Input) {
	asc := chart.SignOf(in.Derived.Angles.Ascendant)
	label := "Solar Return Ascendant"
	if in.Derived.Time.Equal(in.Natal.Time) {
		label = "Relocated Rising Sign"
	}
	b.WriteString(fmt.Sprintf("**%s: %s**\n", label, asc))
	b.WriteString(r.db.LookupOr(content.RisingSign, asc, content.Neutral) + "\n\n")
}

func solarReturnPlacements(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Key Solar Return Placements:**\n\n")
	for _, body := range corePlanets {
		p, ok := in.Derived.Body(body)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("• **%s in %s, House %d**: This year, %s energy manifests through %s in your %s house area of life.\n",
			body, p.Sign, p.House, strings.ToLower(string(body)), p.Sign, ordinal(p.House)))
	}
	b.WriteString("\n")
}

func solarReturnMeaning(r *Renderer, b *strings.Builder, _ *Input) {
	b.WriteString("**Interpretation:**\n")
	b.WriteString(r.db.LookupOr(content.SolarReturn, "interpretation", content.Neutral) + "\n\n")
}

// houseEmphasis lists houses holding two or more bodies, busiest first.
func houseEmphasis(_ *Renderer, b *strings.Builder, in *Input) {
	var counts [13]int
	for _, p := range in.Derived.Bodies {
		if p.House >= 1 && p.House <= 12 {
			counts[p.House]++
		}
	}
	var houses []int
	for h := 1; h <= 12; h++ {
		if counts[h] >= 2 {
			houses = append(houses, h)
		}
	}
	if len(houses) == 0 {
		return
	}
	sort.SliceStable(houses, func(i, j int) bool { return counts[houses[i]] > counts[houses[j]] })
	b.WriteString("**House Emphasis This Year:**\n")
	for _, h := range houses {
		b.WriteString(fmt.Sprintf("• **House %d** (%d planets): Focus on %s\n", h, counts[h], chart.HouseMeanings[h].Description))
	}
	b.WriteString("\n")
}

func progressionsHeader(_ *Renderer, b *strings.Builder, in *Input) {
	age := in.Derived.Time.Sub(in.Natal.Time).Hours() / 24
	b.WriteString("📈 **Secondary Progressions**\n\n")
	b.WriteString(fmt.Sprintf("Progressed to %s, %.0f days after birth, one day for each year of life.\n\n",
		in.Date.Format("2 January 2006"), age))
}

func progressedPlacements(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**Key Progressed Placements:**\n\n")
	for _, body := range corePlanets {
		prog, ok := in.Derived.Body(body)
		if !ok || body == model.Moon {
			continue
		}
		natal, ok := in.Natal.Body(body)
		if !ok {
			continue
		}
		if prog.Sign != natal.Sign {
			b.WriteString(fmt.Sprintf("• **Progressed %s in %s** (natal %s)\n", body, prog.Sign, natal.Sign))
		} else {
			b.WriteString(fmt.Sprintf("• **Progressed %s in %s** (still in natal sign)\n", body, prog.Sign))
		}
	}
	b.WriteString("\n")
}

func progressedMoon(r *Renderer, b *strings.Builder, in *Input) {
	moon, ok := in.Derived.Body(model.Moon)
	if !ok {
		return
	}
	b.WriteString(fmt.Sprintf("**Progressed Moon in %s:**\n", moon.Sign))
	b.WriteString(fmt.Sprintf("Your emotional life is %s.\n\n",
		r.db.LookupOr(content.MoonInfluences, moon.Sign, "moving into a new chapter")))
}

func progressionsMeaning(r *Renderer, b *strings.Builder, _ *Input) {
	b.WriteString("**Interpretation:**\n")
	b.WriteString(r.db.LookupOr(content.Progressions, "interpretation", content.Neutral) + "\n\n")
}

func relocationHeader(_ *Renderer, b *strings.Builder, in *Input) {
	name := in.Derived.Location.Name
	if name == "" {
		name = fmt.Sprintf("%.2f, %.2f", in.Derived.Location.Coordinates.Lat, in.Derived.Location.Coordinates.Lon)
	}
	b.WriteString(fmt.Sprintf("🌍 **Relocation Chart** | %s\n\n", name))
}

func relocatedAngles(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString(fmt.Sprintf("**Birth Ascendant:** %s %.1f°\n", chart.SignOf(in.Natal.Angles.Ascendant), chart.DegreesInSign(in.Natal.Angles.Ascendant)))
	b.WriteString(fmt.Sprintf("**Relocation Ascendant:** %s %.1f°\n", chart.SignOf(in.Derived.Angles.Ascendant), chart.DegreesInSign(in.Derived.Angles.Ascendant)))
	b.WriteString(fmt.Sprintf("**Relocation Midheaven:** %s %.1f°\n\n", chart.SignOf(in.Derived.Angles.Midheaven), chart.DegreesInSign(in.Derived.Angles.Midheaven)))
}

func houseShifts(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString("**How Your Natal Planets Shift Houses:**\n\n")
	for _, moved := range in.Derived.Bodies {
		natal, ok := in.Natal.Body(moved.Body)
		if !ok {
			continue
		}
		if natal.House != moved.House {
			b.WriteString(fmt.Sprintf("• **%s**: Moves from House %d → House %d (%s)\n",
				moved.Body, natal.House, moved.House, chart.HouseMeanings[moved.House].Name))
		} else {
			b.WriteString(fmt.Sprintf("• **%s**: Remains in House %d\n", moved.Body, natal.House))
		}
	}
	b.WriteString("\n")
}

func asteroidsHeader(r *Renderer, b *strings.Builder, _ *Input) {
	b.WriteString("☄️ **Asteroids in Your Chart**\n\n")
	b.WriteString(r.db.LookupOr(content.Asteroids, "description", "") + "\n\n")
}

func asteroidPlacements(r *Renderer, b *strings.Builder, in *Input) {
	if len(in.Asteroids) == 0 {
		b.WriteString("No asteroid positions are available for this chart.\n\n")
		return
	}
	for _, a := range in.Asteroids {
		p := a.Position
		b.WriteString(fmt.Sprintf("**%s** in %s %.1f°%s (House %d)\n", p.Body, p.Sign, p.DegreesInSign, retroMark(p), p.House))
		key := fmt.Sprintf("major_asteroids.%d", a.Number)
		if s, err := r.db.Lookup(content.Asteroids, key+".interpretation"); err == nil {
			b.WriteString(s + "\n")
		}
		if s, err := r.db.Lookup(content.Asteroids, key+".in_signs."+p.Sign); err == nil {
			b.WriteString(s + "\n")
		}
		b.WriteString("\n")
	}
}

func themeScans(_ *Renderer, b *strings.Builder, in *Input) {
	for _, t := range in.Themes {
		b.WriteString(fmt.Sprintf("🔭 **Thematic Asteroids: %s**\n", t.Title))
		if t.Description != "" {
			b.WriteString("_" + t.Description + "_\n")
		}
		b.WriteString("\n")
		if len(t.Hits) == 0 {
			b.WriteString("No conjunctions with natal planets.\n")
		}
		for _, h := range t.Hits {
			b.WriteString(fmt.Sprintf("• **%s** (%d) conjunct natal **%s**, orb %.1f° (%s, House %d)\n",
				h.Asteroid.Body, h.Number, h.Natal, h.Orb, h.Asteroid.Sign, h.Asteroid.House))
		}
		if len(t.Missing) > 0 {
			b.WriteString("Not in the catalogue: " + strings.Join(t.Missing, ", ") + "\n")
		}
		b.WriteString("\n")
	}
}

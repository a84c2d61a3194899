package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"woflstrology/internal/chart"
	"woflstrology/internal/content"
	"woflstrology/internal/model"
)

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func title(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// userSign is the sign a reading is addressed to: natal Sun when known,
// otherwise the Sun of the day.
func (in *Input) userSign() string {
	if s := sunSign(in.Natal); s != "" {
		return s
	}
	return sunSign(in.Current)
}

// houseIn places a current body in the natal houses when a natal chart is
// present, else in the houses of its own chart.
func (in *Input) houseIn(p model.BodyPosition) int {
	if in.Natal != nil {
		return chart.HouseOf(p.Longitude, in.Natal.Cusps)
	}
	return p.House
}

func dailyHeader(_ *Renderer, b *strings.Builder, in *Input) {
	b.WriteString(fmt.Sprintf("📅 **Daily Horoscope** | %s", in.Date.Format("Monday, 2 January 2006")))
	if in.Name != "" {
		b.WriteString(fmt.Sprintf(" | %s", in.Name))
	}
	b.WriteString("\n\n")
}

func personalSky(_ *Renderer, b *strings.Builder, in *Input) {
	if in.Natal == nil {
		return
	}
	moon, okMoon := in.Current.Body(model.Moon)
	sun, okSun := in.Current.Body(model.Sun)
	if !okMoon || !okSun {
		return
	}
	b.WriteString(fmt.Sprintf("Your Moon is currently transiting %s", moon.Sign))
	if sun.Sign != moon.Sign {
		b.WriteString(fmt.Sprintf(" whilst the Sun is in %s", sun.Sign))
	} else {
		b.WriteString(" alongside the Sun")
	}
	natalSun := in.userSign()
	var parts []string
	for _, p := range in.Current.Retrogrades() {
		house := in.houseIn(p)
		note := ""
		if chart.RulesSign(p.Body, natalSun) {
			note = " (your chart ruler!)"
		}
		parts = append(parts, fmt.Sprintf("%s is retrograde in %s in your %s house of %s%s",
			p.Body, p.Sign, ordinal(house), chart.HouseMeanings[house].Name, note))
	}
	if len(parts) > 0 {
		b.WriteString(". Significantly, ")
		b.WriteString(strings.Join(parts, ", and "))
	}
	b.WriteString(".\n")
}

func generalHoroscope(r *Renderer, b *strings.Builder, in *Input) {
	sun, okSun := in.Current.Body(model.Sun)
	moon, okMoon := in.Current.Body(model.Moon)
	if !okSun || !okMoon {
		b.WriteString(content.Neutral + "\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("\n**General Horoscope for %s:**\n\n", in.userSign()))

	theme := r.db.PickOr(content.SunThemes, sun.Sign, in.seed("sun"), "Cosmic energies are at work")
	b.WriteString(fmt.Sprintf("With the Sun in %s, %s. ", sun.Sign, lowerFirst(theme)))

	influence := r.db.LookupOr(content.MoonInfluences, moon.Sign, "affecting your emotions")
	b.WriteString(fmt.Sprintf("The Moon in %s is %s. ", moon.Sign, influence))

	combo := chart.ElementOf(sun.Sign) + "_" + chart.ElementOf(moon.Sign)
	b.WriteString(fmt.Sprintf("This combination of %s.\n\n",
		r.db.LookupOr(content.ElementCombos, combo, "creating a unique energetic blend")))

	house := prominentHouse(in)
	focus := r.db.LookupOr(content.HouseFocus, strconv.Itoa(house),
		fmt.Sprintf("influencing the %s area", strings.ToLower(chart.HouseMeanings[house].Name)))
	b.WriteString(fmt.Sprintf("Today's cosmic emphasis falls on your %s house, %s. ", ordinal(house), focus))

	wisdom := r.db.PickOr(content.GeneralWisdom, "", in.seed("wisdom"), "Trust the cosmic flow")
	b.WriteString(wisdom + ".\n\n")
}

// prominentHouse is the house holding the most current bodies; ties go to
// the lower house number.
func prominentHouse(in *Input) int {
	var counts [13]int
	for _, p := range in.Current.Bodies {
		if h := in.houseIn(p); h >= 1 && h <= 12 {
			counts[h]++
		}
	}
	best := 1
	for h := 2; h <= 12; h++ {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return best
}

func retrogradeInfluences(r *Renderer, b *strings.Builder, in *Input) {
	if in.Natal == nil {
		return
	}
	natalSun := in.userSign()
	element := chart.ElementOf(natalSun)
	b.WriteString("**Specific Transit Influences:**\n")
	retros := in.Current.Retrogrades()
	if len(retros) == 0 {
		b.WriteString("\n• No planets are currently retrograde, a time of forward momentum and clear direction!\n\n")
		return
	}
	for _, p := range retros {
		house := in.houseIn(p)
		byElement := r.db.LookupOr(content.RetrogradeElement, string(p.Body)+"."+element,
			"this planetary energy turns inward for reflection")
		byHouse := r.db.LookupOr(content.RetrogradeHouse, string(p.Body)+"."+strconv.Itoa(house),
			strings.ToLower(chart.HouseMeanings[house].Name)+" matters")
		b.WriteString(fmt.Sprintf("\n• **%s Retrograde**: As a %s sign, %s. With this retrograde in your %s house, it touches %s.",
			p.Body, element, byElement, ordinal(house), byHouse))
		if chart.RulesSign(p.Body, natalSun) {
			b.WriteString(fmt.Sprintf(" **This is especially significant because %s rules your %s Sun, making its retrograde deeply personal.**",
				p.Body, natalSun))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func natalContext(_ *Renderer, b *strings.Builder, in *Input) {
	if in.Natal == nil {
		return
	}
	asc := in.Natal.Angles.Ascendant
	mc := in.Natal.Angles.Midheaven
	b.WriteString("**Your Natal Chart Context:**\n")
	b.WriteString(fmt.Sprintf("• Rising Sign (Ascendant): %s at %.1f°\n", chart.SignOf(asc), chart.DegreesInSign(asc)))
	b.WriteString(fmt.Sprintf("• Midheaven: %s at %.1f°\n", chart.SignOf(mc), chart.DegreesInSign(mc)))
	if sun, ok := in.Natal.Body(model.Sun); ok {
		b.WriteString(fmt.Sprintf("• Sun Sign: %s (%s element)\n", sun.Sign, chart.ElementOf(sun.Sign)))
	}
	if moon, ok := in.Natal.Body(model.Moon); ok {
		b.WriteString(fmt.Sprintf("• Moon Sign: %s (%s element)\n", moon.Sign, chart.ElementOf(moon.Sign)))
	}
	b.WriteString("\n")
}

func moonCourse(r *Renderer, b *strings.Builder, in *Input) {
	m := in.Moon
	if m == nil {
		return
	}
	zone := in.Date.Location()
	if !m.Void {
		b.WriteString(fmt.Sprintf("🌙 The Moon in %s is active", m.Sign))
		if !m.LastAspect.IsZero() {
			b.WriteString(fmt.Sprintf(" until its last major aspect at %s", m.LastAspect.In(zone).Format("Mon 15:04")))
		}
		b.WriteString(fmt.Sprintf(" and enters %s at %s.\n\n", m.NextSign, m.Ingress.In(zone).Format("Mon 15:04")))
		return
	}
	b.WriteString("⚠ **The Moon is currently VOID OF COURSE**\n\n")
	b.WriteString(r.db.LookupOr(content.VoidOfCourse, "description", content.Neutral) + "\n\n")
	if !m.LastAspect.IsZero() {
		b.WriteString(fmt.Sprintf("Last aspect: %s\n", m.LastAspect.In(zone).Format("Mon 15:04")))
	}
	b.WriteString(fmt.Sprintf("Enters %s: %s\n\n", m.NextSign, m.Ingress.In(zone).Format("Mon 15:04")))
	b.WriteString(fmt.Sprintf("**Advice:** %s\n\n", r.db.LookupOr(content.VoidOfCourse, "advice", content.Neutral)))
}

package notifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"woflstrology/internal/profile"
	"woflstrology/internal/recorder"
)

// maxChunk keeps a message under Telegram's 4096 character limit after
// HTML escaping grows it.
const maxChunk = 3500

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	boldRe      = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*([^*\n]+?)\*`)
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// ToHTML converts the Markdown subset readings use (headings, **bold**,
// *italic*) into Telegram HTML. Everything else is escaped.
func ToHTML(markdown string) string {
	s := htmlEscaper.Replace(markdown)
	s = headingRe.ReplaceAllString(s, "<b>$1</b>")
	s = boldRe.ReplaceAllString(s, "<b>$1</b>")
	s = italicRe.ReplaceAllString(s, "<i>$1</i>")
	return strings.TrimSpace(s)
}

// Chunks splits text into pieces of at most limit characters, breaking at
// paragraphs, then lines, then anywhere.
func Chunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(text, "\n\n") {
		for _, piece := range splitLong(para, limit) {
			if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+2+utf8.RuneCountInString(piece) > limit {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(piece)
		}
	}
	flush()
	return out
}

func splitLong(para string, limit int) []string {
	if utf8.RuneCountInString(para) <= limit {
		return []string{para}
	}
	var out []string
	var cur []rune
	for _, line := range strings.Split(para, "\n") {
		r := []rune(line)
		for len(r) > limit {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(r[:limit]))
			r = r[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(r) > limit {
			out = append(out, string(cur))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, '\n')
		}
		cur = append(cur, r...)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// FormatProfiles lists saved profiles for chat display.
func FormatProfiles(list []profile.Profile) string {
	if len(list) == 0 {
		return "No saved profiles yet. Add one with `woflstrology profile add`."
	}
	var b strings.Builder
	b.WriteString("👥 **Saved Profiles**\n\n")
	for _, p := range list {
		place := p.Place
		if p.Location != nil && p.Location.Name != "" {
			place = p.Location.Name
		}
		b.WriteString(fmt.Sprintf("• **%s**: born %s", p.Name, p.Born))
		if place != "" {
			b.WriteString(" in " + place)
		}
		if p.Subscribed {
			b.WriteString(" 🔔")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHistory summarises recent readings.
func FormatHistory(events []recorder.ReadingEvent) string {
	if len(events) == 0 {
		return "No readings recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 **Recent Readings**\n\n")
	for _, e := range events {
		who := e.Subject
		if who == "" {
			who = "anonymous"
		}
		b.WriteString(fmt.Sprintf("• %s | **%s** for %s", e.CreatedAt.Format("2006-01-02 15:04"), e.Kind, who))
		if e.SunSign != "" {
			b.WriteString(fmt.Sprintf(" (Sun %s)", e.SunSign))
		}
		if e.Fallback {
			b.WriteString(" *default location*")
		}
		b.WriteString("\n")
	}
	return b.String()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"woflstrology/internal/ephemeris"
	"woflstrology/internal/geo"
	"woflstrology/internal/model"
	"woflstrology/internal/pipeline"
	"woflstrology/internal/profile"
	"woflstrology/internal/report"
)

// personFlags identify one person, either by saved profile or by birth data.
type personFlags struct {
	profile string
	name    string
	born    string
	place   string
	coords  string
}

func (p *personFlags) bind(cmd *cobra.Command, prefix, who string) {
	cmd.Flags().StringVar(&p.profile, prefix+"profile", "", "Saved profile for "+who)
	cmd.Flags().StringVar(&p.name, prefix+"name", "", "Name of "+who)
	cmd.Flags().StringVar(&p.born, prefix+"born", "", "Birth time of "+who+` as "YYYY-MM-DD HH:MM" local time`)
	cmd.Flags().StringVar(&p.place, prefix+"place", "", "Birthplace of "+who)
	cmd.Flags().StringVar(&p.coords, prefix+"coords", "", `Birth coordinates of `+who+`, e.g. "51.5N 0.12W"`)
}

func (p *personFlags) empty() bool {
	return p.profile == "" && p.born == ""
}

// query turns the flags into pipeline input. A profile wins over birth data.
func (p *personFlags) query() (pipeline.BirthQuery, error) {
	if p.profile != "" {
		saved, err := profiles.Get(p.profile)
		if err != nil {
			return pipeline.BirthQuery{}, err
		}
		return saved.Query()
	}
	if p.born == "" {
		return pipeline.BirthQuery{}, nil
	}
	t, err := time.Parse(profile.BornLayout, strings.TrimSpace(p.born))
	if err != nil {
		return pipeline.BirthQuery{}, fmt.Errorf("birth time %q must look like %q", p.born, profile.BornLayout)
	}
	q := pipeline.BirthQuery{Name: p.name, Time: t, Place: p.place}
	if p.coords != "" {
		c, ok := geo.ParseCoordinates(p.coords)
		if !ok {
			return pipeline.BirthQuery{}, fmt.Errorf("cannot read coordinates %q", p.coords)
		}
		q.Coordinates = &c
	}
	return q, nil
}

type readingFlags struct {
	person  personFlags
	partner personFlags
	sign    string
	at      string
	here    string
	to      string
	months  int
	bodies  []string
	themes  []string
	search  string
}

type readingCommand struct {
	kind  report.Kind
	use   string
	short string
	extra func(cmd *cobra.Command, f *readingFlags)
}

var readingTable = []readingCommand{
	{report.Daily, "daily", "Daily horoscope, personal when birth data is given", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.here, "here", "", "Where you are today (default: birthplace)")
	}},
	{report.Natal, "natal", "Birth chart reading", nil},
	{report.Compatibility, "compat", "Sun sign compatibility", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.sign, "sign", "", "Partner's sun sign")
		f.partner.bind(cmd, "partner-", "the partner")
	}},
	{report.Synastry, "synastry", "Chart comparison between two people", func(cmd *cobra.Command, f *readingFlags) {
		f.partner.bind(cmd, "partner-", "the partner")
	}},
	{report.Transits, "transits", "Current transits to the birth chart", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.here, "here", "", "Where you are today (default: birthplace)")
	}},
	{report.Forecast, "forecast", "Upcoming slow planet transits", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().IntVar(&f.months, "months", 0, "Months to scan (default 6)")
	}},
	{report.SolarReturn, "solar-return", "Solar return chart for this year", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.here, "here", "", "Where you spend the birthday (default: birthplace)")
	}},
	{report.Progressions, "progressions", "Secondary progressions", nil},
	{report.Relocation, "relocate", "Birth chart relocated to another place", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.to, "to", "", "Place to relocate to")
	}},
	{report.Asteroids, "asteroids", "Asteroid placements in the birth chart", func(cmd *cobra.Command, f *readingFlags) {
		cmd.Flags().StringVar(&f.search, "search", "", "List catalogue bodies matching a name or number and exit")
		cmd.Flags().StringSliceVar(&f.themes, "theme", nil,
			"Scan a thematic asteroid group for natal conjunctions: "+strings.Join(pipeline.ThemeKeys(), ", ")+" or all")
	}},
}

func readingCommands() []*cobra.Command {
	out := make([]*cobra.Command, 0, len(readingTable))
	for _, rc := range readingTable {
		f := &readingFlags{}
		cmd := &cobra.Command{
			Use:   rc.use,
			Short: rc.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runReading(cmd, rc.kind, f)
			},
		}
		f.person.bind(cmd, "", "the person")
		cmd.Flags().StringVar(&f.at, "at", "", `Reading time as "YYYY-MM-DD HH:MM" UTC (default: now)`)
		cmd.Flags().StringSliceVar(&f.bodies, "bodies", nil, "Extra bodies to include, e.g. Eris,Hygiea")
		if rc.extra != nil {
			rc.extra(cmd, f)
		}
		out = append(out, cmd)
	}
	return out
}

func runReading(cmd *cobra.Command, kind report.Kind, f *readingFlags) error {
	if f.search != "" {
		return printMarkdown(cmd.OutOrStdout(), formatEntries(f.search, catalog.Search(f.search)))
	}
	req, err := f.request(kind)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return generateAndPrint(ctx, cmd, req)
}

func (f *readingFlags) request(kind report.Kind) (pipeline.Request, error) {
	birth, err := f.person.query()
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{
		Kind:           kind,
		Birth:          birth,
		PartnerSign:    f.sign,
		Place:          f.here,
		RelocateTo:     f.to,
		Themes:         f.themes,
		ForecastMonths: f.months,
	}
	for _, b := range f.bodies {
		req.Bodies = append(req.Bodies, model.Body(strings.TrimSpace(b)))
	}
	if f.at != "" {
		if req.At, err = time.Parse(profile.BornLayout, f.at); err != nil {
			return pipeline.Request{}, fmt.Errorf("--at %q must look like %q", f.at, profile.BornLayout)
		}
	}
	if !f.partner.empty() {
		partner, err := f.partner.query()
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("partner: %w", err)
		}
		req.Partner = &partner
	}
	return req, nil
}

func generateAndPrint(ctx context.Context, cmd *cobra.Command, req pipeline.Request) error {
	reading, err := service.Generate(ctx, req)
	if err != nil {
		return err
	}
	return printMarkdown(cmd.OutOrStdout(), reading.Text)
}

func formatEntries(q string, entries []ephemeris.Entry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No catalogue bodies match %q.", q)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Catalogue matches for %q**\n\n", q))
	for _, e := range entries {
		if e.Number > 0 {
			b.WriteString(fmt.Sprintf("• %s (%d), %s\n", e.Name, e.Number, e.Kind))
		} else {
			b.WriteString(fmt.Sprintf("• %s, %s\n", e.Name, e.Kind))
		}
	}
	return b.String()
}

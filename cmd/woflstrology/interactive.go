package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"woflstrology/internal/pipeline"
	"woflstrology/internal/report"
)

// prompter asks questions on out and reads one line answers from in.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) chooseKind() (report.Kind, error) {
	fmt.Fprintln(p.out, "Which reading would you like?")
	for i, k := range report.Kinds {
		fmt.Fprintf(p.out, "  %2d. %s\n", i+1, k)
	}
	for {
		answer, err := p.ask("Choice [1]")
		if err != nil {
			return "", err
		}
		if answer == "" {
			return report.Daily, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(report.Kinds) {
			return report.Kinds[n-1], nil
		}
		if k, err := report.ParseKind(answer); err == nil {
			return k, nil
		}
		fmt.Fprintln(p.out, "Please pick a number from the list.")
	}
}

// person fills pf from answers. A saved profile name short-circuits the
// rest; a blank place asks for coordinates instead.
func (p *prompter) person(pf *personFlags, who string, required bool) error {
	if len(profiles.List()) > 0 {
		name, err := p.ask(fmt.Sprintf("Saved profile for %s (blank to enter details)", who))
		if err != nil {
			return err
		}
		if name != "" {
			if _, err := profiles.Get(name); err != nil {
				return err
			}
			pf.profile = name
			return nil
		}
	}
	hint := "YYYY-MM-DD HH:MM"
	if !required {
		hint += ", blank to skip"
	}
	var err error
	if pf.born, err = p.ask(fmt.Sprintf("Birth date and time of %s (%s)", who, hint)); err != nil {
		return err
	}
	if pf.born == "" {
		return nil
	}
	if pf.name, err = p.ask("Name"); err != nil {
		return err
	}
	if pf.place, err = p.ask("Birthplace (city, country)"); err != nil {
		return err
	}
	if pf.place == "" {
		pf.coords, err = p.ask("Birth coordinates, e.g. 51.5N 0.12W (blank for the default location)")
	}
	return err
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	p := &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	f := &readingFlags{}

	kind, err := p.chooseKind()
	if err == nil {
		err = p.person(&f.person, "you", kind != report.Daily)
	}
	if err == nil {
		err = p.kindQuestions(kind, f)
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	req, err := f.request(kind)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out)
	return generateAndPrint(cmd.Context(), cmd, req)
}

func (p *prompter) kindQuestions(kind report.Kind, f *readingFlags) error {
	var err error
	switch kind {
	case report.Daily, report.Transits:
		f.here, err = p.ask("Where are you today (blank for your birthplace)")
	case report.Compatibility:
		f.sign, err = p.ask("Partner's sun sign")
	case report.Synastry:
		err = p.person(&f.partner, "your partner", true)
	case report.Relocation:
		f.to, err = p.ask("Place to relocate to")
	case report.Asteroids:
		var theme string
		if theme, err = p.ask("Asteroid theme to scan (" + strings.Join(pipeline.ThemeKeys(), ", ") + ", all; blank to skip)"); err == nil && theme != "" {
			f.themes = []string{theme}
		}
	case report.Forecast:
		var months string
		if months, err = p.ask("Months ahead [6]"); err == nil && months != "" {
			f.months, err = strconv.Atoi(months)
		}
	}
	return err
}

package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woflstrology/internal/ephemeris"
	"woflstrology/internal/model"
	"woflstrology/internal/report"
)

func newPrompter(input string) (*prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &prompter{in: bufio.NewScanner(strings.NewReader(input)), out: out}, out
}

func TestPrompter_ChooseKind(t *testing.T) {
	tests := []struct {
		input string
		want  report.Kind
	}{
		{"\n", report.Daily},
		{"2\n", report.Natal},
		{"compat\n", report.Compatibility},
		{"99\nsynastry\n", report.Synastry},
	}
	for _, tt := range tests {
		p, _ := newPrompter(tt.input)
		got, err := p.chooseKind()
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	p, out := newPrompter("")
	_, err := p.chooseKind()
	assert.Error(t, err)
	assert.Contains(t, out.String(), "solar-return")
}

func TestPrompter_KindQuestions(t *testing.T) {
	p, _ := newPrompter("Tokyo\n")
	f := &readingFlags{}
	require.NoError(t, p.kindQuestions(report.Relocation, f))
	assert.Equal(t, "Tokyo", f.to)

	p, _ = newPrompter("3\n")
	require.NoError(t, p.kindQuestions(report.Forecast, f))
	assert.Equal(t, 3, f.months)

	p, _ = newPrompter("Libra\n")
	require.NoError(t, p.kindQuestions(report.Compatibility, f))
	assert.Equal(t, "Libra", f.sign)

	p, _ = newPrompter("healing\n")
	require.NoError(t, p.kindQuestions(report.Asteroids, f))
	assert.Equal(t, []string{"healing"}, f.themes)
}

func TestReadingCommands_ThemeFlag(t *testing.T) {
	for _, cmd := range readingCommands() {
		flag := cmd.Flags().Lookup("theme")
		if cmd.Name() != "asteroids" {
			assert.Nil(t, flag, cmd.Name())
			continue
		}
		require.NotNil(t, flag)
		assert.Contains(t, flag.Usage, "love, career, spiritual, healing, creative")
		require.NoError(t, cmd.Flags().Parse([]string{"--theme", "love,creative"}))
	}

	req, err := (&readingFlags{person: personFlags{born: "1990-08-01 14:30"}, themes: []string{"love", "creative"}}).request(report.Asteroids)
	require.NoError(t, err)
	assert.Equal(t, []string{"love", "creative"}, req.Themes)
}

func TestEmbeddedZoneData(t *testing.T) {
	for _, name := range []string{"Europe/London", "Asia/Kolkata", "Australia/Lord_Howe"} {
		loc, err := time.LoadLocation(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, model.Location{TimeZone: name}.Zone().String())
		assert.Equal(t, name, loc.String())
	}
}

func TestReadingFlags_Request(t *testing.T) {
	f := &readingFlags{
		person:  personFlags{name: "Ada", born: "1990-08-01 14:30", coords: "51.5N 0.12W"},
		partner: personFlags{born: "1991-01-02 03:04", place: "Paris"},
		at:      "2024-03-01 09:00",
		bodies:  []string{" Eris", "Hygiea"},
		to:      "Tokyo",
	}
	req, err := f.request(report.Synastry)
	require.NoError(t, err)

	assert.Equal(t, report.Synastry, req.Kind)
	assert.Equal(t, time.Date(1990, 8, 1, 14, 30, 0, 0, time.UTC), req.Birth.Time)
	require.NotNil(t, req.Birth.Coordinates)
	assert.InDelta(t, -0.12, req.Birth.Coordinates.Lon, 1e-9)
	require.NotNil(t, req.Partner)
	assert.Equal(t, "Paris", req.Partner.Place)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), req.At)
	assert.Equal(t, []model.Body{"Eris", "Hygiea"}, req.Bodies)
	assert.Equal(t, "Tokyo", req.RelocateTo)
}

func TestReadingFlags_RequestErrors(t *testing.T) {
	_, err := (&readingFlags{person: personFlags{born: "1 Aug 1990"}}).request(report.Natal)
	assert.ErrorContains(t, err, "must look like")

	_, err = (&readingFlags{person: personFlags{born: "1990-08-01 14:30", coords: "north"}}).request(report.Natal)
	assert.ErrorContains(t, err, "cannot read coordinates")

	_, err = (&readingFlags{at: "tomorrow"}).request(report.Daily)
	assert.ErrorContains(t, err, "--at")

	req, err := (&readingFlags{}).request(report.Daily)
	require.NoError(t, err)
	assert.True(t, req.Birth.Time.IsZero())
	assert.Nil(t, req.Partner)
}

func TestFormatEntries(t *testing.T) {
	assert.Equal(t, `No catalogue bodies match "zz".`, formatEntries("zz", nil))

	got := formatEntries("ce", []ephemeris.Entry{
		{Name: "Ceres", Number: 1, Kind: model.KindAsteroid},
		{Name: "Alcyone", Kind: model.KindFixedStar},
	})
	assert.Contains(t, got, "• Ceres (1), asteroid")
	assert.Contains(t, got, "• Alcyone, fixed_star")
}

func TestPrintMarkdown_PlainWhenNotStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMarkdown(&buf, "**hi**"))
	assert.Equal(t, "**hi**\n", buf.String())
}

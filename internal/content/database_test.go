package content

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "sun_sign_themes": {"Aries": ["bold", "brave", "first"], "Taurus": "steady"},
  "natal_chart": {
    "aspect_interpretations": {"Sun_Moon": {"trine": "ease"}},
    "lunar_phases": {"new_moon": {"phase": "New Moon", "keywords": "seeding"}},
    "empty": "  "
  },
  "general_wisdom": ["a", "b", "c", "d", "e"],
  "count": 3
}`

func parseSample(t *testing.T) *Database {
	t.Helper()
	db, err := Parse([]byte(sample))
	require.NoError(t, err)
	return db
}

func TestParse_Flattens(t *testing.T) {
	db := parseSample(t)

	vals, err := db.Values(SunThemes, "Aries")
	require.NoError(t, err)
	assert.Equal(t, []string{"bold", "brave", "first"}, vals)

	s, err := db.Lookup(SunThemes, "Taurus")
	require.NoError(t, err)
	assert.Equal(t, "steady", s)

	s, err = db.Lookup(AspectMeanings, "Sun_Moon.trine")
	require.NoError(t, err)
	assert.Equal(t, "ease", s)

	s, err = db.Lookup("count", "")
	require.NoError(t, err)
	assert.Equal(t, "3", s)

	assert.False(t, db.Has("natal_chart", "empty"))
	assert.Equal(t, []string{"keywords", "phase"}, db.Keys(LunarPhases+".new_moon"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"a": {}}`))
	assert.Error(t, err)
}

func TestLookup_Missing(t *testing.T) {
	db := parseSample(t)

	_, err := db.Lookup(SunThemes, "Ophiuchus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContentMissing))
	assert.Contains(t, err.Error(), "sun_sign_themes.Ophiuchus")

	_, err = db.Pick(SunThemes, "Ophiuchus", "seed")
	assert.ErrorIs(t, err, ErrContentMissing)

	_, err = db.Sample(SunThemes, "Ophiuchus", "seed", 2)
	assert.ErrorIs(t, err, ErrContentMissing)
}

func TestLookup_Idempotent(t *testing.T) {
	db := parseSample(t)
	first, err := db.Lookup(SunThemes, "Aries")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := db.Lookup(SunThemes, "Aries")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPick_Deterministic(t *testing.T) {
	db := parseSample(t)
	a, err := db.Pick(GeneralWisdom, "", "2024-03-20")
	require.NoError(t, err)
	b, err := db.Pick(GeneralWisdom, "", "2024-03-20")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, []string{"a", "b", "c", "d", "e"}, a)
}

func TestSample_Distinct(t *testing.T) {
	db := parseSample(t)
	got, err := db.Sample(GeneralWisdom, "", "seed", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}

	again, err := db.Sample(GeneralWisdom, "", "seed", 3)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	all, err := db.Sample(GeneralWisdom, "", "seed", 99)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMissHook(t *testing.T) {
	var misses []string
	db := parseSample(t).WithMissHook(func(category, key string) {
		misses = append(misses, Path(category, key))
	})

	assert.Equal(t, "steady", db.LookupOr(SunThemes, "Taurus", Neutral))
	assert.Equal(t, Neutral, db.LookupOr(SunThemes, "Ophiuchus", Neutral))
	assert.Equal(t, "fallback", db.PickOr(MoonInfluences, "Leo", "x", "fallback"))
	assert.Equal(t, []string{"sun_sign_themes.Ophiuchus", "moon_sign_influences.Leo"}, misses)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	db, err := Load(path)
	require.NoError(t, err)
	assert.True(t, db.Has(SunThemes, "Aries"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefault_CoversRenderer(t *testing.T) {
	db, err := Load("")
	require.NoError(t, err)
	same, err := Default()
	require.NoError(t, err)
	assert.Same(t, db, same)

	signs := []string{"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
		"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces"}
	for _, s := range signs {
		assert.True(t, db.Has(SunThemes, s), s)
		assert.True(t, db.Has(MoonInfluences, s), s)
		assert.True(t, db.Has(RisingSign, s), s)
		assert.True(t, db.Has(PlanetInSign, "Venus_"+s), s)
		assert.True(t, db.Has(Chiron+".chiron_in_sign", s), s)
	}
	for _, e := range []string{"Fire", "Earth", "Air", "Water"} {
		assert.True(t, db.Has(ElementDynamics, e+"_Water"), e)
		assert.True(t, db.Has(ElementMeanings, e+".balanced"), e)
	}
	for _, k := range []string{"harmonious", "challenging", "neutral"} {
		assert.True(t, db.Has(CompatAdvice, k), k)
	}
	for h := 1; h <= 12; h++ {
		assert.True(t, db.Has(HouseFocus, strconv.Itoa(h)))
	}
	assert.Len(t, db.Keys(LunarPhases), 8)
	assert.True(t, db.Has(VoidOfCourse, "advice"))
	assert.True(t, db.Has(FixedStars, "stars.Regulus.interpretation"))
}

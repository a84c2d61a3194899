package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woflstrology/internal/model"
)

func TestElementCompatibility(t *testing.T) {
	tests := []struct {
		a, b string
		want Compatibility
	}{
		{"Fire", "Fire", Harmonious},
		{"Fire", "Air", Harmonious},
		{"Water", "Earth", Harmonious},
		{"Fire", "Water", Challenging},
		{"Air", "Earth", Challenging},
		{"Fire", "Earth", Neutral},
		{"Air", "Water", Neutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ElementCompatibility(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestInteraspects_TightestFirst(t *testing.T) {
	a := &model.Chart{Bodies: []model.BodyPosition{
		{Body: model.Sun, Longitude: 10},
		{Body: model.Venus, Longitude: 105},
	}}
	b := &model.Chart{Bodies: []model.BodyPosition{
		{Body: model.Moon, Longitude: 13, House: 4},
		{Body: model.Mars, Longitude: 190.5, House: 10},
	}}

	got := Interaspects(DefaultAspects, a, b)
	require.Len(t, got, 4)

	assert.Equal(t, model.Sun, got[0].From)
	assert.Equal(t, model.Mars, got[0].To)
	assert.Equal(t, model.Opposition, got[0].Type)
	assert.InDelta(t, 0.5, got[0].Orb, 1e-9)
	assert.Equal(t, 10, got[0].House)

	assert.Equal(t, model.Venus, got[1].From)
	assert.Equal(t, model.Square, got[1].Type)
	assert.InDelta(t, 2, got[1].Orb, 1e-9)

	assert.Equal(t, model.Conjunction, got[2].Type)
	assert.Equal(t, 4, got[2].House)

	assert.Equal(t, model.Venus, got[3].From)
	assert.Equal(t, model.Mars, got[3].To)
	assert.InDelta(t, 4.5, got[3].Orb, 1e-9)
}

func TestTransits_ExactTable(t *testing.T) {
	current := &model.Chart{Bodies: []model.BodyPosition{{Body: model.Saturn, Longitude: 131}}}
	natal := &model.Chart{Bodies: []model.BodyPosition{
		{Body: model.Sun, Longitude: 130},
		{Body: model.Moon, Longitude: 40},
	}}

	got := Transits(ExactAspects, current, natal)
	require.Len(t, got, 2)
	assert.Equal(t, model.Conjunction, got[0].Type)
	assert.Equal(t, model.Sun, got[0].To)
	assert.Equal(t, model.Square, got[1].Type)
	assert.Equal(t, model.Moon, got[1].To)
}

func TestIsKeySynastryPair(t *testing.T) {
	assert.True(t, IsKeySynastryPair(model.Venus, model.Mars))
	assert.True(t, IsKeySynastryPair(model.Mars, model.Venus))
	assert.True(t, IsKeySynastryPair(model.Moon, model.Sun))
	assert.False(t, IsKeySynastryPair(model.Saturn, model.Pluto))
}

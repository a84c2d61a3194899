package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woflstrology/internal/model"
)

func TestElementBalance(t *testing.T) {
	bodies := []model.BodyPosition{
		{Body: model.Sun, Sign: "Aries"},
		{Body: model.Moon, Sign: "Leo"},
		{Body: model.Mercury, Sign: "Sagittarius"},
		{Body: model.Venus, Sign: "Taurus"},
		{Body: model.Mars, Sign: "Gemini"},
	}
	shares := ElementBalance(bodies)
	require.Len(t, shares, 4)

	assert.Equal(t, "Fire", shares[0].Name)
	assert.Equal(t, 3, shares[0].Count)
	assert.InDelta(t, 60, shares[0].Percentage, 1e-9)
	assert.Equal(t, LevelHigh, shares[0].Level)

	assert.Equal(t, LevelBalanced, shares[1].Level) // Earth 20%
	assert.Equal(t, LevelBalanced, shares[2].Level) // Air 20%
	assert.Equal(t, LevelLow, shares[3].Level)      // Water 0%
}

func TestModalityBalance_Empty(t *testing.T) {
	shares := ModalityBalance(nil)
	require.Len(t, shares, 3)
	for _, s := range shares {
		assert.Zero(t, s.Count)
		assert.Equal(t, LevelLow, s.Level)
	}
}

func TestDominantPlanet(t *testing.T) {
	c := &model.Chart{
		Angles: model.Angles{Ascendant: 15}, // Aries rising
		Bodies: []model.BodyPosition{
			{Body: model.Sun, Sign: "Leo", House: 5},
			{Body: model.Mars, Sign: "Aries", House: 1},
			{Body: model.Venus, Sign: "Libra", House: 7},
		},
		Aspects: []model.Aspect{{A: model.Sun, B: model.Mars, Type: model.Trine}},
	}
	body, score := DominantPlanet(c)
	assert.Equal(t, model.Mars, body)
	assert.Equal(t, 5+3+4+1, score)
}

package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woflstrology/internal/model"
)

func TestParseHouseSystem(t *testing.T) {
	tests := []struct {
		in   string
		want HouseSystem
		err  bool
	}{
		{"", HouseEqual, false},
		{"Equal", HouseEqual, false},
		{"whole_sign", HouseWholeSign, false},
		{"porphyry", HousePorphyry, false},
		{"placidus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseHouseSystem(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCusps_Equal(t *testing.T) {
	cusps := Cusps(HouseEqual, model.Angles{Ascendant: 345})
	assert.Equal(t, 345.0, cusps[0])
	assert.Equal(t, 15.0, cusps[1])
	assert.Equal(t, 315.0, cusps[11])
}

func TestCusps_WholeSign(t *testing.T) {
	cusps := Cusps(HouseWholeSign, model.Angles{Ascendant: 47})
	assert.Equal(t, 30.0, cusps[0])
	assert.Equal(t, 60.0, cusps[1])
	assert.Equal(t, 0.0, cusps[11])
}

func TestCusps_Porphyry(t *testing.T) {
	cusps := Cusps(HousePorphyry, model.Angles{Ascendant: 0, Midheaven: 270})
	// MC at 270 puts the IC at 90, so the first quadrant is trisected into 30° houses.
	assert.InDelta(t, 0, cusps[0], 1e-9)
	assert.InDelta(t, 30, cusps[1], 1e-9)
	assert.InDelta(t, 90, cusps[3], 1e-9)
	assert.InDelta(t, 180, cusps[6], 1e-9)
	assert.InDelta(t, 270, cusps[9], 1e-9)
}

func TestHouseOf(t *testing.T) {
	cusps := Cusps(HouseEqual, model.Angles{Ascendant: 350})
	tests := []struct {
		lon   float64
		house int
	}{
		{350, 1},
		{359, 1},
		{5, 1},
		{20, 2},
		{340, 12},
		{170, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.house, HouseOf(tt.lon, cusps), "lon %.1f", tt.lon)
	}
}

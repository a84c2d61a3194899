package ephemeris

import (
	"fmt"
	"time"

	"woflstrology/internal/model"
)

// MockEngine returns controllable fixed data for development and testing.
// Longitudes advance by Speed days since Epoch when Epoch is set.
type MockEngine struct {
	Positions map[model.Body]model.Position
	Fixed     model.Angles
	Epoch     time.Time
	Err       error // returned for every body when set
}

// NewMockEngine builds a mock from longitude and speed pairs.
func NewMockEngine(angles model.Angles, lonSpeed map[model.Body][2]float64) *MockEngine {
	m := &MockEngine{Positions: make(map[model.Body]model.Position, len(lonSpeed)), Fixed: angles}
	for b, ls := range lonSpeed {
		m.Positions[b] = model.Position{Body: b, Longitude: ls[0], Speed: ls[1]}
	}
	return m
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Position(t time.Time, _ model.Coordinates, body model.Body) (model.Position, error) {
	if m.Err != nil {
		return model.Position{}, m.Err
	}
	p, ok := m.Positions[body]
	if !ok {
		return model.Position{}, fmt.Errorf("%s: %w", body, ErrUnsupportedBody)
	}
	if !m.Epoch.IsZero() {
		days := t.Sub(m.Epoch).Hours() / 24
		p.Longitude = normDeg(p.Longitude + p.Speed*days)
	}
	return p, nil
}

func (m *MockEngine) Angles(time.Time, model.Coordinates) (model.Angles, error) {
	if m.Err != nil {
		return model.Angles{}, m.Err
	}
	return m.Fixed, nil
}

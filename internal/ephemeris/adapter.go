package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"woflstrology/internal/model"
)

// Adapter asks the engine first and the supplementary sources after it.
type Adapter struct {
	Engine      Engine
	Supplements []Source
	Logger      *zap.Logger
}

// NewAdapter creates an Adapter.
func NewAdapter(engine Engine, logger *zap.Logger, supplements ...Source) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{Engine: engine, Supplements: supplements, Logger: logger}
}

// Result is the outcome of a batch position request.
type Result struct {
	Positions   []model.Position // in request order
	Unavailable []model.Body
}

// Positions places every requested body it can. Bodies nobody can serve are
// logged and listed in Unavailable rather than failing the batch.
func (a *Adapter) Positions(t time.Time, c model.Coordinates, bodies []model.Body) Result {
	var res Result
	seen := make(map[model.Body]bool, len(bodies))
	for _, b := range bodies {
		if seen[b] {
			continue
		}
		seen[b] = true
		p, err := a.Position(t, c, b)
		if err != nil {
			a.Logger.Warn("body omitted from chart", zap.String("body", string(b)), zap.Error(err))
			res.Unavailable = append(res.Unavailable, b)
			continue
		}
		res.Positions = append(res.Positions, p)
	}
	return res
}

// Position resolves one body. The error wraps ErrEphemerisUnavailable when no
// source could place it.
func (a *Adapter) Position(t time.Time, c model.Coordinates, body model.Body) (model.Position, error) {
	sources := make([]Source, 0, 1+len(a.Supplements))
	if a.Engine != nil {
		sources = append(sources, a.Engine)
	}
	sources = append(sources, a.Supplements...)

	var last error
	for _, s := range sources {
		p, err := s.Position(t, c, body)
		if err == nil {
			p.Longitude = normDeg(p.Longitude)
			return p, nil
		}
		if !errors.Is(err, ErrUnsupportedBody) {
			a.Logger.Debug("source failed", zap.String("source", s.Name()), zap.String("body", string(body)), zap.Error(err))
			last = err
		}
	}
	if last != nil {
		return model.Position{}, fmt.Errorf("%s: %w: %v", body, ErrEphemerisUnavailable, last)
	}
	return model.Position{}, fmt.Errorf("%s: %w", body, ErrEphemerisUnavailable)
}

// Angles delegates to the engine.
func (a *Adapter) Angles(t time.Time, c model.Coordinates) (model.Angles, error) {
	if a.Engine == nil {
		return model.Angles{}, fmt.Errorf("angles: %w", ErrEphemerisUnavailable)
	}
	return a.Engine.Angles(t, c)
}

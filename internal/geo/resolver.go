// Package geo resolves place names and coordinate strings into locations.
package geo

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"woflstrology/internal/model"
)

var (
	// ErrLocationNotFound means the geocoder had no match for the query.
	ErrLocationNotFound = errors.New("location not found")
	// ErrEmptyQuery means there was nothing to resolve.
	ErrEmptyQuery = errors.New("empty location query")
)

// Resolver turns a free-text place into a Location.
type Resolver interface {
	Resolve(ctx context.Context, query string) (model.Location, error)
	Name() string
}

// Fallback resolves through Resolver and substitutes Default on any failure.
type Fallback struct {
	Resolver Resolver
	Default  model.Location
	Logger   *zap.Logger
}

// NewFallback creates a Fallback. A nil resolver always yields the default.
func NewFallback(r Resolver, def model.Location, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{Resolver: r, Default: def, Logger: logger}
}

// ResolveOrDefault never fails. The returned location has Fallback set when
// the default was used, and the second value carries the reason.
func (f *Fallback) ResolveOrDefault(ctx context.Context, query string) (model.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return f.fallback(query, ErrEmptyQuery), ErrEmptyQuery
	}
	if f.Resolver == nil {
		return f.fallback(query, ErrLocationNotFound), ErrLocationNotFound
	}
	loc, err := f.Resolver.Resolve(ctx, query)
	if err != nil {
		f.Logger.Warn("location lookup failed, using default",
			zap.String("query", query),
			zap.String("resolver", f.Resolver.Name()),
			zap.String("default", f.Default.Name),
			zap.Error(err))
		return f.fallback(query, err), err
	}
	return loc, nil
}

func (f *Fallback) fallback(query string, reason error) model.Location {
	loc := f.Default
	loc.Fallback = true
	if loc.Source == "" {
		loc.Source = "default"
	}
	if query != "" {
		loc.Query = query
	}
	f.Logger.Debug("default location selected", zap.String("reason", reason.Error()))
	return loc
}

// Package profile keeps saved birth profiles in a JSON state file.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"woflstrology/internal/model"
	"woflstrology/internal/pipeline"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

// BornLayout is the wall clock format profiles store birth times in.
const BornLayout = "2006-01-02 15:04"

// Profile is a named person's birth data.
type Profile struct {
	Name       string          `json:"name" validate:"required"`
	Born       string          `json:"born" validate:"required"`
	Place      string          `json:"place,omitempty"`
	Location   *model.Location `json:"location,omitempty"`
	Subscribed bool            `json:"subscribed"`
	ChatID     string          `json:"chat_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BirthTime parses Born as a wall clock reading.
func (p Profile) BirthTime() (time.Time, error) {
	t, err := time.Parse(BornLayout, strings.TrimSpace(p.Born))
	if err != nil {
		return time.Time{}, fmt.Errorf("profile %s: birth time must look like %q", p.Name, BornLayout)
	}
	return t, nil
}

// Query converts the profile into pipeline input. A stored location skips
// geocoding.
func (p Profile) Query() (pipeline.BirthQuery, error) {
	t, err := p.BirthTime()
	if err != nil {
		return pipeline.BirthQuery{}, err
	}
	return pipeline.BirthQuery{Name: p.Name, Time: t, Place: p.Place, Location: p.Location}, nil
}

// Manager handles profile operations with concurrency safety. Every
// mutation is written to disk before it returns.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	logger   *zap.Logger
}

// NewManager creates a Manager, loading state from disk.
func NewManager(filePath string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return &Manager{state: state, filePath: filePath, logger: logger}, nil
}

func (m *Manager) find(name string) int {
	for i, p := range m.state.Profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Add stores a new profile. Names are unique ignoring case.
func (m *Manager) Add(p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := model.Validate(p); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if _, err := p.BirthTime(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.state.Profiles = append(m.state.Profiles, p)
	if err := m.save(); err != nil {
		m.state.Profiles = m.state.Profiles[:len(m.state.Profiles)-1]
		return fmt.Errorf("save profiles: %w", err)
	}
	m.logger.Info("profile added", zap.String("name", p.Name))
	return nil
}

// Get returns a copy of the named profile.
func (m *Manager) Get(name string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(name)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return m.state.Profiles[i], nil
}

// List returns all profiles sorted by name.
func (m *Manager) List() []Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Profile, len(m.state.Profiles))
	copy(out, m.state.Profiles)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

// Subscribed returns the profiles that receive scheduled readings.
func (m *Manager) Subscribed() []Profile {
	var out []Profile
	for _, p := range m.List() {
		if p.Subscribed {
			out = append(out, p)
		}
	}
	return out
}

// SetLocation caches a resolved birthplace so later readings skip the geocoder.
func (m *Manager) SetLocation(name string, loc model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	m.state.Profiles[i].Location = &loc
	if err := m.save(); err != nil {
		m.logger.Error("failed to save profile state", zap.Error(err))
		return err
	}
	return nil
}

// Remove deletes the named profile.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	m.state.Profiles = append(m.state.Profiles[:i], m.state.Profiles[i+1:]...)
	if err := m.save(); err != nil {
		m.logger.Error("failed to save profile state", zap.Error(err))
		return err
	}
	m.logger.Info("profile removed", zap.String("name", name))
	return nil
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

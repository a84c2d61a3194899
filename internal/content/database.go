package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

//go:embed horoscope_database.json
var embedded []byte

var ErrContentMissing = errors.New("content missing")

// Neutral replaces any entry the database does not carry.
const Neutral = "The stars keep their counsel here; trust your own judgement."

// Categories read by the report renderer.
const (
	SunThemes           = "sun_sign_themes"
	MoonInfluences      = "moon_sign_influences"
	ElementCombos       = "element_combinations"
	HouseFocus          = "house_daily_focus"
	GeneralWisdom       = "general_wisdom"
	ElementDynamics     = "compatibility.element_dynamics"
	RelationshipLore    = "compatibility.universal_relationship_patterns"
	CompatAdvice        = "compatibility.compatibility_advice"
	RelationshipTransit = "compatibility.transit_influences_on_relationships"
	SignPairs           = "compatibility.sign_pairs"
	RisingSign          = "natal_chart.rising_sign"
	PlanetInSign        = "natal_chart.planet_in_sign"
	NatalRetrograde     = "natal_chart.natal_retrograde"
	AspectMeanings      = "natal_chart.aspect_interpretations"
	ChartPatterns       = "natal_chart.chart_patterns"
	ElementMeanings     = "natal_chart.elements"
	ModalityMeanings    = "natal_chart.modalities"
	DominantPlanet      = "natal_chart.dominant_planet"
	PlanetaryHours      = "natal_chart.planetary_hours"
	LunarPhases         = "natal_chart.lunar_phases"
	Transits            = "natal_chart.transits"
	Chiron              = "natal_chart.chiron"
	FixedStars          = "natal_chart.fixed_stars"
	SabianSymbols       = "natal_chart.sabian_symbols"
	Asteroids           = "natal_chart.asteroids"
	SolarReturn         = "natal_chart.solar_return"
	Progressions        = "natal_chart.progressions"
	VoidOfCourse        = "natal_chart.void_of_course_moon"
	RetrogradeElement   = "natal_chart.retrograde.by_element"
	RetrogradeHouse     = "natal_chart.retrograde.by_house"
)

// Database is the flattened advice index. Nested objects become dotted
// paths; every leaf holds one or more strings. It is never mutated after
// Parse, so concurrent reads need no locking.
type Database struct {
	entries map[string][]string
	onMiss  func(category, key string)
}

var (
	defaultOnce sync.Once
	defaultDB   *Database
	defaultErr  error
)

// Default returns the embedded database, parsed once per process.
func Default() (*Database, error) {
	defaultOnce.Do(func() {
		defaultDB, defaultErr = Parse(embedded)
	})
	return defaultDB, defaultErr
}

// Load reads a database file, or returns the embedded one when path is empty.
func Load(path string) (*Database, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content database: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Database, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse content database: %w", err)
	}
	db := &Database{entries: make(map[string][]string)}
	for k, v := range root {
		db.flatten(k, v)
	}
	if len(db.entries) == 0 {
		return nil, errors.New("content database is empty")
	}
	return db, nil
}

func (d *Database) flatten(path string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			d.flatten(path+"."+k, child)
		}
	case []any:
		var texts []string
		for _, item := range val {
			if s, ok := leafText(item); ok {
				texts = append(texts, s)
			}
		}
		if len(texts) > 0 {
			d.entries[path] = texts
		}
	default:
		if s, ok := leafText(val); ok {
			d.entries[path] = []string{s}
		}
	}
}

func leafText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return "", false
		}
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	}
	return "", false
}

// WithMissHook returns a view of the same entries that reports every
// fallback substitution made by LookupOr and PickOr.
func (d *Database) WithMissHook(fn func(category, key string)) *Database {
	return &Database{entries: d.entries, onMiss: fn}
}

func Path(category, key string) string {
	switch {
	case category == "":
		return key
	case key == "":
		return category
	}
	return category + "." + key
}

func (d *Database) Len() int { return len(d.entries) }

func (d *Database) Has(category, key string) bool {
	_, ok := d.entries[Path(category, key)]
	return ok
}

func (d *Database) Values(category, key string) ([]string, error) {
	vals, ok := d.entries[Path(category, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentMissing, Path(category, key))
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out, nil
}

// Lookup returns the first text stored under category.key.
func (d *Database) Lookup(category, key string) (string, error) {
	vals, ok := d.entries[Path(category, key)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContentMissing, Path(category, key))
	}
	return vals[0], nil
}

// Pick chooses one text deterministically from category.key. The same
// path and seed always give the same entry.
func (d *Database) Pick(category, key, seed string) (string, error) {
	path := Path(category, key)
	vals, ok := d.entries[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContentMissing, path)
	}
	return vals[xxhash.Sum64String(path+"|"+seed)%uint64(len(vals))], nil
}

// Sample returns up to n distinct texts, ordered by a seeded hash.
func (d *Database) Sample(category, key, seed string, n int) ([]string, error) {
	path := Path(category, key)
	vals, ok := d.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentMissing, path)
	}
	idx := make([]int, len(vals))
	hashes := make([]uint64, len(vals))
	for i := range vals {
		idx[i] = i
		hashes[i] = xxhash.Sum64String(path + "|" + seed + "|" + strconv.Itoa(i))
	}
	sort.SliceStable(idx, func(a, b int) bool { return hashes[idx[a]] < hashes[idx[b]] })
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, vals[i])
	}
	return out, nil
}

func (d *Database) LookupOr(category, key, fallback string) string {
	s, err := d.Lookup(category, key)
	if err != nil {
		d.miss(category, key)
		return fallback
	}
	return s
}

func (d *Database) PickOr(category, key, seed, fallback string) string {
	s, err := d.Pick(category, key, seed)
	if err != nil {
		d.miss(category, key)
		return fallback
	}
	return s
}

// Keys lists the immediate child names under category, sorted.
func (d *Database) Keys(category string) []string {
	prefix := category + "."
	seen := make(map[string]struct{})
	for path := range d.entries {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if i := strings.Index(rest, "."); i >= 0 {
			rest = rest[:i]
		}
		seen[rest] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Database) miss(category, key string) {
	if d.onMiss != nil {
		d.onMiss(category, key)
	}
}

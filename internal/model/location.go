package model

import "time"

// Coordinates is a WGS 84 point.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" yaml:"lon" validate:"gte=-180,lte=180"`
}

// Location is a resolved place. It is not modified after resolution.
type Location struct {
	Query       string      `json:"query"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	TimeZone    string      `json:"time_zone"`
	Offset      int         `json:"offset,omitempty"` // seconds east of UTC, for zones without an IANA name
	Source      string      `json:"source,omitempty"` // "nominatim", "manual", "default"
	Fallback    bool        `json:"fallback,omitempty"`
}

// Zone returns the location's time zone. Names that are not in the tz
// database become a fixed zone at Offset; no name at all means UTC.
func (l Location) Zone() *time.Location {
	if l.TimeZone == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(l.TimeZone); err == nil {
		return loc
	}
	if l.Offset != 0 {
		return time.FixedZone(l.TimeZone, l.Offset)
	}
	return time.UTC
}

// BirthData is a moment and place a chart is cast for.
type BirthData struct {
	Name     string    `json:"name,omitempty"`
	Time     time.Time `json:"time" validate:"required"`
	Location Location  `json:"location"`
}

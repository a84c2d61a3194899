package geo

import (
	"fmt"
	"math"

	"github.com/bradfitz/latlong"

	"woflstrology/internal/model"
)

// ZoneFinder maps coordinates to a time zone.
type ZoneFinder struct{}

// Zone returns an IANA zone name for c. Points with no zone polygon (open
// sea, poles) get a nautical offset of round(lon/15) hours named like UTC+02.
func (ZoneFinder) Zone(c model.Coordinates) (name string, offset int) {
	if name := latlong.LookupZoneName(c.Lat, c.Lon); name != "" {
		return name, 0
	}
	return nauticalZone(c.Lon)
}

func nauticalZone(lon float64) (string, int) {
	hours := int(math.Round(lon / 15))
	return fmt.Sprintf("UTC%+03d", hours), hours * 3600
}

// Apply fills in the zone fields of loc.
func (z ZoneFinder) Apply(loc model.Location) model.Location {
	loc.TimeZone, loc.Offset = z.Zone(loc.Coordinates)
	return loc
}

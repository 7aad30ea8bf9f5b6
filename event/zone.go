package event

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone names from tzf must load on hosts without zoneinfo

	"github.com/ringsaturn/tzf"
)

// FallbackZone is used when an event's coordinates resolve to no zone.
const FallbackZone = "America/New_York"

// ZoneResolver finds the time zone of a coordinate.
type ZoneResolver interface {
	Zone(lat, lng float64) (*time.Location, error)
}

// TZFResolver resolves zones from the tzf polygon data set.
type TZFResolver struct {
	finder tzf.F
}

// NewTZFResolver loads the default tzf data set.
func NewTZFResolver() (*TZFResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("event: load time zone data: %w", err)
	}
	return &TZFResolver{finder: finder}, nil
}

// Zone implements ZoneResolver.
func (r *TZFResolver) Zone(lat, lng float64) (*time.Location, error) {
	name := r.finder.GetTimezoneName(lng, lat)
	if name == "" {
		return nil, fmt.Errorf("event: no time zone at %f,%f", lat, lng)
	}
	return time.LoadLocation(name)
}

// FixedZone resolves every coordinate to one location.
type FixedZone struct {
	Location *time.Location
}

// Zone implements ZoneResolver.
func (z FixedZone) Zone(_, _ float64) (*time.Location, error) {
	if z.Location == nil {
		return nil, fmt.Errorf("event: no fixed zone configured")
	}
	return z.Location, nil
}

// Package event syncs competition events and hands them to an Updater.
package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/vexsync/internal/entity"
)

// Event is a competition event.
type Event struct {
	entity.Entity `bson:",inline"`

	SKU      string    `json:"sku" bson:"_id"`
	Season   int       `json:"season" bson:"season"`
	Program  int       `json:"program" bson:"program"`
	Name     string    `json:"name" bson:"name"`
	Start    time.Time `json:"start" bson:"start"`
	End      time.Time `json:"end" bson:"end"`
	Lat      float64   `json:"lat" bson:"lat"`
	Lng      float64   `json:"lng" bson:"lng"`
	TimeZone string    `json:"time_zone" bson:"timezone"`
	Email    string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone    string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Webcast  string    `json:"webcast,omitempty" bson:"webcast,omitempty"`
}

// ActiveAt reports whether t falls within the event's dates.
func (e *Event) ActiveAt(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// Changed reports whether next differs from prev in any synced field.
func Changed(prev, next *Event) bool {
	if prev == nil {
		return true
	}
	return prev.Season != next.Season ||
		prev.Program != next.Program ||
		prev.Name != next.Name ||
		!prev.Start.Equal(next.Start) ||
		!prev.End.Equal(next.End) ||
		prev.Lat != next.Lat ||
		prev.Lng != next.Lng ||
		prev.TimeZone != next.TimeZone ||
		prev.Email != next.Email ||
		prev.Phone != next.Phone ||
		prev.Webcast != next.Webcast
}

// Updater merges a transformed event into the catalog.
type Updater interface {
	UpdateEvent(ctx context.Context, e *Event) error
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, e *Event) error

// UpdateEvent calls f.
func (f UpdaterFunc) UpdateEvent(ctx context.Context, e *Event) error { return f(ctx, e) }

const dateLayout = "01/02/2006"

// ParseDateRange parses "MM/DD/YYYY" or "MM/DD/YYYY-MM/DD/YYYY" in loc. The
// end is the last millisecond of the last day.
func ParseDateRange(s string, loc *time.Location) (start, end time.Time, err error) {
	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("event: malformed date range %q", s)
	}

	days := make([]time.Time, len(parts))
	for i, p := range parts {
		d, perr := time.ParseInLocation(dateLayout, strings.TrimSpace(p), loc)
		if perr != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("event: malformed date %q: %w", p, perr)
		}
		days[i] = d
	}

	last := days[len(days)-1]
	end = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	if end.Before(days[0]) {
		return time.Time{}, time.Time{}, fmt.Errorf("event: date range %q ends before it starts", s)
	}
	return days[0], end, nil
}

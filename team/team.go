// Package team syncs season team registrations.
package team

import (
	"fmt"

	"github.com/xraph/vexsync/internal/entity"
)

// Grade is a competition grade level. The zero value means unknown.
type Grade string

// Grades known to the remote service.
const (
	GradeNone       Grade = ""
	GradeElementary Grade = "Elementary School"
	GradeMiddle     Grade = "Middle School"
	GradeHigh       Grade = "High School"
	GradeCollege    Grade = "College"
)

// ParseGrade maps a remote gradeLevel string to a Grade.
func ParseGrade(s string) (Grade, error) {
	switch g := Grade(s); g {
	case GradeElementary, GradeMiddle, GradeHigh, GradeCollege:
		return g, nil
	default:
		return GradeNone, fmt.Errorf("team: unknown grade %q", s)
	}
}

// Key identifies a team registration for one program season.
type Key struct {
	ID      string `json:"id" bson:"id"`
	Program int    `json:"program" bson:"program"`
	Season  int    `json:"season" bson:"season"`
}

// Ref returns the season-independent team reference.
func (k Key) Ref() Ref {
	return Ref{Program: k.Program, ID: k.ID}
}

// Ref identifies a team across seasons. Subscriptions are keyed by Ref.
type Ref struct {
	Program int    `json:"program" bson:"program"`
	ID      string `json:"id" bson:"id"`
}

// Team is one season registration.
type Team struct {
	entity.Entity `bson:",inline"`

	Key     Key     `json:"key" bson:"_id"`
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
	City    string  `json:"city" bson:"city"`
	Region  string  `json:"region,omitempty" bson:"region,omitempty"`
	Name    string  `json:"name,omitempty" bson:"name,omitempty"`
	Robot   string  `json:"robot,omitempty" bson:"robot,omitempty"`
	Country string  `json:"country,omitempty" bson:"country,omitempty"`
	Grade   Grade   `json:"grade,omitempty" bson:"grade,omitempty"`
}

// Changed reports whether writing next over prev changes any synced field.
// A next without grade leaves the stored grade alone.
func Changed(prev, next *Team) bool {
	if prev == nil {
		return true
	}
	if next.Grade != GradeNone && next.Grade != prev.Grade {
		return true
	}
	return prev.Lat != next.Lat ||
		prev.Lng != next.Lng ||
		prev.City != next.City ||
		prev.Region != next.Region ||
		prev.Name != next.Name ||
		prev.Robot != next.Robot
}

// Moved reports whether the location fields the country is derived from changed.
func Moved(prev, next *Team) bool {
	return prev != nil && (prev.City != next.City || prev.Region != next.Region)
}

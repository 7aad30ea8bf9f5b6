// Package skills syncs the season-wide maximum skills rankings.
package skills

import (
	"fmt"
	"time"

	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/team"
)

// RankKey identifies one ranking position.
type RankKey struct {
	Season int        `json:"season" bson:"season"`
	Grade  team.Grade `json:"grade" bson:"grade"`
	Rank   int        `json:"rank" bson:"rank"`
}

// EventRef is the event a maximum score was set at.
type EventRef struct {
	SKU   string    `json:"sku" bson:"sku"`
	Start time.Time `json:"start" bson:"start"`
}

// Record is one ranking position of a season grade.
type Record struct {
	entity.Entity `bson:",inline"`

	Key            RankKey  `json:"key" bson:"_id"`
	Team           team.Ref `json:"team" bson:"team"`
	Event          EventRef `json:"event" bson:"event"`
	Score          int      `json:"score" bson:"score"`
	Programming    int      `json:"programming" bson:"programming"`
	Driver         int      `json:"driver" bson:"driver"`
	MaxProgramming int      `json:"max_programming" bson:"maxProgramming"`
	MaxDriver      int      `json:"max_driver" bson:"maxDriver"`
	Eligible       bool     `json:"eligible" bson:"eligible"`
	Region         string   `json:"region,omitempty" bson:"region,omitempty"`
	Country        string   `json:"country,omitempty" bson:"country,omitempty"`
}

// Changed reports whether next differs from prev in any ranked field.
func Changed(prev, next *Record) bool {
	if prev == nil {
		return true
	}
	return prev.Team != next.Team ||
		prev.Event.SKU != next.Event.SKU ||
		!prev.Event.Start.Equal(next.Event.Start) ||
		prev.Score != next.Score ||
		prev.Programming != next.Programming ||
		prev.Driver != next.Driver ||
		prev.MaxProgramming != next.MaxProgramming ||
		prev.MaxDriver != next.MaxDriver ||
		prev.Eligible != next.Eligible ||
		prev.Region != next.Region ||
		prev.Country != next.Country
}

var startLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Transform maps a remote ranking row of a program season to a Record.
func Transform(row remote.MaxSkill, prog, season int) (*Record, error) {
	grade, err := team.ParseGrade(row.Team.GradeLevel)
	if err != nil {
		return nil, fmt.Errorf("skills: rank %d: %w", row.Rank, err)
	}
	start, err := parseStart(row.Event.StartDate)
	if err != nil {
		return nil, fmt.Errorf("skills: rank %d: %w", row.Rank, err)
	}

	return &Record{
		Key:            RankKey{Season: season, Grade: grade, Rank: row.Rank},
		Team:           team.Ref{Program: prog, ID: row.Team.Team},
		Event:          EventRef{SKU: row.Event.SKU, Start: start},
		Score:          row.Scores.Score,
		Programming:    row.Scores.Programming,
		Driver:         row.Scores.Driver,
		MaxProgramming: row.Scores.MaxProgramming,
		MaxDriver:      row.Scores.MaxDriver,
		Eligible:       row.Eligible,
		Region:         row.Team.Region,
		Country:        row.Team.Country,
	}, nil
}

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event start %q", s)
}

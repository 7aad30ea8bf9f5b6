package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Window selects past or upcoming events and team registrations.
type Window string

// Windows accepted by the remote service.
const (
	Past   Window = "past"
	Future Window = "future"
)

// Program is one entry of GET /api/programs.
type Program struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Abbr    string   `json:"abbr"`
	Seasons []Season `json:"seasons"`
}

// Season is a season nested in a Program.
type Season struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	StartYear FlexInt `json:"start_year"`
	EndYear   FlexInt `json:"end_year"`
}

// TeamGroup is one lat/lng bucket of the team map.
type TeamGroup struct {
	Position Position `json:"position"`
}

// Position is a map coordinate.
type Position struct {
	Lat FlexFloat `json:"lat"`
	Lng FlexFloat `json:"lng"`
}

// Team is one registration inside a TeamGroup. Name carries the region.
type Team struct {
	Team      string `json:"team"`
	City      string `json:"city"`
	Name      string `json:"name"`
	TeamName  string `json:"team_name"`
	RobotName string `json:"robot_name"`
}

// Event is one entry of POST /api/events.
type Event struct {
	SKU         string    `json:"sku"`
	SeasonID    FlexInt   `json:"season_id"`
	ProgramID   FlexInt   `json:"program_id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Lat         FlexFloat `json:"lat"`
	Lng         FlexFloat `json:"lng"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	WebcastLink string    `json:"webcast_link"`
}

// MaxSkill is one row of a season's skills ranking.
type MaxSkill struct {
	Rank     int         `json:"rank"`
	Team     SkillTeam   `json:"team"`
	Event    SkillEvent  `json:"event"`
	Scores   SkillScores `json:"scores"`
	Eligible bool        `json:"eligible"`
}

// SkillTeam is the team block of a MaxSkill.
type SkillTeam struct {
	Team       string `json:"team"`
	GradeLevel string `json:"gradeLevel"`
	Region     string `json:"region"`
	Country    string `json:"country"`
}

// SkillEvent is the event block of a MaxSkill.
type SkillEvent struct {
	SKU       string `json:"sku"`
	StartDate string `json:"startDate"`
}

// SkillScores is the score block of a MaxSkill.
type SkillScores struct {
	Score          int `json:"score"`
	Programming    int `json:"programming"`
	Driver         int `json:"driver"`
	MaxProgramming int `json:"maxProgramming"`
	MaxDriver      int `json:"maxDriver"`
}

// FlexInt decodes a JSON number or numeric string. null decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := flexString(b)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("remote: %q is not an integer", s)
	}
	*f = FlexInt(n)
	return nil
}

// FlexFloat decodes a JSON number or numeric string. null decodes to 0.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := flexString(b)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("remote: %q is not a number", s)
	}
	*f = FlexFloat(n)
	return nil
}

// MarshalJSON keeps coordinates numeric when echoed back in request bodies.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

func flexString(b []byte) string {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(string(b), `"`))
}

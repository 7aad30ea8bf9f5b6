package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Programs fetches every program with its seasons.
func (c *Client) Programs(ctx context.Context) ([]Program, error) {
	body, err := c.Fetch(ctx, &Request{Method: http.MethodGet, Path: "/api/programs"})
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []Program `json:"data"`
	}
	if err := c.decode(schemaPrograms, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// TeamGroups fetches the lat/lng buckets of a season's team map.
func (c *Client) TeamGroups(ctx context.Context, program, season int) ([]TeamGroup, error) {
	body, err := c.Fetch(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/teams/latLngGrp",
		Body: map[string]any{
			"programs":  []int{program},
			"season_id": season,
			"when":      Past,
		},
	})
	if err != nil {
		return nil, err
	}

	var out []TeamGroup
	if err := c.decode(schemaTeamGroups, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TeamsInGroup fetches the teams registered in one bucket.
func (c *Client) TeamsInGroup(ctx context.Context, sess Session, program, season int, group TeamGroup) ([]Team, error) {
	body, err := c.FetchWithAuth(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/teams/getTeamsForLatLng",
		Body: map[string]any{
			"programs":  []int{program},
			"when":      Past,
			"season_id": season,
			"lat":       group.Position.Lat,
			"lng":       group.Position.Lng,
		},
	}, sess)
	if err != nil {
		return nil, err
	}

	var out []Team
	if err := c.decode(schemaTeams, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events fetches a season's events in the given window.
func (c *Client) Events(ctx context.Context, program, season int, when Window) ([]Event, error) {
	body, err := c.Fetch(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/events",
		Body: map[string]any{
			"programs":  []int{program},
			"season_id": season,
			"when":      when,
		},
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []Event `json:"data"`
	}
	if err := c.decode(schemaEvents, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// MaxSkills fetches a season's skills ranking across all grades. A season
// without official rankings returns ErrNoRankings.
func (c *Client) MaxSkills(ctx context.Context, season int) ([]MaxSkill, error) {
	body, err := c.Fetch(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/api/seasons/" + strconv.Itoa(season) + "/skills",
		Query: url.Values{
			"untilSkillsDeadline": {"0"},
			"grade_level":         {"All"},
		},
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: season %d", ErrNoRankings, season)
	}
	if err != nil {
		return nil, err
	}

	var out []MaxSkill
	if err := c.decode(schemaSkills, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) decode(schema string, body []byte, v any) error {
	if err := c.schemas.Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPayloadShape, schema, err)
	}
	return nil
}

// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/skills"
	vexstore "github.com/xraph/vexsync/store"
	"github.com/xraph/vexsync/subscription"
	"github.com/xraph/vexsync/team"
)

// compile-time interface check.
var _ vexstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing. The mutex
// stands in for the per-document atomicity of the database.
type Store struct {
	mu sync.RWMutex

	programs map[int]*program.Program
	seasons  map[int]*program.Season
	teams    map[team.Key]*team.Team
	events   map[string]*event.Event
	ranks    map[skills.RankKey]*skills.Record
	subs     map[subscription.Key]*subscription.Subscription

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		programs: make(map[int]*program.Program),
		seasons:  make(map[int]*program.Season),
		teams:    make(map[team.Key]*team.Team),
		events:   make(map[string]*event.Event),
		ranks:    make(map[skills.RankKey]*skills.Record),
		subs:     make(map[subscription.Key]*subscription.Subscription),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return vexsync.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// program.Store
// ──────────────────────────────────────────────────

// UpsertSeason sets every field of the season.
func (s *Store) UpsertSeason(_ context.Context, season *program.Season) (entity.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	cp := *season
	prev, ok := s.seasons[season.ID]
	if !ok {
		cp.Entity = entity.Entity{CreatedAt: now, UpdatedAt: now}
		s.seasons[season.ID] = &cp
		return entity.Inserted, nil
	}

	cp.CreatedAt, cp.UpdatedAt = prev.CreatedAt, now
	s.seasons[season.ID] = &cp
	if prev.Program == cp.Program && prev.Name == cp.Name && prev.Start == cp.Start && prev.End == cp.End {
		return entity.Unchanged, nil
	}
	return entity.Updated, nil
}

// UpsertProgram sets name and abbreviation and unions the season set.
func (s *Store) UpsertProgram(_ context.Context, p *program.Program) (entity.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	prev, ok := s.programs[p.ID]
	if !ok {
		cp := *p
		cp.Seasons = addToSet(nil, p.Seasons)
		cp.Entity = entity.Entity{CreatedAt: now, UpdatedAt: now}
		s.programs[p.ID] = &cp
		return entity.Inserted, nil
	}

	seasons := addToSet(prev.Seasons, p.Seasons)
	changed := prev.Name != p.Name || prev.Abbr != p.Abbr || len(seasons) != len(prev.Seasons)
	prev.Name, prev.Abbr, prev.Seasons, prev.UpdatedAt = p.Name, p.Abbr, seasons, now
	if changed {
		return entity.Updated, nil
	}
	return entity.Unchanged, nil
}

// GetProgram returns a program by code.
func (s *Store) GetProgram(_ context.Context, programID int) (*program.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[programID]
	if !ok {
		return nil, vexsync.ErrProgramNotFound
	}
	cp := *p
	cp.Seasons = slices.Clone(p.Seasons)
	return &cp, nil
}

// ListPrograms returns every program ordered by code.
func (s *Store) ListPrograms(_ context.Context) ([]*program.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*program.Program, 0, len(s.programs))
	for _, p := range s.programs {
		cp := *p
		cp.Seasons = slices.Clone(p.Seasons)
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetSeason returns a season by ID.
func (s *Store) GetSeason(_ context.Context, seasonID int) (*program.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	season, ok := s.seasons[seasonID]
	if !ok {
		return nil, vexsync.ErrSeasonNotFound
	}
	cp := *season
	return &cp, nil
}

// addToSet appends the values of add missing from set, like $addToSet.
func addToSet(set, add []int) []int {
	out := slices.Clone(set)
	for _, v := range add {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ──────────────────────────────────────────────────
// team.Store
// ──────────────────────────────────────────────────

// ReconcileTeam writes t and returns the previous record. An identical
// write leaves the record untouched.
func (s *Store) ReconcileTeam(_ context.Context, t *team.Team) (*team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	stored, ok := s.teams[t.Key]
	var prev *team.Team
	if ok {
		cp := *stored
		prev = &cp
	} else {
		stored = &team.Team{Key: t.Key, Entity: entity.Entity{CreatedAt: now}}
		s.teams[t.Key] = stored
	}

	if prev != nil && !team.Changed(prev, t) {
		return prev, nil
	}

	stored.Lat, stored.Lng, stored.City = t.Lat, t.Lng, t.City
	stored.Region, stored.Name, stored.Robot = t.Region, t.Name, t.Robot
	if t.Grade != team.GradeNone {
		stored.Grade = t.Grade
	}
	stored.UpdatedAt = now
	return prev, nil
}

// ClearCountry unsets the country of a team.
func (s *Store) ClearCountry(_ context.Context, key team.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.teams[key]; ok {
		t.Country = ""
		t.UpdatedAt = entity.Now()
	}
	return nil
}

// SetCountry sets the geocoded country of a team. Geocoding runs outside
// vexsync; tests use this helper.
func (s *Store) SetCountry(key team.Key, country string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.teams[key]; ok {
		t.Country = country
	}
}

// SetGrade sets the grade of a team and returns the previous record.
func (s *Store) SetGrade(_ context.Context, key team.Key, grade team.Grade) (*team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	stored, ok := s.teams[key]
	if !ok {
		s.teams[key] = &team.Team{
			Key:    key,
			Grade:  grade,
			Entity: entity.Entity{CreatedAt: now, UpdatedAt: now},
		}
		return nil, nil
	}

	prev := *stored
	stored.Grade = grade
	stored.UpdatedAt = now
	return &prev, nil
}

// GetTeam returns a team registration.
func (s *Store) GetTeam(_ context.Context, key team.Key) (*team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[key]
	if !ok {
		return nil, vexsync.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

// ListTeams returns the registrations of a program season ordered by ID.
func (s *Store) ListTeams(_ context.Context, prog, season int) ([]*team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*team.Team
	for key, t := range s.teams {
		if key.Program == prog && key.Season == season {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key.ID < result[j].Key.ID })
	return result, nil
}

// ──────────────────────────────────────────────────
// event.Store
// ──────────────────────────────────────────────────

// UpsertEvent sets the event's fields.
func (s *Store) UpsertEvent(_ context.Context, e *event.Event) (entity.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	cp := *e
	prev, ok := s.events[e.SKU]
	if !ok {
		cp.Entity = entity.Entity{CreatedAt: now, UpdatedAt: now}
		s.events[e.SKU] = &cp
		return entity.Inserted, nil
	}

	if !event.Changed(prev, &cp) {
		return entity.Unchanged, nil
	}
	cp.CreatedAt, cp.UpdatedAt = prev.CreatedAt, now
	s.events[e.SKU] = &cp
	return entity.Updated, nil
}

// GetEvent returns an event by SKU.
func (s *Store) GetEvent(_ context.Context, sku string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[sku]
	if !ok {
		return nil, vexsync.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

// ListEvents returns the events matching opts ordered by start, then SKU.
func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*event.Event
	for _, e := range s.events {
		if opts.Season != 0 && e.Season != opts.Season {
			continue
		}
		if !opts.ActiveAt.IsZero() && !e.ActiveAt(opts.ActiveAt) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Start.Equal(result[j].Start) {
			return result[i].Start.Before(result[j].Start)
		}
		return result[i].SKU < result[j].SKU
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// skills.Store
// ──────────────────────────────────────────────────

// UpsertMaxSkill sets the record at its rank key and returns the previous one.
func (s *Store) UpsertMaxSkill(_ context.Context, r *skills.Record) (*skills.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := entity.Now()
	cp := *r
	prev, ok := s.ranks[r.Key]
	if !ok {
		cp.Entity = entity.Entity{CreatedAt: now, UpdatedAt: now}
		s.ranks[r.Key] = &cp
		return nil, nil
	}

	cp.CreatedAt, cp.UpdatedAt = prev.CreatedAt, now
	s.ranks[r.Key] = &cp
	return prev, nil
}

// DeleteRanksAbove removes the ranks of a season grade greater than rank.
func (s *Store) DeleteRanksAbove(_ context.Context, season int, grade team.Grade, rank int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key := range s.ranks {
		if key.Season == season && key.Grade == grade && key.Rank > rank {
			delete(s.ranks, key)
			n++
		}
	}
	return n, nil
}

// ListMaxSkills returns the ranking of a season grade ordered by rank.
func (s *Store) ListMaxSkills(_ context.Context, season int, grade team.Grade) ([]*skills.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*skills.Record
	for key, r := range s.ranks {
		if key.Season == season && key.Grade == grade {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key.Rank < result[j].Key.Rank })
	return result, nil
}

// ──────────────────────────────────────────────────
// subscription.Store
// ──────────────────────────────────────────────────

// ListSubscriptions returns the subscriptions of a team within a guild.
func (s *Store) ListSubscriptions(_ context.Context, guild string, t team.Ref) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[subscription.Key{Guild: guild, Team: t}]
	if !ok {
		return nil, nil
	}
	cp := *sub
	cp.Users = slices.Clone(sub.Users)
	return []*subscription.Subscription{&cp}, nil
}

// Subscribe adds users to a team's subscribers in a guild. Subscriptions
// are written by the chat front end in production; tests use this helper.
func (s *Store) Subscribe(guild string, t team.Ref, users ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscription.Key{Guild: guild, Team: t}
	sub, ok := s.subs[key]
	if !ok {
		sub = &subscription.Subscription{Key: key}
		s.subs[key] = sub
	}
	for _, u := range users {
		if !slices.Contains(sub.Users, u) {
			sub.Users = append(sub.Users, u)
		}
	}
}

package team_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/store/memory"
	"github.com/xraph/vexsync/team"
)

func ctx() context.Context { return context.Background() }

// fakeFetcher serves team groups keyed by latitude.
type fakeFetcher struct {
	groups []remote.TeamGroup
	teams  map[float64][]remote.Team
	errs   map[float64]error

	mu       sync.Mutex
	inFlight int
	peak     int
	delay    time.Duration
}

func (f *fakeFetcher) NewSession(context.Context) (remote.Session, error) {
	return remote.Session{CSRFToken: "tok", Cookie: "a=1;"}, nil
}

func (f *fakeFetcher) TeamGroups(context.Context, int, int) ([]remote.TeamGroup, error) {
	return f.groups, nil
}

func (f *fakeFetcher) TeamsInGroup(_ context.Context, _ remote.Session, _, _ int, g remote.TeamGroup) ([]remote.Team, error) {
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	lat := float64(g.Position.Lat)
	if err := f.errs[lat]; err != nil {
		return nil, err
	}
	return f.teams[lat], nil
}

func group(lat float64) remote.TeamGroup {
	return remote.TeamGroup{Position: remote.Position{Lat: remote.FlexFloat(lat), Lng: -97}}
}

type recordingAnnouncer struct {
	mu    sync.Mutex
	teams []string
}

func (a *recordingAnnouncer) AnnounceRegistration(_ context.Context, t *team.Team) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teams = append(a.teams, t.Key.ID)
	return nil
}

func TestSyncRegistersAndAnnounces(t *testing.T) {
	s := memory.New()
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30), group(40)},
		teams: map[float64][]remote.Team{
			30: {{Team: "1234A", City: "Austin", Name: "Texas", TeamName: "Bots"}},
			40: {{Team: "5678B", City: "Denver", Name: "Colorado"}, {Team: "5678C", City: "Denver", Name: "Colorado"}},
		},
	}
	ann := &recordingAnnouncer{}
	syncer := team.NewSyncer(s, f, team.Config{Concurrency: 2, NotifyRegistrations: true, Announcer: ann}, nil, nil, nil)

	tally, err := syncer.Sync(ctx(), program.VRC, 130)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if tally.Inserted != 3 {
		t.Fatalf("expected 3 inserts, got %+v", tally)
	}
	if len(ann.teams) != 3 {
		t.Fatalf("expected 3 announcements, got %v", ann.teams)
	}

	got, err := s.GetTeam(ctx(), team.Key{ID: "1234A", Program: program.VRC, Season: 130})
	if err != nil {
		t.Fatal(err)
	}
	if got.City != "Austin" || got.Region != "Texas" || got.Name != "Bots" || got.Lat != 30 || got.Lng != -97 {
		t.Fatalf("unexpected team %+v", got)
	}
	if got.Grade != team.GradeNone {
		t.Fatalf("VRC teams get no grade from team sync, got %q", got.Grade)
	}
}

func TestSyncWithoutAnnouncementsByDefault(t *testing.T) {
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		teams:  map[float64][]remote.Team{30: {{Team: "1234A", City: "Austin"}}},
	}
	ann := &recordingAnnouncer{}
	syncer := team.NewSyncer(memory.New(), f, team.Config{Announcer: ann}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	if len(ann.teams) != 0 {
		t.Fatalf("expected no announcements, got %v", ann.teams)
	}
}

func TestSyncCollegeTeamsGetGrade(t *testing.T) {
	s := memory.New()
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		teams:  map[float64][]remote.Team{30: {{Team: "UTA", City: "Austin"}}},
	}
	syncer := team.NewSyncer(s, f, team.Config{}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VEXU, 131); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTeam(ctx(), team.Key{ID: "UTA", Program: program.VEXU, Season: 131})
	if got.Grade != team.GradeCollege {
		t.Fatalf("expected College, got %q", got.Grade)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	s := memory.New()
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		teams:  map[float64][]remote.Team{30: {{Team: "1234A", City: "Austin", Name: "Texas", TeamName: "Bots", RobotName: "R1"}}},
	}
	ann := &recordingAnnouncer{}
	syncer := team.NewSyncer(s, f, team.Config{NotifyRegistrations: true, Announcer: ann}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	before, _ := s.GetTeam(ctx(), team.Key{ID: "1234A", Program: program.VRC, Season: 130})

	tally, err := syncer.Sync(ctx(), program.VRC, 130)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Unchanged != 1 || tally.Inserted != 0 || tally.Updated != 0 {
		t.Fatalf("expected unchanged second pass, got %+v", tally)
	}
	if len(ann.teams) != 1 {
		t.Fatalf("expected a single registration, got %v", ann.teams)
	}

	after, _ := s.GetTeam(ctx(), team.Key{ID: "1234A", Program: program.VRC, Season: 130})
	if before.City != after.City || before.Region != after.Region || before.Name != after.Name || before.Robot != after.Robot {
		t.Fatalf("fields changed on reapply: %+v -> %+v", before, after)
	}
}

func TestSyncCityChangeClearsRegionAndCountry(t *testing.T) {
	s := memory.New()
	key := team.Key{ID: "1234A", Program: program.VRC, Season: 130}
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		teams:  map[float64][]remote.Team{30: {{Team: "1234A", City: "Austin", Name: "Texas"}}},
	}
	syncer := team.NewSyncer(s, f, team.Config{}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	s.SetCountry(key, "United States")

	f.teams[30] = []remote.Team{{Team: "1234A", City: "Round Rock"}}
	tally, err := syncer.Sync(ctx(), program.VRC, 130)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Updated != 1 {
		t.Fatalf("expected an update, got %+v", tally)
	}

	got, _ := s.GetTeam(ctx(), key)
	if got.City != "Round Rock" || got.Region != "" || got.Country != "" {
		t.Fatalf("expected city change to unset region and country, got %+v", got)
	}
}

func TestSyncUnchangedLocationKeepsCountry(t *testing.T) {
	s := memory.New()
	key := team.Key{ID: "1234A", Program: program.VRC, Season: 130}
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		teams:  map[float64][]remote.Team{30: {{Team: "1234A", City: "Austin", Name: "Texas"}}},
	}
	syncer := team.NewSyncer(s, f, team.Config{}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	s.SetCountry(key, "United States")
	f.teams[30] = []remote.Team{{Team: "1234A", City: "Austin", Name: "Texas", RobotName: "New Robot"}}

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTeam(ctx(), key)
	if got.Country != "United States" || got.Robot != "New Robot" {
		t.Fatalf("unexpected team %+v", got)
	}
}

func TestSyncGroupFailureIsIsolated(t *testing.T) {
	s := memory.New()
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30), group(40), group(50)},
		teams: map[float64][]remote.Team{
			30: {{Team: "1A"}},
			50: {{Team: "5A"}},
		},
		errs: map[float64]error{40: fmt.Errorf("wrapped: %w", remote.ErrRetriesExhausted)},
	}
	syncer := team.NewSyncer(s, f, team.Config{Concurrency: 3}, nil, nil, nil)

	tally, err := syncer.Sync(ctx(), program.VRC, 130)
	if err != nil {
		t.Fatalf("a failed group should not fail the pass: %v", err)
	}
	if tally.Failed != 1 || tally.Inserted != 2 {
		t.Fatalf("unexpected tally %+v", tally)
	}
}

func TestSyncPayloadShapeAbortsPass(t *testing.T) {
	f := &fakeFetcher{
		groups: []remote.TeamGroup{group(30)},
		errs:   map[float64]error{30: remote.ErrPayloadShape},
	}
	syncer := team.NewSyncer(memory.New(), f, team.Config{}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); !errors.Is(err, remote.ErrPayloadShape) {
		t.Fatalf("expected ErrPayloadShape, got %v", err)
	}
}

func TestSyncBoundsConcurrency(t *testing.T) {
	f := &fakeFetcher{delay: 20 * time.Millisecond, teams: map[float64][]remote.Team{}}
	for i := range 8 {
		f.groups = append(f.groups, group(float64(i)))
	}
	syncer := team.NewSyncer(memory.New(), f, team.Config{Concurrency: 2}, nil, nil, nil)

	if _, err := syncer.Sync(ctx(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	if f.peak > 2 {
		t.Fatalf("expected at most 2 groups in flight, saw %d", f.peak)
	}
}

func TestSyncRateLimitedGroupPersistsOnce(t *testing.T) {
	var groupCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Set-Cookie", "session=abc; path=/")
		_, _ = io.WriteString(w, `<html><head><meta name="csrf-token" content="tok"></head></html>`)
	})
	mux.HandleFunc("/api/teams/latLngGrp", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"position":{"lat":30.25,"lng":-97.75}}]`)
	})
	mux.HandleFunc("/api/teams/getTeamsForLatLng", func(w http.ResponseWriter, _ *http.Request) {
		if groupCalls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `[{"team":"1234A","city":"Austin","name":"Texas","team_name":"Bots","robot_name":""}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := remote.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 0
	client, err := remote.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := memory.New()
	ann := &recordingAnnouncer{}
	syncer := team.NewSyncer(s, client, team.Config{NotifyRegistrations: true, Announcer: ann}, nil, nil, nil)

	start := time.Now()
	tally, err := syncer.Sync(ctx(), program.VRC, 130)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("expected to honor Retry-After, finished in %v", elapsed)
	}
	if tally.Inserted != 1 || len(ann.teams) != 1 {
		t.Fatalf("expected the group to persist once, got %+v and %v", tally, ann.teams)
	}

	teams, _ := s.ListTeams(ctx(), program.VRC, 130)
	if len(teams) != 1 {
		t.Fatalf("expected one stored team, got %d", len(teams))
	}
}

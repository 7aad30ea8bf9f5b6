package vexsync_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/store/memory"
	"github.com/xraph/vexsync/team"
)

type fakeRemote struct {
	mu         sync.Mutex
	calls      []string
	failSeason int
	teams      []remote.Team
}

func (f *fakeRemote) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRemote) Programs(context.Context) ([]remote.Program, error) {
	return []remote.Program{{
		ID:   program.VRC,
		Name: "VEX Robotics Competition",
		Abbr: "VRC",
		Seasons: []remote.Season{
			{ID: 130, Name: "VRC 2019-2020: Tower Takeover", StartYear: 2019, EndYear: 2020},
			{ID: 119, Name: "VRC 2018-2019: Turning Point", StartYear: 2018, EndYear: 2019},
		},
	}}, nil
}

func (f *fakeRemote) NewSession(context.Context) (remote.Session, error) {
	return remote.Session{CSRFToken: "t", Cookie: "c=1;"}, nil
}

func (f *fakeRemote) TeamGroups(_ context.Context, prog, season int) ([]remote.TeamGroup, error) {
	f.record("teams %d/%d", prog, season)
	if season == f.failSeason {
		return nil, errors.New("upstream down")
	}
	return []remote.TeamGroup{{Position: remote.Position{Lat: 30.2, Lng: -97.7}}}, nil
}

func (f *fakeRemote) TeamsInGroup(context.Context, remote.Session, int, int, remote.TeamGroup) ([]remote.Team, error) {
	return f.teams, nil
}

func (f *fakeRemote) Events(_ context.Context, prog, season int, when remote.Window) ([]remote.Event, error) {
	f.record("events %d/%d %s", prog, season, when)
	return nil, nil
}

func (f *fakeRemote) MaxSkills(_ context.Context, season int) ([]remote.MaxSkill, error) {
	f.record("skills %d", season)
	return nil, remote.ErrNoRankings
}

type recordingChannel struct {
	mu        sync.Mutex
	texts     []string
	reactions []string
}

func (c *recordingChannel) ID() string    { return "c1" }
func (c *recordingChannel) Guild() string { return "g1" }

func (c *recordingChannel) Send(_ context.Context, text string, _ any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return fmt.Sprintf("m%d", len(c.texts)), nil
}

func (c *recordingChannel) React(_ context.Context, _, emoji string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions = append(c.reactions, emoji)
	return nil
}

func newEngine(t *testing.T, r *fakeRemote, opts ...vexsync.Option) (*vexsync.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	e, err := vexsync.New(append([]vexsync.Option{vexsync.WithStore(s), vexsync.WithRemote(r)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SyncProgramsAndSeasons(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e, s
}

func TestNewRequiresStoreAndRemote(t *testing.T) {
	if _, err := vexsync.New(vexsync.WithRemote(&fakeRemote{})); !errors.Is(err, vexsync.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
	if _, err := vexsync.New(vexsync.WithStore(memory.New())); !errors.Is(err, vexsync.ErrNoRemote) {
		t.Fatalf("expected ErrNoRemote, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	e, _ := newEngine(t, &fakeRemote{})
	cfg := e.Config()
	if cfg.Concurrency != 4 || cfg.NotifyRegistrations {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestSyncAllTeamsContinuesAfterFailure(t *testing.T) {
	r := &fakeRemote{failSeason: 119, teams: []remote.Team{{Team: "1A", City: "Austin", Name: "Texas"}}}
	e, s := newEngine(t, r)

	tally, err := e.SyncAllTeams(context.Background())
	if err == nil {
		t.Fatal("expected the failing season's error")
	}
	if got := r.Calls(); !slices.Equal(got, []string{"teams 1/119", "teams 1/130"}) {
		t.Fatalf("seasons should run ascending and continue, got %v", got)
	}
	if tally.Inserted != 1 {
		t.Fatalf("expected one inserted team, got %+v", tally)
	}
	if _, err := s.GetTeam(context.Background(), team.Key{ID: "1A", Program: program.VRC, Season: 130}); err != nil {
		t.Fatal(err)
	}
}

func TestSyncAllEventsPastThenLatestFuture(t *testing.T) {
	r := &fakeRemote{}
	e, _ := newEngine(t, r)

	if _, err := e.SyncAllEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"events 1/119 past", "events 1/130 past", "events 1/130 future"}
	if got := r.Calls(); !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSyncAllMaxSkillsWithoutRankings(t *testing.T) {
	r := &fakeRemote{}
	e, _ := newEngine(t, r)

	if _, err := e.SyncAllMaxSkills(context.Background()); err != nil {
		t.Fatalf("missing rankings should not fail, got %v", err)
	}
	if got := r.Calls(); !slices.Equal(got, []string{"skills 119", "skills 130"}) {
		t.Fatalf("unexpected calls %v", got)
	}
}

func TestSyncActive(t *testing.T) {
	r := &fakeRemote{}
	e, _ := newEngine(t, r, vexsync.WithActive(vexsync.Target{Program: program.VRC, Season: 130}))

	if _, err := e.SyncActive(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"teams 1/130", "events 1/130 past", "events 1/130 future", "skills 130"}
	if got := r.Calls(); !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAnnounceRegistration(t *testing.T) {
	ch := &recordingChannel{}
	r := &fakeRemote{teams: []remote.Team{{Team: "1A", City: "Austin"}}}
	e, s := newEngine(t, r, vexsync.WithChannels(ch), vexsync.WithNotifyRegistrations(true))
	s.Subscribe("g1", team.Ref{Program: program.VRC, ID: "1A"}, "u1")

	if _, err := e.SyncTeams(context.Background(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SyncTeams(context.Background(), program.VRC, 130); err != nil {
		t.Fatal(err)
	}

	if len(ch.texts) != 1 || ch.texts[0] != "Team registered\n<@u1>" {
		t.Fatalf("expected one announcement, got %q", ch.texts)
	}
}

func TestNotifyMatch(t *testing.T) {
	ch := &recordingChannel{}
	e, s := newEngine(t, &fakeRemote{}, vexsync.WithChannels(ch))
	s.Subscribe("g1", team.Ref{Program: program.VEXU, ID: "BNS"}, "u1")

	m := notify.Match{Program: program.VRC, Round: 2, Number: 7, Red: []string{"1A", "2B"}, Blue: []string{"BNS", "4D"}}
	e.NotifyMatch(context.Background(), "Upcoming", m, nil)

	red, blue := 3, 1
	m.RedScore, m.BlueScore = &red, &blue
	report := e.NotifyMatch(context.Background(), "Final", m, nil)
	if report.Failed() != 0 {
		t.Fatalf("unexpected failures %+v", report.Outcomes)
	}

	want := []string{"Upcoming\n<@u1>", "Q7 1A 2B🔴3-1🔵4D BNS\nFinal\n<@u1>"}
	if !slices.Equal(ch.texts, want) {
		t.Fatalf("got %q, want %q", ch.texts, want)
	}
	if !slices.Equal(ch.reactions, []string{"🔴", "🔵", "👍", "👎"}) {
		t.Fatalf("unexpected reactions %v", ch.reactions)
	}
}

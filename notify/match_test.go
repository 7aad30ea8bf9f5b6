package notify_test

import (
	"testing"

	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/team"
)

func score(n int) *int { return &n }

func TestMatchTeams(t *testing.T) {
	m := notify.Match{
		Program: program.VRC,
		Red:     []string{"1A", ""},
		Blue:    []string{"BNS", "3C"},
	}
	got := notify.MatchTeams(m)
	want := []team.Ref{
		{Program: program.VRC, ID: "1A"},
		{Program: program.VEXU, ID: "BNS"},
		{Program: program.VRC, ID: "3C"},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected teams %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("team %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMatchTeamsOverride(t *testing.T) {
	m := notify.Match{Program: program.VIQC, Red: []string{"1A"}, Teams: []string{"9X"}}
	got := notify.MatchTeams(m)
	if len(got) != 1 || got[0].ID != "9X" || got[0].Program != program.VIQC {
		t.Fatalf("unexpected teams %v", got)
	}
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		m    notify.Match
		want string
	}{
		{notify.Match{Round: 2, Number: 12}, "Q12"},
		{notify.Match{Round: 1, Number: 3}, "P3"},
		{notify.Match{Round: 3, Instance: 2, Number: 1}, "QF 2-1"},
		{notify.Match{Round: 5, Instance: 1, Number: 2}, "F 1-2"},
		{notify.Match{Round: 9, Number: 4}, "TM4"},
	}
	for _, tt := range tests {
		if got := notify.MatchName(tt.m); got != tt.want {
			t.Errorf("MatchName(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestScoreLine(t *testing.T) {
	m := notify.Match{
		Round:     2,
		Number:    12,
		Red:       []string{"1A", "2B", "5E"},
		RedSit:    "5E",
		Blue:      []string{"3C", "4D"},
		RedScore:  score(10),
		BlueScore: score(5),
	}
	if got, want := notify.ScoreLine(m), "Q12 1A 2B🔴10-5🔵4D 3C"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	m.BlueScore = nil
	if notify.ScoreLine(m) != "" {
		t.Fatal("unscored match should render empty")
	}
}

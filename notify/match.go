package notify

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/team"
)

// Reactions added to match notifications.
var (
	AllianceReactions = []string{"🔴", "🔵"}
	ScoredReactions   = []string{"👍", "👎"}
)

// Match is a match as the chat front end reports it.
type Match struct {
	Program  int
	Round    int
	Instance int
	Number   int

	// Red and Blue list the alliance team codes; empty codes are ignored.
	Red  []string
	Blue []string

	// RedSit and BlueSit name the team sitting out, if any.
	RedSit  string
	BlueSit string

	// Teams overrides Red and Blue when set.
	Teams []string

	RedScore  *int
	BlueScore *int
}

// Scored reports whether the match has a result.
func (m Match) Scored() bool {
	return m.RedScore != nil && m.BlueScore != nil
}

// MatchTeams lists the teams concerned by a match. Codes starting with a
// letter are college teams.
func MatchTeams(m Match) []team.Ref {
	codes := m.Teams
	if len(codes) == 0 {
		codes = append(append([]string{}, m.Red...), m.Blue...)
	}

	refs := make([]team.Ref, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		refs = append(refs, team.Ref{Program: teamProgram(code, m.Program), ID: code})
	}
	return refs
}

func teamProgram(code string, fallback int) int {
	if r, _ := utf8.DecodeRuneInString(code); unicode.IsLetter(r) {
		return program.VEXU
	}
	return fallback
}

var roundNames = map[int]string{
	1: "P",
	2: "Q",
	3: "QF",
	4: "SF",
	5: "F",
	6: "R16",
	7: "R32",
	8: "R64",
	9: "TM",
}

// MatchName renders a match as "Q12" or "QF 2-1".
func MatchName(m Match) string {
	name, ok := roundNames[m.Round]
	if !ok {
		name = "R" + strconv.Itoa(m.Round)
	}
	if m.Round >= 3 && m.Round <= 8 {
		name += " " + strconv.Itoa(m.Instance) + "-"
	}
	return name + strconv.Itoa(m.Number)
}

// ScoreLine renders a scored match as "Q12 1A 2B🔴10-5🔵4D 3C". It returns
// "" for an unscored match.
func ScoreLine(m Match) string {
	if !m.Scored() {
		return ""
	}
	red := playing(m.Red, m.RedSit)
	blue := playing(m.Blue, m.BlueSit)

	var b strings.Builder
	b.WriteString(MatchName(m))
	b.WriteString(" ")
	if len(red) > 0 {
		b.WriteString(red[0])
	}
	if len(red) > 1 {
		b.WriteString(" " + red[1])
	}
	b.WriteString(AllianceReactions[0])
	b.WriteString(strconv.Itoa(*m.RedScore) + "-" + strconv.Itoa(*m.BlueScore))
	b.WriteString(AllianceReactions[1])
	if len(blue) > 1 {
		b.WriteString(blue[1] + " ")
	}
	if len(blue) > 0 {
		b.WriteString(blue[0])
	}
	return b.String()
}

func playing(codes []string, sit string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != "" && c != sit {
			out = append(out, c)
		}
	}
	return out
}

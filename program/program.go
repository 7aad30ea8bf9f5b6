// Package program syncs the program and season catalog.
package program

import (
	"regexp"
	"strconv"

	"github.com/xraph/vexsync/internal/entity"
)

// Program codes of the remote service.
const (
	VRC  = 1
	VEXU = 4
	VIQC = 41
)

// Name returns the abbreviation of a known program code, or the code itself.
func Name(code int) string {
	switch code {
	case VRC:
		return "VRC"
	case VEXU:
		return "VEXU"
	case VIQC:
		return "VIQC"
	default:
		return strconv.Itoa(code)
	}
}

// Program is a competition program. Its Seasons set only grows.
type Program struct {
	entity.Entity `bson:",inline"`

	ID      int    `json:"id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Abbr    string `json:"abbr" bson:"abbr"`
	Seasons []int  `json:"seasons" bson:"seasons"`
}

// Season is one competition season of a program.
type Season struct {
	entity.Entity `bson:",inline"`

	ID      int    `json:"id" bson:"_id"`
	Program int    `json:"program" bson:"program"`
	Name    string `json:"name" bson:"name"`
	Start   int    `json:"start" bson:"start"`
	End     int    `json:"end" bson:"end"`
}

var seasonName = regexp.MustCompile(`^(?:.+: )?(.+?)(?: [0-9]{4}-[0-9]{4})?$`)

// SeasonName strips an optional "<Program>: " prefix and an optional trailing
// " YYYY-YYYY" range from a raw season title.
func SeasonName(raw string) string {
	m := seasonName.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return m[1]
}

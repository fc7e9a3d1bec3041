// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture; it depends on nothing.
//
// The progression engine (ranks, XP, classes, quests, badges) lives here as
// plain functions over already-fetched history. Nothing in this package
// performs I/O or holds mutable state.
package domain

import (
	"slices"
	"time"
)

// ─── Agent Types ────────────────────────────────────────────────────────────

// Agent is a user account with a progression state.
// Rank, AgentClass and MainSector are cached derivations of TotalXP and the
// transaction history; they are overwritten on every transaction insert.
type Agent struct {
	ID         string     `json:"id"`
	Codename   string     `json:"codename"`
	Rank       string     `json:"rank"`
	TotalXP    int64      `json:"total_xp"`
	MainSector string     `json:"main_sector"`
	AgentClass AgentClass `json:"agent_class"`
	CreatedAt  time.Time  `json:"created_at"`
}

// UnknownSector is the main sector of an agent with no history.
const UnknownSector = "UNKNOWN"

// NewAgent returns a fresh agent at the bottom of the ladder.
func NewAgent(id, codename string, now time.Time) Agent {
	return Agent{
		ID:         id,
		Codename:   codename,
		Rank:       RankTiers()[0].Title,
		MainSector: UnknownSector,
		AgentClass: ClassUnclassed,
		CreatedAt:  now,
	}
}

// ─── Transaction Types ──────────────────────────────────────────────────────

// DateLayout is the calendar-date format of Transaction.TransactionDate.
const DateLayout = time.DateOnly

// Transaction is one recorded spending event. Immutable once created.
type Transaction struct {
	ID              string    `json:"id"`
	AgentID         string    `json:"agent_id"`
	TransactionDate string    `json:"transaction_date"` // YYYY-MM-DD, user-assigned
	Sector          Sector    `json:"sector"`
	Vendor          string    `json:"vendor,omitempty"`
	CastAlias       string    `json:"cast_alias,omitempty"`
	Investment      int64     `json:"investment"`
	Grade           Grade     `json:"grade"`
	Tags            []string  `json:"tags"`
	PrivateNote     string    `json:"private_note,omitempty"`
	IsPublic        bool      `json:"is_public"`
	XPEarned        int64     `json:"xp_earned"`
	RespectCount    int       `json:"respect_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Date parses TransactionDate. Unparseable dates yield the zero time.
func (t Transaction) Date() time.Time {
	d, err := time.Parse(DateLayout, t.TransactionDate)
	if err != nil {
		return time.Time{}
	}
	return d
}

// TransactionInput is what a caller supplies to record a transaction.
type TransactionInput struct {
	TransactionDate string   `json:"transaction_date"`
	Sector          Sector   `json:"sector"`
	Vendor          string   `json:"vendor"`
	CastAlias       string   `json:"cast_alias"`
	Investment      int64    `json:"investment"`
	Grade           Grade    `json:"grade"`
	Tags            []string `json:"tags"`
	PrivateNote     string   `json:"private_note"`
	IsPublic        bool     `json:"is_public"`
}

// ─── Sectors ────────────────────────────────────────────────────────────────

// Sector is a fixed location tag.
type Sector string

const (
	SectorYokohama  Sector = "YOKOHAMA"
	SectorKawasaki  Sector = "KAWASAKI"
	SectorYoshiwara Sector = "YOSHIWARA"
	SectorGotanda   Sector = "GOTANDA"
	SectorIkebukuro Sector = "IKEBUKURO"
	SectorShinjuku  Sector = "SHINJUKU"
	SectorOsaka     Sector = "OSAKA"
	SectorNagoya    Sector = "NAGOYA"
	SectorFukuoka   Sector = "FUKUOKA"
	SectorOther     Sector = "OTHER"
)

var sectors = []Sector{
	SectorYokohama, SectorKawasaki, SectorYoshiwara, SectorGotanda, SectorIkebukuro,
	SectorShinjuku, SectorOsaka, SectorNagoya, SectorFukuoka, SectorOther,
}

// Sectors returns every known sector in display order.
func Sectors() []Sector { return slices.Clone(sectors) }

// Valid reports whether s is one of the known sectors.
func (s Sector) Valid() bool { return slices.Contains(sectors, s) }

// ─── Grades ─────────────────────────────────────────────────────────────────

// Grade is an ordinal quality rating, F (worst) through SSS (best).
type Grade string

const (
	GradeF   Grade = "F"
	GradeD   Grade = "D"
	GradeC   Grade = "C"
	GradeB   Grade = "B"
	GradeA   Grade = "A"
	GradeS   Grade = "S"
	GradeSS  Grade = "SS"
	GradeSSS Grade = "SSS"
)

var grades = []Grade{GradeF, GradeD, GradeC, GradeB, GradeA, GradeS, GradeSS, GradeSSS}

// Grades returns the grade scale from worst to best.
func Grades() []Grade { return slices.Clone(grades) }

// Ordinal returns the position of g on the scale (F=0 … SSS=7), or -1.
func (g Grade) Ordinal() int { return slices.Index(grades, g) }

// Valid reports whether g is on the scale.
func (g Grade) Valid() bool { return g.Ordinal() >= 0 }

// AtLeast reports whether g is rated at or above min.
// Unknown grades never qualify.
func (g Grade) AtLeast(min Grade) bool {
	o := g.Ordinal()
	return o >= 0 && o >= min.Ordinal()
}

// GradeInfo pairs a grade with its display color.
type GradeInfo struct {
	Grade Grade  `json:"grade"`
	Color string `json:"color"`
}

// GradeScale returns every grade, worst first, with its color.
func GradeScale() []GradeInfo {
	out := make([]GradeInfo, len(grades))
	for i, g := range grades {
		out[i] = GradeInfo{Grade: g, Color: GradeColor(g)}
	}
	return out
}

// GradeColor returns the CSS class the UI uses for a grade.
func GradeColor(g Grade) string {
	switch g {
	case GradeF:
		return "text-gray-500"
	case GradeC:
		return "text-blue-400"
	case GradeB:
		return "text-green-400"
	case GradeA:
		return "text-purple-400"
	case GradeS:
		return "text-yellow-400"
	case GradeSS:
		return "text-orange-400"
	case GradeSSS:
		return "text-red-400"
	default:
		return "text-gray-400"
	}
}

package domain

import (
	"cmp"
	"slices"
	"time"
)

// ─── Social & Leaderboard Types ─────────────────────────────────────────────
// Read-only aggregations over other agents' public data. None of this feeds
// back into XP, rank or class.

// Leaderboard limits.
const (
	LeaderboardTopN   = 100
	MonthlyTopN       = 50
	VendorRankingTopN = 50
	PublicFeedLimit   = 50
	ProfileFeedLimit  = 20
)

// LeaderboardEntry is one row of the all-time XP leaderboard.
type LeaderboardEntry struct {
	Position   int        `json:"position"`
	ID         string     `json:"id"`
	Codename   string     `json:"codename"`
	Rank       string     `json:"rank"`
	TotalXP    int64      `json:"total_xp"`
	AgentClass AgentClass `json:"agent_class"`
	MainSector string     `json:"main_sector"`
	IsSelf     bool       `json:"is_self"`
}

// MonthlyRankEntry is one row of the this-month XP leaderboard.
type MonthlyRankEntry struct {
	AgentID          string `json:"agent_id"`
	Codename         string `json:"codename"`
	Rank             string `json:"rank"`
	MonthlyXP        int64  `json:"monthly_xp"`
	TransactionCount int    `json:"transaction_count"`
	IsSelf           bool   `json:"is_self"`
}

// VendorRankEntry is one agent's standing at a single vendor.
type VendorRankEntry struct {
	AgentID         string `json:"agent_id"`
	Codename        string `json:"codename"`
	Rank            string `json:"rank"`
	TotalInvestment int64  `json:"total_investment"`
	VisitCount      int    `json:"visit_count"`
	IsSelf          bool   `json:"is_self"`
}

// PublicTransaction is a feed row. It never carries vendor, cast alias or
// private note.
type PublicTransaction struct {
	ID            string    `json:"id"`
	AgentCodename string    `json:"agent_codename"`
	AgentRank     string    `json:"agent_rank"`
	Sector        Sector    `json:"sector"`
	Investment    int64     `json:"investment"`
	Grade         Grade     `json:"grade"`
	Tags          []string  `json:"tags"`
	XPEarned      int64     `json:"xp_earned"`
	RespectCount  int       `json:"respect_count"`
	HasRespected  bool      `json:"has_respected"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToPublic strips a transaction down to its feed representation.
func (t Transaction) ToPublic(owner Agent) PublicTransaction {
	return PublicTransaction{
		ID:            t.ID,
		AgentCodename: owner.Codename,
		AgentRank:     owner.Rank,
		Sector:        t.Sector,
		Investment:    t.Investment,
		Grade:         t.Grade,
		Tags:          t.Tags,
		XPEarned:      t.XPEarned,
		RespectCount:  t.RespectCount,
		CreatedAt:     t.CreatedAt,
	}
}

// AgentProfile is another agent's public page.
type AgentProfile struct {
	ID                 string              `json:"id"`
	Codename           string              `json:"codename"`
	Rank               string              `json:"rank"`
	TotalXP            int64               `json:"total_xp"`
	AgentClass         AgentClass          `json:"agent_class"`
	MainSector         string              `json:"main_sector"`
	CreatedAt          time.Time           `json:"created_at"`
	PublicTransactions []PublicTransaction `json:"public_transactions"`
	TotalRespects      int                 `json:"total_respects"`
	IsSelf             bool                `json:"is_self"`
}

// ─── Aggregations ───────────────────────────────────────────────────────────

// agentTally accumulates per-agent sums in first-seen order.
type agentTally struct {
	order []string
	sum   map[string]int64
	count map[string]int
}

func tallyByAgent(txs []Transaction, value func(Transaction) int64) agentTally {
	t := agentTally{sum: make(map[string]int64), count: make(map[string]int)}
	for _, tx := range txs {
		if _, ok := t.count[tx.AgentID]; !ok {
			t.order = append(t.order, tx.AgentID)
		}
		t.sum[tx.AgentID] += value(tx)
		t.count[tx.AgentID]++
	}
	return t
}

// AgentIDs returns the distinct agent IDs in txs, first-seen order.
func AgentIDs(txs []Transaction) []string {
	return tallyByAgent(txs, func(Transaction) int64 { return 0 }).order
}

// MonthlyRanking sums XPEarned per agent over txs and orders by monthly XP,
// highest first, keeping at most limit rows. Ties keep the order agents
// first appear in txs. Agents missing from agents are dropped.
func MonthlyRanking(txs []Transaction, agents []Agent, selfID string, limit int) []MonthlyRankEntry {
	t := tallyByAgent(txs, func(tx Transaction) int64 { return tx.XPEarned })
	byID := agentsByID(agents)
	out := make([]MonthlyRankEntry, 0, len(t.order))
	for _, id := range t.order {
		a, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, MonthlyRankEntry{
			AgentID:          a.ID,
			Codename:         a.Codename,
			Rank:             a.Rank,
			MonthlyXP:        t.sum[id],
			TransactionCount: t.count[id],
			IsSelf:           a.ID == selfID,
		})
	}
	slices.SortStableFunc(out, func(a, b MonthlyRankEntry) int { return cmp.Compare(b.MonthlyXP, a.MonthlyXP) })
	return truncate(out, limit)
}

// VendorRanking sums investment per agent over one vendor's transactions.
func VendorRanking(txs []Transaction, agents []Agent, selfID string, limit int) []VendorRankEntry {
	t := tallyByAgent(txs, func(tx Transaction) int64 { return tx.Investment })
	byID := agentsByID(agents)
	out := make([]VendorRankEntry, 0, len(t.order))
	for _, id := range t.order {
		a, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, VendorRankEntry{
			AgentID:         a.ID,
			Codename:        a.Codename,
			Rank:            a.Rank,
			TotalInvestment: t.sum[id],
			VisitCount:      t.count[id],
			IsSelf:          a.ID == selfID,
		})
	}
	slices.SortStableFunc(out, func(a, b VendorRankEntry) int { return cmp.Compare(b.TotalInvestment, a.TotalInvestment) })
	return truncate(out, limit)
}

func agentsByID(agents []Agent) map[string]Agent {
	m := make(map[string]Agent, len(agents))
	for _, a := range agents {
		m[a.ID] = a
	}
	return m
}

// MonthStart returns the first day of now's month as YYYY-MM-DD.
func MonthStart(now time.Time) string {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

package domain

// ─── Rank Table ─────────────────────────────────────────────────────────────
// Six tiers from 0 to 5,000,000 XP. Thresholds and colors are shared with the
// card renderer and must not drift.

// RankTier is one row of the static rank table.
type RankTier struct {
	Threshold int64  `json:"threshold"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	CSSColor  string `json:"css_color"`
}

var rankTiers = []RankTier{
	{Threshold: 0, Title: "ROOKIE WALKER", Color: "rgb(200, 200, 200)", CSSColor: "text-gray-400"},
	{Threshold: 100_000, Title: "NIGHT SOLDIER", Color: "rgb(0, 255, 0)", CSSColor: "text-green-400"},
	{Threshold: 500_000, Title: "VETERAN HUNTER", Color: "rgb(0, 255, 255)", CSSColor: "text-cyan-400"},
	{Threshold: 1_000_000, Title: "SECTOR CAPTAIN", Color: "rgb(255, 0, 255)", CSSColor: "text-fuchsia-400"},
	{Threshold: 3_000_000, Title: "YOKOHAMA DON", Color: "rgb(255, 215, 0)", CSSColor: "text-yellow-400"},
	{Threshold: 5_000_000, Title: "SAINT ZERO", Color: "rgb(255, 50, 50)", CSSColor: "text-red-500"},
}

// RankTiers returns a copy of the rank table, lowest threshold first.
func RankTiers() []RankTier {
	out := make([]RankTier, len(rankTiers))
	copy(out, rankTiers)
	return out
}

// DetermineRank returns the highest tier whose threshold is <= totalXP.
// The lowest tier is the fallback, so this never fails.
func DetermineRank(totalXP int64) RankTier {
	return rankTiers[rankIndex(totalXP)]
}

func rankIndex(totalXP int64) int {
	for i := len(rankTiers) - 1; i >= 0; i-- {
		if totalXP >= rankTiers[i].Threshold {
			return i
		}
	}
	return 0
}

// RankByTitle looks up a tier by its title.
func RankByTitle(title string) (RankTier, bool) {
	for _, t := range rankTiers {
		if t.Title == title {
			return t, true
		}
	}
	return RankTier{}, false
}

// RankProgressInfo describes where an agent sits between two tiers.
type RankProgressInfo struct {
	Current         RankTier  `json:"current_rank"`
	Next            *RankTier `json:"next_rank"` // nil at the top tier
	RemainingXP     int64     `json:"remaining_xp"`
	ProgressPercent int       `json:"progress_percent"`
}

// RankProgress computes progress from the current tier toward the next one.
// At the top tier it reports no next tier, 0 remaining and 100 percent.
func RankProgress(totalXP int64) RankProgressInfo {
	idx := rankIndex(totalXP)
	current := rankTiers[idx]
	if idx == len(rankTiers)-1 {
		return RankProgressInfo{Current: current, ProgressPercent: 100}
	}

	next := rankTiers[idx+1]
	span := next.Threshold - current.Threshold
	pct := int(100 * (totalXP - current.Threshold) / span)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return RankProgressInfo{
		Current:         current,
		Next:            &next,
		RemainingXP:     next.Threshold - totalXP,
		ProgressPercent: pct,
	}
}

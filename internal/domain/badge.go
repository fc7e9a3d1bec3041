package domain

// ─── Badges ─────────────────────────────────────────────────────────────────
// Permanent achievements. Unlock state is recomputed on every read and never
// stored; the evaluator does not assume predicates are monotonic.

// Rarity is a badge's tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists the tiers from most to least common.
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// BadgePredicate decides whether a badge is unlocked.
type BadgePredicate func(txs []Transaction, totalXP int64) bool

// Badge is a static catalog entry.
type Badge struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Rarity      Rarity         `json:"rarity"`
	IsUnlocked  BadgePredicate `json:"-"`
}

// BadgeStatus is a badge with its evaluated unlock state.
type BadgeStatus struct {
	Badge
	Unlocked bool   `json:"unlocked"`
	Color    string `json:"color"` // RarityColor of the badge
}

func txCountAtLeast(n int) BadgePredicate {
	return func(txs []Transaction, _ int64) bool { return len(txs) >= n }
}

func sectorCountAtLeast(n int64) BadgePredicate {
	return func(txs []Transaction, _ int64) bool { return distinctSectors(txs) >= n }
}

func xpAtLeast(rank string) BadgePredicate {
	tier, _ := RankByTitle(rank)
	return func(_ []Transaction, xp int64) bool { return xp >= tier.Threshold }
}

var badges = []Badge{
	// Common
	{ID: "first_step", Title: "FIRST STEP", Description: "初回の取引を記録した", Icon: "👣", Rarity: RarityCommon,
		IsUnlocked: txCountAtLeast(1)},
	{ID: "regular", Title: "REGULAR CUSTOMER", Description: "10回以上の取引を記録した", Icon: "🔄", Rarity: RarityCommon,
		IsUnlocked: txCountAtLeast(10)},
	{ID: "multi_sector", Title: "MULTI-SECTOR", Description: "3つ以上の異なるセクターで取引した", Icon: "🌐", Rarity: RarityCommon,
		IsUnlocked: sectorCountAtLeast(3)},

	// Rare
	{ID: "night_soldier_badge", Title: "NIGHT SOLDIER", Description: "ランク NIGHT SOLDIER に到達した", Icon: "🌙", Rarity: RarityRare,
		IsUnlocked: xpAtLeast("NIGHT SOLDIER")},
	{ID: "reviewer", Title: "THE CRITIC", Description: "Sグレード以上の評価を5回以上付けた", Icon: "⭐", Rarity: RarityRare,
		IsUnlocked: func(txs []Transaction, _ int64) bool {
			return countWhere(txs, func(tx Transaction) bool { return tx.Grade.AtLeast(GradeS) }) >= 5
		}},
	{ID: "fifty_tx", Title: "HALF CENTURY", Description: "50回以上の取引を記録した", Icon: "🎖️", Rarity: RarityRare,
		IsUnlocked: txCountAtLeast(50)},

	// Epic
	{ID: "veteran_hunter_badge", Title: "VETERAN HUNTER", Description: "ランク VETERAN HUNTER に到達した", Icon: "🦅", Rarity: RarityEpic,
		IsUnlocked: xpAtLeast("VETERAN HUNTER")},
	{ID: "whale_badge", Title: "THE WHALE", Description: "1回の取引で¥100,000以上を投資した", Icon: "🐋", Rarity: RarityEpic,
		IsUnlocked: func(txs []Transaction, _ int64) bool {
			return countWhere(txs, func(tx Transaction) bool { return tx.Investment >= 100_000 }) > 0
		}},
	{ID: "all_sectors", Title: "MAP COMPLETE", Description: "全セクター（10箇所）で取引した", Icon: "🗾", Rarity: RarityEpic,
		IsUnlocked: sectorCountAtLeast(int64(len(sectors)))},

	// Legendary
	{ID: "sector_captain_badge", Title: "SECTOR CAPTAIN", Description: "ランク SECTOR CAPTAIN に到達した", Icon: "👑", Rarity: RarityLegendary,
		IsUnlocked: xpAtLeast("SECTOR CAPTAIN")},
	{ID: "hundred_tx", Title: "CENTURION", Description: "100回以上の取引を記録した", Icon: "💯", Rarity: RarityLegendary,
		IsUnlocked: txCountAtLeast(100)},
	{ID: "sss_grade", Title: "PERFECT NIGHT", Description: "SSSグレードの評価を記録した", Icon: "✨", Rarity: RarityLegendary,
		IsUnlocked: func(txs []Transaction, _ int64) bool {
			return countWhere(txs, func(tx Transaction) bool { return tx.Grade == GradeSSS }) > 0
		}},
}

// Badges returns the badge catalog.
func Badges() []Badge { return append([]Badge(nil), badges...) }

// EvaluateBadges reports the unlock state of every badge in the catalog.
func EvaluateBadges(txs []Transaction, totalXP int64) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(badges))
	for _, b := range badges {
		out = append(out, BadgeStatus{
			Badge:    b,
			Unlocked: b.IsUnlocked(txs, totalXP),
			Color:    RarityColor(b.Rarity),
		})
	}
	return out
}

// RarityCount is the unlocked/total tally for one rarity tier.
type RarityCount struct {
	Unlocked int `json:"unlocked"`
	Total    int `json:"total"`
}

// BadgeSummary tallies evaluated badges.
type BadgeSummary struct {
	Unlocked int                    `json:"unlocked"`
	Total    int                    `json:"total"`
	ByRarity map[Rarity]RarityCount `json:"by_rarity"`
}

// SummarizeBadges tallies the output of EvaluateBadges.
func SummarizeBadges(statuses []BadgeStatus) BadgeSummary {
	s := BadgeSummary{ByRarity: make(map[Rarity]RarityCount, 4)}
	for _, b := range statuses {
		rc := s.ByRarity[b.Rarity]
		rc.Total++
		s.Total++
		if b.Unlocked {
			rc.Unlocked++
			s.Unlocked++
		}
		s.ByRarity[b.Rarity] = rc
	}
	return s
}

// RarityColor returns the CSS classes the UI uses for a rarity tier.
func RarityColor(r Rarity) string {
	switch r {
	case RarityRare:
		return "text-blue-400 border-blue-600"
	case RarityEpic:
		return "text-purple-400 border-purple-600"
	case RarityLegendary:
		return "text-yellow-400 border-yellow-600"
	default:
		return "text-gray-400 border-gray-600"
	}
}

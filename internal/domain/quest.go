package domain

import "time"

// ─── Quests ─────────────────────────────────────────────────────────────────
// Daily and weekly objectives. Nothing is persisted: every evaluation
// filters the full history to the quest's window and reruns its rule.
//
// Windows use the calendar date of `now` in now's own location. Callers pick
// the zone by converting `now` before evaluation. Transaction dates are
// zone-free YYYY-MM-DD strings, so window checks are string comparisons.

// QuestType selects the time window a quest is evaluated over.
type QuestType string

const (
	QuestDaily  QuestType = "daily"
	QuestWeekly QuestType = "weekly"
)

// QuestRule counts progress over the transactions inside a quest's window.
type QuestRule func(window []Transaction) (current, target int64)

// Quest is a static catalog entry.
// RewardXP is display metadata only; it is never added to an agent's TotalXP.
type Quest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Type        QuestType `json:"type"`
	RewardXP    int64     `json:"reward_xp"`
	Check       QuestRule `json:"-"`
}

// QuestProgress is the evaluated state of one quest.
type QuestProgress struct {
	Quest           Quest `json:"quest"`
	Current         int64 `json:"current"`
	Target          int64 `json:"target"`
	Completed       bool  `json:"completed"`
	ProgressPercent int   `json:"progress_percent"`
}

var dailyQuests = []Quest{
	{
		ID:          "daily_first_tx",
		Title:       "FIRST BLOOD",
		Description: "本日最初の取引を記録せよ",
		Icon:        "🩸",
		Type:        QuestDaily,
		RewardXP:    1000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(int64(len(txs)), 1), 1
		},
	},
	{
		ID:          "daily_high_roller",
		Title:       "HIGH ROLLER",
		Description: "1回の取引で¥50,000以上を投資せよ",
		Icon:        "💎",
		Type:        QuestDaily,
		RewardXP:    3000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(countWhere(txs, func(tx Transaction) bool { return tx.Investment >= 50_000 }), 1), 1
		},
	},
	{
		ID:          "daily_explorer",
		Title:       "EXPLORER",
		Description: "今日2つ以上のセクターで取引せよ",
		Icon:        "🗺️",
		Type:        QuestDaily,
		RewardXP:    2000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(distinctSectors(txs), 2), 2
		},
	},
}

var weeklyQuests = []Quest{
	{
		ID:          "weekly_5_tx",
		Title:       "WEEKLY WARRIOR",
		Description: "今週5回以上の取引を記録せよ",
		Icon:        "⚔️",
		Type:        QuestWeekly,
		RewardXP:    10000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(int64(len(txs)), 5), 5
		},
	},
	{
		ID:          "weekly_sector_master",
		Title:       "SECTOR CONQUEROR",
		Description: "今週3つ以上の異なるセクターで取引せよ",
		Icon:        "🏴",
		Type:        QuestWeekly,
		RewardXP:    8000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(distinctSectors(txs), 3), 3
		},
	},
	{
		ID:          "weekly_big_spender",
		Title:       "BIG SPENDER",
		Description: "今週の合計投資額¥200,000以上を達成せよ",
		Icon:        "🤑",
		Type:        QuestWeekly,
		RewardXP:    15000,
		Check: func(txs []Transaction) (int64, int64) {
			var total int64
			for _, tx := range txs {
				total += tx.Investment
			}
			return min(total, 200_000), 200_000
		},
	},
	{
		ID:          "weekly_quality",
		Title:       "CONNOISSEUR",
		Description: "今週Aグレード以上の評価を3回以上付けよ",
		Icon:        "🍷",
		Type:        QuestWeekly,
		RewardXP:    5000,
		Check: func(txs []Transaction) (int64, int64) {
			return min(countWhere(txs, func(tx Transaction) bool { return tx.Grade.AtLeast(GradeA) }), 3), 3
		},
	},
}

// DailyQuests returns the daily catalog.
func DailyQuests() []Quest { return append([]Quest(nil), dailyQuests...) }

// WeeklyQuests returns the weekly catalog.
func WeeklyQuests() []Quest { return append([]Quest(nil), weeklyQuests...) }

// Quests returns the full catalog, daily first.
func Quests() []Quest { return append(DailyQuests(), weeklyQuests...) }

// EvaluateQuests computes progress for the full catalog at time now.
func EvaluateQuests(txs []Transaction, now time.Time) []QuestProgress {
	return EvaluateQuestCatalog(Quests(), txs, now)
}

// EvaluateQuestCatalog computes progress for an arbitrary catalog.
func EvaluateQuestCatalog(catalog []Quest, txs []Transaction, now time.Time) []QuestProgress {
	windows := map[QuestType][]Transaction{
		QuestDaily:  QuestWindow(txs, QuestDaily, now),
		QuestWeekly: QuestWindow(txs, QuestWeekly, now),
	}

	out := make([]QuestProgress, 0, len(catalog))
	for _, q := range catalog {
		current, target := q.Check(windows[q.Type])
		out = append(out, QuestProgress{
			Quest:           q,
			Current:         current,
			Target:          target,
			Completed:       current >= target,
			ProgressPercent: percent(current, target),
		})
	}
	return out
}

// QuestWindow returns the transactions inside the window of the given type.
//
//	daily:  transaction date == date(now)
//	weekly: transaction date >= Monday of now's week
func QuestWindow(txs []Transaction, typ QuestType, now time.Time) []Transaction {
	var out []Transaction
	switch typ {
	case QuestDaily:
		today := now.Format(DateLayout)
		for _, tx := range txs {
			if tx.TransactionDate == today {
				out = append(out, tx)
			}
		}
	case QuestWeekly:
		monday := WeekStart(now).Format(DateLayout)
		for _, tx := range txs {
			if tx.TransactionDate >= monday {
				out = append(out, tx)
			}
		}
	}
	return out
}

// WeekStart returns midnight of the Monday on or before now, in now's location.
// A Sunday maps six days back.
func WeekStart(now time.Time) time.Time {
	back := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, now.Location())
}

func percent(current, target int64) int {
	if target <= 0 {
		return 0
	}
	return int(min(100*current/target, 100))
}

func countWhere(txs []Transaction, pred func(Transaction) bool) int64 {
	var n int64
	for _, tx := range txs {
		if pred(tx) {
			n++
		}
	}
	return n
}

func distinctSectors(txs []Transaction) int64 {
	seen := make(map[Sector]struct{}, len(txs))
	for _, tx := range txs {
		seen[tx.Sector] = struct{}{}
	}
	return int64(len(seen))
}

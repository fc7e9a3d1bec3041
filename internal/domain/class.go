package domain

import "time"

// ─── Behavioral Classes ─────────────────────────────────────────────────────

// AgentClass is a behavioral label derived from spending patterns.
type AgentClass string

const (
	ClassUnclassed AgentClass = "UNCLASSED"
	ClassWhale     AgentClass = "THE WHALE"
	ClassSniper    AgentClass = "THE SNIPER"
	ClassScout     AgentClass = "THE SCOUT"
	ClassBerserker AgentClass = "THE BERSERKER"
)

const (
	// MinClassifiedTransactions is the history size below which every agent
	// is UNCLASSED.
	MinClassifiedTransactions = 3

	WhaleAvgInvestment  = 50_000
	SniperRepeatRate    = 0.8
	ScoutUniqueRate     = 0.8
	BerserkerWeeklyRate = 3.0
)

const week = 7 * 24 * time.Hour

// ClassFeatures are the statistics the classifier decides on.
type ClassFeatures struct {
	AvgInvestment    float64 `json:"avg_investment"`
	RepeatRate       float64 `json:"repeat_rate"`
	UniqueVendorRate float64 `json:"unique_vendor_rate"`
	WeeklyRate       float64 `json:"weekly_rate"`
}

// ComputeClassFeatures derives classifier statistics from a non-empty history.
//
//	repeatRate       = vendors seen more than once / max(distinct vendors, 1)
//	uniqueVendorRate = distinct vendors / transactions
//	weeklyRate       = transactions / max(weeks between first and last date, 1)
func ComputeClassFeatures(txs []Transaction) ClassFeatures {
	if len(txs) == 0 {
		return ClassFeatures{}
	}

	var sum int64
	vendorCounts := make(map[string]int)
	first, last := txs[0].Date(), txs[0].Date()
	for _, tx := range txs {
		sum += tx.Investment
		if tx.Vendor != "" {
			vendorCounts[tx.Vendor]++
		}
		d := tx.Date()
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	repeated := 0
	for _, n := range vendorCounts {
		if n > 1 {
			repeated++
		}
	}

	n := float64(len(txs))
	weeks := max(float64(last.Sub(first))/float64(week), 1)

	return ClassFeatures{
		AvgInvestment:    float64(sum) / n,
		RepeatRate:       float64(repeated) / float64(max(len(vendorCounts), 1)),
		UniqueVendorRate: float64(len(vendorCounts)) / n,
		WeeklyRate:       n / weeks,
	}
}

// DetermineClass assigns exactly one class. Rules are checked in priority
// order and the first match wins: WHALE, SNIPER, SCOUT, BERSERKER.
func DetermineClass(txs []Transaction) AgentClass {
	if len(txs) < MinClassifiedTransactions {
		return ClassUnclassed
	}

	f := ComputeClassFeatures(txs)
	switch {
	case f.AvgInvestment >= WhaleAvgInvestment:
		return ClassWhale
	case f.RepeatRate >= SniperRepeatRate:
		return ClassSniper
	case f.UniqueVendorRate >= ScoutUniqueRate:
		return ClassScout
	case f.WeeklyRate >= BerserkerWeeklyRate:
		return ClassBerserker
	default:
		return ClassUnclassed
	}
}

// ClassInfo is the display metadata for a class.
type ClassInfo struct {
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var classInfo = map[AgentClass]ClassInfo{
	ClassUnclassed: {Label: "未分類", Icon: "❓", Description: "データ不足。3件以上の取引を記録せよ。"},
	ClassWhale:     {Label: "鯨", Icon: "🐋", Description: "平均投資額5万超。札束で殴るスタイル。"},
	ClassSniper:    {Label: "狙撃手", Icon: "🎯", Description: "リピート率80%超。ハズレを引かない。"},
	ClassScout:     {Label: "斥候", Icon: "🔭", Description: "新規開拓率80%超。人柱の鑑。"},
	ClassBerserker: {Label: "狂戦士", Icon: "⚡", Description: "週3回以上の出撃。止まれない体。"},
}

// Info returns the display metadata for c. Unknown classes get the
// UNCLASSED entry.
func (c AgentClass) Info() ClassInfo {
	if info, ok := classInfo[c]; ok {
		return info
	}
	return classInfo[ClassUnclassed]
}

// ─── Main Sector ────────────────────────────────────────────────────────────

// MainSector returns the most frequent sector in txs. Ties go to the sector
// that appears first in the supplied order. Empty history yields
// UnknownSector.
func MainSector(txs []Transaction) string {
	counts := make(map[Sector]int)
	var order []Sector
	for _, tx := range txs {
		if _, seen := counts[tx.Sector]; !seen {
			order = append(order, tx.Sector)
		}
		counts[tx.Sector]++
	}

	best, bestCount := UnknownSector, 0
	for _, s := range order {
		if counts[s] > bestCount {
			best, bestCount = string(s), counts[s]
		}
	}
	return best
}

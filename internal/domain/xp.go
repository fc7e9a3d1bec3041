package domain

import "math"

// ─── XP Calculation ─────────────────────────────────────────────────────────
// 1 currency unit = 1 XP, then multiplicative bonuses.

const (
	// ComboMultiplier applies to a vendor the agent has visited before.
	ComboMultiplier = 1.2

	// RiskMultiplier applies to the first visit of a named vendor.
	RiskMultiplier = 1.5
)

// CalculateXP converts an investment into an XP award.
//
// The repeat bonus is floored before the first-visit bonus is applied, and
// the result is floored again. Stored XP was produced this way, so the
// two-step floor is kept for parity even though a single final floor would
// differ for some inputs.
func CalculateXP(investment int64, isRepeatVendor, isFirstVisit bool) int64 {
	xp := investment
	if isRepeatVendor {
		xp = int64(math.Floor(float64(xp) * ComboMultiplier))
	}
	if isFirstVisit {
		xp = int64(math.Floor(float64(xp) * RiskMultiplier))
	}
	return xp
}

// VendorBonus derives the bonus flags for a new transaction at vendor,
// given the history recorded before it. An empty vendor earns neither.
func VendorBonus(history []Transaction, vendor string) (isRepeatVendor, isFirstVisit bool) {
	if vendor == "" {
		return false, false
	}
	for _, tx := range history {
		if tx.Vendor == vendor {
			return true, false
		}
	}
	return false, true
}

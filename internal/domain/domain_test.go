package domain

import (
	"testing"
	"time"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func tx(date string, sector Sector, vendor string, investment int64, grade Grade) Transaction {
	return Transaction{
		TransactionDate: date,
		Sector:          sector,
		Vendor:          vendor,
		Investment:      investment,
		Grade:           grade,
	}
}

// ─── Rank Tests ─────────────────────────────────────────────────────────────

func TestDetermineRank(t *testing.T) {
	tests := []struct {
		xp   int64
		want string
	}{
		{0, "ROOKIE WALKER"},
		{99_999, "ROOKIE WALKER"},
		{100_000, "NIGHT SOLDIER"},
		{499_999, "NIGHT SOLDIER"},
		{500_000, "VETERAN HUNTER"},
		{1_000_000, "SECTOR CAPTAIN"},
		{3_000_000, "YOKOHAMA DON"},
		{4_999_999, "YOKOHAMA DON"},
		{5_000_000, "SAINT ZERO"},
		{90_000_000, "SAINT ZERO"},
	}
	for _, tt := range tests {
		if got := DetermineRank(tt.xp).Title; got != tt.want {
			t.Errorf("DetermineRank(%d) = %q, want %q", tt.xp, got, tt.want)
		}
	}
}

func TestDetermineRank_Monotonic(t *testing.T) {
	prev := DetermineRank(0).Threshold
	for xp := int64(0); xp <= 6_000_000; xp += 25_000 {
		th := DetermineRank(xp).Threshold
		if th < prev {
			t.Fatalf("rank threshold decreased at xp=%d: %d < %d", xp, th, prev)
		}
		prev = th
	}
}

func TestRankProgress_MidTier(t *testing.T) {
	p := RankProgress(50_000)
	if p.Current.Title != "ROOKIE WALKER" {
		t.Errorf("Current = %q, want ROOKIE WALKER", p.Current.Title)
	}
	if p.Next == nil || p.Next.Title != "NIGHT SOLDIER" {
		t.Fatalf("Next = %v, want NIGHT SOLDIER", p.Next)
	}
	if p.RemainingXP != 50_000 {
		t.Errorf("RemainingXP = %d, want 50000", p.RemainingXP)
	}
	if p.ProgressPercent != 50 {
		t.Errorf("ProgressPercent = %d, want 50", p.ProgressPercent)
	}
}

func TestRankProgress_FloorsPercent(t *testing.T) {
	// (499,999 - 100,000) / 400,000 = 99.99…%
	p := RankProgress(499_999)
	if p.ProgressPercent != 99 {
		t.Errorf("ProgressPercent = %d, want 99", p.ProgressPercent)
	}
	if p.RemainingXP != 1 {
		t.Errorf("RemainingXP = %d, want 1", p.RemainingXP)
	}
}

func TestRankProgress_MaxTier(t *testing.T) {
	p := RankProgress(7_000_000)
	if p.Next != nil {
		t.Errorf("Next = %v, want nil at max tier", p.Next)
	}
	if p.RemainingXP != 0 {
		t.Errorf("RemainingXP = %d, want 0", p.RemainingXP)
	}
	if p.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %d, want 100", p.ProgressPercent)
	}
}

func TestRankProgress_PercentBounds(t *testing.T) {
	for xp := int64(0); xp <= 6_000_000; xp += 12_345 {
		p := RankProgress(xp)
		if p.ProgressPercent < 0 || p.ProgressPercent > 100 {
			t.Fatalf("xp=%d: ProgressPercent %d out of range", xp, p.ProgressPercent)
		}
		atMax := p.Next == nil
		if (p.ProgressPercent == 100) != atMax {
			t.Fatalf("xp=%d: percent=100 is %v but atMax is %v", xp, p.ProgressPercent == 100, atMax)
		}
	}
}

func TestRankByTitle(t *testing.T) {
	tier, ok := RankByTitle("VETERAN HUNTER")
	if !ok || tier.Threshold != 500_000 {
		t.Errorf("RankByTitle(VETERAN HUNTER) = %+v, %v", tier, ok)
	}
	if _, ok := RankByTitle("NOPE"); ok {
		t.Error("RankByTitle(NOPE) should not be found")
	}
}

// ─── XP Tests ───────────────────────────────────────────────────────────────

func TestCalculateXP(t *testing.T) {
	tests := []struct {
		name       string
		investment int64
		repeat     bool
		first      bool
		want       int64
	}{
		{"no bonus", 10_000, false, false, 10_000},
		{"repeat vendor", 10_000, true, false, 12_000},
		{"first visit", 10_000, false, true, 15_000},
		{"both applied in sequence", 10_000, true, true, 18_000},
		{"zero investment", 0, true, false, 0},
		// floor(floor(3×1.2)×1.5) = floor(3×1.5) = 4, a single floor would give 5
		{"two-step floor", 3, true, true, 4},
		{"repeat floors", 7, true, false, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateXP(tt.investment, tt.repeat, tt.first)
			if got != tt.want {
				t.Errorf("CalculateXP(%d, %v, %v) = %d, want %d", tt.investment, tt.repeat, tt.first, got, tt.want)
			}
		})
	}
}

func TestVendorBonus(t *testing.T) {
	history := []Transaction{tx("2026-10-01", SectorOsaka, "BAR X", 1000, GradeB)}

	if r, f := VendorBonus(history, ""); r || f {
		t.Errorf("empty vendor: repeat=%v first=%v, want false false", r, f)
	}
	if r, f := VendorBonus(history, "BAR X"); !r || f {
		t.Errorf("known vendor: repeat=%v first=%v, want true false", r, f)
	}
	if r, f := VendorBonus(history, "BAR Y"); r || !f {
		t.Errorf("new vendor: repeat=%v first=%v, want false true", r, f)
	}
	if r, f := VendorBonus(nil, "BAR Y"); r || !f {
		t.Errorf("empty history: repeat=%v first=%v, want false true", r, f)
	}
}

// ─── Class Tests ────────────────────────────────────────────────────────────

func TestDetermineClass_BelowFloor(t *testing.T) {
	if got := DetermineClass(nil); got != ClassUnclassed {
		t.Errorf("DetermineClass(nil) = %q, want UNCLASSED", got)
	}
	two := []Transaction{
		tx("2026-10-01", SectorOsaka, "A", 900_000, GradeSSS),
		tx("2026-10-01", SectorOsaka, "A", 900_000, GradeSSS),
	}
	if got := DetermineClass(two); got != ClassUnclassed {
		t.Errorf("DetermineClass(2 txs) = %q, want UNCLASSED", got)
	}
}

func TestDetermineClass(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want AgentClass
	}{
		{
			name: "whale wins over sniper",
			txs: []Transaction{
				tx("2026-09-01", SectorOsaka, "A", 60_000, GradeB),
				tx("2026-09-08", SectorOsaka, "A", 60_000, GradeB),
				tx("2026-09-15", SectorOsaka, "A", 60_000, GradeB),
			},
			want: ClassWhale,
		},
		{
			name: "sniper: one vendor five times",
			txs: []Transaction{
				tx("2026-08-01", SectorOsaka, "A", 10_000, GradeB),
				tx("2026-08-15", SectorOsaka, "A", 10_000, GradeB),
				tx("2026-09-01", SectorOsaka, "A", 10_000, GradeB),
				tx("2026-09-15", SectorOsaka, "A", 10_000, GradeB),
				tx("2026-10-01", SectorOsaka, "A", 10_000, GradeB),
			},
			want: ClassSniper,
		},
		{
			name: "scout: every vendor new",
			txs: []Transaction{
				tx("2026-08-01", SectorOsaka, "A", 1_000, GradeB),
				tx("2026-09-01", SectorOsaka, "B", 1_000, GradeB),
				tx("2026-10-01", SectorOsaka, "C", 1_000, GradeB),
			},
			want: ClassScout,
		},
		{
			name: "berserker: six visits in one week, no vendors",
			txs: []Transaction{
				tx("2026-10-05", SectorOsaka, "", 1_000, GradeB),
				tx("2026-10-06", SectorOsaka, "", 1_000, GradeB),
				tx("2026-10-07", SectorOsaka, "", 1_000, GradeB),
				tx("2026-10-08", SectorOsaka, "", 1_000, GradeB),
				tx("2026-10-09", SectorOsaka, "", 1_000, GradeB),
				tx("2026-10-10", SectorOsaka, "", 1_000, GradeB),
			},
			want: ClassBerserker,
		},
		{
			name: "unclassed: sparse and anonymous",
			txs: []Transaction{
				tx("2026-07-01", SectorOsaka, "", 1_000, GradeB),
				tx("2026-08-12", SectorOsaka, "", 1_000, GradeB),
				tx("2026-09-09", SectorOsaka, "", 1_000, GradeB),
			},
			want: ClassUnclassed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineClass(tt.txs); got != tt.want {
				t.Errorf("DetermineClass() = %q, want %q (features %+v)", got, tt.want, ComputeClassFeatures(tt.txs))
			}
		})
	}
}

func TestComputeClassFeatures_SpanFloor(t *testing.T) {
	// Same-day history: span clamps to one week.
	txs := []Transaction{
		tx("2026-10-01", SectorOsaka, "A", 1_000, GradeB),
		tx("2026-10-01", SectorOsaka, "A", 3_000, GradeB),
		tx("2026-10-01", SectorOsaka, "B", 2_000, GradeB),
		tx("2026-10-01", SectorOsaka, "", 2_000, GradeB),
	}
	f := ComputeClassFeatures(txs)
	if f.WeeklyRate != 4 {
		t.Errorf("WeeklyRate = %f, want 4", f.WeeklyRate)
	}
	if f.AvgInvestment != 2_000 {
		t.Errorf("AvgInvestment = %f, want 2000", f.AvgInvestment)
	}
	if f.RepeatRate != 0.5 {
		t.Errorf("RepeatRate = %f, want 0.5", f.RepeatRate)
	}
	if f.UniqueVendorRate != 0.5 {
		t.Errorf("UniqueVendorRate = %f, want 0.5", f.UniqueVendorRate)
	}
}

func TestAgentClass_Info(t *testing.T) {
	if ClassWhale.Info().Icon != "🐋" {
		t.Errorf("WHALE icon = %q", ClassWhale.Info().Icon)
	}
	if AgentClass("BOGUS").Info() != ClassUnclassed.Info() {
		t.Error("unknown class should fall back to UNCLASSED info")
	}
}

// ─── Main Sector Tests ──────────────────────────────────────────────────────

func TestMainSector(t *testing.T) {
	if got := MainSector(nil); got != UnknownSector {
		t.Errorf("MainSector(nil) = %q, want %q", got, UnknownSector)
	}

	txs := []Transaction{
		tx("2026-10-01", SectorOsaka, "", 1, GradeB),
		tx("2026-10-01", SectorShinjuku, "", 1, GradeB),
		tx("2026-10-01", SectorShinjuku, "", 1, GradeB),
	}
	if got := MainSector(txs); got != string(SectorShinjuku) {
		t.Errorf("MainSector() = %q, want SHINJUKU", got)
	}

	tied := []Transaction{
		tx("2026-10-01", SectorOsaka, "", 1, GradeB),
		tx("2026-10-01", SectorShinjuku, "", 1, GradeB),
	}
	if got := MainSector(tied); got != string(SectorOsaka) {
		t.Errorf("MainSector(tied) = %q, want first-seen OSAKA", got)
	}
}

// ─── Enum Tests ─────────────────────────────────────────────────────────────

func TestGrade_AtLeast(t *testing.T) {
	tests := []struct {
		g, min Grade
		want   bool
	}{
		{GradeA, GradeA, true},
		{GradeSSS, GradeA, true},
		{GradeB, GradeA, false},
		{GradeF, GradeF, true},
		{Grade("Z"), GradeF, false},
	}
	for _, tt := range tests {
		if got := tt.g.AtLeast(tt.min); got != tt.want {
			t.Errorf("%q.AtLeast(%q) = %v, want %v", tt.g, tt.min, got, tt.want)
		}
	}
}

func TestSectorAndGradeValid(t *testing.T) {
	if len(Sectors()) != 10 {
		t.Errorf("expected 10 sectors, got %d", len(Sectors()))
	}
	if !SectorFukuoka.Valid() || Sector("MARS").Valid() {
		t.Error("Sector.Valid mismatch")
	}
	if len(Grades()) != 8 || !GradeSS.Valid() || Grade("E").Valid() {
		t.Error("Grade.Valid mismatch")
	}
}

func TestTransaction_Date(t *testing.T) {
	got := tx("2026-10-14", SectorOsaka, "", 0, GradeB).Date()
	want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Date() = %v, want %v", got, want)
	}
	if !(Transaction{TransactionDate: "garbage"}).Date().IsZero() {
		t.Error("unparseable date should be zero")
	}
}

func TestNewAgent(t *testing.T) {
	a := NewAgent("id-1", "NEO", time.Unix(0, 0))
	if a.Rank != "ROOKIE WALKER" || a.AgentClass != ClassUnclassed || a.MainSector != UnknownSector || a.TotalXP != 0 {
		t.Errorf("NewAgent() = %+v", a)
	}
}

func TestGradeScale(t *testing.T) {
	got := GradeScale()
	if len(got) != len(Grades()) {
		t.Fatalf("GradeScale() has %d entries, want %d", len(got), len(Grades()))
	}
	tests := map[Grade]string{
		GradeF:   "text-gray-500",
		GradeD:   "text-gray-400",
		GradeA:   "text-purple-400",
		GradeSSS: "text-red-400",
	}
	for _, gi := range got {
		if want, ok := tests[gi.Grade]; ok && gi.Color != want {
			t.Errorf("%s color = %q, want %q", gi.Grade, gi.Color, want)
		}
	}
	if got[0].Grade != GradeF || got[len(got)-1].Grade != GradeSSS {
		t.Errorf("scale order = %s..%s", got[0].Grade, got[len(got)-1].Grade)
	}
}

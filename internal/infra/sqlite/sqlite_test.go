package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nocturna-app/nocturna/internal/domain"
)

var t0 = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustAgent(t *testing.T, db *DB, id, codename string) domain.Agent {
	t.Helper()
	a := domain.NewAgent(id, codename, t0)
	if err := db.CreateAgent(context.Background(), a); err != nil {
		t.Fatalf("CreateAgent(%s) error: %v", id, err)
	}
	return a
}

func mustCommit(t *testing.T, db *DB, a domain.Agent, tx domain.Transaction) {
	t.Helper()
	tx.AgentID = a.ID
	a.TotalXP += tx.XPEarned
	if err := db.CommitTransaction(context.Background(), tx, a); err != nil {
		t.Fatalf("CommitTransaction(%s) error: %v", tx.ID, err)
	}
}

// ─── Open ───────────────────────────────────────────────────────────────────

func TestOpen_CreatesFileAndIsReentrant(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	db.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	db.Close()
}

// ─── Agents ─────────────────────────────────────────────────────────────────

func TestAgent_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustAgent(t, db, "a1", "NEO")

	got, err := db.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAgent() error: %v", err)
	}
	if got.Codename != "NEO" || got.Rank != "ROOKIE WALKER" || got.AgentClass != domain.ClassUnclassed || got.MainSector != domain.UnknownSector {
		t.Errorf("GetAgent() = %+v", got)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, t0)
	}

	byName, err := db.GetAgentByCodename(ctx, "NEO")
	if err != nil || byName.ID != "a1" {
		t.Errorf("GetAgentByCodename() = %+v, %v", byName, err)
	}
}

func TestAgent_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetAgent(context.Background(), "nope"); !errors.Is(err, domain.ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}

func TestAgent_DuplicateCodename(t *testing.T) {
	db := newTestDB(t)
	mustAgent(t, db, "a1", "NEO")
	if err := db.CreateAgent(context.Background(), domain.NewAgent("a2", "NEO", t0)); err == nil {
		t.Error("expected unique violation on codename")
	}
}

func TestListAgents_OrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustAgent(t, db, "low", "LOW")
	high := mustAgent(t, db, "high", "HIGH")
	mid := mustAgent(t, db, "mid", "MID")

	high.MainSector = string(domain.SectorOsaka)
	mustCommit(t, db, high, domain.Transaction{ID: "t1", TransactionDate: "2026-10-14", Sector: domain.SectorOsaka, Grade: domain.GradeB, XPEarned: 900, CreatedAt: t0})
	mid.MainSector = string(domain.SectorNagoya)
	mustCommit(t, db, mid, domain.Transaction{ID: "t2", TransactionDate: "2026-10-14", Sector: domain.SectorNagoya, Grade: domain.GradeB, XPEarned: 500, CreatedAt: t0})

	all, err := db.ListAgents(ctx, "", 100)
	if err != nil {
		t.Fatalf("ListAgents() error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "high" || all[1].ID != "mid" || all[2].ID != "low" {
		t.Errorf("order = %v", ids(all))
	}

	osaka, err := db.ListAgents(ctx, string(domain.SectorOsaka), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(osaka) != 1 || osaka[0].ID != "high" {
		t.Errorf("sector filter = %v", ids(osaka))
	}

	top, _ := db.ListAgents(ctx, "", 2)
	if len(top) != 2 {
		t.Errorf("limit 2 returned %d", len(top))
	}
}

func TestGetAgentsByID(t *testing.T) {
	db := newTestDB(t)
	mustAgent(t, db, "a", "ALPHA")
	mustAgent(t, db, "b", "BRAVO")

	got, err := db.GetAgentsByID(context.Background(), []string{"a", "b", "ghost"})
	if err != nil {
		t.Fatalf("GetAgentsByID() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}

	empty, err := db.GetAgentsByID(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty ids: %v, %v", empty, err)
	}
}

func ids(agents []domain.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestCommitTransaction_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustAgent(t, db, "a1", "NEO")

	a.Rank = "NIGHT SOLDIER"
	a.AgentClass = domain.ClassWhale
	a.MainSector = string(domain.SectorGotanda)
	mustCommit(t, db, a, domain.Transaction{
		ID:              "t1",
		TransactionDate: "2026-10-14",
		Sector:          domain.SectorGotanda,
		Vendor:          "CLUB X",
		CastAlias:       "MIKA",
		Investment:      150_000,
		Grade:           domain.GradeSS,
		Tags:            []string{"vip", "late", "anniv"},
		PrivateNote:     "note",
		IsPublic:        true,
		XPEarned:        150_000,
		CreatedAt:       t0,
	})

	txs, err := db.ListTransactions(ctx, "a1")
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len = %d, want 1", len(txs))
	}
	got := txs[0]
	if got.Vendor != "CLUB X" || got.CastAlias != "MIKA" || got.Investment != 150_000 || got.Grade != domain.GradeSS || !got.IsPublic {
		t.Errorf("transaction = %+v", got)
	}
	if len(got.Tags) != 3 || got.Tags[0] != "vip" || got.Tags[1] != "late" || got.Tags[2] != "anniv" {
		t.Errorf("Tags = %v, want order preserved", got.Tags)
	}

	agent, _ := db.GetAgent(ctx, "a1")
	if agent.TotalXP != 150_000 || agent.Rank != "NIGHT SOLDIER" || agent.AgentClass != domain.ClassWhale || agent.MainSector != "GOTANDA" {
		t.Errorf("agent aggregates not written: %+v", agent)
	}
}

func TestCommitTransaction_NilTagsStoredAsEmpty(t *testing.T) {
	db := newTestDB(t)
	a := mustAgent(t, db, "a1", "NEO")
	mustCommit(t, db, a, domain.Transaction{ID: "t1", TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB, CreatedAt: t0})

	got, err := db.GetTransaction(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty slice", got.Tags)
	}
}

func TestCommitTransaction_UnknownAgentRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	err := db.CommitTransaction(ctx,
		domain.Transaction{ID: "t1", TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB, CreatedAt: t0},
		domain.Agent{ID: "ghost"})
	if !errors.Is(err, domain.ErrAgentNotFound) {
		t.Fatalf("err = %v, want ErrAgentNotFound", err)
	}
	if _, err := db.GetTransaction(ctx, "t1"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("transaction should not exist, err = %v", err)
	}
}

func TestListTransactions_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	a := mustAgent(t, db, "a1", "NEO")
	for i, id := range []string{"old", "mid", "new"} {
		mustCommit(t, db, a, domain.Transaction{
			ID: id, TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	// Same instant as "new"; insertion order breaks the tie.
	mustCommit(t, db, a, domain.Transaction{ID: "newest", TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB, CreatedAt: t0.Add(2 * time.Minute)})

	txs, err := db.ListTransactions(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"newest", "new", "mid", "old"}
	for i, w := range want {
		if txs[i].ID != w {
			t.Errorf("txs[%d] = %s, want %s", i, txs[i].ID, w)
		}
	}
}

func TestTransactionsSince_And_Vendor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustAgent(t, db, "a1", "NEO")
	mustCommit(t, db, a, domain.Transaction{ID: "sep", TransactionDate: "2026-09-30", Sector: domain.SectorOther, Vendor: "V1", Grade: domain.GradeB, CreatedAt: t0})
	mustCommit(t, db, a, domain.Transaction{ID: "oct", TransactionDate: "2026-10-01", Sector: domain.SectorOther, Vendor: "V2", Grade: domain.GradeB, CreatedAt: t0})

	since, err := db.TransactionsSince(ctx, "2026-10-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 1 || since[0].ID != "oct" {
		t.Errorf("TransactionsSince = %+v", since)
	}

	v1, err := db.VendorTransactions(ctx, "V1")
	if err != nil {
		t.Fatal(err)
	}
	if len(v1) != 1 || v1[0].ID != "sep" {
		t.Errorf("VendorTransactions = %+v", v1)
	}
}

func TestPublicFeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mustAgent(t, db, "a1", "NEO")
	mustCommit(t, db, a, domain.Transaction{ID: "pub1", TransactionDate: "2026-10-14", Sector: domain.SectorOsaka, Vendor: "HIDDEN", Grade: domain.GradeA, Tags: []string{"x"}, IsPublic: true, CreatedAt: t0})
	mustCommit(t, db, a, domain.Transaction{ID: "priv", TransactionDate: "2026-10-14", Sector: domain.SectorOsaka, Grade: domain.GradeA, CreatedAt: t0.Add(time.Minute)})
	mustCommit(t, db, a, domain.Transaction{ID: "pub2", TransactionDate: "2026-10-14", Sector: domain.SectorNagoya, Grade: domain.GradeA, IsPublic: true, CreatedAt: t0.Add(2 * time.Minute)})

	feed, err := db.PublicFeed(ctx, "", 50)
	if err != nil {
		t.Fatalf("PublicFeed() error: %v", err)
	}
	if len(feed) != 2 || feed[0].ID != "pub2" || feed[1].ID != "pub1" {
		t.Fatalf("feed = %+v", feed)
	}
	if feed[1].AgentCodename != "NEO" || feed[1].AgentRank != "ROOKIE WALKER" || len(feed[1].Tags) != 1 {
		t.Errorf("feed row = %+v", feed[1])
	}

	osaka, _ := db.PublicFeed(ctx, string(domain.SectorOsaka), 50)
	if len(osaka) != 1 || osaka[0].ID != "pub1" {
		t.Errorf("sector feed = %+v", osaka)
	}

	mine, err := db.PublicTransactionsByAgent(ctx, "a1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != "pub2" {
		t.Errorf("PublicTransactionsByAgent = %+v", mine)
	}
}

// ─── Respects ───────────────────────────────────────────────────────────────

func TestInsertRespect(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustAgent(t, db, "owner", "OWNER")
	mustAgent(t, db, "fan", "FAN")
	mustCommit(t, db, owner, domain.Transaction{ID: "t1", TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB, IsPublic: true, CreatedAt: t0})

	if err := db.InsertRespect(ctx, "t1", "fan", t0); err != nil {
		t.Fatalf("InsertRespect() error: %v", err)
	}
	if err := db.InsertRespect(ctx, "t1", "fan", t0); !errors.Is(err, domain.ErrAlreadyRespected) {
		t.Errorf("duplicate err = %v, want ErrAlreadyRespected", err)
	}

	got, _ := db.GetTransaction(ctx, "t1")
	if got.RespectCount != 1 {
		t.Errorf("RespectCount = %d, want 1", got.RespectCount)
	}

	set, err := db.RespectedSet(ctx, "fan", []string{"t1", "other"})
	if err != nil {
		t.Fatal(err)
	}
	if !set["t1"] || set["other"] {
		t.Errorf("RespectedSet = %v", set)
	}
}

func TestInsertRespect_UnknownTransaction(t *testing.T) {
	db := newTestDB(t)
	mustAgent(t, db, "fan", "FAN")
	if err := db.InsertRespect(context.Background(), "ghost", "fan", t0); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestInsertRespect_ConcurrentWriters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustAgent(t, db, "owner", "OWNER")
	mustCommit(t, db, owner, domain.Transaction{ID: "t1", TransactionDate: "2026-10-14", Sector: domain.SectorOther, Grade: domain.GradeB, IsPublic: true, CreatedAt: t0})

	const fans = 10
	for i := 0; i < fans; i++ {
		mustAgent(t, db, fmt.Sprintf("fan%d", i), fmt.Sprintf("FAN%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, fans*2)
	for i := 0; i < fans; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- db.InsertRespect(ctx, "t1", fmt.Sprintf("fan%d", i), t0)
		}(i)
		// owner commits interleave with respects to contend for the write lock
		go func(i int) {
			defer wg.Done()
			a, err := db.GetAgent(ctx, "owner")
			if err != nil {
				errs <- err
				return
			}
			errs <- db.CommitTransaction(ctx, domain.Transaction{
				ID: fmt.Sprintf("c%d", i), AgentID: "owner", TransactionDate: "2026-10-14",
				Sector: domain.SectorOther, Grade: domain.GradeB, CreatedAt: t0,
			}, *a)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent write error: %v", err)
		}
	}

	got, _ := db.GetTransaction(ctx, "t1")
	if got.RespectCount != fans {
		t.Errorf("RespectCount = %d, want %d", got.RespectCount, fans)
	}
}

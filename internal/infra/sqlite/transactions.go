package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nocturna-app/nocturna/internal/domain"
)

// ─── Transaction Operations ─────────────────────────────────────────────────

const txColumns = `id, agent_id, transaction_date, sector, vendor, cast_alias, investment,
	grade, tags_json, private_note, is_public, xp_earned, respect_count, created_at`

// newestFirst orders by insertion time; rowid breaks same-instant ties.
const newestFirst = ` ORDER BY created_at DESC, rowid DESC`

type txRow struct {
	ID              string `db:"id"`
	AgentID         string `db:"agent_id"`
	TransactionDate string `db:"transaction_date"`
	Sector          string `db:"sector"`
	Vendor          string `db:"vendor"`
	CastAlias       string `db:"cast_alias"`
	Investment      int64  `db:"investment"`
	Grade           string `db:"grade"`
	TagsJSON        string `db:"tags_json"`
	PrivateNote     string `db:"private_note"`
	IsPublic        bool   `db:"is_public"`
	XPEarned        int64  `db:"xp_earned"`
	RespectCount    int    `db:"respect_count"`
	CreatedAt       string `db:"created_at"`
}

func (r txRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:              r.ID,
		AgentID:         r.AgentID,
		TransactionDate: r.TransactionDate,
		Sector:          domain.Sector(r.Sector),
		Vendor:          r.Vendor,
		CastAlias:       r.CastAlias,
		Investment:      r.Investment,
		Grade:           domain.Grade(r.Grade),
		Tags:            decodeTags(r.TagsJSON),
		PrivateNote:     r.PrivateNote,
		IsPublic:        r.IsPublic,
		XPEarned:        r.XPEarned,
		RespectCount:    r.RespectCount,
		CreatedAt:       parseTime(r.CreatedAt),
	}
}

func txsFromRows(rows []txRow) []domain.Transaction {
	out := make([]domain.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(s string) []string {
	tags := []string{}
	if s == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return []string{}
	}
	return tags
}

// CommitTransaction inserts t and overwrites the owning agent's aggregate
// fields in one database transaction.
func (db *DB) CommitTransaction(ctx context.Context, t domain.Transaction, agent domain.Agent) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return errors.Wrap(err, "encode tags")
	}

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE agents SET rank = ?, total_xp = ?, main_sector = ?, agent_class = ?
			WHERE id = ?
		`, agent.Rank, agent.TotalXP, agent.MainSector, string(agent.AgentClass), agent.ID)
		if err != nil {
			return errors.Wrap(err, "update agent")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrAgentNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (`+txColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, agent.ID, t.TransactionDate, string(t.Sector), t.Vendor, t.CastAlias, t.Investment,
			string(t.Grade), tags, t.PrivateNote, t.IsPublic, t.XPEarned, t.RespectCount, formatTime(t.CreatedAt))
		if err != nil {
			return errors.Wrap(err, "insert transaction")
		}
		return nil
	})
}

// GetTransaction fetches a transaction by ID.
func (db *DB) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var r txRow
	err := db.db.GetContext(ctx, &r, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get transaction")
	}
	t := r.toDomain()
	return &t, nil
}

// ListTransactions returns an agent's full history, newest first.
func (db *DB) ListTransactions(ctx context.Context, agentID string) ([]domain.Transaction, error) {
	return db.selectTxs(ctx, `SELECT `+txColumns+` FROM transactions WHERE agent_id = ?`+newestFirst, agentID)
}

// TransactionsSince returns every agent's transactions dated on or after
// date (YYYY-MM-DD).
func (db *DB) TransactionsSince(ctx context.Context, date string) ([]domain.Transaction, error) {
	return db.selectTxs(ctx, `SELECT `+txColumns+` FROM transactions WHERE transaction_date >= ?`+newestFirst, date)
}

// VendorTransactions returns every transaction recorded against vendor.
func (db *DB) VendorTransactions(ctx context.Context, vendor string) ([]domain.Transaction, error) {
	return db.selectTxs(ctx, `SELECT `+txColumns+` FROM transactions WHERE vendor = ?`+newestFirst, vendor)
}

// PublicTransactionsByAgent returns an agent's public transactions, newest
// first, at most limit rows.
func (db *DB) PublicTransactionsByAgent(ctx context.Context, agentID string, limit int) ([]domain.Transaction, error) {
	return db.selectTxs(ctx, `SELECT `+txColumns+` FROM transactions
		WHERE agent_id = ? AND is_public = 1`+newestFirst+` LIMIT ?`, agentID, limit)
}

func (db *DB) selectTxs(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	var rows []txRow
	if err := db.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select transactions")
	}
	return txsFromRows(rows), nil
}

// ─── Public Feed ────────────────────────────────────────────────────────────

type feedRow struct {
	ID            string `db:"id"`
	AgentCodename string `db:"agent_codename"`
	AgentRank     string `db:"agent_rank"`
	Sector        string `db:"sector"`
	Investment    int64  `db:"investment"`
	Grade         string `db:"grade"`
	TagsJSON      string `db:"tags_json"`
	XPEarned      int64  `db:"xp_earned"`
	RespectCount  int    `db:"respect_count"`
	CreatedAt     string `db:"created_at"`
}

// PublicFeed returns the newest public transactions across all agents,
// joined with the owner's codename and rank. An empty sector matches all.
func (db *DB) PublicFeed(ctx context.Context, sector string, limit int) ([]domain.PublicTransaction, error) {
	query := `
		SELECT t.id, a.codename AS agent_codename, a.rank AS agent_rank, t.sector, t.investment,
			t.grade, t.tags_json, t.xp_earned, t.respect_count, t.created_at
		FROM transactions t
		JOIN agents a ON a.id = t.agent_id
		WHERE t.is_public = 1`
	var args []any
	if sector != "" {
		query += ` AND t.sector = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY t.created_at DESC, t.rowid DESC LIMIT ?`
	args = append(args, limit)

	var rows []feedRow
	if err := db.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "public feed")
	}
	out := make([]domain.PublicTransaction, len(rows))
	for i, r := range rows {
		out[i] = domain.PublicTransaction{
			ID:            r.ID,
			AgentCodename: r.AgentCodename,
			AgentRank:     r.AgentRank,
			Sector:        domain.Sector(r.Sector),
			Investment:    r.Investment,
			Grade:         domain.Grade(r.Grade),
			Tags:          decodeTags(r.TagsJSON),
			XPEarned:      r.XPEarned,
			RespectCount:  r.RespectCount,
			CreatedAt:     parseTime(r.CreatedAt),
		}
	}
	return out, nil
}

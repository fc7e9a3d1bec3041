package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nocturna-app/nocturna/internal/domain"
)

// ─── Respect Operations ─────────────────────────────────────────────────────

// InsertRespect records that fromAgentID respected transactionID and bumps
// the transaction's respect_count in the same database transaction.
// A second respect from the same agent returns domain.ErrAlreadyRespected.
func (db *DB) InsertRespect(ctx context.Context, transactionID, fromAgentID string, at time.Time) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM transactions WHERE id = ?`, transactionID); err != nil {
			return errors.Wrap(err, "lookup transaction")
		}
		if exists == 0 {
			return domain.ErrTransactionNotFound
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO respects (transaction_id, from_agent_id, created_at)
			VALUES (?, ?, ?)
		`, transactionID, fromAgentID, formatTime(at))
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRespected
		}
		if err != nil {
			return errors.Wrap(err, "insert respect")
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET respect_count = respect_count + 1 WHERE id = ?
		`, transactionID); err != nil {
			return errors.Wrap(err, "bump respect count")
		}
		return nil
	})
}

// RespectedSet reports which of transactionIDs fromAgentID has respected.
func (db *DB) RespectedSet(ctx context.Context, fromAgentID string, transactionIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if fromAgentID == "" || len(transactionIDs) == 0 {
		return set, nil
	}
	query, args, err := sqlx.In(`
		SELECT transaction_id FROM respects
		WHERE from_agent_id = ? AND transaction_id IN (?)
	`, fromAgentID, transactionIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expand respected set query")
	}
	var ids []string
	if err := db.db.SelectContext(ctx, &ids, db.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "respected set")
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

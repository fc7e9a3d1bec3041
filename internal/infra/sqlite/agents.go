package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nocturna-app/nocturna/internal/domain"
)

// ─── Agent Operations ───────────────────────────────────────────────────────

const agentColumns = `id, codename, rank, total_xp, main_sector, agent_class, created_at`

type agentRow struct {
	ID         string `db:"id"`
	Codename   string `db:"codename"`
	Rank       string `db:"rank"`
	TotalXP    int64  `db:"total_xp"`
	MainSector string `db:"main_sector"`
	AgentClass string `db:"agent_class"`
	CreatedAt  string `db:"created_at"`
}

func (r agentRow) toDomain() domain.Agent {
	return domain.Agent{
		ID:         r.ID,
		Codename:   r.Codename,
		Rank:       r.Rank,
		TotalXP:    r.TotalXP,
		MainSector: r.MainSector,
		AgentClass: domain.AgentClass(r.AgentClass),
		CreatedAt:  parseTime(r.CreatedAt),
	}
}

func agentsFromRows(rows []agentRow) []domain.Agent {
	out := make([]domain.Agent, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

// CreateAgent inserts a new agent.
func (db *DB) CreateAgent(ctx context.Context, a domain.Agent) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Codename, a.Rank, a.TotalXP, a.MainSector, string(a.AgentClass), formatTime(a.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert agent")
	}
	return nil
}

// GetAgent fetches an agent by ID.
func (db *DB) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return db.getAgent(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
}

// GetAgentByCodename fetches an agent by its (upper-cased) codename.
func (db *DB) GetAgentByCodename(ctx context.Context, codename string) (*domain.Agent, error) {
	return db.getAgent(ctx, `SELECT `+agentColumns+` FROM agents WHERE codename = ?`, codename)
}

func (db *DB) getAgent(ctx context.Context, query string, arg any) (*domain.Agent, error) {
	var r agentRow
	err := db.db.GetContext(ctx, &r, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get agent")
	}
	a := r.toDomain()
	return &a, nil
}

// ListAgents returns agents in leaderboard order (XP descending, oldest
// first on ties). An empty mainSector matches every agent.
func (db *DB) ListAgents(ctx context.Context, mainSector string, limit int) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	var args []any
	if mainSector != "" {
		query += ` WHERE main_sector = ?`
		args = append(args, mainSector)
	}
	query += ` ORDER BY total_xp DESC, created_at ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []agentRow
	if err := db.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list agents")
	}
	return agentsFromRows(rows), nil
}

// GetAgentsByID fetches every agent whose ID is in ids. Unknown IDs are
// skipped; the result order is unspecified.
func (db *DB) GetAgentsByID(ctx context.Context, ids []string) ([]domain.Agent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+agentColumns+` FROM agents WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "expand agents query")
	}
	var rows []agentRow
	if err := db.db.SelectContext(ctx, &rows, db.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "get agents")
	}
	return agentsFromRows(rows), nil
}

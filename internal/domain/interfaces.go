package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// AgentStore persists agents and their transaction history.
// The engine never calls it directly; services fetch a snapshot, compute,
// then write back through CommitTransaction.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	GetAgentByCodename(ctx context.Context, codename string) (*Agent, error)

	// ListTransactions returns the agent's full history, newest first.
	ListTransactions(ctx context.Context, agentID string) ([]Transaction, error)

	// CommitTransaction inserts tx and overwrites the agent's aggregate
	// fields as one atomic unit.
	CommitTransaction(ctx context.Context, tx Transaction, agent Agent) error
}

// SocialStore serves the read-only aggregation queries and the respect counter.
type SocialStore interface {
	ListAgents(ctx context.Context, mainSector string, limit int) ([]Agent, error)
	TransactionsSince(ctx context.Context, date string) ([]Transaction, error)
	VendorTransactions(ctx context.Context, vendor string) ([]Transaction, error)
	PublicFeed(ctx context.Context, sector string, limit int) ([]PublicTransaction, error)
	PublicTransactionsByAgent(ctx context.Context, agentID string, limit int) ([]Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	InsertRespect(ctx context.Context, transactionID, fromAgentID string, at time.Time) error
	RespectedSet(ctx context.Context, fromAgentID string, transactionIDs []string) (map[string]bool, error)
	GetAgent(ctx context.Context, id string) (*Agent, error)
	GetAgentsByID(ctx context.Context, ids []string) ([]Agent, error)
}

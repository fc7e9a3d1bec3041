package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// Codename length bounds, counted in characters after trimming.
const (
	MinCodenameLen = 2
	MaxCodenameLen = 12
)

// TransactionService registers agents and records transactions.
type TransactionService struct {
	store domain.AgentStore
	cfg   Config
	log   zerolog.Logger
	locks *keyedMutex
}

// NewTransactionService creates a transaction service over store.
func NewTransactionService(store domain.AgentStore, cfg Config) *TransactionService {
	cfg = cfg.withDefaults()
	return &TransactionService{
		store: store,
		cfg:   cfg,
		log:   cfg.Logger.With().Str("component", "engagement").Logger(),
		locks: newKeyedMutex(),
	}
}

// RecordResult is the outcome of one recorded transaction.
type RecordResult struct {
	Transaction  domain.Transaction `json:"transaction"`
	Agent        domain.Agent       `json:"agent"`
	LeveledUp    bool               `json:"leveled_up"`
	PreviousRank string             `json:"previous_rank"`
}

// ─── Registration ───────────────────────────────────────────────────────────

// NormalizeCodename trims and upper-cases a codename, enforcing its length.
func NormalizeCodename(codename string) (string, error) {
	c := strings.TrimSpace(codename)
	if n := utf8.RuneCountInString(c); n < MinCodenameLen || n > MaxCodenameLen {
		return "", domain.ErrInvalidCodename
	}
	return strings.ToUpper(c), nil
}

// Register returns the agent holding codename, creating it if needed.
// The bool reports whether a new agent was created.
func (s *TransactionService) Register(ctx context.Context, codename string) (*domain.Agent, bool, error) {
	name, err := NormalizeCodename(codename)
	if err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock("codename:" + name)
	defer unlock()

	existing, err := s.store.GetAgentByCodename(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrAgentNotFound) {
		return nil, false, fmt.Errorf("lookup codename: %w", err)
	}

	agent := domain.NewAgent(s.cfg.NewID(), name, s.cfg.Now())
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, false, fmt.Errorf("create agent: %w", err)
	}
	s.log.Info().Str("agent_id", agent.ID).Str("codename", name).Msg("agent registered")
	return &agent, true, nil
}

// ─── Recording ──────────────────────────────────────────────────────────────

// ValidateInput checks and normalizes a transaction input. Errors wrap
// domain.ErrInvalidInput.
func ValidateInput(in domain.TransactionInput) (domain.TransactionInput, error) {
	if in.Investment < 0 {
		return in, fmt.Errorf("%w: investment must be >= 0", domain.ErrInvalidInput)
	}
	if !in.Sector.Valid() {
		return in, fmt.Errorf("%w: unknown sector %q", domain.ErrInvalidInput, in.Sector)
	}
	if !in.Grade.Valid() {
		return in, fmt.Errorf("%w: unknown grade %q", domain.ErrInvalidInput, in.Grade)
	}
	if _, err := time.Parse(domain.DateLayout, in.TransactionDate); err != nil {
		return in, fmt.Errorf("%w: transaction_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}

	in.Vendor = strings.TrimSpace(in.Vendor)
	in.CastAlias = strings.TrimSpace(in.CastAlias)
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	in.Tags = tags
	return in, nil
}

// Record computes the XP award for in against the agent's existing history,
// stores the transaction and refreshes the agent's rank, class and main
// sector. Calls for the same agent are serialized.
func (s *TransactionService) Record(ctx context.Context, agentID string, in domain.TransactionInput) (res *RecordResult, err error) {
	in, err = ValidateInput(in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(agentID)
	defer unlock()

	span := s.cfg.Tracer.StartSpan(ctx, "record_transaction", map[string]string{"agent_id": agentID})
	defer func() { s.cfg.Tracer.EndSpan(span, err) }()

	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListTransactions(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	isRepeat, isFirst := domain.VendorBonus(history, in.Vendor)
	tx := domain.Transaction{
		ID:              s.cfg.NewID(),
		AgentID:         agentID,
		TransactionDate: in.TransactionDate,
		Sector:          in.Sector,
		Vendor:          in.Vendor,
		CastAlias:       in.CastAlias,
		Investment:      in.Investment,
		Grade:           in.Grade,
		Tags:            in.Tags,
		PrivateNote:     in.PrivateNote,
		IsPublic:        in.IsPublic,
		XPEarned:        domain.CalculateXP(in.Investment, isRepeat, isFirst),
		CreatedAt:       s.cfg.Now(),
	}

	all := make([]domain.Transaction, 0, len(history)+1)
	all = append(all, tx)
	all = append(all, history...)

	updated := *agent
	previous := updated.Rank
	updated.TotalXP += tx.XPEarned
	updated.Rank = domain.DetermineRank(updated.TotalXP).Title
	updated.AgentClass = domain.DetermineClass(all)
	updated.MainSector = domain.MainSector(all)

	if err := s.store.CommitTransaction(ctx, tx, updated); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	leveledUp := updated.Rank != previous
	recordMetrics(tx, updated, isRepeat, isFirst, leveledUp)

	ev := s.log.Info().
		Str("agent_id", agentID).
		Str("transaction_id", tx.ID).
		Int64("investment", tx.Investment).
		Int64("xp_earned", tx.XPEarned).
		Int64("total_xp", updated.TotalXP).
		Bool("repeat_vendor", isRepeat).
		Bool("first_visit", isFirst)
	if leveledUp {
		ev = ev.Str("previous_rank", previous).Str("rank", updated.Rank)
	}
	ev.Msg("transaction recorded")

	return &RecordResult{
		Transaction:  tx,
		Agent:        updated,
		LeveledUp:    leveledUp,
		PreviousRank: previous,
	}, nil
}

// History returns the agent's transactions, newest first.
func (s *TransactionService) History(ctx context.Context, agentID string) ([]domain.Transaction, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, agentID)
}

// Agent fetches one agent.
func (s *TransactionService) Agent(ctx context.Context, agentID string) (*domain.Agent, error) {
	return s.store.GetAgent(ctx, agentID)
}

func recordMetrics(tx domain.Transaction, agent domain.Agent, isRepeat, isFirst, leveledUp bool) {
	observability.TransactionsRecorded.WithLabelValues(string(tx.Sector)).Inc()

	bonus := "base"
	switch {
	case isRepeat:
		bonus = "repeat"
	case isFirst:
		bonus = "first"
	}
	observability.XPAwarded.WithLabelValues(bonus).Add(float64(tx.XPEarned))
	observability.ClassAssignments.WithLabelValues(string(agent.AgentClass)).Inc()
	if leveledUp {
		observability.LevelUps.WithLabelValues(agent.Rank).Inc()
	}
}

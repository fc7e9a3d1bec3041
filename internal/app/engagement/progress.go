package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// ProgressService answers read-only progression views. Nothing it computes
// is persisted; every call re-evaluates from the stored history.
type ProgressService struct {
	store domain.AgentStore
	cfg   Config
}

// NewProgressService creates a progress service over store.
func NewProgressService(store domain.AgentStore, cfg Config) *ProgressService {
	return &ProgressService{store: store, cfg: cfg.withDefaults()}
}

// Snapshot is an agent's full progression view.
type Snapshot struct {
	Agent            domain.Agent            `json:"agent"`
	RankProgress     domain.RankProgressInfo `json:"rank_progress"`
	Class            domain.ClassInfo        `json:"class"`
	ClassFeatures    domain.ClassFeatures    `json:"class_features"`
	Quests           []domain.QuestProgress  `json:"quests"`
	Badges           []domain.BadgeStatus    `json:"badges"`
	BadgeSummary     domain.BadgeSummary     `json:"badge_summary"`
	TransactionCount int                     `json:"transaction_count"`
}

func (s *ProgressService) load(ctx context.Context, agentID string) (*domain.Agent, []domain.Transaction, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.store.ListTransactions(ctx, agentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}
	return agent, txs, nil
}

// Snapshot evaluates rank progress, class, quests and badges for agentID.
func (s *ProgressService) Snapshot(ctx context.Context, agentID string) (snap *Snapshot, err error) {
	span := s.cfg.Tracer.StartSpan(ctx, "progress_snapshot", map[string]string{"agent_id": agentID})
	defer func() { s.cfg.Tracer.EndSpan(span, err) }()

	agent, txs, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}

	badges := evaluateBadges(txs, agent.TotalXP)
	return &Snapshot{
		Agent:            *agent,
		RankProgress:     domain.RankProgress(agent.TotalXP),
		Class:            agent.AgentClass.Info(),
		ClassFeatures:    domain.ComputeClassFeatures(txs),
		Quests:           evaluateQuests(txs, s.cfg.now()),
		Badges:           badges,
		BadgeSummary:     domain.SummarizeBadges(badges),
		TransactionCount: len(txs),
	}, nil
}

// Quests evaluates the quest catalog for agentID at the current time.
func (s *ProgressService) Quests(ctx context.Context, agentID string) ([]domain.QuestProgress, error) {
	_, txs, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return evaluateQuests(txs, s.cfg.now()), nil
}

// Badges evaluates the badge catalog for agentID.
func (s *ProgressService) Badges(ctx context.Context, agentID string) ([]domain.BadgeStatus, error) {
	agent, txs, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return evaluateBadges(txs, agent.TotalXP), nil
}

func evaluateQuests(txs []domain.Transaction, now time.Time) []domain.QuestProgress {
	observability.QuestEvaluations.Inc()
	return domain.EvaluateQuests(txs, now)
}

func evaluateBadges(txs []domain.Transaction, totalXP int64) []domain.BadgeStatus {
	observability.BadgeEvaluations.Inc()
	return domain.EvaluateBadges(txs, totalXP)
}

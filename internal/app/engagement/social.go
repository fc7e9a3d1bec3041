package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// AllSectors is the filter value that disables sector filtering.
const AllSectors = "ALL"

// SocialService serves leaderboards, the public feed, profiles and respects.
// viewerID arguments identify the caller for IsSelf/HasRespected flags and
// may be empty.
type SocialService struct {
	store domain.SocialStore
	cfg   Config
	log   zerolog.Logger
}

// NewSocialService creates a social service over store.
func NewSocialService(store domain.SocialStore, cfg Config) *SocialService {
	cfg = cfg.withDefaults()
	return &SocialService{
		store: store,
		cfg:   cfg,
		log:   cfg.Logger.With().Str("component", "social").Logger(),
	}
}

// sectorFilter maps "", "ALL" to no filter and rejects unknown sectors.
func sectorFilter(sector string) (string, error) {
	sector = strings.ToUpper(strings.TrimSpace(sector))
	if sector == "" || sector == AllSectors {
		return "", nil
	}
	if !domain.Sector(sector).Valid() {
		return "", fmt.Errorf("%w: unknown sector %q", domain.ErrInvalidInput, sector)
	}
	return sector, nil
}

// ─── Leaderboards ───────────────────────────────────────────────────────────

// Leaderboard returns the all-time XP top 100, optionally limited to agents
// whose main sector is sector.
func (s *SocialService) Leaderboard(ctx context.Context, sector, viewerID string) ([]domain.LeaderboardEntry, error) {
	filter, err := sectorFilter(sector)
	if err != nil {
		return nil, err
	}
	agents, err := s.store.ListAgents(ctx, filter, domain.LeaderboardTopN)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, len(agents))
	for i, a := range agents {
		out[i] = domain.LeaderboardEntry{
			Position:   i + 1,
			ID:         a.ID,
			Codename:   a.Codename,
			Rank:       a.Rank,
			TotalXP:    a.TotalXP,
			AgentClass: a.AgentClass,
			MainSector: a.MainSector,
			IsSelf:     a.ID == viewerID,
		}
	}
	return out, nil
}

// MonthlyLeaderboard ranks agents by XP earned from transactions dated in
// the current calendar month.
func (s *SocialService) MonthlyLeaderboard(ctx context.Context, viewerID string) ([]domain.MonthlyRankEntry, error) {
	now := s.cfg.now()
	from := domain.MonthStart(now)
	until := domain.MonthStart(time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location()))

	txs, err := s.store.TransactionsSince(ctx, from)
	if err != nil {
		return nil, err
	}
	var inMonth []domain.Transaction
	for _, tx := range txs {
		if tx.TransactionDate < until {
			inMonth = append(inMonth, tx)
		}
	}

	agents, err := s.store.GetAgentsByID(ctx, domain.AgentIDs(inMonth))
	if err != nil {
		return nil, err
	}
	return domain.MonthlyRanking(inMonth, agents, viewerID, domain.MonthlyTopN), nil
}

// VendorRanking ranks agents by total investment at vendor.
func (s *SocialService) VendorRanking(ctx context.Context, vendor, viewerID string) ([]domain.VendorRankEntry, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return nil, fmt.Errorf("%w: vendor is required", domain.ErrInvalidInput)
	}
	txs, err := s.store.VendorTransactions(ctx, vendor)
	if err != nil {
		return nil, err
	}
	agents, err := s.store.GetAgentsByID(ctx, domain.AgentIDs(txs))
	if err != nil {
		return nil, err
	}
	return domain.VendorRanking(txs, agents, viewerID, domain.VendorRankingTopN), nil
}

// ─── Feed & Profiles ────────────────────────────────────────────────────────

// PublicFeed returns the 50 newest public transactions.
func (s *SocialService) PublicFeed(ctx context.Context, sector, viewerID string) ([]domain.PublicTransaction, error) {
	filter, err := sectorFilter(sector)
	if err != nil {
		return nil, err
	}
	feed, err := s.store.PublicFeed(ctx, filter, domain.PublicFeedLimit)
	if err != nil {
		return nil, err
	}
	return s.markRespected(ctx, viewerID, feed)
}

// Profile returns an agent's public page with their 20 newest public
// transactions.
func (s *SocialService) Profile(ctx context.Context, agentID, viewerID string) (*domain.AgentProfile, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.PublicTransactionsByAgent(ctx, agentID, domain.ProfileFeedLimit)
	if err != nil {
		return nil, err
	}

	public := make([]domain.PublicTransaction, len(txs))
	total := 0
	for i, tx := range txs {
		public[i] = tx.ToPublic(*agent)
		total += tx.RespectCount
	}
	if public, err = s.markRespected(ctx, viewerID, public); err != nil {
		return nil, err
	}

	return &domain.AgentProfile{
		ID:                 agent.ID,
		Codename:           agent.Codename,
		Rank:               agent.Rank,
		TotalXP:            agent.TotalXP,
		AgentClass:         agent.AgentClass,
		MainSector:         agent.MainSector,
		CreatedAt:          agent.CreatedAt,
		PublicTransactions: public,
		TotalRespects:      total,
		IsSelf:             agent.ID == viewerID,
	}, nil
}

func (s *SocialService) markRespected(ctx context.Context, viewerID string, txs []domain.PublicTransaction) ([]domain.PublicTransaction, error) {
	if viewerID == "" || len(txs) == 0 {
		return txs, nil
	}
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	set, err := s.store.RespectedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].HasRespected = set[txs[i].ID]
	}
	return txs, nil
}

// ─── Respect ────────────────────────────────────────────────────────────────

// SendRespect records fromAgentID's respect for a public transaction and
// returns the transaction's new respect count. Private transactions are
// reported as not found.
func (s *SocialService) SendRespect(ctx context.Context, transactionID, fromAgentID string) (int, error) {
	if _, err := s.store.GetAgent(ctx, fromAgentID); err != nil {
		return 0, err
	}
	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	if !tx.IsPublic {
		return 0, domain.ErrTransactionNotFound
	}
	if tx.AgentID == fromAgentID {
		observability.RespectsSent.WithLabelValues("self").Inc()
		return 0, domain.ErrSelfRespect
	}

	err = s.store.InsertRespect(ctx, transactionID, fromAgentID, s.cfg.Now())
	if errors.Is(err, domain.ErrAlreadyRespected) {
		observability.RespectsSent.WithLabelValues("duplicate").Inc()
		return tx.RespectCount, err
	}
	if err != nil {
		return 0, err
	}
	observability.RespectsSent.WithLabelValues("ok").Inc()
	s.log.Debug().Str("transaction_id", transactionID).Str("from_agent_id", fromAgentID).Msg("respect sent")
	return tx.RespectCount + 1, nil
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nocturna-app/nocturna/internal/app/engagement"
	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// ─── Engagement API ─────────────────────────────────────────────────────────
//
// POST /api/agents                          register (or fetch) an agent by codename
// GET  /api/agents/{id}                     agent with cached rank/class/sector
// GET  /api/agents/{id}/transactions        full history, newest first
// POST /api/agents/{id}/transactions        record a transaction, award XP
// GET  /api/agents/{id}/progress            rank progress, class, quests, badges
// GET  /api/agents/{id}/quests              daily + weekly quest progress
// GET  /api/agents/{id}/badges              badge unlocks + rarity summary
// GET  /api/agents/{id}/profile             public profile
// GET  /api/leaderboard?sector=             all-time XP top 100
// GET  /api/leaderboard/monthly             this month's XP top 50
// GET  /api/vendors/{vendor}/ranking        investment top 50 at one vendor
// GET  /api/feed?sector=                    newest public transactions
// POST /api/transactions/{id}/respect       respect a public transaction
// GET  /api/ranks                           the rank ladder and grade colors
// GET  /debug/spans?limit=                  recent trace spans (when a tracer is set)

// EngagementAPI holds references to all engagement services.
type EngagementAPI struct {
	Transactions *engagement.TransactionService
	Progress     *engagement.ProgressService
	Social       *engagement.SocialService
	Tracer       *observability.Tracer // shared with the services; nil hides /debug/spans
	Log          zerolog.Logger
}

func viewerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ViewerHeader))
}

// fail writes the status mapped from err. Unmapped errors are logged and
// reported without detail.
func (e *EngagementAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		e.Log.Error().Stack().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// ─── Agents ─────────────────────────────────────────────────────────────────

type registerRequest struct {
	Codename string `json:"codename"`
}

// HandleRegister creates an agent, or returns the one holding the codename.
// POST /api/agents
func (e *EngagementAPI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	agent, created, err := e.Transactions.Register(r.Context(), req.Codename)
	if err != nil {
		e.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, agent)
}

// HandleGetAgent returns one agent.
// GET /api/agents/{id}
func (e *EngagementAPI) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := e.Transactions.Agent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// ─── Transactions ───────────────────────────────────────────────────────────

// HandleListTransactions returns the agent's history.
// GET /api/agents/{id}/transactions
func (e *EngagementAPI) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := e.Transactions.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// HandleRecordTransaction records a transaction and returns the award.
// POST /api/agents/{id}/transactions
func (e *EngagementAPI) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := e.Transactions.Record(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ─── Progress ───────────────────────────────────────────────────────────────

// HandleProgress returns the full progression snapshot.
// GET /api/agents/{id}/progress
func (e *EngagementAPI) HandleProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := e.Progress.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleQuests returns quest progress.
// GET /api/agents/{id}/quests
func (e *EngagementAPI) HandleQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := e.Progress.Quests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.fail(w, r, err)
		return
	}

	completed := 0
	for _, q := range quests {
		if q.Completed {
			completed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quests":    quests,
		"completed": completed,
		"total":     len(quests),
	})
}

// HandleBadges returns every badge with its unlock state.
// GET /api/agents/{id}/badges
func (e *EngagementAPI) HandleBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := e.Progress.Badges(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"badges":  badges,
		"summary": domain.SummarizeBadges(badges),
	})
}

// HandleRanks returns the rank ladder and the grade scale.
// GET /api/ranks
func (e *EngagementAPI) HandleRanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranks":  domain.RankTiers(),
		"grades": domain.GradeScale(),
	})
}

// ─── Social ─────────────────────────────────────────────────────────────────

// HandleProfile returns an agent's public profile.
// GET /api/agents/{id}/profile
func (e *EngagementAPI) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := e.Social.Profile(r.Context(), chi.URLParam(r, "id"), viewerID(r))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleLeaderboard returns the all-time leaderboard.
// GET /api/leaderboard?sector=
func (e *EngagementAPI) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := e.Social.Leaderboard(r.Context(), r.URL.Query().Get("sector"), viewerID(r))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": board})
}

// HandleMonthlyLeaderboard returns this month's leaderboard.
// GET /api/leaderboard/monthly
func (e *EngagementAPI) HandleMonthlyLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := e.Social.MonthlyLeaderboard(r.Context(), viewerID(r))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	if board == nil {
		board = []domain.MonthlyRankEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": board})
}

// HandleVendorRanking returns the ranking at one vendor.
// GET /api/vendors/{vendor}/ranking
func (e *EngagementAPI) HandleVendorRanking(w http.ResponseWriter, r *http.Request) {
	ranking, err := e.Social.VendorRanking(r.Context(), chi.URLParam(r, "vendor"), viewerID(r))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": ranking})
}

// HandleFeed returns the public feed.
// GET /api/feed?sector=
func (e *EngagementAPI) HandleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := e.Social.PublicFeed(r.Context(), r.URL.Query().Get("sector"), viewerID(r))
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": feed})
}

// HandleRespect records a respect from the viewer.
// POST /api/transactions/{id}/respect
func (e *EngagementAPI) HandleRespect(w http.ResponseWriter, r *http.Request) {
	from := viewerID(r)
	if from == "" {
		writeError(w, http.StatusBadRequest, ViewerHeader+" header is required")
		return
	}
	count, err := e.Social.SendRespect(r.Context(), chi.URLParam(r, "id"), from)
	if err != nil {
		e.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"respect_count": count,
		"has_respected": true,
	})
}

// ─── Debug ──────────────────────────────────────────────────────────────────

// HandleSpans returns the most recent trace spans, oldest first.
// GET /debug/spans?limit=
func (e *EngagementAPI) HandleSpans(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"spans":    e.Tracer.Spans(limit),
		"buffered": e.Tracer.SpanCount(),
	})
}

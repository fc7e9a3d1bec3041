// Package api provides the NOCTURNA HTTP JSON API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
)

// ViewerHeader identifies the calling agent for is_self / has_respected
// flags and as the sender of a respect.
const ViewerHeader = "X-Agent-ID"

// Server is the NOCTURNA HTTP API server.
type Server struct {
	engagement     *EngagementAPI
	metricsEnabled bool
	log            zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(e *EngagementAPI, log zerolog.Logger) *Server {
	return &Server{engagement: e, log: log.With().Str("component", "api").Logger()}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if s.engagement != nil && s.engagement.Tracer != nil {
		r.Get("/debug/spans", s.engagement.HandleSpans)
	}

	if s.engagement != nil {
		e := s.engagement
		r.Route("/api", func(r chi.Router) {
			r.Get("/ranks", e.HandleRanks)

			r.Post("/agents", e.HandleRegister)
			r.Route("/agents/{id}", func(r chi.Router) {
				r.Get("/", e.HandleGetAgent)
				r.Get("/transactions", e.HandleListTransactions)
				r.Post("/transactions", e.HandleRecordTransaction)
				r.Get("/progress", e.HandleProgress)
				r.Get("/quests", e.HandleQuests)
				r.Get("/badges", e.HandleBadges)
				r.Get("/profile", e.HandleProfile)
			})

			r.Get("/leaderboard", e.HandleLeaderboard)
			r.Get("/leaderboard/monthly", e.HandleMonthlyLeaderboard)
			r.Get("/vendors/{vendor}/ranking", e.HandleVendorRanking)
			r.Get("/feed", e.HandleFeed)
			r.Post("/transactions/{id}/respect", e.HandleRespect)
		})
	}

	return r
}

// requestLogger logs one line per request and threads the request ID into
// the context as the trace ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			r = r.WithContext(observability.WithTraceID(r.Context(), reqID))
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "server_error"
	}
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCodename),
		errors.Is(err, domain.ErrSelfRespect):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAgentNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyRespected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ViewerHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

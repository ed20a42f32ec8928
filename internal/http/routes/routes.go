// Package routes wires the HTTP API: health, analysis enqueueing, stored
// report lookups, and cache administration.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	appmw "github.com/riftrecap/riftrecap/internal/http/middleware"
	"github.com/riftrecap/riftrecap/internal/jobs"
	"github.com/riftrecap/riftrecap/internal/report"
)

// Enqueuer queues background work. Satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReportStore serves stored verdicts. Satisfied by *report.Store.
type ReportStore interface {
	GetByMatchID(ctx context.Context, matchID string) (*report.Report, error)
	ListBySummoner(ctx context.Context, summonerName string, limit int) ([]report.Report, error)
}

// CacheStore exposes the response cache to the admin endpoints.
// Satisfied by *cache.Store.
type CacheStore interface {
	Size() int
	Clear() error
}

type Server struct {
	Router  *chi.Mux
	Queue   Enqueuer
	Reports ReportStore
	Cache   CacheStore
	Log     zerolog.Logger
}

type ServerOptions struct {
	Queue   Enqueuer
	Reports ReportStore
	Cache   CacheStore
	Log     zerolog.Logger
	APIKey  string // guards mutating endpoints when set
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Queue: opts.Queue, Reports: opts.Reports, Cache: opts.Cache, Log: opts.Log}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/summoners/{name}/reports", s.handleSummonerReports)
	r.Get("/reports/{matchID}", s.handleReport)
	r.Get("/cache/stats", s.handleCacheStats)

	r.Group(func(pr chi.Router) {
		pr.Use(appmw.RequireKey(opts.APIKey))
		pr.Post("/summoners/{name}/analyze", s.handleAnalyzeSummoner)
		pr.Delete("/cache", s.handleCacheClear)
	})

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("ok")); err != nil {
		s.Log.Error().Err(err).Msg("write health check response")
	}
}

func (s *Server) handleAnalyzeSummoner(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		http.Error(w, "summoner name required", http.StatusBadRequest)
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "count must be a positive integer", http.StatusBadRequest)
			return
		}
		count = n
	}

	payload, err := json.Marshal(jobs.AnalyzeSummonerPayload{SummonerName: name, MatchCount: count})
	if err != nil {
		s.Log.Error().Err(err).Msg("marshal analysis payload")
		http.Error(w, "could not queue analysis", http.StatusInternalServerError)
		return
	}

	task := asynq.NewTask(jobs.TaskAnalyzeSummoner, payload)
	info, err := s.Queue.Enqueue(task,
		asynq.Queue("analyze"),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		s.Log.Error().Err(err).Str("summoner", name).Msg("enqueue analysis")
		http.Error(w, "could not queue analysis", http.StatusInternalServerError)
		return
	}

	s.Log.Info().Str("task_id", info.ID).Str("queue", info.Queue).Str("summoner", name).Msg("analysis queued")
	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"task_id":  info.ID,
		"queue":    info.Queue,
		"summoner": name,
	})
}

func (s *Server) handleSummonerReports(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		http.Error(w, "summoner name required", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reports, err := s.Reports.ListBySummoner(r.Context(), name, limit)
	if err != nil {
		s.Log.Error().Err(err).Str("summoner", name).Msg("list reports")
		http.Error(w, "could not load reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	s.respondJSON(w, http.StatusOK, reports)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	rep, err := s.Reports.GetByMatchID(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		s.Log.Error().Err(err).Str("match_id", matchID).Msg("get report")
		http.Error(w, "could not load report", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]int{"entries": s.Cache.Size()})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Cache.Clear(); err != nil {
		s.Log.Error().Err(err).Msg("clear cache")
		http.Error(w, "could not clear cache", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error().Err(err).Msg("encode response")
	}
}

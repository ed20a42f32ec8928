// Package pipeline runs the full analysis flow for one summoner: recent
// matches, per-player statistics, model verdict, notification, and
// optional persistence. The run-once CLI and the queue worker share it.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/riftrecap/riftrecap/internal/analysis"
	"github.com/riftrecap/riftrecap/internal/llm"
	"github.com/riftrecap/riftrecap/internal/notify"
	"github.com/riftrecap/riftrecap/internal/prompt"
	"github.com/riftrecap/riftrecap/internal/report"
	"github.com/riftrecap/riftrecap/riot"
)

// MatchSource yields summoners and their matches. Satisfied by *riot.Client.
type MatchSource interface {
	ResolveSummoner(ctx context.Context, name string) (*riot.Summoner, error)
	ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.Match, error)
}

// Analyzer turns a prompt into a model verdict. Satisfied by *llm.Client.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*llm.Result, error)
}

// ReportStore persists finished verdicts. Satisfied by *report.Store.
type ReportStore interface {
	GetByMatchID(ctx context.Context, matchID string) (*report.Report, error)
	Upsert(ctx context.Context, r *report.Report) error
}

// Runner drives one summoner through the whole pipeline.
type Runner struct {
	source  MatchSource
	model   Analyzer
	sender  notify.Sender
	reports ReportStore
	count   int
	log     zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithReportStore persists verdicts after notification. Without it the
// pipeline is fire-and-forget.
func WithReportStore(store ReportStore) Option {
	return func(r *Runner) {
		r.reports = store
	}
}

// WithMatchCount sets how many recent matches to analyze when the
// caller does not say.
func WithMatchCount(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.count = n
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a Runner. The match source, model client, and sender are
// all required.
func New(source MatchSource, model Analyzer, sender notify.Sender, opts ...Option) (*Runner, error) {
	if source == nil {
		return nil, errors.New("pipeline requires a match source")
	}
	if model == nil {
		return nil, errors.New("pipeline requires a model client")
	}
	if sender == nil {
		return nil, errors.New("pipeline requires a sender")
	}
	r := &Runner{
		source: source,
		model:  model,
		sender: sender,
		count:  riot.DefaultMatchCount,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// AnalyzeSummoner resolves the summoner, walks their recent matches, and
// produces one verdict per match. A single bad match is logged and
// skipped; the call fails only when the summoner cannot be resolved,
// the match listing fails, or every match fails.
func (r *Runner) AnalyzeSummoner(ctx context.Context, name string, count int) error {
	if count <= 0 {
		count = r.count
	}

	s, err := r.source.ResolveSummoner(ctx, name)
	if err != nil {
		return fmt.Errorf("resolve summoner %q: %w", name, err)
	}
	if s.PUUID == "" {
		return fmt.Errorf("summoner %q has no puuid", name)
	}

	ids, err := r.source.ListMatchIDs(ctx, s.PUUID, count)
	if err != nil {
		return fmt.Errorf("list matches for %q: %w", name, err)
	}
	if len(ids) == 0 {
		r.log.Info().Str("summoner", name).Msg("no recent matches")
		return nil
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.analyzeMatch(ctx, name, id); err != nil {
			r.log.Error().Err(err).Str("summoner", name).Str("match_id", id).Msg("match analysis failed")
			errs = append(errs, err)
		}
	}
	if len(errs) == len(ids) {
		return fmt.Errorf("all %d matches failed for %q: %w", len(ids), name, errors.Join(errs...))
	}
	return nil
}

// analyzeMatch produces and delivers the verdict for one match. Delivery
// and persistence failures are logged but do not fail the match: the
// verdict exists, and re-running it would burn model tokens for nothing.
func (r *Runner) analyzeMatch(ctx context.Context, summoner, matchID string) error {
	if r.reports != nil {
		if _, err := r.reports.GetByMatchID(ctx, matchID); err == nil {
			r.log.Debug().Str("match_id", matchID).Msg("report already stored, skipping")
			return nil
		}
	}

	m, err := r.source.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("fetch match: %w", err)
	}
	stats, err := analysis.AnalyzeMatch(m)
	if err != nil {
		return fmt.Errorf("analyze match: %w", err)
	}
	text, err := prompt.Build(stats)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}
	res, err := r.model.Analyze(ctx, text)
	if err != nil {
		return fmt.Errorf("model analysis: %w", err)
	}

	if err := r.sender.Send(ctx, res); err != nil {
		r.log.Error().Err(err).Str("match_id", matchID).Msg("notification failed")
	}
	if r.reports != nil {
		if err := r.reports.Upsert(ctx, report.FromResult(stats.MatchID, summoner, res)); err != nil {
			r.log.Error().Err(err).Str("match_id", matchID).Msg("persist report failed")
		}
	}
	return nil
}

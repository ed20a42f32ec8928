// Package report persists match verdicts in PostgreSQL so the API can
// serve past analyses without re-running the pipeline.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/riftrecap/riftrecap/internal/llm"
)

// Report is one stored analysis verdict for a single match.
type Report struct {
	ID           uuid.UUID       `json:"id"`
	MatchID      string          `json:"match_id"`
	SummonerName string          `json:"summoner_name"`
	OverallScore float64         `json:"overall_score"`
	Summary      string          `json:"summary"`
	Verdict      json.RawMessage `json:"verdict,omitempty"`
	Model        string          `json:"model,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromResult maps an analysis result onto a report row. The verdict may
// be nil when the model reply could not be parsed; the row is still
// stored so the match is not re-analyzed on the next run.
func FromResult(matchID, summonerName string, res *llm.Result) *Report {
	r := &Report{
		MatchID:      matchID,
		SummonerName: summonerName,
	}
	if res == nil {
		return r
	}
	r.Model = res.Model
	if res.Verdict != nil {
		r.OverallScore = res.Verdict.OverallScore
		r.Summary = res.Verdict.Summary
		if data, err := json.Marshal(res.Verdict); err == nil {
			r.Verdict = data
		}
	}
	return r
}

// Package prompt builds the analysis request sent to the language model: a
// compact JSON data block followed by strict output-schema instructions.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/riftrecap/riftrecap/internal/analysis"
)

// matchData is the data block embedded in the prompt. It carries only what
// the model needs to judge influence, not the full report.
type matchData struct {
	MatchID      string       `json:"match_id"`
	GameDuration int64        `json:"game_duration"`
	GameMode     string       `json:"game_mode"`
	Players      []playerData `json:"players"`
	Teams        []teamData   `json:"teams"`
}

type playerData struct {
	SummonerName     string  `json:"summoner_name"`
	Champion         string  `json:"champion"`
	Role             string  `json:"role"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
	Assists          int     `json:"assists"`
	KDA              float64 `json:"kda"`
	GoldPerMinute    float64 `json:"gold_per_minute"`
	DamagePerMinute  float64 `json:"damage_per_minute"`
	VisionScore      int     `json:"vision_score"`
	PerformanceScore float64 `json:"performance_score"`
}

type teamData struct {
	Side        string `json:"side"`
	TotalKills  int    `json:"total_kills"`
	TotalDeaths int    `json:"total_deaths"`
	Win         bool   `json:"win"`
}

// Build renders the full user prompt for one match report.
func Build(report *analysis.MatchReport) (string, error) {
	if report == nil {
		return "", errors.New("no match report")
	}
	if len(report.Players) == 0 {
		return "", errors.New("match report has no players")
	}

	data := matchData{
		MatchID:      report.MatchID,
		GameDuration: report.GameDuration,
		GameMode:     report.GameMode,
		Players:      make([]playerData, 0, len(report.Players)),
		Teams:        make([]teamData, 0, len(report.Teams)),
	}
	for _, p := range report.Players {
		role := p.Role
		if role == "" {
			role = "unknown"
		}
		data.Players = append(data.Players, playerData{
			SummonerName:     p.SummonerName,
			Champion:         p.ChampionName,
			Role:             role,
			Kills:            p.Kills,
			Deaths:           p.Deaths,
			Assists:          p.Assists,
			KDA:              p.KDA,
			GoldPerMinute:    p.GoldPerMinute,
			DamagePerMinute:  p.DamagePerMinute,
			VisionScore:      p.VisionScore,
			PerformanceScore: p.PerformanceScore,
		})
	}
	// Stable side order, blue first.
	for _, side := range []string{"blue", "red"} {
		if team, ok := report.Teams[side]; ok {
			data.Teams = append(data.Teams, teamData{
				Side:        side,
				TotalKills:  team.TotalKills,
				TotalDeaths: team.TotalDeaths,
				Win:         team.Win,
			})
		}
	}

	block, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal match data: %w", err)
	}

	var b strings.Builder
	b.WriteString("Match data (JSON):\n")
	b.Write(block)
	b.WriteString("\n\n")
	b.WriteString(OutputInstructions())
	return b.String(), nil
}

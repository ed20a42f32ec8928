// Package analysis turns raw match records into scored per-player and
// per-team summaries.
package analysis

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/riftrecap/riftrecap/riot"
)

// MatchReport is the scored view of one match.
type MatchReport struct {
	MatchID      string               `json:"match_id"`
	GameDuration int64                `json:"game_duration"`
	GameMode     string               `json:"game_mode"`
	GameType     string               `json:"game_type"`
	PlayedAt     time.Time            `json:"played_at"`
	Players      []PlayerStats        `json:"players"`
	Teams        map[string]TeamStats `json:"teams"`
	TotalKills   int                  `json:"total_kills"`
	TotalDeaths  int                  `json:"total_deaths"`
	TotalAssists int                  `json:"total_assists"`
}

// PlayerStats summarizes one participant's performance.
type PlayerStats struct {
	SummonerName     string  `json:"summoner_name"`
	Role             string  `json:"role"`
	ChampionName     string  `json:"champion_name"`
	TeamID           int     `json:"team_id"`
	Win              bool    `json:"win"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
	Assists          int     `json:"assists"`
	KDA              float64 `json:"kda"`
	GoldEarned       int     `json:"gold_earned"`
	GoldPerMinute    float64 `json:"gold_per_minute"`
	TotalDamage      int     `json:"total_damage"`
	DamagePerMinute  float64 `json:"damage_per_minute"`
	WardsPlaced      int     `json:"wards_placed"`
	WardsKilled      int     `json:"wards_killed"`
	VisionScore      int     `json:"vision_score"`
	TurretKills      int     `json:"turret_kills"`
	InhibitorKills   int     `json:"inhibitor_kills"`
	BaronKills       int     `json:"baron_kills"`
	DragonKills      int     `json:"dragon_kills"`
	CS               int     `json:"cs"`
	CSPerMinute      float64 `json:"cs_per_minute"`
	PerformanceScore float64 `json:"performance_score"`
}

// TeamStats aggregates one side of the map.
type TeamStats struct {
	TeamID       int      `json:"team_id"`
	TotalKills   int      `json:"total_kills"`
	TotalDeaths  int      `json:"total_deaths"`
	TotalAssists int      `json:"total_assists"`
	TeamKDA      float64  `json:"team_kda"`
	TotalGold    int      `json:"total_gold"`
	TotalDamage  int      `json:"total_damage"`
	Players      []string `json:"players"`
	Win          bool     `json:"win"`
}

// AnalyzeMatch scores every participant and both teams of a match.
func AnalyzeMatch(m *riot.Match) (*MatchReport, error) {
	if m == nil {
		return nil, errors.New("no match data")
	}
	if len(m.Info.Participants) == 0 {
		return nil, errors.New("match has no participants")
	}

	report := &MatchReport{
		MatchID:      matchID(m),
		GameDuration: m.Info.GameDuration,
		GameMode:     m.Info.GameMode,
		GameType:     m.Info.GameType,
		PlayedAt:     time.UnixMilli(m.Info.GameCreation),
		Players:      make([]PlayerStats, 0, len(m.Info.Participants)),
		Teams:        AnalyzeTeams(m.Info.Participants),
	}
	for _, p := range m.Info.Participants {
		report.Players = append(report.Players, AnalyzePlayer(p))
		report.TotalKills += p.Kills
		report.TotalDeaths += p.Deaths
		report.TotalAssists += p.Assists
	}
	return report, nil
}

// AnalyzePlayer computes per-minute rates and the performance score for one
// participant.
func AnalyzePlayer(p riot.Participant) PlayerStats {
	mins := playedMinutes(p.TimePlayed)
	kda := KDA(p.Kills, p.Deaths, p.Assists)
	gpm := float64(p.GoldEarned) / mins
	dpm := float64(p.TotalDamageDealtToChampions) / mins
	objectives := p.TurretKills + p.InhibitorKills + p.BaronKills + p.DragonKills

	return PlayerStats{
		SummonerName:     p.DisplayName(),
		Role:             p.Position(),
		ChampionName:     p.ChampionName,
		TeamID:           p.TeamID,
		Win:              p.Win,
		Kills:            p.Kills,
		Deaths:           p.Deaths,
		Assists:          p.Assists,
		KDA:              kda,
		GoldEarned:       p.GoldEarned,
		GoldPerMinute:    round2(gpm),
		TotalDamage:      p.TotalDamageDealtToChampions,
		DamagePerMinute:  round2(dpm),
		WardsPlaced:      p.WardsPlaced,
		WardsKilled:      p.WardsKilled,
		VisionScore:      p.VisionScore,
		TurretKills:      p.TurretKills,
		InhibitorKills:   p.InhibitorKills,
		BaronKills:       p.BaronKills,
		DragonKills:      p.DragonKills,
		CS:               p.CS(),
		CSPerMinute:      round2(float64(p.CS()) / mins),
		PerformanceScore: PerformanceScore(kda, gpm, dpm, p.VisionScore, objectives),
	}
}

// AnalyzeTeams aggregates participants by side, keyed "blue" and "red".
func AnalyzeTeams(participants []riot.Participant) map[string]TeamStats {
	sides := map[int][]riot.Participant{riot.TeamBlue: nil, riot.TeamRed: nil}
	for _, p := range participants {
		if _, ok := sides[p.TeamID]; ok {
			sides[p.TeamID] = append(sides[p.TeamID], p)
		}
	}

	teams := make(map[string]TeamStats, len(sides))
	for teamID, members := range sides {
		stats := TeamStats{TeamID: teamID, Players: make([]string, 0, len(members))}
		for _, p := range members {
			stats.TotalKills += p.Kills
			stats.TotalDeaths += p.Deaths
			stats.TotalAssists += p.Assists
			stats.TotalGold += p.GoldEarned
			stats.TotalDamage += p.TotalDamageDealtToChampions
			stats.Players = append(stats.Players, p.DisplayName())
			stats.Win = stats.Win || p.Win
		}
		stats.TeamKDA = KDA(stats.TotalKills, stats.TotalDeaths, stats.TotalAssists)
		teams[sideName(teamID)] = stats
	}
	return teams
}

// KDA is (kills+assists)/deaths, or kills+assists for a deathless game.
func KDA(kills, deaths, assists int) float64 {
	if deaths == 0 {
		return float64(kills + assists)
	}
	return round2(float64(kills+assists) / float64(deaths))
}

// PerformanceScore bands five metrics into a 0-100 composite:
// KDA 30, gold 20, damage 20, vision 15, objectives 15.
func PerformanceScore(kda, goldPerMin, damagePerMin float64, visionScore, objectives int) float64 {
	score := 0.0

	switch {
	case kda >= 5:
		score += 30
	case kda >= 3:
		score += 25
	case kda >= 2:
		score += 20
	case kda >= 1:
		score += 15
	default:
		score += 10
	}

	switch {
	case goldPerMin >= 400:
		score += 20
	case goldPerMin >= 300:
		score += 15
	case goldPerMin >= 200:
		score += 10
	default:
		score += 5
	}

	switch {
	case damagePerMin >= 1000:
		score += 20
	case damagePerMin >= 600:
		score += 15
	case damagePerMin >= 300:
		score += 10
	default:
		score += 5
	}

	switch {
	case visionScore >= 50:
		score += 15
	case visionScore >= 30:
		score += 12
	case visionScore >= 15:
		score += 8
	default:
		score += 4
	}

	switch {
	case objectives >= 5:
		score += 15
	case objectives >= 3:
		score += 12
	case objectives >= 1:
		score += 8
	default:
		score += 4
	}

	return math.Min(score, 100)
}

func matchID(m *riot.Match) string {
	if m.Metadata.MatchID != "" {
		return m.Metadata.MatchID
	}
	if m.Info.GameID > 0 {
		return strconv.FormatInt(m.Info.GameID, 10)
	}
	return "unknown"
}

func sideName(teamID int) string {
	if teamID == riot.TeamBlue {
		return "blue"
	}
	return "red"
}

// playedMinutes floors at one minute so rates stay finite for remakes.
func playedMinutes(seconds int) float64 {
	return math.Max(float64(seconds)/60, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package analysis

import (
	"testing"

	"github.com/riftrecap/riftrecap/riot"
)

func TestKDA(t *testing.T) {
	tests := []struct {
		name                   string
		kills, deaths, assists int
		want                   float64
	}{
		{"normal", 10, 5, 15, 5.0},
		{"deathless counts kills plus assists", 10, 0, 5, 15},
		{"rounded to two decimals", 1, 3, 1, 0.67},
		{"all zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KDA(tt.kills, tt.deaths, tt.assists); got != tt.want {
				t.Errorf("KDA(%d,%d,%d) = %v, want %v", tt.kills, tt.deaths, tt.assists, got, tt.want)
			}
		})
	}
}

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		name       string
		kda        float64
		gpm, dpm   float64
		vision     int
		objectives int
		want       float64
	}{
		{"perfect game maxes at 100", 10, 500, 1500, 60, 10, 100},
		{"floor of every band", 0, 0, 0, 0, 0, 28},
		{"kda band boundary at 5", 5, 0, 0, 0, 0, 48},
		{"kda band boundary at 3", 3, 0, 0, 0, 0, 43},
		{"gold band at 300", 0, 300, 0, 0, 0, 38},
		{"vision band at 15", 0, 0, 0, 15, 0, 32},
		{"one objective", 0, 0, 0, 0, 1, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerformanceScore(tt.kda, tt.gpm, tt.dpm, tt.vision, tt.objectives)
			if got != tt.want {
				t.Errorf("PerformanceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzePlayer(t *testing.T) {
	p := riot.Participant{
		SummonerName:                "TestPlayer",
		ChampionName:                "Ahri",
		TeamID:                      riot.TeamBlue,
		Win:                         true,
		TimePlayed:                  1800,
		Kills:                       8,
		Deaths:                      3,
		Assists:                     12,
		GoldEarned:                  15000,
		TotalDamageDealtToChampions: 25000,
		WardsPlaced:                 15,
		WardsKilled:                 8,
		VisionScore:                 25,
		TurretKills:                 2,
		InhibitorKills:              1,
		BaronKills:                  1,
		DragonKills:                 3,
		TotalMinionsKilled:          200,
		NeutralMinionsKilled:        50,
	}

	got := AnalyzePlayer(p)

	if got.SummonerName != "TestPlayer" || got.ChampionName != "Ahri" {
		t.Errorf("identity fields wrong: %+v", got)
	}
	if got.KDA != 6.67 {
		t.Errorf("KDA = %v, want 6.67", got.KDA)
	}
	if got.GoldPerMinute != 500 {
		t.Errorf("GoldPerMinute = %v, want 500", got.GoldPerMinute)
	}
	if got.DamagePerMinute != 833.33 {
		t.Errorf("DamagePerMinute = %v, want 833.33", got.DamagePerMinute)
	}
	if got.CS != 250 || got.CSPerMinute != 8.33 {
		t.Errorf("CS = %d (%v/min), want 250 (8.33/min)", got.CS, got.CSPerMinute)
	}
	// KDA 6.67 → 30, gpm 500 → 20, dpm 833 → 15, vision 25 → 8, 7 objectives → 15
	if got.PerformanceScore != 88 {
		t.Errorf("PerformanceScore = %v, want 88", got.PerformanceScore)
	}
}

func TestAnalyzePlayerShortGameRates(t *testing.T) {
	// 30 seconds played still divides by a full minute.
	p := riot.Participant{TimePlayed: 30, GoldEarned: 500}
	if got := AnalyzePlayer(p); got.GoldPerMinute != 500 {
		t.Errorf("GoldPerMinute = %v, want 500 (floored at one minute)", got.GoldPerMinute)
	}
}

func TestAnalyzeTeams(t *testing.T) {
	participants := []riot.Participant{
		{SummonerName: "Player1", TeamID: riot.TeamBlue, Kills: 5, Deaths: 3, Assists: 8, GoldEarned: 12000, TotalDamageDealtToChampions: 18000, Win: true},
		{SummonerName: "Player2", TeamID: riot.TeamBlue, Kills: 7, Deaths: 2, Assists: 10, GoldEarned: 14000, TotalDamageDealtToChampions: 22000, Win: true},
		{SummonerName: "Player3", TeamID: riot.TeamRed, Kills: 3, Deaths: 6, Assists: 5, GoldEarned: 10000, TotalDamageDealtToChampions: 15000},
		{SummonerName: "Player4", TeamID: riot.TeamRed, Kills: 4, Deaths: 8, Assists: 7, GoldEarned: 11000, TotalDamageDealtToChampions: 16000},
	}

	teams := AnalyzeTeams(participants)

	blue, ok := teams["blue"]
	if !ok {
		t.Fatal("no blue team in result")
	}
	red, ok := teams["red"]
	if !ok {
		t.Fatal("no red team in result")
	}

	if blue.TotalKills != 12 || red.TotalKills != 7 {
		t.Errorf("kills: blue=%d red=%d, want 12 and 7", blue.TotalKills, red.TotalKills)
	}
	if !blue.Win || red.Win {
		t.Errorf("win flags: blue=%v red=%v, want true and false", blue.Win, red.Win)
	}
	if blue.TotalGold != 26000 || red.TotalDamage != 31000 {
		t.Errorf("rollups: blue gold=%d, red damage=%d", blue.TotalGold, red.TotalDamage)
	}
	if len(blue.Players) != 2 || blue.Players[0] != "Player1" {
		t.Errorf("blue players = %v", blue.Players)
	}
}

func TestAnalyzeMatch(t *testing.T) {
	m := &riot.Match{
		Metadata: riot.Metadata{MatchID: "KR_123"},
		Info: riot.Info{
			GameDuration: 1800,
			GameMode:     "CLASSIC",
			GameCreation: 1700000000000,
			Participants: []riot.Participant{
				{SummonerName: "a", TeamID: riot.TeamBlue, Kills: 5, Deaths: 2, Assists: 3, Win: true, TimePlayed: 1800},
				{SummonerName: "b", TeamID: riot.TeamRed, Kills: 2, Deaths: 5, Assists: 1, TimePlayed: 1800},
			},
		},
	}

	report, err := AnalyzeMatch(m)
	if err != nil {
		t.Fatalf("AnalyzeMatch: %v", err)
	}
	if report.MatchID != "KR_123" {
		t.Errorf("MatchID = %q, want KR_123", report.MatchID)
	}
	if len(report.Players) != 2 {
		t.Errorf("got %d players, want 2", len(report.Players))
	}
	if report.TotalKills != 7 || report.TotalDeaths != 7 || report.TotalAssists != 4 {
		t.Errorf("totals = %d/%d/%d, want 7/7/4", report.TotalKills, report.TotalDeaths, report.TotalAssists)
	}
	if report.PlayedAt.IsZero() {
		t.Error("PlayedAt not set from gameCreation")
	}
}

func TestAnalyzeMatchRejectsEmptyInput(t *testing.T) {
	if _, err := AnalyzeMatch(nil); err == nil {
		t.Error("expected an error for a nil match")
	}
	if _, err := AnalyzeMatch(&riot.Match{}); err == nil {
		t.Error("expected an error for a match with no participants")
	}
}

package jobs

const TaskAnalyzeSummoner = "analyze:summoner"

type AnalyzeSummonerPayload struct {
	SummonerName string `json:"summoner_name"`
	MatchCount   int    `json:"match_count,omitempty"`
}

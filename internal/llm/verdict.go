package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Influencer labels the model may assign.
const (
	LabelCarried  = "carried"
	LabelFed      = "fed"
	LabelTrolling = "trolling"
	LabelNeutral  = "neutral"
)

// Verdict is the structured judgment extracted from the model's reply.
type Verdict struct {
	MatchID        string             `json:"match_id"`
	Summary        string             `json:"summary"`
	OverallScore   float64            `json:"overall_score"`
	KeyMoments     []string           `json:"key_moments"`
	Influencers    []Influencer       `json:"influencers"`
	PlayerInsights map[string]Insight `json:"player_insights"`
}

// Influencer marks one player's effect on the match outcome.
type Influencer struct {
	SummonerName string  `json:"summoner_name"`
	Role         string  `json:"role"`
	Label        string  `json:"label"`
	Reason       string  `json:"reason"`
	ImpactScore  float64 `json:"impact_score"`
	Confidence   float64 `json:"confidence"`
}

// Insight is the per-player one-liner block.
type Insight struct {
	Label  string `json:"label"`
	Short  string `json:"short"`
	Advice string `json:"advice"`
}

var fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls the first JSON object out of a model reply and parses
// it. Models wrap output in code fences or surround it with prose despite
// instructions, so a fenced block is preferred and a first-{ to last-} span
// is the fallback. Returns false when no parsable object is found.
func ExtractJSON(text string) (*Verdict, bool) {
	if text == "" {
		return nil, false
	}

	candidate := ""
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		first := strings.Index(text, "{")
		last := strings.LastIndex(text, "}")
		if first == -1 || last <= first {
			return nil, false
		}
		candidate = text[first : last+1]
	}

	var v Verdict
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	return &v, true
}

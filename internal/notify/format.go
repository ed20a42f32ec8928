package notify

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/riftrecap/riftrecap/internal/llm"
)

const (
	maxKeyMoments  = 3
	maxInfluencers = 5
	maxInsights    = 5
)

// FormatMessage renders a result as group-chat text. Without a parsed
// verdict it falls back to the raw model reply so a malformed answer still
// reaches the group.
func FormatMessage(res *llm.Result) string {
	var b strings.Builder
	b.WriteString("🎮 LoL Match Recap\n")
	b.WriteString(strings.Repeat("=", 28))
	b.WriteString("\n")

	if res == nil {
		b.WriteString("no analysis available\n")
		return b.String()
	}

	v := res.Verdict
	if v == nil {
		b.WriteString(res.Raw)
		b.WriteString("\n\n")
		writeFooter(&b, res.Timestamp)
		return b.String()
	}

	if v.Summary != "" {
		b.WriteString(v.Summary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "🔢 Overall score: %.0f/100\n", v.OverallScore)

	if len(v.KeyMoments) > 0 {
		b.WriteString("\nKey moments:\n")
		for _, m := range head(v.KeyMoments, maxKeyMoments) {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	if len(v.Influencers) > 0 {
		b.WriteString("\nBiggest influences:\n")
		for _, inf := range topInfluencers(v.Influencers, maxInfluencers) {
			fmt.Fprintf(&b, "- %s (%s) [%s] impact:%+.0f confidence:%.0f%%\n",
				inf.SummonerName, inf.Role, inf.Label, inf.ImpactScore, inf.Confidence)
			if inf.Reason != "" {
				fmt.Fprintf(&b, "  reason: %s\n", inf.Reason)
			}
		}
	}

	if len(v.PlayerInsights) > 0 {
		b.WriteString("\nQuick advice:\n")
		for _, name := range head(sortedKeys(v.PlayerInsights), maxInsights) {
			in := v.PlayerInsights[name]
			line := fmt.Sprintf("- %s: %s", name, in.Short)
			if in.Advice != "" {
				line += " Advice: " + in.Advice
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	writeFooter(&b, res.Timestamp)
	return b.String()
}

func writeFooter(b *strings.Builder, ts time.Time) {
	fmt.Fprintf(b, "📊 Analyzed at: %s\n", ts.Format(time.RFC3339))
	b.WriteString("💡 Generated automatically, take it with a grain of salt")
}

// topInfluencers orders by absolute impact, biggest first.
func topInfluencers(infs []llm.Influencer, n int) []llm.Influencer {
	sorted := make([]llm.Influencer, len(infs))
	copy(sorted, infs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].ImpactScore) > math.Abs(sorted[j].ImpactScore)
	})
	return head(sorted, n)
}

func sortedKeys(m map[string]llm.Insight) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftrecap/riftrecap/internal/llm"
)

func TestFromResult(t *testing.T) {
	res := &llm.Result{
		Raw:   "some model text",
		Model: "gpt-3.5-turbo",
		Verdict: &llm.Verdict{
			MatchID:      "KR_123",
			Summary:      "Blue side snowballed off an early dragon.",
			OverallScore: 72,
		},
	}

	r := FromResult("KR_123", "faker", res)
	require.NotNil(t, r)
	assert.Equal(t, "KR_123", r.MatchID)
	assert.Equal(t, "faker", r.SummonerName)
	assert.Equal(t, 72.0, r.OverallScore)
	assert.Equal(t, "Blue side snowballed off an early dragon.", r.Summary)
	assert.Equal(t, "gpt-3.5-turbo", r.Model)

	var stored llm.Verdict
	require.NoError(t, json.Unmarshal(r.Verdict, &stored))
	assert.Equal(t, "KR_123", stored.MatchID)
}

func TestFromResultUnparsedVerdict(t *testing.T) {
	res := &llm.Result{Raw: "not json at all", Model: "gpt-3.5-turbo"}

	r := FromResult("KR_456", "faker", res)
	require.NotNil(t, r)
	assert.Equal(t, "KR_456", r.MatchID)
	assert.Zero(t, r.OverallScore)
	assert.Empty(t, r.Summary)
	assert.Nil(t, r.Verdict)
	assert.Equal(t, "gpt-3.5-turbo", r.Model)
}

func TestFromResultNilResult(t *testing.T) {
	r := FromResult("KR_789", "faker", nil)
	require.NotNil(t, r)
	assert.Equal(t, "KR_789", r.MatchID)
	assert.Equal(t, "faker", r.SummonerName)
	assert.Empty(t, r.Model)
}

func TestUpsertValidatesInput(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		report *Report
	}{
		{"nil report", nil},
		{"missing match id", &Report{SummonerName: "faker"}},
		{"missing summoner", &Report{MatchID: "KR_123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Upsert(ctx, tt.report)
			assert.ErrorIs(t, err, ErrInvalidReport)
		})
	}
}

func TestGetByMatchIDValidatesInput(t *testing.T) {
	store := NewStore(nil)

	_, err := store.GetByMatchID(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestListBySummonerValidatesInput(t *testing.T) {
	store := NewStore(nil)

	_, err := store.ListBySummoner(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrInvalidReport)
}

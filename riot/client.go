// Package riot maps domain operations onto the retrying fetcher: summoner
// lookup, match-id listing and match detail, plus the composed
// name → ids → details batch.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the regional routing host match data is served from.
const DefaultBaseURL = "https://kr.api.riotgames.com"

// DefaultMatchCount is how many recent matches a batch pulls when the caller
// does not say.
const DefaultMatchCount = 5

// Cache lifetimes per endpoint. Summoner records rarely change, match-id
// lists grow as games finish, and a finished match never changes.
const (
	summonerTTL  = 24 * time.Hour
	matchListTTL = time.Hour
	matchTTL     = 7 * 24 * time.Hour
)

// Fetcher is the cached, retrying transport the client runs on. Satisfied by
// *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string, ttl time.Duration) (json.RawMessage, error)
}

// Client has no network or disk access of its own; everything goes through
// the fetcher.
type Client struct {
	fetcher Fetcher
	log     zerolog.Logger
}

type Option func(*Client)

// WithLogger sets the logger for skipped-match and lookup-failure events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(f Fetcher, opts ...Option) (*Client, error) {
	if f == nil {
		return nil, errors.New("fetcher required")
	}
	c := &Client{fetcher: f, log: zerolog.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ResolveSummoner looks up a summoner record by display name.
func (c *Client) ResolveSummoner(ctx context.Context, name string) (*Summoner, error) {
	if name == "" {
		return nil, errors.New("summoner name required")
	}
	data, err := c.fetcher.Fetch(ctx, "/lol/summoner/v4/summoners/by-name/"+name, nil, summonerTTL)
	if err != nil {
		return nil, fmt.Errorf("resolve summoner %q: %w", name, err)
	}
	var s Summoner
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode summoner %q: %w", name, err)
	}
	return &s, nil
}

// ListMatchIDs returns up to count recent match ids for a puuid, newest
// first, as the upstream orders them.
func (c *Client) ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if puuid == "" {
		return nil, errors.New("puuid required")
	}
	if count <= 0 {
		count = DefaultMatchCount
	}
	endpoint := "/lol/match/v5/matches/by-puuid/" + puuid + "/ids"
	data, err := c.fetcher.Fetch(ctx, endpoint, map[string]string{"count": strconv.Itoa(count)}, matchListTTL)
	if err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", puuid, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode match ids for %s: %w", puuid, err)
	}
	return ids, nil
}

// GetMatch fetches one match detail record.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	if matchID == "" {
		return nil, errors.New("match id required")
	}
	data, err := c.fetcher.Fetch(ctx, "/lol/match/v5/matches/"+matchID, nil, matchTTL)
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}
	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", matchID, err)
	}
	return &m, nil
}

// RecentMatches resolves a summoner and fetches their recent match details
// sequentially. A failure resolving the summoner or listing ids makes the
// whole batch meaningless and returns an empty slice; a failure on one match
// detail skips only that match, keeping the order of the rest. Failures are
// logged, never returned: callers get what could be fetched.
func (c *Client) RecentMatches(ctx context.Context, name string, count int) []Match {
	s, err := c.ResolveSummoner(ctx, name)
	if err != nil {
		c.log.Warn().Err(err).Str("summoner", name).Msg("summoner lookup failed")
		return nil
	}
	if s.PUUID == "" {
		c.log.Warn().Str("summoner", name).Msg("summoner record has no puuid")
		return nil
	}

	ids, err := c.ListMatchIDs(ctx, s.PUUID, count)
	if err != nil {
		c.log.Warn().Err(err).Str("summoner", name).Msg("match listing failed")
		return nil
	}

	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		m, err := c.GetMatch(ctx, id)
		if err != nil {
			c.log.Warn().Err(err).Str("match_id", id).Msg("skipping unreachable match")
			continue
		}
		matches = append(matches, *m)
	}
	return matches
}

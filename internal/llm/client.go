// Package llm sends match prompts to a chat-completions endpoint and
// extracts the structured verdict from the reply.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"

	// Low temperature keeps the output schema-shaped.
	temperature = 0.2
	maxTokens   = 1500
)

// Result pairs the raw model reply with the extracted verdict. Verdict is
// nil when the reply could not be parsed; the raw text is kept either way so
// callers can inspect what the model actually said.
type Result struct {
	Raw       string    `json:"raw"`
	Verdict   *Verdict  `json:"verdict,omitempty"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	log          zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemPrompt sets the system message sent ahead of every prompt.
func WithSystemPrompt(s string) Option {
	return func(c *Client) { c.systemPrompt = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze sends one prompt and returns the reply with its extracted
// verdict. An unparsable reply is not an error: the Result carries the raw
// text and a nil Verdict.
func (c *Client) Analyze(ctx context.Context, prompt string) (*Result, error) {
	if prompt == "" {
		return nil, errors.New("empty prompt")
	}

	messages := make([]chatMessage, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	text, err := c.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	res := &Result{Raw: text, Model: c.model, Timestamp: time.Now()}
	if v, ok := ExtractJSON(text); ok {
		res.Verdict = v
	} else {
		c.log.Warn().Str("model", c.model).Msg("model reply was not parsable JSON")
	}
	return res, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("chat completion: %s", resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

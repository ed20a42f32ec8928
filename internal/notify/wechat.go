package notify

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

	"github.com/riftrecap/riftrecap/internal/llm"
)

// WeChatSender posts text messages to a WeChat Work group webhook.
type WeChatSender struct {
	http       *http.Client
	webhookURL string
	mentionAll bool
	log        zerolog.Logger
}

type WeChatOption func(*WeChatSender)

func WithHTTPClient(h *http.Client) WeChatOption {
	return func(s *WeChatSender) {
		if h != nil {
			s.http = h
		}
	}
}

// WithMentionAll makes every message ping the whole group.
func WithMentionAll() WeChatOption {
	return func(s *WeChatSender) { s.mentionAll = true }
}

func WithLogger(l zerolog.Logger) WeChatOption {
	return func(s *WeChatSender) { s.log = l }
}

func NewWeChatSender(webhookURL string, opts ...WeChatOption) (*WeChatSender, error) {
	if webhookURL == "" {
		return nil, errors.New("webhook URL required")
	}
	s := &WeChatSender{
		http:       &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

type textMessage struct {
	MsgType string      `json:"msgtype"`
	Text    textPayload `json:"text"`
}

type textPayload struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list,omitempty"`
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send formats the result and posts it to the webhook. The webhook replies
// 200 even for rejected messages, so errcode decides success.
func (s *WeChatSender) Send(ctx context.Context, res *llm.Result) error {
	if res == nil {
		return errors.New("nothing to send")
	}

	msg := textMessage{MsgType: "text", Text: textPayload{Content: FormatMessage(res)}}
	if s.mentionAll {
		msg.Text.MentionedList = []string{"@all"}
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("webhook responded %s", resp.Status)
	}

	var wr webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}
	if wr.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message: %d %s", wr.ErrCode, wr.ErrMsg)
	}

	s.log.Debug().Msg("verdict delivered to group chat")
	return nil
}

// Package notify delivers finished match verdicts to a group chat.
package notify

import (
	"context"
	"fmt"

	"github.com/riftrecap/riftrecap/internal/llm"
)

// Sender delivers one analysis result.
type Sender interface {
	Send(ctx context.Context, res *llm.Result) error
}

// StdoutSender prints the formatted message instead of delivering it. Used
// when no webhook is configured.
type StdoutSender struct{}

func (StdoutSender) Send(_ context.Context, res *llm.Result) error {
	fmt.Println(FormatMessage(res))
	return nil
}

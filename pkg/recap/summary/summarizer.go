package summary

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hollevoet/recap/pkg/recap/store"
)

// ReplyKind distinguishes a normal answer from informational and error
// replies.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyInfo
	ReplyError
)

// Reply is the outcome of handling a summarize command.
type Reply struct {
	Kind ReplyKind
	Text string
}

const (
	promptHeader   = "Please write a concise summary of the following chat messages:\n"
	replyNoHistory = "There is no chat history to summarize."
	replyFailure   = "Failed to summarize the chat history, please try again later."
)

// dividerPattern matches the horizontal-rule block a previous summary reply
// was appended under. Stored content containing it is cut down to the text
// after the first divider, so old summaries never feed back into a prompt.
// The format is kept byte-compatible with replies already sitting in
// existing databases; changing it orphans that stored content.
var dividerPattern = regexp.MustCompile(`\n- - - - - - - - -.*?\n`)

func stripDivider(content string) string {
	parts := dividerPattern.Split(content, -1)
	if len(parts) > 1 {
		return parts[1]
	}
	return content
}

// RecordSource provides the stored window of a session.
type RecordSource interface {
	Window(ctx context.Context, sessionID string, startTS int64, limit int) ([]store.ChatRecord, error)
}

// Completer is the LLM summarization call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service generates summaries from stored chat records.
type Service struct {
	records RecordSource
	llm     Completer
	timeout time.Duration
	logger  *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewService creates a summarization service. timeout bounds the
// summarization LLM call.
func NewService(records RecordSource, llm Completer, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		records: records,
		llm:     llm,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Summarize loads the session window described by cmd, asks the model for
// a summary and formats the reply. A storage fault propagates as an error;
// an LLM fault is logged and turned into a generic failure reply; a window
// of fewer than two records yields an informational reply without any LLM
// call.
func (s *Service) Summarize(ctx context.Context, sessionID string, cmd Command) (*Reply, error) {
	var startTS int64
	if cmd.DurationSecs > 0 {
		startTS = s.now().Unix() - int64(cmd.DurationSecs)
	}

	records, err := s.records.Window(ctx, sessionID, startTS, cmd.Limit)
	if err != nil {
		return nil, fmt.Errorf("load window for %q: %w", sessionID, err)
	}
	for i := range records {
		records[i].Content = stripDivider(records[i].Content)
	}

	if len(records) <= 1 {
		return &Reply{Kind: ReplyInfo, Text: replyNoHistory}, nil
	}

	// The window arrives newest first and is rendered in that order.
	var b strings.Builder
	b.WriteString(promptHeader)
	for _, r := range records {
		fmt.Fprintf(&b, "%s: %s\n", r.User, r.Content)
	}

	s.logger.Debug("summarizing",
		"session", sessionID,
		"records", len(records),
		"prompt_chars", b.Len(),
	)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.llm.Complete(cctx, b.String())
	if err != nil {
		s.logger.Error("summarization request failed", "session", sessionID, "error", err)
		return &Reply{Kind: ReplyError, Text: replyFailure}, nil
	}

	return &Reply{
		Kind: ReplyText,
		Text: fmt.Sprintf("Summarized %d messages.\n\n%s", len(records), content),
	}, nil
}

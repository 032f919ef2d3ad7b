package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// triggerWord must appear in the first token of a command.
	triggerWord = "summarize"

	// defaultLimit is the window size when the command names none.
	defaultLimit = 99

	// clampedLimit replaces a negative count from the intent translator.
	clampedLimit = 299
)

// translatePrompt converts free-form instructions into a structured
// command. The command vocabulary ("summary", "do_nothing") and the JSON
// response shape are load-bearing: the parser below expects exactly this.
const translatePrompt = `You translate user requests into commands.
Only respond with the command, don't reply anything else.

Commands:
Summarize chat logs: "summary", args: {("duration_in_seconds"): <integer>, ("count"): <integer>}
Do nothing: "do_nothing", args: {}

Arguments in brackets are optional.

You should only respond in JSON format as described below.
Response format:
{
    "name": "command name",
    "args": {"arg name": "value"}
}
Ensure the response can be parsed as plain JSON.

Input: %s`

// jsonPattern grabs the first outermost {...} block from chatty model
// output that wraps the JSON in prose or code fences.
var jsonPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// Translator is the LLM call used to resolve free-form instructions.
type Translator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Command is a resolved summarize request.
type Command struct {
	// Limit caps the number of messages in the window.
	Limit int

	// DurationSecs restricts the window to the last N seconds.
	// Zero or negative means unbounded look-back.
	DurationSecs int
}

// Parser recognizes summarize commands in inbound text.
type Parser struct {
	prefix     string
	translator Translator
	timeout    time.Duration
	logger     *slog.Logger
}

// NewParser creates a command parser. prefix is the command-trigger prefix
// (e.g. "$"); timeout bounds the intent-translation call.
func NewParser(prefix string, translator Translator, timeout time.Duration, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Parser{
		prefix:     prefix,
		translator: translator,
		timeout:    timeout,
		logger:     logger,
	}
}

// Parse inspects a text message. The second return value reports whether
// the message was a summarize command at all; a nil Command with true
// means the command was recognized but resolved to no action (a
// translation fault or an explicit do_nothing). Faults are logged
// internally and never surface to the user.
func (p *Parser) Parse(ctx context.Context, content string) (*Command, bool) {
	if p.prefix == "" {
		return nil, false
	}
	fields := strings.Fields(content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], p.prefix) {
		return nil, false
	}
	if !strings.Contains(fields[0], triggerWord) {
		return nil, false
	}

	// Count form: "$summarize 50". A bare "$summarize" uses the default
	// window; a non-integer second token falls through to translation.
	if fields[0] == p.prefix+triggerWord {
		if len(fields) == 1 {
			return &Command{Limit: defaultLimit, DurationSecs: -1}, true
		}
		if n, err := strconv.Atoi(fields[1]); err == nil {
			return &Command{Limit: n, DurationSecs: -1}, true
		}
	}

	// Free-form instruction: everything after the prefix goes through the
	// intent translator.
	text := strings.SplitN(content, p.prefix, 2)[1]
	return p.translate(ctx, text), true
}

func (p *Parser) translate(ctx context.Context, text string) *Command {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.translator.Complete(tctx, fmt.Sprintf(translatePrompt, text))
	if err != nil {
		p.logger.Error("intent translation failed", "error", err)
		return nil
	}

	jsonStr := jsonPattern.FindString(raw)
	if jsonStr == "" {
		p.logger.Error("intent translation returned no JSON", "output", raw)
		return nil
	}

	var cmd struct {
		Name string `json:"name"`
		Args struct {
			Count             *int `json:"count"`
			DurationInSeconds *int `json:"duration_in_seconds"`
		} `json:"args"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &cmd); err != nil {
		p.logger.Error("intent translation returned malformed JSON", "error", err)
		return nil
	}

	if !strings.EqualFold(cmd.Name, "summary") {
		p.logger.Debug("intent resolved to no action", "name", cmd.Name)
		return nil
	}

	limit := defaultLimit
	if cmd.Args.Count != nil {
		limit = *cmd.Args.Count
	}
	if limit < 0 {
		limit = clampedLimit
	}
	duration := -1
	if cmd.Args.DurationInSeconds != nil && *cmd.Args.DurationInSeconds > 0 {
		duration = *cmd.Args.DurationInSeconds
	}

	p.logger.Debug("intent translated", "limit", limit, "duration_secs", duration)
	return &Command{Limit: limit, DurationSecs: duration}
}

// Package bot wires the recorder and the summarizer to the messaging
// channels: every inbound message is appended to the store, and recognized
// summarize commands are answered on the channel they arrived on.
package bot

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"

	"github.com/hollevoet/recap/pkg/recap/channels"
	"github.com/hollevoet/recap/pkg/recap/config"
	"github.com/hollevoet/recap/pkg/recap/store"
	"github.com/hollevoet/recap/pkg/recap/summary"
)

// Bot is the message-handling core.
type Bot struct {
	cfg        *config.Config
	store      *store.Store
	classifier *summary.Classifier
	parser     *summary.Parser
	svc        *summary.Service
	mgr        *channels.Manager

	// nameKeyed marks channels whose chat display name is the session key.
	nameKeyed map[string]bool

	logger *slog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the bot. parser and svc share the LLM client; mgr carries
// the registered channels.
func New(cfg *config.Config, st *store.Store, parser *summary.Parser, svc *summary.Service, mgr *channels.Manager, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	nameKeyed := make(map[string]bool, len(cfg.Sessions.NameKeyedChannels))
	for _, name := range cfg.Sessions.NameKeyedChannels {
		nameKeyed[name] = true
	}
	return &Bot{
		cfg:        cfg,
		store:      st,
		classifier: summary.NewClassifier(cfg.Triggers),
		parser:     parser,
		svc:        svc,
		mgr:        mgr,
		nameKeyed:  nameKeyed,
		logger:     logger,
	}
}

// Start connects the channels and begins consuming messages.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	if err := b.mgr.Start(b.ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.messageLoop()
	}()
	return nil
}

// Stop shuts down the channels and waits for in-flight handlers.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.mgr.Stop()
	b.wg.Wait()
}

func (b *Bot) messageLoop() {
	for {
		select {
		case msg, ok := <-b.mgr.Messages():
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleMessage(b.ctx, msg)
			}()
		case <-b.ctx.Done():
			return
		}
	}
}

// handleMessage records the message and, for text messages, runs the
// command path. The record must land before anything else happens; a
// storage fault aborts handling of this message only.
func (b *Bot) handleMessage(ctx context.Context, msg *channels.IncomingMessage) {
	logger := b.logger.With(
		"channel", msg.Channel,
		"chat_id", msg.ChatID,
		"msg_id", msg.ID,
	)

	sessionID := b.sessionID(msg)
	triggered := b.classifier.Triggered(msg.Content, msg.IsGroup, msg.Mentioned)

	rec := store.ChatRecord{
		SessionID: sessionID,
		MsgID:     parseMsgID(msg.ID),
		User:      senderName(msg),
		Content:   msg.Content,
		Type:      string(msg.Type),
		Timestamp: msg.Timestamp.Unix(),
		Triggered: triggered,
	}
	if err := b.store.AppendRecord(ctx, rec); err != nil {
		logger.Error("failed to record message", "error", err)
		return
	}

	if msg.Type != channels.MessageText {
		return
	}

	cmd, isCommand := b.parser.Parse(ctx, msg.Content)
	if !isCommand || cmd == nil {
		return
	}

	reply, err := b.svc.Summarize(ctx, sessionID, *cmd)
	if err != nil {
		logger.Error("summarize failed", "session", sessionID, "error", err)
		return
	}

	logger.Info("summary reply", "session", sessionID, "kind", reply.Kind)
	if err := b.mgr.Send(ctx, msg.Channel, msg.ChatID, &channels.OutgoingMessage{
		Content: reply.Text,
		ReplyTo: msg.ID,
	}); err != nil {
		logger.Error("failed to send reply", "error", err)
	}
}

// RunJob executes one scheduled summary firing: summarize the job's
// session and post the result to its target chat. An empty window is
// skipped silently so recurring jobs stay quiet in idle chats.
func (b *Bot) RunJob(ctx context.Context, job store.SummaryJob) error {
	// Fail before the LLM call when the target channel was never
	// registered; the job can only ever misfire.
	if _, ok := b.mgr.Channel(job.Channel); !ok {
		return fmt.Errorf("job %q: %w: %q", job.ID, channels.ErrChannelNotFound, job.Channel)
	}

	reply, err := b.svc.Summarize(ctx, job.SessionID, summary.Command{
		Limit:        job.Count,
		DurationSecs: -1,
	})
	if err != nil {
		return err
	}

	switch reply.Kind {
	case summary.ReplyInfo:
		b.logger.Debug("scheduled summary skipped, no history", "job", job.ID)
		return nil
	case summary.ReplyError:
		return fmt.Errorf("summarization request failed for job %q", job.ID)
	}

	return b.mgr.Send(ctx, job.Channel, job.ChatID, &channels.OutgoingMessage{
		Content: reply.Text,
	})
}

// sessionID resolves the session key for a message. Channels flagged as
// name-keyed use the chat display name, because their numeric IDs change
// between connections; everything else uses the chat ID. The same
// resolution runs on the write and the read path, otherwise windows
// silently come back empty.
func (b *Bot) sessionID(msg *channels.IncomingMessage) string {
	if b.nameKeyed[msg.Channel] && msg.ChatName != "" {
		return msg.ChatName
	}
	return msg.ChatID
}

func senderName(msg *channels.IncomingMessage) string {
	if msg.FromName != "" {
		return msg.FromName
	}
	return msg.From
}

// parseMsgID maps the provider message ID onto the integer key column.
// Non-numeric IDs (Discord snowflakes exceed int64 only in theory, but
// some platforms use opaque strings) are hashed.
func parseMsgID(id string) int64 {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}

package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hollevoet/recap/pkg/recap/store"
)

// fakeRecords serves a fixed window and records the requested bounds.
type fakeRecords struct {
	records     []store.ChatRecord
	err         error
	lastStartTS int64
	lastLimit   int
}

func (f *fakeRecords) Window(_ context.Context, _ string, startTS int64, limit int) ([]store.ChatRecord, error) {
	f.lastStartTS = startTS
	f.lastLimit = limit
	return f.records, f.err
}

// fakeCompleter returns a canned summary.
type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastArg  string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastArg = prompt
	return f.response, f.err
}

func testRecords(contents ...string) []store.ChatRecord {
	records := make([]store.ChatRecord, len(contents))
	for i, c := range contents {
		records[i] = store.ChatRecord{
			SessionID: "s",
			MsgID:     int64(i + 1),
			User:      "alice",
			Content:   c,
			Type:      "text",
			Timestamp: int64(1000 + i),
		}
	}
	return records
}

func TestService_Summarize(t *testing.T) {
	fr := &fakeRecords{records: testRecords("first", "second", "third")}
	fc := &fakeCompleter{response: "X happened"}
	svc := NewService(fr, fc, time.Second, nil)

	reply, err := svc.Summarize(context.Background(), "s", Command{Limit: 99, DurationSecs: -1})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if reply.Kind != ReplyText {
		t.Errorf("Kind = %v, want ReplyText", reply.Kind)
	}
	want := "Summarized 3 messages.\n\nX happened"
	if reply.Text != want {
		t.Errorf("Text = %q, want %q", reply.Text, want)
	}

	if fr.lastLimit != 99 {
		t.Errorf("limit = %d, want 99", fr.lastLimit)
	}
	if fr.lastStartTS != 0 {
		t.Errorf("startTS = %d, want 0 for unbounded look-back", fr.lastStartTS)
	}
	if !strings.Contains(fc.lastArg, "alice: first") {
		t.Error("prompt should render records as user: content lines")
	}
}

func TestService_DurationWindow(t *testing.T) {
	fr := &fakeRecords{records: testRecords("a", "b")}
	svc := NewService(fr, &fakeCompleter{response: "ok"}, time.Second, nil)
	svc.now = func() time.Time { return time.Unix(10_000, 0) }

	if _, err := svc.Summarize(context.Background(), "s", Command{Limit: 99, DurationSecs: 3600}); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if fr.lastStartTS != 10_000-3600 {
		t.Errorf("startTS = %d, want %d", fr.lastStartTS, 10_000-3600)
	}
}

func TestService_TooFewRecords(t *testing.T) {
	for _, n := range []int{0, 1} {
		fr := &fakeRecords{records: testRecords()[:0]}
		if n == 1 {
			fr.records = testRecords("only one")
		}
		fc := &fakeCompleter{}
		svc := NewService(fr, fc, time.Second, nil)

		reply, err := svc.Summarize(context.Background(), "s", Command{Limit: 99})
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		if reply.Kind != ReplyInfo {
			t.Errorf("Kind = %v, want ReplyInfo for %d records", reply.Kind, n)
		}
		if reply.Text != "There is no chat history to summarize." {
			t.Errorf("unexpected info text: %q", reply.Text)
		}
		if fc.calls != 0 {
			t.Errorf("model called %d times for %d records, want 0", fc.calls, n)
		}
	}
}

func TestService_ModelFailure(t *testing.T) {
	fr := &fakeRecords{records: testRecords("a", "b", "c")}
	fc := &fakeCompleter{err: errors.New("status 500")}
	svc := NewService(fr, fc, time.Second, nil)

	reply, err := svc.Summarize(context.Background(), "s", Command{Limit: 99})
	if err != nil {
		t.Fatalf("model faults must not surface as errors, got: %v", err)
	}
	if reply.Kind != ReplyError {
		t.Errorf("Kind = %v, want ReplyError", reply.Kind)
	}
	if reply.Text != "Failed to summarize the chat history, please try again later." {
		t.Errorf("unexpected failure text: %q", reply.Text)
	}
}

func TestService_StoreFailure(t *testing.T) {
	fr := &fakeRecords{err: errors.New("disk gone")}
	svc := NewService(fr, &fakeCompleter{}, time.Second, nil)

	if _, err := svc.Summarize(context.Background(), "s", Command{Limit: 99}); err == nil {
		t.Fatal("expected a storage fault to propagate")
	}
}

func TestStripDivider(t *testing.T) {
	t.Run("keeps content after first divider", func(t *testing.T) {
		content := "old message\n- - - - - - - - - - - - - - -\nthe actual text"
		if got := stripDivider(content); got != "the actual text" {
			t.Errorf("stripDivider = %q", got)
		}
	})

	t.Run("no divider leaves content untouched", func(t *testing.T) {
		if got := stripDivider("plain message"); got != "plain message" {
			t.Errorf("stripDivider = %q", got)
		}
	})
}

func TestService_StripsDividersBeforePrompting(t *testing.T) {
	fr := &fakeRecords{records: testRecords(
		"hello",
		"quoted\n- - - - - - - - - - -\nfollow-up",
	)}
	fc := &fakeCompleter{response: "ok"}
	svc := NewService(fr, fc, time.Second, nil)

	if _, err := svc.Summarize(context.Background(), "s", Command{Limit: 99}); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if strings.Contains(fc.lastArg, "- - -") {
		t.Error("divider should not reach the prompt")
	}
	if !strings.Contains(fc.lastArg, "follow-up") {
		t.Error("text after the divider should reach the prompt")
	}
}

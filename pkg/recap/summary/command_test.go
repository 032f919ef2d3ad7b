package summary

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fakeTranslator returns a canned response and records the prompt.
type fakeTranslator struct {
	response string
	err      error
	calls    int
	lastArg  string
}

func (f *fakeTranslator) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastArg = prompt
	return f.response, f.err
}

func TestParser_CountForm(t *testing.T) {
	ft := &fakeTranslator{}
	p := NewParser("$", ft, time.Second, nil)

	t.Run("bare command uses default window", func(t *testing.T) {
		cmd, ok := p.Parse(context.Background(), "$summarize")
		if !ok {
			t.Fatal("expected command to be recognized")
		}
		if cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if cmd.Limit != 99 {
			t.Errorf("Limit = %d, want 99", cmd.Limit)
		}
		if cmd.DurationSecs != -1 {
			t.Errorf("DurationSecs = %d, want -1", cmd.DurationSecs)
		}
	})

	t.Run("explicit count", func(t *testing.T) {
		cmd, ok := p.Parse(context.Background(), "$summarize 50")
		if !ok || cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if cmd.Limit != 50 {
			t.Errorf("Limit = %d, want 50", cmd.Limit)
		}
	})

	if ft.calls != 0 {
		t.Errorf("count form must not call the translator, got %d calls", ft.calls)
	}
}

func TestParser_NotACommand(t *testing.T) {
	p := NewParser("$", &fakeTranslator{}, time.Second, nil)

	for _, content := range []string{
		"hello there",
		"summarize this please", // no prefix
		"$schedule 5",           // prefix but wrong word
		"",
	} {
		if _, ok := p.Parse(context.Background(), content); ok {
			t.Errorf("Parse(%q) recognized a command, want none", content)
		}
	}
}

func TestParser_EmptyPrefixDisablesCommands(t *testing.T) {
	p := NewParser("", &fakeTranslator{}, time.Second, nil)
	if _, ok := p.Parse(context.Background(), "summarize"); ok {
		t.Error("empty prefix must disable command recognition")
	}
}

func TestParser_FreeForm(t *testing.T) {
	t.Run("count from translation", func(t *testing.T) {
		ft := &fakeTranslator{response: `{"name": "summary", "args": {"count": 20}}`}
		p := NewParser("$", ft, time.Second, nil)

		cmd, ok := p.Parse(context.Background(), "$summarize the last few messages")
		if !ok || cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if cmd.Limit != 20 {
			t.Errorf("Limit = %d, want 20", cmd.Limit)
		}
		if cmd.DurationSecs != -1 {
			t.Errorf("DurationSecs = %d, want -1", cmd.DurationSecs)
		}
		if !strings.Contains(ft.lastArg, "the last few messages") {
			t.Error("translator prompt should embed the instruction text")
		}
	})

	t.Run("duration from translation", func(t *testing.T) {
		ft := &fakeTranslator{response: `{"name": "summary", "args": {"duration_in_seconds": 3600}}`}
		p := NewParser("$", ft, time.Second, nil)

		cmd, _ := p.Parse(context.Background(), "$summarize the last hour")
		if cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if cmd.DurationSecs != 3600 {
			t.Errorf("DurationSecs = %d, want 3600", cmd.DurationSecs)
		}
		if cmd.Limit != 99 {
			t.Errorf("Limit = %d, want default 99", cmd.Limit)
		}
	})

	t.Run("negative count clamps", func(t *testing.T) {
		ft := &fakeTranslator{response: `{"name": "summary", "args": {"count": -1}}`}
		p := NewParser("$", ft, time.Second, nil)

		cmd, _ := p.Parse(context.Background(), "$summarize everything")
		if cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if cmd.Limit != 299 {
			t.Errorf("Limit = %d, want 299", cmd.Limit)
		}
	})

	t.Run("chatty output around the JSON", func(t *testing.T) {
		ft := &fakeTranslator{response: "Sure! Here is the command:\n```json\n{\"name\": \"summary\", \"args\": {\"count\": 10}}\n```"}
		p := NewParser("$", ft, time.Second, nil)

		cmd, _ := p.Parse(context.Background(), "$summarize recent chat")
		if cmd == nil {
			t.Fatal("expected JSON to be extracted from chatty output")
		}
		if cmd.Limit != 10 {
			t.Errorf("Limit = %d, want 10", cmd.Limit)
		}
	})

	t.Run("non-integer token goes through translation", func(t *testing.T) {
		ft := &fakeTranslator{response: `{"name": "summary", "args": {}}`}
		p := NewParser("$", ft, time.Second, nil)

		cmd, ok := p.Parse(context.Background(), "$summarize everything")
		if !ok || cmd == nil {
			t.Fatal("expected a resolved command")
		}
		if ft.calls != 1 {
			t.Errorf("translator calls = %d, want 1", ft.calls)
		}
	})
}

func TestParser_FreeFormAbandoned(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"do_nothing", `{"name": "do_nothing", "args": {}}`, nil},
		{"unknown command", `{"name": "dance", "args": {}}`, nil},
		{"no JSON in output", "I cannot help with that.", nil},
		{"malformed JSON", `{"name": "summary", `, nil},
		{"translator error", "", context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTranslator{response: tt.response, err: tt.err}
			p := NewParser("$", ft, time.Second, nil)

			cmd, ok := p.Parse(context.Background(), "$summarize something odd")
			if !ok {
				t.Fatal("expected the message to be recognized as a command")
			}
			if cmd != nil {
				t.Errorf("expected no action, got %+v", cmd)
			}
		})
	}
}

package discord

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/hollevoet/recap/pkg/recap/channels"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		chunks := splitMessage("hello", 2000)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("chunks = %v", chunks)
		}
	})

	t.Run("splits on newline boundaries", func(t *testing.T) {
		text := strings.Repeat("line one\n", 300) // ~2700 chars
		chunks := splitMessage(text, 2000)
		if len(chunks) < 2 {
			t.Fatalf("got %d chunks, want at least 2", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > 2000 {
				t.Errorf("chunk %d is %d chars", i, len(c))
			}
		}
		if strings.Join(chunks, "") != text {
			t.Error("chunks must reassemble to the original text")
		}
	})

	t.Run("hard split without newlines", func(t *testing.T) {
		text := strings.Repeat("a", 4500)
		chunks := splitMessage(text, 2000)
		if len(chunks) != 3 {
			t.Errorf("got %d chunks, want 3", len(chunks))
		}
	})
}

func TestInferMediaType(t *testing.T) {
	tests := []struct {
		mime string
		want channels.MessageType
	}{
		{"image/png", channels.MessageImage},
		{"audio/ogg", channels.MessageAudio},
		{"video/mp4", channels.MessageVideo},
		{"application/pdf", channels.MessageDocument},
		{"", channels.MessageDocument},
	}
	for _, tt := range tests {
		if got := inferMediaType(tt.mime); got != tt.want {
			t.Errorf("inferMediaType(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestMentionsUser(t *testing.T) {
	mentions := []*discordgo.User{{ID: "111"}, {ID: "222"}}

	if !mentionsUser(mentions, "222") {
		t.Error("expected mention of 222 to be found")
	}
	if mentionsUser(mentions, "333") {
		t.Error("unexpected mention of 333")
	}
	if mentionsUser(nil, "111") {
		t.Error("empty mention list must not match")
	}
}

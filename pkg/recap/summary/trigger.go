// Package summary implements the chat-log summarization core: trigger
// classification for the recorder, command parsing (including LLM intent
// translation of free-form instructions) and summary generation over a
// window of stored records.
package summary

import (
	"strings"

	"github.com/hollevoet/recap/pkg/recap/config"
)

// Classifier decides whether an inbound message counts as a bot trigger.
// The decision is made once at receipt time and stored with the record.
type Classifier struct {
	cfg config.TriggersConfig
}

// NewClassifier creates a classifier from the trigger configuration.
func NewClassifier(cfg config.TriggersConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Triggered reports whether the message matched the trigger rule.
// Group chats trigger on a configured prefix, a keyword anywhere in the
// content, or an explicit mention (unless mention triggering is off).
// Direct chats trigger on the direct prefixes; the default empty prefix
// matches everything. Matching is case-sensitive.
func (c *Classifier) Triggered(content string, isGroup, mentioned bool) bool {
	if isGroup {
		if matchPrefix(content, c.cfg.GroupPrefixes) || matchContain(content, c.cfg.GroupKeywords) {
			return true
		}
		return mentioned && c.cfg.MentionTrigger
	}
	return matchPrefix(content, c.cfg.DirectPrefixes)
}

func matchPrefix(content string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(content, p) {
			return true
		}
	}
	return false
}

func matchContain(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}

package store

import (
	"context"
	"fmt"
)

// ChatRecord is one observed chat message.
type ChatRecord struct {
	// SessionID identifies the conversation (a DM peer or a group). On
	// channels with unstable numeric IDs the display name is used instead.
	SessionID string

	// MsgID is the provider-assigned message identifier.
	MsgID int64

	// User is the author display name or id.
	User string

	// Content is the raw message text.
	Content string

	// Type is the content-type tag ("text", "image", ...).
	Type string

	// Timestamp is the provider-assigned creation time in Unix seconds.
	Timestamp int64

	// Triggered records whether the message matched the command-trigger
	// rule at receipt time.
	Triggered bool
}

// AppendRecord persists a chat record, overwriting any existing row with
// the same (session_id, msg_id). Re-recording a message is not an error.
func (s *Store) AppendRecord(ctx context.Context, r ChatRecord) error {
	triggered := 0
	if r.Triggered {
		triggered = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chat_records
			(session_id, msg_id, user, content, type, timestamp, is_triggered)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.MsgID, r.User, r.Content, r.Type, r.Timestamp, triggered,
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

// Window returns up to limit records for a session with timestamp strictly
// greater than startTS, newest first. Ties in timestamp are returned in an
// arbitrary order; only the ORDER BY guarantees hold.
func (s *Store) Window(ctx context.Context, sessionID string, startTS int64, limit int) ([]ChatRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, msg_id, user, content, type, timestamp, is_triggered
		FROM chat_records
		WHERE session_id = ? AND timestamp > ?
		ORDER BY timestamp DESC
		LIMIT ?`,
		sessionID, startTS, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat records: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		var (
			r         ChatRecord
			triggered int
		)
		if err := rows.Scan(&r.SessionID, &r.MsgID, &r.User, &r.Content, &r.Type, &r.Timestamp, &triggered); err != nil {
			return nil, fmt.Errorf("scan chat record: %w", err)
		}
		r.Triggered = triggered != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat records: %w", err)
	}
	return records, nil
}

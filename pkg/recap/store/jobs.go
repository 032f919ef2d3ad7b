package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SummaryJob is a recurring summary posted to a chat on a cron schedule.
type SummaryJob struct {
	// ID is the unique job identifier.
	ID string

	// Schedule is the cron expression (standard 5-field).
	Schedule string

	// Channel is the target channel name (e.g. "telegram").
	Channel string

	// ChatID is the target chat to post the summary into.
	ChatID string

	// SessionID is the session whose history is summarized. Usually equal
	// to ChatID, but differs on name-keyed channels.
	SessionID string

	// Count is the message-count limit for each summary.
	Count int

	CreatedAt time.Time
	LastRunAt *time.Time
	LastError string
	RunCount  int
}

// SaveJob inserts or replaces a summary job.
func (s *Store) SaveJob(ctx context.Context, j SummaryJob) error {
	var lastRun any
	if j.LastRunAt != nil {
		lastRun = j.LastRunAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO summary_jobs
			(id, schedule, channel, chat_id, session_id, count, created_at, last_run_at, last_error, run_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Schedule, j.Channel, j.ChatID, j.SessionID, j.Count,
		j.CreatedAt.UTC().Format(time.RFC3339), lastRun, j.LastError, j.RunCount,
	)
	if err != nil {
		return fmt.Errorf("save summary job: %w", err)
	}
	return nil
}

// ListJobs returns all summary jobs ordered by creation time.
func (s *Store) ListJobs(ctx context.Context) ([]SummaryJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule, channel, chat_id, session_id, count, created_at, last_run_at, last_error, run_count
		FROM summary_jobs
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list summary jobs: %w", err)
	}
	defer rows.Close()

	var jobs []SummaryJob
	for rows.Next() {
		var (
			j         SummaryJob
			createdAt string
			lastRunAt sql.NullString
		)
		if err := rows.Scan(&j.ID, &j.Schedule, &j.Channel, &j.ChatID, &j.SessionID, &j.Count,
			&createdAt, &lastRunAt, &j.LastError, &j.RunCount); err != nil {
			return nil, fmt.Errorf("scan summary job: %w", err)
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if lastRunAt.Valid {
			if t, err := time.Parse(time.RFC3339, lastRunAt.String); err == nil {
				j.LastRunAt = &t
			}
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary jobs: %w", err)
	}
	return jobs, nil
}

// DeleteJob removes a summary job. Deleting an unknown id is not an error.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM summary_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete summary job: %w", err)
	}
	return nil
}

// TouchJobRun records the outcome of one job firing.
func (s *Store) TouchJobRun(ctx context.Context, id string, runErr error) error {
	lastError := ""
	if runErr != nil {
		lastError = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE summary_jobs
		SET last_run_at = ?, last_error = ?, run_count = run_count + 1
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), lastError, id,
	)
	if err != nil {
		return fmt.Errorf("touch summary job %q: %w", id, err)
	}
	return nil
}

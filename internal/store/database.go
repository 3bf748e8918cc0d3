package store

import (
	"context"
	"fmt"
	"time"

	"taste-haven-assistant/internal/assistant"
	"taste-haven-assistant/internal/db"
)

// TranscriptArchive appends every chat message to Postgres for later
// inspection. Containers never read it back.
type TranscriptArchive struct {
	db *db.DB
}

func NewTranscriptArchive(database *db.DB) *TranscriptArchive {
	return &TranscriptArchive{db: database}
}

// Record implements assistant.Archive.
func (a *TranscriptArchive) Record(ctx context.Context, sessionID string, m assistant.Message) error {
	if sessionID == "" || m.ID == "" {
		return fmt.Errorf("session_id and message id are required")
	}
	query := `
		INSERT INTO chat_transcript (message_id, session_id, content, is_user, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id) DO NOTHING
	`
	if _, err := a.db.ExecContext(ctx, query, m.ID, sessionID, m.Content, m.IsUser, m.Timestamp.UTC()); err != nil {
		return fmt.Errorf("failed to archive message: %w", err)
	}
	return nil
}

// ListBySession returns the archived messages of a session in send order.
func (a *TranscriptArchive) ListBySession(ctx context.Context, sessionID string) ([]assistant.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	query := `
		SELECT message_id, content, is_user, sent_at
		FROM chat_transcript
		WHERE session_id = $1
		ORDER BY sent_at, id
	`
	rows, err := a.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript: %w", err)
	}
	defer rows.Close()

	var out []assistant.Message
	for rows.Next() {
		var (
			m  assistant.Message
			ts time.Time
		)
		if err := rows.Scan(&m.ID, &m.Content, &m.IsUser, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		m.Timestamp = ts
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript rows: %w", err)
	}
	return out, nil
}

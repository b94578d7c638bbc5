package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatvault/internal/domain"
)

// ClientExists reports whether a client id has been captured before. This is
// the identity-based dedup check that makes re-runs idempotent.
func (s *Store) ClientExists(ctx context.Context, clientID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM clients WHERE client_id = ?`, clientID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpsertClient inserts a client or, when the id is already present, updates
// the display name and last_updated_at in place. first_seen_at is preserved
// across re-captures.
func (s *Store) UpsertClient(ctx context.Context, c domain.Client) error {
	now := time.Now()
	if c.FirstSeenAt.IsZero() {
		c.FirstSeenAt = now
	}
	if c.LastUpdatedAt.IsZero() {
		c.LastUpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (client_id, name, first_seen_at, last_updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(client_id) DO UPDATE SET name = excluded.name, last_updated_at = excluded.last_updated_at`,
		c.ClientID, c.Name, c.FirstSeenAt, c.LastUpdatedAt,
	)
	return err
}

// EnsureConversation creates the client's conversation row if missing and
// returns its surrogate id.
func (s *Store) EnsureConversation(ctx context.Context, clientID string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (client_id) VALUES (?)`, clientID,
	); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id FROM conversations WHERE client_id = ?`, clientID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolve conversation for client %s: %w", clientID, err)
	}
	return id, nil
}

func (s *Store) InsertMessage(ctx context.Context, m domain.StoredMessage) (int64, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, sender_type, sender_name, message_text, message_date, message_time, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ConversationID, string(m.SenderType), m.SenderName, m.Text, m.Date, m.Time, m.Timestamp,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) InsertImage(ctx context.Context, img domain.Image) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (message_id, image_url, image_time) VALUES (?, ?, ?)`,
		img.MessageID, img.URL, img.Time,
	)
	return err
}

// CaptureConversation commits one conversation capture as a single
// transaction: the client upsert, its conversation row, and every message and
// image either all land or none do. A unit that fails mid-way leaves no
// committed prefix for the client-id dedup to lock in. With recapture,
// messages already present (identical text, date label, and time label) are
// skipped. Returns the number of messages inserted.
func (s *Store) CaptureConversation(ctx context.Context, client domain.Client, msgs []domain.CapturedMessage, recapture bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	if client.FirstSeenAt.IsZero() {
		client.FirstSeenAt = now
	}
	if client.LastUpdatedAt.IsZero() {
		client.LastUpdatedAt = now
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO clients (client_id, name, first_seen_at, last_updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(client_id) DO UPDATE SET name = excluded.name, last_updated_at = excluded.last_updated_at`,
		client.ClientID, client.Name, client.FirstSeenAt, client.LastUpdatedAt,
	); err != nil {
		return 0, fmt.Errorf("upsert client %s: %w", client.ClientID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (client_id) VALUES (?)`, client.ClientID,
	); err != nil {
		return 0, err
	}
	var convID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT conversation_id FROM conversations WHERE client_id = ?`, client.ClientID,
	).Scan(&convID); err != nil {
		return 0, fmt.Errorf("resolve conversation for client %s: %w", client.ClientID, err)
	}

	inserted := 0
	for _, m := range msgs {
		if m.Text == "" && m.ImageURL == "" {
			return 0, fmt.Errorf("empty message record for client %s", client.ClientID)
		}
		if recapture {
			var one int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM messages
				 WHERE conversation_id = ? AND message_text = ? AND message_date = ? AND message_time = ?
				 LIMIT 1`,
				convID, m.Text, m.Date, m.Time,
			).Scan(&one)
			if err == nil {
				continue
			}
			if err != sql.ErrNoRows {
				return 0, err
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, sender_type, sender_name, message_text, message_date, message_time, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			convID, string(m.SenderType), m.SenderName, m.Text, m.Date, m.Time, time.Now(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert message: %w", err)
		}
		msgID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		if m.ImageURL != "" {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO images (message_id, image_url, image_time) VALUES (?, ?, ?)`,
				msgID, m.ImageURL, m.Time,
			); err != nil {
				return 0, fmt.Errorf("insert image: %w", err)
			}
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// RecordRun persists the counters of one completed capture run.
func (s *Store) RecordRun(ctx context.Context, run domain.CaptureRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO capture_runs (run_id, started_at, finished_at, scraped, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt, run.FinishedAt, run.Scraped, run.Skipped, run.Failed,
	)
	return err
}

// MessageCount is used by tests and diagnostics.
func (s *Store) MessageCount(ctx context.Context, conversationID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&n)
	return n, err
}

package store

import (
	"context"
	"database/sql"
)

// ClientSummary is one sidebar entry in the viewer.
type ClientSummary struct {
	ClientID     string `json:"client_id"`
	Name         string `json:"name"`
	MessageCount int    `json:"message_count"`
}

// ViewMessage is one row of the viewer's conversation join: a message plus
// its attached image URL and local archive filename, when present.
type ViewMessage struct {
	Text          string `json:"message_text"`
	Date          string `json:"message_date"`
	Time          string `json:"message_time"`
	SenderType    string `json:"sender_type"`
	SenderName    string `json:"sender_name,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	ImageFilename string `json:"image_filename,omitempty"`
}

// ClientSummaries lists clients with at least one message, ordered by
// first-message recency (most recently first-captured at the top).
func (s *Store) ClientSummaries(ctx context.Context) ([]ClientSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.client_id, c.name, COUNT(m.message_id)
		 FROM clients c
		 JOIN conversations v ON v.client_id = c.client_id
		 JOIN messages m ON m.conversation_id = v.conversation_id
		 GROUP BY c.client_id, c.name
		 ORDER BY MIN(m.message_id) DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClientSummary
	for rows.Next() {
		var cs ClientSummary
		if err := rows.Scan(&cs.ClientID, &cs.Name, &cs.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// ClientName returns the display name for a client id, or sql.ErrNoRows.
func (s *Store) ClientName(ctx context.Context, clientID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM clients WHERE client_id = ?`, clientID,
	).Scan(&name)
	return name, err
}

// ConversationView returns a client's messages newest-first, each joined with
// its image URL and archived filename when one exists. Ordering is by
// descending insertion id: the source renders newest-first and rows were
// inserted in that order.
func (s *Store) ConversationView(ctx context.Context, clientID string) ([]ViewMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.message_text, m.message_date, m.message_time, m.sender_type, m.sender_name,
		        i.image_url, d.filename
		 FROM conversations v
		 JOIN messages m ON m.conversation_id = v.conversation_id
		 LEFT JOIN images i ON i.message_id = m.message_id
		 LEFT JOIN image_downloads d ON d.url = i.image_url
		 WHERE v.client_id = ?
		 ORDER BY m.message_id DESC`,
		clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ViewMessage
	for rows.Next() {
		var vm ViewMessage
		var senderName, imageURL, filename sql.NullString
		if err := rows.Scan(&vm.Text, &vm.Date, &vm.Time, &vm.SenderType, &senderName, &imageURL, &filename); err != nil {
			return nil, err
		}
		vm.SenderName = senderName.String
		vm.ImageURL = imageURL.String
		vm.ImageFilename = filename.String
		out = append(out, vm)
	}
	return out, rows.Err()
}

package domain

import "time"

// SenderType classifies who authored a stored message.
type SenderType string

const (
	SenderClient         SenderType = "client"
	SenderAssociate      SenderType = "associate"
	SenderOtherAssociate SenderType = "other_associate"
	SenderUnknown        SenderType = "unknown"
)

// ImagePlaceholder is stored as message_text for image-only messages.
const ImagePlaceholder = "[Image]"

type Client struct {
	ClientID      string    `json:"client_id"`
	Name          string    `json:"name"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type Conversation struct {
	ConversationID  int64  `json:"conversation_id"`
	ClientID        string `json:"client_id"`
	LastMessageTime string `json:"last_message_time,omitempty"`
}

type StoredMessage struct {
	MessageID      int64      `json:"message_id"`
	ConversationID int64      `json:"conversation_id"`
	SenderType     SenderType `json:"sender_type"`
	SenderName     string     `json:"sender_name,omitempty"`
	Text           string     `json:"message_text"`
	Date           string     `json:"message_date"` // e.g. "December 06, 2025"
	Time           string     `json:"message_time"` // e.g. "02:23 pm"
	Timestamp      time.Time  `json:"timestamp"`    // capture time; insertion ordering only
}

type Image struct {
	ImageID   int64  `json:"image_id"`
	MessageID int64  `json:"message_id"`
	URL       string `json:"image_url"`
	Time      string `json:"image_time,omitempty"`
}

// CapturedMessage is one message of a conversation capture unit, paired with
// its attachment URL when the message is an image.
type CapturedMessage struct {
	SenderType SenderType
	SenderName string
	Text       string
	Date       string
	Time       string
	ImageURL   string
}

// DownloadRecord is the archiver's dedup ledger entry: one row per distinct URL.
type DownloadRecord struct {
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// CaptureRun records counters for one coordinator execution.
type CaptureRun struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scraped    int       `json:"scraped"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

package domain

// Alignment is the structural placement of a message node in the thread view.
// The source renders the account holder's own messages right-aligned and
// everyone else's left-aligned with a sender label.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignRight
)

// Record is an extracted message, either text or image. The variant carries
// exactly the fields that exist for its kind; there are no sometimes-present
// fields.
type Record interface {
	record()
	RecordMeta() Meta
}

// Meta holds the fields shared by both record kinds.
type Meta struct {
	Date       string // effective date from the nearest following date header; "" if none
	Time       string
	Alignment  Alignment
	SenderName string // from the labeled span on left-aligned nodes; "" otherwise
}

type TextMessage struct {
	Meta
	Text string
}

type ImageMessage struct {
	Meta
	URL string
}

func (TextMessage) record()  {}
func (ImageMessage) record() {}

func (m TextMessage) RecordMeta() Meta  { return m.Meta }
func (m ImageMessage) RecordMeta() Meta { return m.Meta }

package domain

import (
	"context"
	"time"
)

// Pager is the capability the capture pipeline needs from a live browser
// page. There is exactly one page and it is stateful, so calls must not be
// made concurrently.
type Pager interface {
	// NavigateDashboard opens the dashboard root.
	NavigateDashboard(ctx context.Context) error
	// LoginState reports the current URL and whether credential inputs are
	// visible, for login-wall detection.
	LoginState(ctx context.Context) (LoginState, error)
	// WaitLandmark waits up to timeout for the post-login landmark element.
	WaitLandmark(ctx context.Context, timeout time.Duration) error

	// NavigateInbox opens the conversation inbox.
	NavigateInbox(ctx context.Context) error
	// ConversationCount counts currently rendered conversation list items.
	ConversationCount(ctx context.Context) (int, error)
	// ScrollConversationList scrolls the list's scrollable ancestor to its
	// maximum extent to trigger another page of items.
	ScrollConversationList(ctx context.Context) error
	// ConversationNames returns the display names of rendered list items in
	// DOM order.
	ConversationNames(ctx context.Context) ([]string, error)
	// SearchConversation types a name into the inbox search field, replacing
	// any previous query, and waits for the filtered list to render.
	SearchConversation(ctx context.Context, name string) error
	// OpenConversation clicks the index-th rendered list item and waits for
	// the thread to render.
	OpenConversation(ctx context.Context, index int) error
	// ConversationSnapshot serializes the open conversation into a Snapshot.
	ConversationSnapshot(ctx context.Context) (*Snapshot, error)

	// Screenshot saves a full-page capture for diagnostics.
	Screenshot(ctx context.Context, path string) error
}

type LoginState struct {
	URL          string
	HasLoginForm bool
}

// ContentStore is the persistence surface used by the capture coordinator.
// The archiver and viewer query the store directly; only the coordinator's
// write path is abstracted, so it can be driven against a fake in tests.
type ContentStore interface {
	ClientExists(ctx context.Context, clientID string) (bool, error)
	// CaptureConversation commits one conversation capture as a single
	// transaction and returns the number of messages inserted. With recapture,
	// messages already present in the conversation are skipped.
	CaptureConversation(ctx context.Context, client Client, msgs []CapturedMessage, recapture bool) (int, error)
	RecordRun(ctx context.Context, run CaptureRun) error
}

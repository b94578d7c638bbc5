package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatvault/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(dir, "test.db")

	s1, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Re-opening an existing database must not fail on existing tables.
	s2, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestUpsertClient_UpdatesInPlace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertClient(ctx, domain.Client{
		ClientID: "42", Name: "Jane Doe", FirstSeenAt: first, LastUpdatedAt: first,
	}))

	exists, err := s.ClientExists(ctx, "42")
	require.NoError(t, err)
	require.True(t, exists)

	// Re-capture with a changed display name: one row, name updated.
	require.NoError(t, s.UpsertClient(ctx, domain.Client{ClientID: "42", Name: "Jane D."}))

	name, err := s.ClientName(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "Jane D.", name)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&count))
	require.Equal(t, 1, count)

	// first_seen_at survives the upsert.
	var firstSeen time.Time
	require.NoError(t, s.db.QueryRow(`SELECT first_seen_at FROM clients WHERE client_id = '42'`).Scan(&firstSeen))
	require.Equal(t, first.Unix(), firstSeen.Unix())
}

func TestClientExists_Unknown(t *testing.T) {
	s := openTestStore(t)
	exists, err := s.ClientExists(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEnsureConversation_StableSurrogateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertClient(ctx, domain.Client{ClientID: "7", Name: "Bob"}))

	id1, err := s.EnsureConversation(ctx, "7")
	require.NoError(t, err)
	id2, err := s.EnsureConversation(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, id1, id2, "one conversation per client")
}

func TestCaptureConversation_FailedUnitLeavesNoRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	client := domain.Client{ClientID: "31", Name: "Jane"}
	good := domain.CapturedMessage{
		SenderType: domain.SenderClient, SenderName: "Jane",
		Text: "is my ring ready?", Date: "March 01, 2025", Time: "02:23 pm",
	}
	bad := domain.CapturedMessage{SenderType: domain.SenderClient} // no text, no image

	// A unit failing mid-way must roll back entirely; a committed client row
	// plus a message prefix would make the dedup skip the rest forever.
	_, err := s.CaptureConversation(ctx, client, []domain.CapturedMessage{good, bad}, false)
	require.Error(t, err)

	exists, err := s.ClientExists(ctx, "31")
	require.NoError(t, err)
	require.False(t, exists, "failed unit must not commit the client row")

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count))
	require.Zero(t, count, "failed unit must not commit a message prefix")

	// The next run captures the conversation in full.
	inserted, err := s.CaptureConversation(ctx, client, []domain.CapturedMessage{
		good,
		{SenderType: domain.SenderAssociate, Text: domain.ImagePlaceholder,
			Date: "March 01, 2025", Time: "02:25 pm", ImageURL: "https://img/ring"},
	}, false)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	convID, err := s.EnsureConversation(ctx, "31")
	require.NoError(t, err)
	n, err := s.MessageCount(ctx, convID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	pending, err := s.PendingImageURLs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://img/ring"}, pending, "image row committed with its message")
}

func TestCaptureConversation_RecaptureSkipsExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	client := domain.Client{ClientID: "32", Name: "Bob"}
	old := domain.CapturedMessage{
		SenderType: domain.SenderClient, Text: "hello", Date: "March 01, 2025", Time: "02:23 pm",
	}
	inserted, err := s.CaptureConversation(ctx, client, []domain.CapturedMessage{old}, false)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	// Re-capture with one new message: only the new one lands.
	fresh := domain.CapturedMessage{
		SenderType: domain.SenderClient, Text: "any update?", Date: "March 02, 2025", Time: "09:01 am",
	}
	inserted, err = s.CaptureConversation(ctx, client, []domain.CapturedMessage{fresh, old}, true)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	convID, err := s.EnsureConversation(ctx, "32")
	require.NoError(t, err)
	n, err := s.MessageCount(ctx, convID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func seedConversation(t *testing.T, s *Store, clientID, name string, texts ...string) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertClient(ctx, domain.Client{ClientID: clientID, Name: name}))
	convID, err := s.EnsureConversation(ctx, clientID)
	require.NoError(t, err)
	for _, text := range texts {
		_, err := s.InsertMessage(ctx, domain.StoredMessage{
			ConversationID: convID, SenderType: domain.SenderUnknown, Text: text,
		})
		require.NoError(t, err)
	}
	return convID
}

func TestImageURLQueues(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	convID := seedConversation(t, s, "1", "Jane")
	msgID, err := s.InsertMessage(ctx, domain.StoredMessage{
		ConversationID: convID, SenderType: domain.SenderUnknown, Text: domain.ImagePlaceholder,
	})
	require.NoError(t, err)

	// Two references to the same URL plus one to another URL.
	require.NoError(t, s.InsertImage(ctx, domain.Image{MessageID: msgID, URL: "https://img/b"}))
	require.NoError(t, s.InsertImage(ctx, domain.Image{MessageID: msgID, URL: "https://img/a"}))
	require.NoError(t, s.InsertImage(ctx, domain.Image{MessageID: msgID, URL: "https://img/a"}))

	pending, err := s.PendingImageURLs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://img/a", "https://img/b"}, pending, "distinct and URL-ordered")

	require.NoError(t, s.RecordDownload(ctx, "https://img/a", "abc.jpg", false))

	pending, err = s.PendingImageURLs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://img/b"}, pending)

	all, err := s.AllImageURLs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://img/a", "https://img/b"}, all)
}

func TestRecordDownload_ForceReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordDownload(ctx, "https://img/a", "old.jpg", false))

	// A plain re-insert of the same URL violates the primary key.
	require.Error(t, s.RecordDownload(ctx, "https://img/a", "new.jpg", false))

	// Forced mode replaces the ledger entry.
	require.NoError(t, s.RecordDownload(ctx, "https://img/a", "new.jpg", true))

	var filename string
	require.NoError(t, s.db.QueryRow(`SELECT filename FROM image_downloads WHERE url = 'https://img/a'`).Scan(&filename))
	require.Equal(t, "new.jpg", filename)
}

func TestClientSummaries_OrderedByFirstMessageRecency(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedConversation(t, s, "early", "Early Client", "oldest message")
	seedConversation(t, s, "late", "Late Client", "newer message")
	// A client with no messages must not appear.
	require.NoError(t, s.UpsertClient(ctx, domain.Client{ClientID: "empty", Name: "No Messages"}))
	_, err := s.EnsureConversation(ctx, "empty")
	require.NoError(t, err)

	summaries, err := s.ClientSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "late", summaries[0].ClientID, "most recently first-captured client first")
	require.Equal(t, "early", summaries[1].ClientID)
}

func TestConversationView_NewestFirstWithImages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	convID := seedConversation(t, s, "9", "Jane", "first inserted")
	msgID, err := s.InsertMessage(ctx, domain.StoredMessage{
		ConversationID: convID, SenderType: domain.SenderClient, Text: domain.ImagePlaceholder,
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertImage(ctx, domain.Image{MessageID: msgID, URL: "https://img/x"}))
	require.NoError(t, s.RecordDownload(ctx, "https://img/x", "deadbeef.png", false))

	msgs, err := s.ConversationView(ctx, "9")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Descending insertion id: the image message was inserted last.
	require.Equal(t, domain.ImagePlaceholder, msgs[0].Text)
	require.Equal(t, "https://img/x", msgs[0].ImageURL)
	require.Equal(t, "deadbeef.png", msgs[0].ImageFilename)
	require.Equal(t, "first inserted", msgs[1].Text)
	require.Empty(t, msgs[1].ImageFilename)
}

func TestRecordRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := domain.CaptureRun{
		RunID: "run-1", StartedAt: time.Now(), FinishedAt: time.Now(),
		Scraped: 3, Skipped: 1, Failed: 0,
	}
	require.NoError(t, s.RecordRun(ctx, run))

	var scraped int
	require.NoError(t, s.db.QueryRow(`SELECT scraped FROM capture_runs WHERE run_id = 'run-1'`).Scan(&scraped))
	require.Equal(t, 3, scraped)
}

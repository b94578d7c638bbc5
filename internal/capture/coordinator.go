// Package capture drives the incremental capture pipeline: authenticate,
// reveal the conversation directory, and for each selected conversation
// extract messages and persist them idempotently into the content store.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"chatvault/internal/config"
	"chatvault/internal/domain"
	"chatvault/internal/extract"
	"chatvault/internal/site"
)

type Coordinator struct {
	store   domain.ContentStore
	pager   domain.Pager
	profile site.Profile
	cfg     config.CaptureConfig
	logger  *slog.Logger
}

func New(store domain.ContentStore, pager domain.Pager, profile site.Profile, cfg config.CaptureConfig, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		pager:   pager,
		profile: profile,
		cfg:     cfg,
		logger:  logger,
	}
}

// Options are the per-run knobs exposed on the CLI.
type Options struct {
	Count     int  // how many conversations to capture
	Minimal   bool // at most one message per conversation (fast name-only pass)
	Verbose   bool // per-conversation log lines instead of a progress bar
	StartAt   int  // skip conversation indices before this (position-based resume)
	Recapture bool // re-visit already-seen clients, appending only new messages
}

// Summary reports what a run did.
type Summary struct {
	RunID   string
	Scraped int
	Skipped int
	Failed  int
}

// Run executes one capture run. Each conversation is a discrete unit of
// work: its writes are committed before the next one starts, so an
// interruption loses at most the in-flight conversation.
func (c *Coordinator) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Count < 1 {
		opts.Count = c.cfg.DefaultCount
	}
	run := domain.CaptureRun{RunID: uuid.NewString(), StartedAt: time.Now()}
	sum := Summary{RunID: run.RunID}

	if err := c.awaitLogin(ctx); err != nil {
		return sum, err
	}

	useSearch := opts.Count >= c.cfg.SearchThreshold
	names, err := c.loadDirectory(ctx, opts.Count, useSearch)
	if err != nil {
		return sum, err
	}
	if len(names) == 0 {
		return sum, nil
	}

	total := opts.Count
	if total > len(names) {
		total = len(names)
	}
	c.logger.Info("capture run starting", "run", run.RunID, "conversations", total, "search", useSearch)

	var bar *progressbar.ProgressBar
	if !opts.Verbose {
		bar = progressbar.Default(int64(total), "capturing")
	}

	for i := 0; i < total; i++ {
		if i < opts.StartAt {
			sum.Skipped++
		} else {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if err := c.captureOne(ctx, i, names[i], useSearch, opts, &sum); err != nil {
				// Non-fatal: count, log, move on to the next conversation.
				sum.Failed++
				c.logger.Warn("conversation capture failed", "index", i, "name", names[i], "err", err)
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	run.FinishedAt = time.Now()
	run.Scraped, run.Skipped, run.Failed = sum.Scraped, sum.Skipped, sum.Failed
	if err := c.store.RecordRun(ctx, run); err != nil {
		c.logger.Warn("cannot record capture run", "err", err)
	}

	c.logger.Info("capture run complete",
		"run", run.RunID, "scraped", sum.Scraped, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

func (c *Coordinator) captureOne(ctx context.Context, index int, name string, useSearch bool, opts Options, sum *Summary) error {
	if useSearch {
		if err := c.pager.SearchConversation(ctx, name); err != nil {
			return fmt.Errorf("search %q: %w", name, err)
		}
		if err := c.pager.OpenConversation(ctx, 0); err != nil {
			return fmt.Errorf("open search result: %w", err)
		}
	} else {
		if err := c.pager.OpenConversation(ctx, index); err != nil {
			return fmt.Errorf("open conversation %d: %w", index, err)
		}
	}

	snap, err := c.pager.ConversationSnapshot(ctx)
	if err != nil {
		return err
	}

	records, dbg := extract.Messages(snap, c.profile, opts.Minimal)
	if opts.Verbose {
		c.logger.Info("extracted conversation",
			"index", index, "client", snap.ClientName, "clientId", snap.ClientID,
			"messages", len(records), "containerFound", dbg.ContainerFound, "children", dbg.ChildCount)
	}

	if snap.ClientID == "" {
		return fmt.Errorf("no client id in conversation header (containerFound=%v children=%d)",
			dbg.ContainerFound, dbg.ChildCount)
	}

	exists, err := c.store.ClientExists(ctx, snap.ClientID)
	if err != nil {
		return err
	}
	if exists && !opts.Recapture {
		// Identity-based dedup: this client was captured in a prior run.
		sum.Skipped++
		if opts.Verbose {
			c.logger.Info("skipping already-captured client", "client", snap.ClientName, "clientId", snap.ClientID)
		}
		return nil
	}

	if err := c.persist(ctx, snap, records, opts.Recapture); err != nil {
		return err
	}
	sum.Scraped++
	return nil
}

// persist commits one conversation as a single store transaction. Sender
// type is resolved here, where the conversation's client name is known.
func (c *Coordinator) persist(ctx context.Context, snap *domain.Snapshot, records []domain.Record, recapture bool) error {
	msgs := make([]domain.CapturedMessage, 0, len(records))
	for _, rec := range records {
		meta := rec.RecordMeta()
		m := domain.CapturedMessage{
			SenderType: ResolveSenderType(meta, snap.ClientName),
			SenderName: meta.SenderName,
			Date:       meta.Date,
			Time:       meta.Time,
		}
		switch r := rec.(type) {
		case domain.TextMessage:
			m.Text = r.Text
		case domain.ImageMessage:
			m.Text = domain.ImagePlaceholder
			m.ImageURL = r.URL
		}
		msgs = append(msgs, m)
	}

	client := domain.Client{ClientID: snap.ClientID, Name: snap.ClientName}
	if _, err := c.store.CaptureConversation(ctx, client, msgs, recapture); err != nil {
		return fmt.Errorf("persist conversation for client %s: %w", snap.ClientID, err)
	}
	return nil
}

// ResolveSenderType maps a record's structural alignment and sender label to
// the stored classification. Right-aligned nodes are the account holder;
// left-aligned nodes are the client when the label matches the
// conversation's client name and some other associate when it does not.
func ResolveSenderType(meta domain.Meta, clientName string) domain.SenderType {
	switch meta.Alignment {
	case domain.AlignRight:
		return domain.SenderAssociate
	case domain.AlignLeft:
		if meta.SenderName == "" {
			return domain.SenderUnknown
		}
		if meta.SenderName == clientName {
			return domain.SenderClient
		}
		return domain.SenderOtherAssociate
	default:
		return domain.SenderUnknown
	}
}

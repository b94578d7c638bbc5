package capture

import (
	"context"
	"time"
)

// converge drives the scroll strategy to a fixed point: count, and if the
// target is not reached, scroll to the list's maximum extent, wait for the
// settle interval, and count again. The count sequence is non-decreasing, so
// the loop halts the first time it reaches the target or two consecutive
// counts are equal (no forward progress).
func converge(ctx context.Context, target int, settle time.Duration,
	count func(context.Context) (int, error),
	scroll func(context.Context) error,
) (int, error) {
	prev := -1
	for {
		n, err := count(ctx)
		if err != nil {
			return 0, err
		}
		if n >= target {
			return n, nil
		}
		if prev >= 0 && n == prev {
			return n, nil // stalled after at least one scroll attempt
		}
		prev = n

		if err := scroll(ctx); err != nil {
			return n, err
		}
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-time.After(settle):
		}
	}
}

// loadDirectory reveals the conversation list and returns the rendered
// display names in DOM order. Below the search threshold the virtualized
// list is scrolled out until the target count is rendered; above it,
// scrolling an enormous inbox is not worth it, so only the initially
// rendered names are collected here and each one is visited through the
// inbox search field instead (see Run).
func (c *Coordinator) loadDirectory(ctx context.Context, target int, useSearch bool) ([]string, error) {
	if err := c.pager.NavigateInbox(ctx); err != nil {
		return nil, err
	}

	if !useSearch {
		settle := time.Duration(c.cfg.ScrollSettleMs) * time.Millisecond
		n, err := converge(ctx, target, settle, c.pager.ConversationCount, c.pager.ScrollConversationList)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("conversation list settled", "rendered", n, "target", target)
	}

	names, err := c.pager.ConversationNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		// Not fatal; keep a screenshot around for diagnosing selector drift.
		if serr := c.pager.Screenshot(ctx, "debug_inbox.png"); serr == nil {
			c.logger.Warn("no conversations found, saved screenshot", "path", "debug_inbox.png")
		} else {
			c.logger.Warn("no conversations found", "screenshotErr", serr)
		}
	}
	return names, nil
}

// Package browser drives the dashboard through a real Chrome instance. It
// owns everything that touches a live page; the rest of the pipeline sees
// only domain.Pager and domain.Snapshot.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chromedp/chromedp"

	"chatvault/internal/config"
	"chatvault/internal/site"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Browser launches Chrome sessions pinned to a persistent profile directory
// so the login survives across runs.
type Browser struct {
	profileDir string
	headless   bool
	logger     *slog.Logger
}

func New(cfg config.BrowserConfig, logger *slog.Logger) *Browser {
	return &Browser{
		profileDir: cfg.ProfileDir,
		headless:   cfg.Headless,
		logger:     logger,
	}
}

// Start launches Chrome and returns the single Page that drives it. The
// caller must call cancel when done; that closes the browser.
func (b *Browser) Start(parent context.Context, capture config.CaptureConfig, profile site.Profile) (*Page, context.CancelFunc, error) {
	if err := os.MkdirAll(b.profileDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create profile dir %s: %w", b.profileDir, err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(b.profileDir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.UserAgent(userAgent),
	)
	if b.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancelAll := func() {
		taskCancel()
		allocCancel()
	}

	// Launch the browser now rather than on the first action.
	if err := chromedp.Run(taskCtx); err != nil {
		cancelAll()
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	b.logger.Info("browser started", "profile", b.profileDir, "headless", b.headless)

	return &Page{
		ctx:     taskCtx,
		capture: capture,
		profile: profile,
		logger:  b.logger,
	}, cancelAll, nil
}

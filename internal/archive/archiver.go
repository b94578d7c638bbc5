// Package archive is the second pass of the pipeline: it downloads image
// URLs referenced by the content store, names each file by a hash of its own
// bytes, and records the mapping in the download ledger. Content addressing
// makes re-downloads and cross-URL duplicates naturally idempotent.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Ledger is what the archiver needs from the content store: a work queue of
// URLs and the download ledger.
type Ledger interface {
	PendingImageURLs(ctx context.Context) ([]string, error)
	AllImageURLs(ctx context.Context) ([]string, error)
	RecordDownload(ctx context.Context, url, filename string, force bool) error
}

type Archiver struct {
	ledger Ledger
	client *http.Client
	dir    string
	logger *slog.Logger
}

func New(ledger Ledger, dir string, timeout time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		ledger: ledger,
		client: sharedHTTPClient(timeout),
		dir:    dir,
		logger: logger,
	}
}

// Options are the archiver's CLI knobs.
type Options struct {
	Force   bool // re-fetch every URL, replacing ledger entries
	Verbose bool
}

type Summary struct {
	Downloaded int
	Failed     int
}

// Run archives every queued URL sequentially. Per-URL failures are counted
// and logged, never fatal. The ledger row for a URL is written only after its
// file write succeeded, so no ledger entry ever points at a missing file.
func (a *Archiver) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return sum, fmt.Errorf("create images directory %s: %w", a.dir, err)
	}

	var (
		urls []string
		err  error
	)
	if opts.Force {
		urls, err = a.ledger.AllImageURLs(ctx)
	} else {
		urls, err = a.ledger.PendingImageURLs(ctx)
	}
	if err != nil {
		return sum, fmt.Errorf("load download queue: %w", err)
	}

	if len(urls) == 0 {
		a.logger.Info("all images already downloaded")
		return sum, nil
	}
	a.logger.Info("downloading images", "count", len(urls), "force", opts.Force, "dir", a.dir)

	var bar *progressbar.ProgressBar
	if !opts.Verbose {
		bar = progressbar.Default(int64(len(urls)), "downloading")
	}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		filename, err := a.downloadOne(ctx, url)
		if err == nil {
			err = a.ledger.RecordDownload(ctx, url, filename, opts.Force)
		}
		if err != nil {
			sum.Failed++
			a.logger.Warn("image download failed", "url", url, "err", err)
		} else {
			sum.Downloaded++
			if opts.Verbose {
				a.logger.Info("archived image", "url", url, "file", filename)
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	a.logger.Info("archive pass complete", "downloaded", sum.Downloaded, "failed", sum.Failed)
	return sum, nil
}

// downloadOne fetches a URL and writes its bytes to <hash>.<ext> in the
// archive directory, returning the filename.
func (a *Archiver) downloadOne(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	hash := sha256.Sum256(data)
	ext := extensionFor(url, resp.Header.Get("Content-Type"), data)
	filename := hex.EncodeToString(hash[:]) + "." + ext

	if err := os.WriteFile(filepath.Join(a.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return filename, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatvault/internal/browser"
	"chatvault/internal/capture"
	"chatvault/internal/keepawake"
	"chatvault/internal/site"
	"chatvault/internal/store"
)

func captureCmd() *cobra.Command {
	var opts capture.Options

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture conversations from the dashboard into the store",
		Long: "Opens a visible browser, waits for you to log in if needed, then walks the " +
			"inbox and archives each conversation. Re-runs are idempotent: clients already " +
			"in the store are skipped unless --recapture is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			profile, err := site.Load(cfg.Capture.SiteProfile, logger)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.General.DBPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Capture.KeepAwake {
				keepawake.Start(ctx, logger)
			}

			page, cancel, err := browser.New(cfg.Browser, logger).Start(ctx, cfg.Capture, profile)
			if err != nil {
				return err
			}
			defer cancel()

			coord := capture.New(st, page, profile, cfg.Capture, logger)
			sum, err := coord.Run(ctx, opts)
			if err != nil {
				return err
			}

			logger.Info("done", "scraped", sum.Scraped, "skipped", sum.Skipped, "failed", sum.Failed, "db", cfg.General.DBPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "conversations to capture (default: capture.defaultCount)")
	cmd.Flags().BoolVar(&opts.Minimal, "minimal", false, "extract at most one message per conversation")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "per-conversation log lines instead of a progress bar")
	cmd.Flags().IntVar(&opts.StartAt, "start-at", 0, "skip conversation indices before this (resume a failed run)")
	cmd.Flags().BoolVar(&opts.Recapture, "recapture", false, "re-visit already-captured clients, appending new messages only")

	return cmd
}

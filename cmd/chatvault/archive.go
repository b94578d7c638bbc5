package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatvault/internal/archive"
	"chatvault/internal/store"
)

func archiveCmd() *cobra.Command {
	var opts archive.Options

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Download images referenced by the store",
		Long: "Fetches every image URL in the store that has no download ledger entry, names " +
			"each file by its content hash, and records the mapping. Safe to re-run any time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(cfg.General.DBPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			a := archive.New(st, cfg.ImagesDir(), time.Duration(cfg.Archive.TimeoutSeconds)*time.Second, logger)
			sum, err := a.Run(ctx, opts)
			if err != nil {
				return err
			}

			logger.Info("done", "downloaded", sum.Downloaded, "failed", sum.Failed, "dir", cfg.ImagesDir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "re-download all images even if already downloaded")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "per-image log lines instead of a progress bar")

	return cmd
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatvault/internal/store"
	"chatvault/internal/viewer"
)

func viewCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Serve the read-only archive browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if host == "" {
				host = cfg.Viewer.Host
			}
			if port == 0 {
				port = cfg.Viewer.Port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(cfg.General.DBPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			return viewer.New(st, cfg.ImagesDir(), host, port, logger).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default: viewer.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: viewer.port)")

	return cmd
}

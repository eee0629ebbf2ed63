package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tabmark/internal/app"
	"github.com/MrSnakeDoc/tabmark/internal/config"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// GetImportCmd returns the one-shot Homepage bookmarks import command.
func GetImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <bookmarks.yaml>",
		Short: "Import a Homepage bookmarks.yaml for the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = loggerClient.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, loggerClient)
			if err != nil {
				return err
			}
			res, err := a.Import(ctx, args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %d, already bookmarked %d, failed %d\n",
				res.Added, res.Duplicates, res.Failed)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(GetImportCmd())
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tabmark/internal/app"
	"github.com/MrSnakeDoc/tabmark/internal/config"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

const FlagListen = "listen"

// GetServeCmd returns the daemon start command.
func GetServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon and its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if listen, _ := cmd.Flags().GetString(FlagListen); listen != "" {
				cfg.ListenPort = listen
			}

			loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = loggerClient.Sync() }()

			a, err := app.New(cfg, loggerClient)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	cmd.Flags().String(FlagListen, "", "(optional) listen address, overrides TABMARK_LISTEN_PORT")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetServeCmd())
}

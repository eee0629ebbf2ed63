package main

import (
	"log"

	"github.com/spf13/cobra"
)

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "tabmark",
	Short: "Bookmark sync daemon",
	Long: "tabmark keeps the signed-in user's bookmark list in sync with Redis\n" +
		"and serves it over HTTP and WebSocket. Configuration comes from TABMARK_* environment variables.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("❌ tabmark: %v", err)
	}
}

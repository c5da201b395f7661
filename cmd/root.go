package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revibe",
		Short: "AI interior redesign with real, purchasable products",
		Long: `ReVibe turns a photo of a room into a redesigned version of that room
composed of real products, together with a shoppable product list.

It runs as a web service (revibe serve) or as a one-shot CLI
(revibe generate) and keeps every run's artifacts in a session
directory for later retrieval.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newSessionsCmd())

	return cmd
}

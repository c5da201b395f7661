package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revibe-studio/revibe/internal/config"
	"github.com/revibe-studio/revibe/internal/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain stored design sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsCleanupCmd())
	cmd.AddCommand(newSessionsArchiveCmd())
	return cmd
}

func sessionManager() (*session.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return session.NewManager(cfg.OutputDir), nil
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := sessionManager()
			if err != nil {
				return err
			}
			sessions, err := manager.List()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found")
				return nil
			}
			for _, info := range sessions {
				finals := info.Artifacts[session.CategoryFinalDesigns]
				products := info.Artifacts[session.CategoryProducts]
				fmt.Printf("%s  designs=%d products=%d\n", info.ID, finals, products)
			}
			return nil
		},
	}
}

func newSessionsCleanupCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove sessions older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if days == 0 {
				days = cfg.SessionRetentionDays
			}
			manager := session.NewManager(cfg.OutputDir)
			removed, err := manager.CleanupOlderThan(days)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d session(s) older than %d days\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default from config)")

	return cmd
}

func newSessionsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <session-id>",
		Short: "Copy a session out of the auto-cleanable area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := sessionManager()
			if err != nil {
				return err
			}
			path, err := manager.Archive(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Archived to %s\n", path)
			return nil
		},
	}
}

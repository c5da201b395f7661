package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revibe-studio/revibe/internal/composite"
	"github.com/revibe-studio/revibe/internal/config"
	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/pipeline"
	"github.com/revibe-studio/revibe/internal/session"
	"github.com/revibe-studio/revibe/internal/shopping"
	"github.com/revibe-studio/revibe/internal/synthesis"
	"github.com/revibe-studio/revibe/internal/vision"
)

// buildPipeline wires the production stage implementations from the
// environment config. Shared by serve and generate.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	modes, err := pipeline.LoadModeTable(cfg.ModesFile)
	if err != nil {
		return nil, err
	}
	return pipeline.New(
		vision.NewAnalyzer(cfg.GeminiAPIKey),
		shopping.NewEngine(
			shopping.NewClient(cfg.SerpAPIKey, cfg.SerpAPIBaseURL),
			shopping.NewFetcher(),
		),
		composite.NewBuilder(),
		synthesis.NewGenerator(cfg.GeminiAPIKey),
		modes,
	), nil
}

func newGenerateCmd() *cobra.Command {
	var (
		roomType     string
		designStyle  string
		budgetTier   string
		instructions string
		modeFlag     string
	)

	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Run one design generation from the command line",
		Long: `Runs the full design pipeline on a room photo and prints the
resulting session ID and final design path.`,
		Example: `  # Standard quality run
  revibe generate living_room.jpg --style scandinavian

  # Fast preview run
  revibe generate living_room.jpg --mode fast`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mode, err := models.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			imageData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			manager := session.NewManager(cfg.OutputDir)
			sess, err := manager.NewSession()
			if err != nil {
				return err
			}

			pipe, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			result, err := pipe.Run(ctx, imageData, models.RunConfig{
				RoomType:           roomType,
				DesignStyle:        designStyle,
				BudgetTier:         budgetTier,
				CustomInstructions: instructions,
				Mode:               mode,
			}, sess)
			if err != nil {
				return fmt.Errorf("session %s: %w", sess.ID, err)
			}

			if err := manager.PromoteLatest(sess); err != nil {
				return err
			}

			fmt.Printf("Session:      %s\n", result.SessionID)
			fmt.Printf("Final design: %s\n", result.FinalDesign)
			fmt.Printf("Products:     %d\n", result.ProductsUsed)
			fmt.Printf("Duration:     %.1fs\n", result.TotalDuration)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomType, "room-type", "", "Room type (e.g. living room, bedroom)")
	cmd.Flags().StringVar(&designStyle, "style", "", "Target design style")
	cmd.Flags().StringVar(&budgetTier, "budget", "", "Budget tier (budget, mid-range, premium)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Custom design instructions")
	cmd.Flags().StringVar(&modeFlag, "mode", "standard", "Pipeline mode (fast or standard)")

	return cmd
}

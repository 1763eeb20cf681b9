package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/drafting/internal/config"
	"github.com/inamate/drafting/internal/replay"
	"github.com/inamate/drafting/internal/store"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Run an event script through the engine",
	Long: `Feeds every event of a YAML or JSON script to a fresh engine and prints
the committed batches and the final plan as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().String("plan", "", "Start from this plan JSON file instead of the script's plan")
	replayCmd.Flags().String("profile", "", "Drafting profile applied before the script's own profile")
	replayCmd.Flags().Bool("batches-only", false, "Print only the committed batches")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}

	opts := []replay.Option{replay.WithLogger(slog.Default())}

	if path, _ := cmd.Flags().GetString("plan"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		plan, err := store.DecodePlan(data)
		if err != nil {
			return err
		}
		opts = append(opts, replay.WithPlan(plan))
	}

	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.ProfilePath = path
		settings, err := cfg.EngineSettings()
		if err != nil {
			return err
		}
		opts = append(opts, replay.WithSettings(settings))
	}

	res, err := replay.Run(cmd.Context(), script, opts...)
	if err != nil {
		return err
	}

	var out any = res
	if only, _ := cmd.Flags().GetBool("batches-only"); only {
		out = res.Batches
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

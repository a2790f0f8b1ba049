package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera3d/tessera/internal/printer"
	"github.com/tessera3d/tessera/internal/replay"
)

var (
	replayConfigPath string
	replayScriptPath string
	replayVerbose    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run an edit script against in-process tile trees",
	Long: `Run a recorded editing session locally, without Redis.

Builds a tile tree for every model in tessera.yml, applies the script's
scope and save steps to an in-process editing connection, and prints the
tree state transitions step by step, ending with a per-model summary.

Examples:
  # Replay the sample session
  tessera replay

  # Replay a specific script with per-model change counts
  tessera replay --script refit.yml --verbose`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", "tessera.yml", "Project configuration file")
	replayCmd.Flags().StringVarP(&replayScriptPath, "script", "s", "session.yml", "Edit script to run")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Print per-model change counts after each step")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(replayConfigPath)
	if err != nil {
		return err
	}

	script, err := loadScript(replayScriptPath, cfg)
	if err != nil {
		return err
	}

	runner, err := replay.NewRunner(cfg, os.Stdout, replayVerbose)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.Run(script); err != nil {
		return printer.Error(
			"replay failed",
			err.Error(),
			[]string{"Fix the failing step in the script and rerun"},
		)
	}

	printer.Success("Replayed %d steps\n", len(script.Steps))
	return nil
}

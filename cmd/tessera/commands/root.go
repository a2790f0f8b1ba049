package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Tessera - Tile trees for collaborative BIM editing",
	Long: `Tessera maintains a renderable tile tree per spatial model of a BIM
briefcase and keeps the trees current while editing sessions change the
models.

Sessions are exchanged over a Redis change feed: one briefcase publishes
its scope and save events, any number of viewers follow them and watch
their trees move between static, interactive and dynamic state.`,
	Version: version,
	// A bare "tessera" shows help rather than succeeding silently, and
	// strict flag parsing catches "tessera --script x.yml" where the
	// replay subcommand was forgotten.
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the CLI. Cobra's own error and usage printing is silenced
// because commands render failures through the printer package.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo stamps build metadata onto the root command.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

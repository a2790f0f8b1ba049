package commands

import (
	"fmt"

	"github.com/tessera3d/tessera/internal/config"
	"github.com/tessera3d/tessera/internal/printer"
	"github.com/tessera3d/tessera/internal/replay"
)

// loadConfig reads tessera.yml with a rich error pointing at init.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.Error(
			"failed to load configuration",
			fmt.Sprintf("Error: %v", err),
			[]string{
				"Initialize the project first:\n  tessera init",
				"Or point --config at a valid file",
			},
		)
	}
	return cfg, nil
}

// loadScript reads an edit script and checks it targets the configured
// briefcase.
func loadScript(path string, cfg *config.Config) (*replay.Script, error) {
	script, err := replay.LoadScript(path)
	if err != nil {
		return nil, printer.Error(
			"failed to load edit script",
			fmt.Sprintf("Error: %v", err),
			[]string{
				"Generate a sample script:\n  tessera init",
				"Or point --script at a valid file",
			},
		)
	}

	if script.Briefcase != cfg.Briefcase {
		return nil, printer.ErrorWithContext(
			"script targets a different briefcase",
			"The edit script and the configuration disagree about which briefcase is being edited.",
			map[string]string{
				"Script":        script.Briefcase,
				"Configuration": cfg.Briefcase,
			},
			[]string{"Align the briefcase fields in the script and tessera.yml"},
		)
	}

	return script, nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tessera3d/tessera/internal/printer"
	"github.com/tessera3d/tessera/internal/replay"
	"github.com/tessera3d/tessera/pkg/changefeed"
	"github.com/tessera3d/tessera/pkg/changeset"
)

var (
	publishConfigPath string
	publishScriptPath string
	publishDelay      time.Duration
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish an edit script to the change feed",
	Long: `Publish a recorded editing session to the briefcase's Redis change feed.

Each step becomes the feed events a live editor would produce: enter_scope
publishes a scope begin, save journals and publishes the change batch,
exit_scope publishes ending and ended. Viewers following the briefcase with
'tessera watch' mirror the session as it plays.

The configured model ranges are recorded on the feed first, so viewers
that attach later still learn the committed extents.

Examples:
  # Publish the sample session
  tessera publish

  # Play a script slowly enough to follow by eye
  tessera publish --script refit.yml --delay 2s`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishConfigPath, "config", "c", "tessera.yml", "Project configuration file")
	publishCmd.Flags().StringVarP(&publishScriptPath, "script", "s", "session.yml", "Edit script to publish")
	publishCmd.Flags().DurationVar(&publishDelay, "delay", 500*time.Millisecond, "Pause between steps")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(publishConfigPath)
	if err != nil {
		return err
	}

	script, err := loadScript(publishScriptPath, cfg)
	if err != nil {
		return err
	}

	feed, err := changefeed.NewClient(&redis.Options{Addr: cfg.Redis.Addr}, cfg.Briefcase)
	if err != nil {
		return fmt.Errorf("failed to create feed client: %w", err)
	}
	defer feed.Close()

	if err := feed.Ping(ctx); err != nil {
		return printer.ErrorWithContext(
			"Redis connection failed",
			"Could not connect to the change feed.",
			map[string]string{
				"Briefcase": cfg.Briefcase,
				"Redis":     cfg.Redis.Addr,
			},
			[]string{
				"Start Redis first:\n  docker run -p 6379:6379 redis",
				"Or fix the redis.addr value in tessera.yml",
			},
		)
	}

	// Record the committed extents so viewers attaching later still know
	// where each model lives.
	for _, m := range cfg.Models {
		if err := feed.SetModelRange(ctx, m.ModelID(), m.Range3()); err != nil {
			return fmt.Errorf("failed to record range for model %s: %w", m.ID, err)
		}
	}

	printer.Info("Publishing %d steps to briefcase %q at %s\n\n", len(script.Steps), cfg.Briefcase, cfg.Redis.Addr)

	var scopeID string
	for i, step := range script.Steps {
		if err := publishStep(ctx, feed, cfg.Briefcase, step, &scopeID, i+1); err != nil {
			return printer.Error(
				fmt.Sprintf("step %d (%s) failed", i+1, step.Kind()),
				err.Error(),
				[]string{"Fix the failing step in the script and rerun"},
			)
		}
		if publishDelay > 0 && i < len(script.Steps)-1 {
			time.Sleep(publishDelay)
		}
	}

	fmt.Println()
	printer.Success("Published %d steps\n", len(script.Steps))
	return nil
}

// publishStep emits one script step as feed events. scopeID tracks the open
// scope across steps.
func publishStep(ctx context.Context, feed *changefeed.Client, briefcase string, step replay.Step, scopeID *string, n int) error {
	switch {
	case step.EnterScope:
		if *scopeID != "" {
			return fmt.Errorf("a scope is already open")
		}
		*scopeID = uuid.New().String()
		if err := feed.PublishScopeEvent(ctx, changefeed.NewScopeEvent(changefeed.ScopeBegin, *scopeID)); err != nil {
			return err
		}
		printer.Printf("%-5d %-12s scope=%s\n", n, "enter_scope", *scopeID)

	case len(step.Save) > 0:
		if *scopeID == "" {
			return fmt.Errorf("save outside an editing scope")
		}
		e := changeset.NewSaveEvent(briefcase, step.SaveModels())
		if err := feed.PublishSave(ctx, &e); err != nil {
			return err
		}
		printer.Printf("%-5d %-12s seq=%-4d save=%s\n", n, "save", e.Seq, e.ID)

	case step.ExitScope:
		if *scopeID == "" {
			return fmt.Errorf("exit_scope without an active scope")
		}
		id := *scopeID
		if err := feed.PublishScopeEvent(ctx, changefeed.NewScopeEvent(changefeed.ScopeEnding, id)); err != nil {
			return err
		}
		if err := feed.PublishScopeEvent(ctx, changefeed.NewScopeEvent(changefeed.ScopeEnded, id)); err != nil {
			return err
		}
		*scopeID = ""
		printer.Printf("%-5d %-12s scope=%s\n", n, "exit_scope", id)

	default:
		return fmt.Errorf("empty step")
	}

	return nil
}

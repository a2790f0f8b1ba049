package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tessera3d/tessera/internal/config"
	"github.com/tessera3d/tessera/internal/filter"
	"github.com/tessera3d/tessera/internal/logging"
	"github.com/tessera3d/tessera/internal/printer"
	"github.com/tessera3d/tessera/internal/timespec"
	"github.com/tessera3d/tessera/internal/watch"
	"github.com/tessera3d/tessera/pkg/changefeed"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/editing"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

var (
	watchConfigPath   string
	watchOutputFormat string
	watchSince        string
	watchUntil        string
	watchModel        string
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a briefcase's editing sessions live",
	Long: `Follow the briefcase's change feed and mirror its editing sessions onto
local tile trees.

The watcher replays the save journal first, so it reaches the publisher's
current state even when it attaches mid-session, then streams live scope
and save events. After every event it prints each model's tree state,
range and hidden element count.

Output Formats:
  default - Human-readable lines
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the configured briefcase
  tessera watch

  # Only show saves from the last hour that touch one model
  tessera watch --since 1h --model 0x1c

  # Export the stream as JSON
  tessera watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchConfigPath, "config", "c", "tessera.yml", "Project configuration file")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchSince, "since", "", "Only show saves at or after this time (duration like 1h, or RFC3339)")
	watchCmd.Flags().StringVar(&watchUntil, "until", "", "Only show saves at or before this time (duration like 1h, or RFC3339)")
	watchCmd.Flags().StringVar(&watchModel, "model", "", "Only show saves touching this model id")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Second, "How long to wait for the feed to come up")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := watch.ParseFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	criteria, err := buildCriteria()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(watchConfigPath)
	if err != nil {
		return err
	}

	// Ctrl+C cancels the monitor loop and unwinds cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if format == watch.FormatDefault {
		printer.Info("Watching briefcase %q at %s (Ctrl+C to stop)\n", cfg.Briefcase, cfg.Redis.Addr)
		if criteria.HasFilters() {
			printer.Info("Display filters are active; trees still apply every save\n")
		}
		printer.Info("\n")
	}

	return watchBriefcase(ctx, cfg, format, criteria, os.Stdout)
}

// watchBriefcase attaches a monitor-driven connection to the briefcase's
// feed and streams events to out until ctx is cancelled. The monitor loop
// runs on the calling goroutine.
func watchBriefcase(ctx context.Context, cfg *config.Config, format watch.OutputFormat, criteria *filter.Criteria, out io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logging.New(level)

	feed, err := changefeed.NewClient(&redis.Options{Addr: cfg.Redis.Addr}, cfg.Briefcase)
	if err != nil {
		return fmt.Errorf("failed to create feed client: %w", err)
	}
	defer feed.Close()

	if err := watch.WaitForFeed(ctx, feed, watchTimeout); err != nil {
		return printer.ErrorWithContext(
			"change feed is unreachable",
			fmt.Sprintf("Error: %v", err),
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

	conn, err := editing.NewConnection(cfg.Briefcase, editing.WithLogger(log))
	if err != nil {
		return err
	}

	streamer := watch.NewStreamer(out, format)

	trees := make([]*tiletree.TileTree, 0, len(cfg.Models))
	defer func() {
		for _, tree := range trees {
			tree.Dispose()
		}
	}()
	for _, m := range cfg.Models {
		geom := watch.NewFeedGeometry(ctx, feed, m.ModelID(), m.Range3())
		tree, err := tiletree.New(m.TileParams(), conn, geom, watch.NullSource{},
			tiletree.WithTolerance(cfg.View.Tolerance),
			tiletree.WithMaxDepth(uint8(cfg.View.MaxDepth)),
			tiletree.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to build tile tree for model %s: %w", m.ID, err)
		}
		trees = append(trees, tree)
	}

	monitor, err := editing.NewMonitor(conn, feed,
		editing.WithMonitorLogger(log),
		editing.WithSaveApplied(func(e *changeset.SaveEvent) {
			if !criteria.Matches(e) {
				return
			}
			streamer.OnSave(e)
			streamer.WriteStates(trees)
		}),
		editing.WithScopeApplied(func(e changefeed.ScopeEvent) {
			streamer.OnScope(string(e.Kind), e.ScopeID)
			streamer.WriteStates(trees)
		}))
	if err != nil {
		return err
	}

	streamer.WriteStates(trees)

	return monitor.Run(ctx)
}

// buildCriteria turns the watch flags into save display filters. The monitor
// still replays the whole journal so the trees reconstruct the publisher's
// state; the criteria only gate what gets printed.
func buildCriteria() (*filter.Criteria, error) {
	criteria := &filter.Criteria{}

	if watchSince != "" || watchUntil != "" {
		since, until, err := timespec.ParseRange(watchSince, watchUntil)
		if err != nil {
			return nil, printer.Error(
				"invalid time filter",
				fmt.Sprintf("Error: %v", err),
				[]string{"Use a duration like 1h or 30m, or an RFC3339 timestamp like 2026-08-25T10:00:00Z"},
			)
		}
		criteria.SinceTimestampMs = since
		criteria.UntilTimestampMs = until
	}

	if watchModel != "" {
		model := changeset.ModelID(watchModel)
		if err := model.Validate(); err != nil {
			return nil, printer.Error(
				"invalid model filter",
				fmt.Sprintf("Error: %v", err),
				[]string{"Model ids are hex ids like 0x1c"},
			)
		}
		criteria.Model = model
	}

	return criteria, nil
}

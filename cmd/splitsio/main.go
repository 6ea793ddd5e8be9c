// Command splitsio inspects splits.io speedrun data from the terminal:
// game categories, runner history, and per-attempt duration tables.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/splitsio/go-splitsio/pkg/client"
	"github.com/splitsio/go-splitsio/pkg/logging"
	"github.com/splitsio/go-splitsio/pkg/paginate"
	"github.com/splitsio/go-splitsio/pkg/splitsio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	baseURL   string
	userAgent string
	redisAddr string
	rateLimit int
	logLevel  string
	pretty    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "splitsio",
		Short:         "Inspect splits.io speedrun data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(flags.logLevel),
				Pretty: flags.pretty,
				Output: os.Stderr,
			})
		},
	}

	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", client.DefaultBaseURL, "splits.io API base URL")
	root.PersistentFlags().StringVar(&flags.userAgent, "user-agent", client.DefaultUserAgent, "User-Agent header")
	root.PersistentFlags().StringVar(&flags.redisAddr, "redis", "", "Redis address for response caching (empty disables)")
	root.PersistentFlags().IntVar(&flags.rateLimit, "rate-limit", 5, "max requests per second (0 = unlimited)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.pretty, "pretty", false, "human-readable log output")

	root.AddCommand(newGameCmd(flags))
	root.AddCommand(newRunnerCmd(flags))
	root.AddCommand(newRunCmd(flags))

	return root
}

func newAPIClient(flags *rootFlags) (*client.Client, error) {
	cfg := client.Config{
		BaseURL:   flags.baseURL,
		UserAgent: flags.userAgent,
		RateLimit: flags.rateLimit,
	}
	if flags.redisAddr != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: flags.redisAddr})
	}
	return client.New(cfg)
}

func newGameCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "game <shortname>",
		Short: "Show a game and its categories by run count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			game, err := splitsio.GameByID(ctx, c, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", game.Name, game.CanonicalID())
			counts, err := game.CategoryCounts(ctx, c)
			if err != nil {
				return err
			}
			for _, cc := range counts {
				fmt.Printf("  %-30s %d runs\n", cc.Category.Name, cc.NumRuns)
			}
			return nil
		},
	}
}

func newRunnerCmd(flags *rootFlags) *cobra.Command {
	var pbs bool

	cmd := &cobra.Command{
		Use:   "runner <name>",
		Short: "List a runner's runs or personal bests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := splitsio.RunnerByName(ctx, c, args[0])
			if err != nil {
				return err
			}

			var seq paginate.Sequence[splitsio.Run]
			if pbs {
				seq, err = runner.PBs(ctx, c)
			} else {
				seq, err = runner.Runs(ctx, c)
			}
			if err != nil {
				return err
			}
			runs, err := paginate.All(ctx, seq)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d runs\n", runner.DisplayName, len(runs))
			for _, run := range runs {
				game := "?"
				if run.Game != nil {
					game = run.Game.Name
				}
				category := "?"
				if run.Category != nil {
					category = run.Category.Name
				}
				fmt.Printf("  %-6s %-30s %-20s %s\n",
					run.ID, game, category, formatDuration(run.RealtimeDurationMS))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pbs, "pbs", false, "only personal bests")
	return cmd
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		splits   bool
		complete bool
		clean    bool
	)

	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Show a run's per-attempt duration table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			run, err := splitsio.RunByID(ctx, c, args[0], true)
			if err != nil {
				return err
			}

			printRunHeader(run)

			var table *splitsio.Table
			if splits {
				table, err = run.SplitDurations(complete, clean)
			} else {
				table, err = run.SegmentDurations(complete, clean)
			}
			if err != nil {
				return err
			}
			fmt.Print(table.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&splits, "splits", false, "cumulative split times instead of segment durations")
	cmd.Flags().BoolVar(&complete, "complete", true, "only attempts with a recorded total")
	cmd.Flags().BoolVar(&clean, "clean", false, "only attempts with every split recorded")
	return cmd
}

func printRunHeader(run *splitsio.Run) {
	game := "?"
	if run.Game != nil {
		game = run.Game.Name
	}
	category := "?"
	if run.Category != nil {
		category = run.Category.Name
	}
	fmt.Printf("%s %s (%s) %s\n",
		game, category, run.ID, formatDuration(run.RealtimeDurationMS))
	fmt.Printf("completed attempts: %d\n\n", len(run.CompletedAttempts()))
}

// formatDuration renders milliseconds as H:MM:SS.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

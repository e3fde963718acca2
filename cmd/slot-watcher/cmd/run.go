package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/slot-watcher/internal/engine"
)

func runCmd() *cobra.Command {
	var budget time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll every target on the configured interval",
		Long: "Runs the scheduler without the HTTP API. Each target is checked once\n" +
			"immediately and then every schedule.interval until interrupted or\n" +
			"until the run budget is used up.",
		Example: `  slot-watcher run
  slot-watcher run --budget 5h50m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("budget") {
				a.cfg.Schedule.RunBudget = budget
			}

			sched, err := engine.NewScheduler(
				a.engine,
				a.cfg.EnabledTargets(),
				a.cfg.Schedule.Interval,
				a.cfg.Schedule.RunBudget,
				a.log,
			)
			if err != nil {
				return fmt.Errorf("creating scheduler: %w", err)
			}
			return sched.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&budget, "budget", 0, "stop scheduling after this long (overrides schedule.run_budget)")
	return cmd
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/slot-watcher/internal/engine"
)

func onceCmd() *cobra.Command {
	var (
		dryRun   bool
		targetID string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run one poll cycle per target and exit",
		Long: "Runs a single cycle for every enabled target, one after another.\n" +
			"With --dry-run, state is kept in memory and notifications are only\n" +
			"logged, so nothing outside the process changes.",
		Example: `  slot-watcher once --dry-run
  slot-watcher once --target azabu --json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, appOptions{dryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.close()

			targets, err := a.targets(targetID)
			if err != nil {
				return err
			}

			var (
				results []engine.Result
				errs    []error
			)
			for _, t := range targets {
				res, err := a.engine.RunCycle(ctx, t)
				results = append(results, res)
				if err != nil {
					errs = append(errs, err)
				}
				if !res.Continue {
					break
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use an in-memory store and log notifications instead of sending")
	cmd.Flags().StringVar(&targetID, "target", "", "only check this target")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print cycle results as JSON")
	return cmd
}

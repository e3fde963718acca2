package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func targetsCmd() *cobra.Command {
	targetsRoot := &cobra.Command{
		Use:     "targets",
		Aliases: []string{"t"},
		Short:   "Inspect and control monitored targets",
		Long: "Targets are the reservation pages listed in the server configuration.\n" +
			"Each one is unopened until its not-accepting marker disappears, then opened.",
	}

	targetsRoot.AddCommand(
		targetsListCmd(),
		targetsShowCmd(),
		targetsCheckCmd(),
		targetsResetCmd(),
	)

	return targetsRoot
}

func targetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all targets",
		Example: `  swctl targets list
  swctl targets list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			targets, err := c.ListTargets(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(os.Stdout, targets)
			}
			if len(targets) == 0 {
				fmt.Println("No targets configured.")
				return nil
			}
			return printTargetTable(os.Stdout, targets)
		},
	}
}

func targetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a target and its current slots",
		Example: `  swctl targets show azabu
  swctl targets show azabu --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			t, err := c.GetTarget(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(os.Stdout, t)
			}
			return printTargetDetail(os.Stdout, t)
		},
	}
}

func targetsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Run one poll cycle now",
		Long: "Runs a poll cycle for the target outside its schedule. Notifications\n" +
			"are sent exactly as a scheduled cycle would send them.",
		Example: `  swctl targets check azabu`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			res, err := c.CheckTarget(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(os.Stdout, res)
			}
			return printCheckResult(os.Stdout, res)
		},
	}
}

func targetsResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Delete a target's stored state",
		Long: "Deletes the stored phase and fingerprint. The next cycle starts unopened\n" +
			"and will announce the opening again if the page is already open.",
		Example: `  swctl targets reset azabu --yes`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", args[0])
			}
			c := newClient()
			if err := c.ResetTarget(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("State for %s reset.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// Package cmd implements the CLI commands for slot-watcher.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "slot-watcher",
	Short: "Watch reservation pages for opening and slot changes",
	Long: "slot-watcher polls reservation pages, announces when booking opens,\n" +
		"and broadcasts calendar slot changes to a LINE, Discord, or webhook channel.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the config")

	rootCmd.AddCommand(
		runCmd(),
		serveCmd(),
		onceCmd(),
		testNotifyCmd(),
		simulateCmd(),
		migrateCmd(),
		versionCommand(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pagelift",
	Short: "A/B experimentation engine for funnel pages",
	Long: `pagelift is the experimentation core of a funnel-page platform.

It clones a live page into a statistically comparable variant, evaluates
accumulating traffic with a two-proportion z-test on a fixed cadence, and
promotes the winner back into production.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(experimentCmd)
}

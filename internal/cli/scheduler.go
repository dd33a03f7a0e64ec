package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the experiment evaluation scheduler",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate all running experiments once and exit",
	RunE:  runSchedulerOnce,
}

var schedulerLoopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Evaluate running experiments on the configured cadence",
	Long: `Evaluate running experiments on the configured cadence (default 6h)
until interrupted. Each sweep starts with a reconciliation pass that
finishes any interrupted winner-declaration cleanup.`,
	RunE: runSchedulerLoop,
}

func init() {
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerLoopCmd)
}

func runSchedulerOnce(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	fixed, err := app.Scheduler.Reconcile(ctx)
	if err != nil {
		return err
	}
	if fixed > 0 {
		fmt.Printf("Reconciled %d incomplete cleanups\n", fixed)
	}

	result, err := app.Scheduler.EvaluateAll(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Checked %d experiments, completed %d\n", result.Checked, result.Completed)
	return nil
}

func runSchedulerLoop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	err = app.Scheduler.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

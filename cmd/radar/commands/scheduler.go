package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/radar/internal/scheduler"
	"github.com/wonny/radar/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the pipeline scheduler",
	Long: `Starts the cron scheduler with the daily pipeline jobs:
stop check after the close, the scoring run, and the portfolio snapshot.

Runs until interrupted.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)

	jobList := []scheduler.Job{
		jobs.NewStopCheckJob(a.engine, a.activity, a.log),
		jobs.NewScoringJob(a.combiner, a.filter, a.selector, a.signals, a.log),
		jobs.NewSnapshotJob(a.engine, a.activity, a.log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
	}

	sched.Start()
	fmt.Printf("Scheduler running with %d jobs. Ctrl-C to stop.\n", len(jobList))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

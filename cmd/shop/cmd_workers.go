package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/pkg/queue"
)

var queueWorkersFlag int

// shop queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, shutdown, err := boot(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		if config.QueueDriver() == "memory" {
			fmt.Println("QUEUE_DRIVER is memory: jobs are processed inside `shop serve`.")
		}
		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		return app.Queue.Run(ctx, workers)
	},
}

// shop queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, shutdown, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer shutdown()

		failed, err := queue.ListFailed(cmd.Context(), app.DB)
		if err != nil {
			return err
		}
		if len(failed) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, f := range failed {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.UUID, f.Job, f.Attempts, f.FailedAt.Format("2006-01-02 15:04:05"), f.Error)
		}
		return w.Flush()
	},
}

// shop schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the task scheduler until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, shutdown, err := boot(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range app.Scheduler.List() {
			fmt.Println("  ", t)
		}
		app.Scheduler.Start(ctx)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "number of concurrent workers (default QUEUE_WORKERS)")
}

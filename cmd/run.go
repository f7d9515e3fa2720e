package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Swind/go-task-pool/core"
	obs "github.com/Swind/go-task-pool/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// RunCommand runs the squares workload on a pool.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Compute squares of 1..N on a worker pool and print the results in submission order",

		Flags: append(poolFlags(),
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Value:   9,
				Usage:   "Number of tasks to submit",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Value: 500 * time.Millisecond,
				Usage: "Simulated work per task",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :2112) while the workload runs",
			},
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "Keep the metrics endpoint up this long after the workload finishes",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		),

		Action: RunAction,
	}
}

// RunAction is the action of the run command.
func RunAction(c *cli.Context) error {
	// 1. Get flags
	cfg, err := configFromFlags(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid configuration: %v", err), 1)
	}
	tasks := c.Int("tasks")
	if tasks < 1 {
		return cli.Exit("tasks must be at least 1", 1)
	}

	logger := core.NewDefaultLogger()
	logger.Verbose = c.Bool("verbose")
	cfg.Logger = logger

	// 2. Wire metrics
	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(obs.DefaultNamespace, reg, obs.ExporterOptions{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
	}
	cfg.Metrics = exporter

	pool, err := core.NewThreadPoolWithConfig(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to start pool: %v", err), 1)
	}
	defer pool.Close()

	if addr := c.String("metrics-addr"); addr != "" {
		poller, err := obs.NewSnapshotPoller(reg, 100*time.Millisecond)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
		}
		poller.AddPool(pool.ID(), pool)
		poller.Start(c.Context)
		defer poller.Stop()

		server := obs.NewMetricsServer(reg)
		go func() {
			if err := server.ListenAndServe(addr); err != nil {
				logger.Error("metrics server stopped", core.F("addr", addr), core.F("error", err))
			}
		}()
		defer server.Shutdown()
		logger.Info("serving metrics", core.F("addr", addr), core.F("path", obs.MetricsPath))
	}

	// 3. Run workload
	if err := RunSquares(c.Context, c.App.Writer, pool, tasks, c.Duration("delay")); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	pool.Shutdown(true)

	// 4. Format output
	stats := pool.Stats()
	fmt.Fprintf(c.App.Writer, "All tasks computed: %d completed, %d failed\n", stats.Completed, stats.Failed)

	if hold := c.Duration("hold"); hold > 0 && c.String("metrics-addr") != "" {
		select {
		case <-time.After(hold):
		case <-c.Context.Done():
		}
	}
	return nil
}

// HeavySquare sleeps for delay and returns value squared. It returns early with
// the context error when ctx is cancelled.
func HeavySquare(ctx context.Context, value int, delay time.Duration) (int, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return value * value, nil
}

// squareTask binds HeavySquare to value. The task is cancelled when either the
// pool's context or ctx is done, so queued squares return at once after the
// caller gives up instead of holding up a draining shutdown.
func squareTask(ctx context.Context, value int, delay time.Duration) core.Callable[int] {
	return core.CallableFunc[int](func(taskCtx context.Context) (int, error) {
		taskCtx, cancel := context.WithCancel(taskCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		return HeavySquare(taskCtx, value, delay)
	})
}

// RunSquares submits HeavySquare for 1..tasks and writes each result to w in
// submission order. It stops at the first task that fails or when ctx is done.
func RunSquares(ctx context.Context, w io.Writer, pool *core.ThreadPool, tasks int, delay time.Duration) error {
	futures := make([]*core.Future[int], 0, tasks)
	for i := 1; i <= tasks; i++ {
		f, err := core.SubmitNamed(pool, fmt.Sprintf("square-%d", i), squareTask(ctx, i, delay))
		if err != nil {
			return fmt.Errorf("submit task %d: %w", i, err)
		}
		futures = append(futures, f)
	}

	for i, f := range futures {
		v, err := f.GetContext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("waiting for task %d: %w", i+1, err)
			}
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "Result %d\n", v)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/config"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/tui"
	"github.com/ShayCichocki/tandem/pkg/models"
)

var (
	runJSON         bool
	runQuiet        bool
	runNoArchive    bool
	runWorkersFile  string
	runMetricsAddr  string
	runProgressAddr string
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Classify a task and run it across the worker pool",
	Long: `Run a task through the orchestrator.

The task is classified, an approach is chosen and the workers run it. Worker
failures are reported inside the result; the command only fails when the
task itself could not be routed.

Progress is drawn on stderr. Use --progress-addr to also stream it as JSON
over a WebSocket, and --metrics-addr to expose Prometheus metrics while the
task runs.

Examples:
  tandem run "What is 2+2"
  tandem run --json "Research Rome and separately calculate 3+4"
  tandem run --progress-addr :8765 "Write a script to parse the csv data then summarize it"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the finished task as JSON")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not draw progress")
	runCmd.Flags().BoolVar(&runNoArchive, "no-archive", false, "Do not record the task in the archive")
	runCmd.Flags().StringVar(&runWorkersFile, "workers-file", "", "YAML file with worker profiles (overrides config)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().StringVar(&runProgressAddr, "progress-addr", "", "Serve a WebSocket progress feed on this address (e.g. :8765)")
}

func runTask(cmd *cobra.Command, args []string) error {
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		return fmt.Errorf("task description is empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runWorkersFile != "" {
		cfg.Orchestrator.WorkersFile = runWorkersFile
	}
	metricsAddr := runMetricsAddr
	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Addr
	}
	progressAddr := runProgressAddr
	if progressAddr == "" {
		progressAddr = cfg.Progress.WSAddr
	}

	logger, level, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifiers progress.MultiNotifier
	var display *progressDisplay
	if !runQuiet && !runJSON {
		display = newProgressDisplay(os.Stderr)
		notifiers = append(notifiers, display)
	}
	if progressAddr != "" {
		hub := progress.NewWebSocketHub(logger)
		defer hub.Close()
		serve(ctx, logger, "progress feed", progressAddr, hub)
		notifiers = append(notifiers, hub)
	}

	var notifier progress.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}
	a, err := newApp(cfg, logger, appOptions{
		archive:  !runNoArchive,
		metrics:  metricsAddr != "",
		notifier: notifier,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if metricsAddr != "" {
		serve(ctx, logger, "metrics", metricsAddr, metricsHandler())
	}

	_, watcher, err := config.Watch(logger, func(next *config.Config) {
		if flagLogLevel != "" {
			next.Logging.Level = flagLogLevel
		}
		a.applyConfig(next, level)
	})
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
	} else {
		logger.Debug("watching config", "watcher", watcher.String())
	}

	report := a.orch.Initialize(ctx)
	defer a.orch.Cleanup(context.WithoutCancel(ctx))
	if !runJSON {
		for name, reason := range report.Replaced {
			printStatus("⚠", fmt.Sprintf("%s runs as a generalist: %s", name, reason), color.FgYellow)
		}
		for name, reason := range report.Failed {
			printStatus("✗", fmt.Sprintf("%s unavailable: %s", name, reason), color.FgRed)
		}
	}

	task := a.orch.Route(ctx, description)
	if display != nil {
		display.finish()
	}

	if runJSON {
		if err := writeJSON(task); err != nil {
			return err
		}
	} else {
		fmt.Println(tui.RenderTask(task))
		if a.client != nil {
			in, out := a.client.Tracker().Total()
			fmt.Printf("\n%s %d in / %d out, ~$%.4f\n",
				color.New(color.Faint).Sprint("Tokens:"), in, out, a.client.Tracker().Cost())
		}
	}

	switch task.Status {
	case models.TaskStatusFailed:
		return fmt.Errorf("task %s failed: %s", task.ID, task.Result)
	case models.TaskStatusCancelled:
		return fmt.Errorf("task %s cancelled", task.ID)
	}
	return nil
}

// progressDisplay redraws one progress line per routed task. Workflow
// notifications from inside workers are ignored.
type progressDisplay struct {
	mu    sync.Mutex
	w     io.Writer
	tasks map[string]bool
	drawn bool
}

func newProgressDisplay(w io.Writer) *progressDisplay {
	return &progressDisplay{w: w, tasks: map[string]bool{}}
}

// Notify implements progress.Notifier.
func (d *progressDisplay) Notify(_ context.Context, n progress.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n.Type == progress.TypeProgress {
		if n.Progress == nil || n.Progress.Kind == "workflow" {
			return nil
		}
		d.tasks[n.TaskID] = true
	} else if !d.tasks[n.TaskID] {
		return nil
	}

	fmt.Fprintf(d.w, "\r\033[K%s", tui.ProgressLine(n))
	d.drawn = true
	return nil
}

func (d *progressDisplay) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drawn {
		fmt.Fprintln(d.w)
		d.drawn = false
	}
}

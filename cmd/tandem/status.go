package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/config"
	"github.com/ShayCichocki/tandem/internal/tui"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Build the worker pool and report each worker's state",
	Long: `Build every configured worker, report its state and tear it down again.

Shows:
  - Where the API key comes from
  - Workers that fell back to the generalist, and why
  - Per-worker kind, liveness and tool count`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print worker status as JSON")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, _, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := newApp(cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	report := a.orch.Initialize(ctx)
	defer a.orch.Cleanup(context.WithoutCancel(ctx))
	statuses := a.orch.Status(ctx)

	if statusJSON {
		return writeJSON(struct {
			KeySource config.KeySource `json:"key_source"`
			Report    any              `json:"init"`
			Workers   any              `json:"workers"`
		}{config.GetAPIKeySource(cfg), report, statuses})
	}

	fmt.Println(tui.NewHeader().View())
	source := config.GetAPIKeySource(cfg)
	switch {
	case source == config.KeySourceNone:
		printStatus("⚠", "No API key: workers run tool workflows only", color.FgYellow)
	case a.client == nil:
		printStatus("✗", fmt.Sprintf("API credentials from %s could not be used", source), color.FgRed)
	default:
		printStatus("✓", fmt.Sprintf("API credentials from %s (model %s)", source, a.client.Model()), color.FgGreen)
	}
	printStatus("✓", fmt.Sprintf("%d tools registered", a.registry.Count()), color.FgGreen)
	for name, reason := range report.Replaced {
		printStatus("⚠", fmt.Sprintf("%s runs as a generalist: %s", name, reason), color.FgYellow)
	}
	for name, reason := range report.Failed {
		printStatus("✗", fmt.Sprintf("%s unavailable: %s", name, reason), color.FgRed)
	}
	fmt.Println()
	fmt.Println(tui.RenderWorkers(statuses, 80))
	return nil
}

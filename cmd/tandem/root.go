package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/config"
	"github.com/ShayCichocki/tandem/internal/logging"
)

var (
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
)

var rootCmd = &cobra.Command{
	Use:   "tandem",
	Short: "Route tasks to specialist workers",
	Long: `Tandem classifies a free-text task, picks an execution approach and runs
it across a pool of specialist workers plus one generalist.

Approaches:
  single         one worker handles the whole task
  sequential     one subtask per detected domain, in order
  parallel       independent subtasks run concurrently
  collaborative  currently runs the sequential path

Workers call Claude when an API key (or Bedrock) is configured and fall back
to tool-driven workflows otherwise.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration and applies the logging flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logging.Format = flagLogFormat
	}
	if flagLogFile != "" {
		cfg.Logging.File = flagLogFile
	}
	return cfg, nil
}

// newLogger builds the process logger. The returned LevelVar controls it.
func newLogger(cfg *config.Config) (*slog.Logger, *slog.LevelVar, func() error, error) {
	level := &slog.LevelVar{}
	logger, closeFn, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		File:     cfg.Logging.File,
		LevelVar: level,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return logger, level, closeFn, nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

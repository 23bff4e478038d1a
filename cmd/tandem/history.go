package main

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/state"
	"github.com/ShayCichocki/tandem/internal/tui"
)

var (
	historyLimit     int
	historyJSON      bool
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived tasks",
	Long: `List tasks recorded by previous runs, oldest first.

The archive is an SQLite database at state.path (by default
$XDG_DATA_HOME/tandem/tasks.db). Runs with --no-archive or state.archive=false
are not recorded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		tasks, err := db.RecentTasks(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		slices.Reverse(tasks)
		if historyJSON {
			return writeJSON(tasks)
		}
		fmt.Println(tui.RenderHistory(tasks))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one archived task with its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		task, subtasks, err := db.GetTask(cmd.Context(), args[0])
		if errors.Is(err, state.ErrTaskNotFound) {
			return fmt.Errorf("no archived task with id %s", args[0])
		}
		if err != nil {
			return err
		}
		if historyJSON {
			return writeJSON(struct {
				Task     any             `json:"task"`
				Subtasks []state.Subtask `json:"subtasks"`
			}{task, subtasks})
		}

		fmt.Println(tui.RenderTask(task))
		if len(subtasks) > 0 {
			fmt.Println()
			fmt.Println(color.New(color.Bold).Sprint("Subtasks:"))
			for i, s := range subtasks {
				mark := color.GreenString("✓")
				if s.Failed {
					mark = color.RedString("✗")
				}
				fmt.Printf("  %s %d. [%s] %s\n", mark, i+1, s.Worker, s.Description)
			}
		}
		return nil
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete archived tasks older than a given age",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if historyOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.PurgeOlderThan(cmd.Context(), historyOlderThan)
		if err != nil {
			return err
		}
		printStatus("✓", fmt.Sprintf("Removed %d task(s) older than %s", n, historyOlderThan), color.FgGreen)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Print as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of tasks to list")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Age threshold")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func openArchive() (*state.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.State.Path
	if path == "" {
		path = state.DefaultPath()
	}
	return state.OpenArchive(path)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/classifier"
	"github.com/ShayCichocki/tandem/internal/tui"
	"github.com/ShayCichocki/tandem/pkg/models"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify <task>",
	Short: "Show how a task would be routed without running it",
	Long: `Classify a task and explain which approach it would get.

Prints detected domains, complexity, needed tools and the decision rule that
picked the approach. No workers are started.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		analysis := classifier.Classify(text)
		rec := classifier.Explain(analysis)

		if classifyJSON {
			return writeJSON(struct {
				Analysis       models.TaskAnalysis       `json:"analysis"`
				Recommendation classifier.Recommendation `json:"recommendation"`
			}{analysis, rec})
		}
		fmt.Println(tui.RenderAnalysis(analysis, rec))
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the analysis as JSON")
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

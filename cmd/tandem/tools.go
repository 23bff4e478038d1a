package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg := toolregistry.New()
		if err := toolregistry.RegisterBuiltins(reg, toolregistry.BuiltinConfig{WorkDir: cfg.Workflow.WorkDir}); err != nil {
			return err
		}
		if toolsJSON {
			return writeJSON(reg.Specs())
		}

		bold := color.New(color.Bold)
		for _, name := range reg.List() {
			tool, _ := reg.Get(name)
			spec := tool.Spec()
			fmt.Printf("%s  %s\n", bold.Sprint(name), spec.Description)
			for _, p := range paramLines(spec) {
				fmt.Printf("    %s\n", p)
			}
		}
		return nil
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <tool> [key=value ...]",
	Short: "Invoke one tool directly",
	Long: `Invoke a tool the way a workflow step would, with the configured timeout
and result cache. Values are parsed as JSON when possible and used as plain
strings otherwise.

Examples:
  tandem tools call calculator expression="2 * (3 + 4)"
  tandem tools call list_dir path=.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, _, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		reg := toolregistry.New(toolregistry.WithLogger(logger))
		if err := toolregistry.RegisterBuiltins(reg, toolregistry.BuiltinConfig{WorkDir: cfg.Workflow.WorkDir}); err != nil {
			return err
		}
		user := workflow.NewRegistryToolUser(reg, workflow.ToolUserConfig{Timeout: cfg.Workflow.ToolTimeout}, logger)

		callArgs, err := parseToolArgs(args[1:])
		if err != nil {
			return err
		}
		outcome := user.Use(cmd.Context(), workflow.ToolCall{ToolName: args[0], Arguments: callArgs})
		if !outcome.Success {
			return fmt.Errorf("%s: %s", args[0], outcome.Message)
		}
		fmt.Println(outcome.Result)
		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print tool specs as JSON")
	toolsCmd.AddCommand(toolsCallCmd)
}

// paramLines renders a spec's parameters, required first, then by name.
func paramLines(spec toolregistry.Spec) []string {
	names := make([]string, 0, len(spec.Parameters))
	for name := range spec.Parameters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := spec.Parameters[names[i]].Required, spec.Parameters[names[j]].Required
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, len(names))
	for _, name := range names {
		p := spec.Parameters[name]
		line := fmt.Sprintf("%s (%s", name, p.Type)
		if p.Required {
			line += ", required"
		}
		line += ")"
		if p.Description != "" {
			line += " " + p.Description
		}
		lines = append(lines, line)
	}
	return lines
}

// parseToolArgs turns key=value pairs into call arguments.
func parseToolArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = value
		}
	}
	return out, nil
}

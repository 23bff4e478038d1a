package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/agent"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Print the worker profiles as YAML",
	Long: `Print the worker profiles tandem would build, as a workers file.

Without a configured workers file this prints the built-in profiles, which
makes a good starting point:

  tandem workers > workers.yaml
  tandem config orchestrator.workers_file $PWD/workers.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		specialists, generalist := agent.DefaultProfiles(), agent.DefaultGeneralist()
		if cfg.Orchestrator.WorkersFile != "" {
			specialists, generalist, err = agent.LoadProfiles(cfg.Orchestrator.WorkersFile)
			if err != nil {
				return err
			}
		}
		data, err := agent.MarshalProfiles(specialists, generalist)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify tandem configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/tandem/config.yaml
Project-specific overrides can be placed in .tandem.yaml
Environment variables use the TANDEM_ prefix (TANDEM_LOGGING_LEVEL=debug).

A running 'tandem run' picks up changes to logging.level and
workflow.tool_timeout without restarting.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values, sorted by key.
func displayAllConfig(cfg *config.Config) {
	flat := config.Flatten(cfg)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, _ := getConfigValue(cfg, k)
		fmt.Printf("%s: %s\n", color.New(color.Faint).Sprint(k), value)
	}
	if path := config.GetProjectConfigPath(); path != "" {
		fmt.Printf("\n(project overrides from %s)\n", path)
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	key = strings.ToLower(key)
	if key == "anthropic.api_key" {
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	}
	value, ok := config.Flatten(cfg)[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", config.ErrUnknownKey, key)
	}
	return fmt.Sprint(value), nil
}

// setConfigKey sets a configuration value and saves the user config.
func setConfigKey(cfg *config.Config, key, value string) error {
	if strings.EqualFold(key, "anthropic.api_key") {
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
	}
	next, err := config.Set(cfg, key, value)
	if err != nil {
		return err
	}
	if err := config.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	display, _ := getConfigValue(next, key)
	printStatus("✓", fmt.Sprintf("Set %s = %s", strings.ToLower(key), display), color.FgGreen)
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/aisim/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage aisim configuration",
		Long: `View and modify aisim configuration settings.

Configuration is stored in ~/.aisim/config.yaml. Keys use dot notation
matching the YAML layout.

Examples:
  aisim config list                                  # Show all settings
  aisim config get simulation.wake.capability        # Get a specific setting
  aisim config set simulation.wake.capability 3.0    # Set a setting
  aisim config set batch.workers 8`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(cfg)
			}

			flat, keys, err := cfg.Flatten()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Configuration (%s):\n\n", configPathLabel(cmd))
			width := 0
			for _, k := range keys {
				width = max(width, len(k))
			}
			for _, k := range keys {
				fmt.Fprintf(out, "  %-*s  %v\n", width, k, formatValue(flat[k]))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			value, found := cfg.Get(key)
			if !found {
				if jsonOutput(cmd) {
					json.NewEncoder(out).Encode(map[string]any{
						"error": "key not found",
						"key":   key,
					})
				} else {
					fmt.Fprintf(out, "Unknown configuration key: %s\n", key)
				}
				return nil
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			if _, isSection := value.(map[string]any); isSection {
				data, err := yaml.Marshal(value)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s:\n%s", key, indent(string(data)))
				return nil
			}
			fmt.Fprintf(out, "%s = %v\n", key, formatValue(value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			// Start from the file alone so environment overrides are not
			// persisted.
			cfg := config.Default()
			if fileExists(path) {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			err = cfg.Set(key, value)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				if jsonOutput(cmd) {
					json.NewEncoder(out).Encode(map[string]any{
						"error": err.Error(),
						"key":   key,
					})
				} else {
					fmt.Fprintf(out, "Error: %v\n", err)
				}
				return nil
			}

			if err := cfg.Save(path); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"status": "updated",
					"key":    key,
					"value":  value,
					"path":   path,
				})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// configPath returns --config or the default config location.
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func configPathLabel(cmd *cobra.Command) string {
	p, err := configPath(cmd)
	if err != nil {
		return "defaults"
	}
	if !fileExists(p) {
		return p + ", not present; showing defaults"
	}
	return p
}

func formatValue(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return "(not set)"
	}
	return v
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/config"
)

var flagConfigForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage promptscore configuration",
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultFile
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if _, err := os.Stat(path); err == nil && !flagConfigForce {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s (use --force to overwrite)\n", path)
			return nil
		}
		if err := config.Save(config.Default(), path); err != nil {
			fail(cmd, fmt.Errorf("writing config: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		cfg, err := config.LoadFile(path)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if args[0] == "apiKey" {
			fail(cmd, usagef("apiKey is never stored in the config file; use PROMPTSCORE_API_KEY"))
			return nil
		}
		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			fail(cmd, &usageError{err: err})
			return nil
		}
		if err := cfg.Validate(); err != nil {
			fail(cmd, &usageError{err: err})
			return nil
		}
		if err := config.Save(cfg, path); err != nil {
			fail(cmd, fmt.Errorf("saving config: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context(), flagConfig, nil)
		if err != nil {
			fail(cmd, &usageError{err: err})
			return nil
		}
		data, err := json.MarshalIndent(struct {
			config.Config
			APIKeySet bool `json:"apiKeySet"`
		}{cfg, cfg.APIKey != ""}, "", "  ")
		if err != nil {
			fail(cmd, err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "Overwrite an existing config file")
}

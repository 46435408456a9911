package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xmhha/kaizen/pkg/config"
)

// noConfigSource is printed when no document was found.
const noConfigSource = "defaults (no config file found)"

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Example: `  # Show current configuration
  kaizen config show

  # Show configuration in TOML format
  kaizen config show --format toml

  # Show configuration file paths
  kaizen config path

  # Write a default configuration file
  kaizen config init

  # Reset configuration to defaults without confirmation
  kaizen config reset --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newConfigShowCmd(configPath),
		newConfigPathCmd(configPath),
		newConfigValidateCmd(configPath),
		newConfigInitCmd(configPath),
		newConfigResetCmd(configPath),
	)
	return cmd
}

// newConfigShowCmd displays the effective configuration.
func newConfigShowCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, _ := loadConfig(*configPath, cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil

			case "yaml", "toml":
				data, err := config.Marshal(cfg, "config."+strings.ToLower(format))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "# Current Configuration")
				_, _ = fmt.Fprintln(out, "# Source:", sourceName(path))
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprint(out, string(data))
				return nil

			default:
				return fmt.Errorf("unknown format %q (want yaml, toml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml, toml, json)")
	return cmd
}

// newConfigPathCmd shows the configuration file search paths.
func newConfigPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(out, "Configuration file search paths (in order of precedence):")
			_, _ = fmt.Fprintln(out)
			for i, p := range config.SearchPaths() {
				_, _ = fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, p, existence(p))
			}
			_, _ = fmt.Fprintln(out)

			active := config.NewLoader(*configPath).Path()
			if *configPath != "" {
				active = fmt.Sprintf("%s [%s]", active, existence(active))
			}
			_, _ = fmt.Fprintln(out, "Active configuration:", sourceName(active))
			return nil
		},
	}
}

// newConfigValidateCmd checks the document without falling back.
func newConfigValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := config.NewLoader(*configPath)
			if _, err := loader.Load(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %s\n", sourceName(loader.Path()))
			return nil
		},
	}
}

// newConfigInitCmd writes a default document if none exists.
func newConfigInitCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := outputPath(output, *configPath)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("configuration file already exists at %s (use 'config reset' to overwrite)", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output path (default: --config or ~/.config/kaizen/config.yaml)")
	return cmd
}

// newConfigResetCmd overwrites the document with defaults.
func newConfigResetCmd(configPath *string) *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := outputPath(output, *configPath)
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); err == nil && !force {
				_, _ = fmt.Fprintf(out, "Configuration file already exists at: %s\n", path)
				if !confirm(cmd, "Overwrite? [y/N]: ") {
					_, _ = fmt.Fprintln(out, "Reset cancelled.")
					return nil
				}
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Configuration reset to defaults at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	cmd.Flags().StringVar(&output, "output", "", "output path (default: --config or ~/.config/kaizen/config.yaml)")
	return cmd
}

// confirm prints prompt and reads a yes/no answer from the command input.
// Anything but "y" or "yes" is a no.
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func outputPath(output, configPath string) string {
	switch {
	case output != "":
		return config.ExpandHome(output)
	case configPath != "":
		return config.ExpandHome(configPath)
	default:
		return config.DefaultConfigPath()
	}
}

func sourceName(path string) string {
	if path == "" {
		return noConfigSource
	}
	return path
}

func existence(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "found"
	}
	return "not found"
}

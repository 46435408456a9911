// Package main provides the kaizen CLI application.
//
// Kaizen is a background productivity agent: it sorts new files in
// watched directories into per-category folders and runs timed
// focus/break sessions, rewarding both with experience, levels, ranks
// and a daily streak.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "kaizen",
		Short: "Sort your downloads and keep your focus streak",
		Long: `Kaizen watches directories such as ~/Downloads and moves every new file
into a category folder under the destination root (Images, Documents, ...).
It also runs WORK/BREAK focus sessions. Sorted files and finished
sessions earn experience, levels and ranks; starting a session every day
keeps the streak going.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("kaizen {{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (YAML, or TOML by extension)")

	root.AddCommand(
		newRunCmd(&configPath),
		newPurgeCmd(&configPath),
		newStatsCmd(&configPath),
		newHistoryCmd(&configPath),
		newConfigCmd(&configPath),
	)
	return root
}

// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stale-radar/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stale-radar",
	Short: "A CLI tool to aggregate stale issues and pull requests across repositories.",
	Long: `stale-radar aggregates issues and pull requests flagged as stale across
multiple GitHub repositories, renders the current backlog as a filterable and
sortable view, and reconstructs backlog trends from daily snapshot files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: .stale-radar.yaml)")
}

// newLogger builds the injected logger: discard by default, stderr when
// --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadConfig reads the configuration honoring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.InheritedFlags().GetString("config")
	return config.Load(cfgFile)
}

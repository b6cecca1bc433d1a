package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tpgen",
	Short: "tpgen - test plan generator and validator",
	Long: `tpgen builds hardware test plan documents from catalog selections and
checks plan documents before they are copied or downloaded.

Every document goes through the same pipeline:
  - syntax lint (tabs, indentation, missing spaces, suspicious values)
  - parsing
  - compatibility rules (required keys, non-empty values, types,
    whitelisted values, known-bad combinations)

Documents that fail a blocking check exit with status 2.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrBlocked) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when absent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// outWriter and errWriter fall back to the process streams when a RunE
// function is called without a command.
func outWriter(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func errWriter(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stderr
	}
	return cmd.ErrOrStderr()
}

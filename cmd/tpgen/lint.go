package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/document/diag"
	"tpgen-hq/tpgen/pkg/document/lint"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the syntax of plan documents",
	Long: `Check plan documents line by line without parsing them.

Errors (tabs, mixed or uneven indentation, "-item", "key:value",
bracketed keys) always block. Warnings (space before a colon, "#" or ":"
in unquoted values) block only with --strict.

Examples:
  # Lint one document
  tpgen lint --file test_plan.yaml

  # Lint a directory, warnings as errors
  tpgen lint --dir plans/ --strict

  # JSON output for CI/CD
  tpgen lint --file test_plan.yaml --format json`,
	RunE: lintDocuments,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "document to lint")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of documents")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the lint outcome for one file.
type LintResult struct {
	File        string    `json:"file"`
	Valid       bool      `json:"valid"`
	Diagnostics diag.List `json:"diagnostics"`
	Error       string    `json:"error,omitempty"`
}

func lintDocuments(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}
	files, err := documentFiles(lintFlags.file, lintFlags.dir)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	stdout := outWriter(cmd)
	styles := cli.NewStyles(stdout)
	results := make([]LintResult, 0, len(files))
	blocked := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			if format == cli.FormatText {
				fmt.Fprintf(stdout, "%s %s\n  %v\n", styles.Fail("FAIL"), styles.Path(file), err)
			}
			results = append(results, LintResult{File: file, Error: err.Error()})
			blocked++
			continue
		}

		res := lint.Lint(string(data))
		valid := !res.HasBlockingError && !(lintFlags.strict && len(res.Warnings()) > 0)
		if !valid {
			blocked++
		}
		results = append(results, LintResult{File: file, Valid: valid, Diagnostics: res.Diagnostics})
		if format == cli.FormatText {
			if err := styles.RenderLint(stdout, file, res, !valid); err != nil {
				return err
			}
		}
	}

	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(stdout, results); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(stdout, "\n%d document(s), %d blocked\n", len(files), blocked)
	}

	if blocked > 0 {
		return cli.Blocked("lint", blocked)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/telemetry/logging"
)

var validateFlags struct {
	file   string
	dir    string
	strict bool
	all    bool
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full check pipeline over plan documents",
	Long: `Run the full check pipeline over plan documents: syntax lint, parsing
and the compatibility rules. Rule failures are located to a line.

Examples:
  # Validate one document
  tpgen validate --file test_plan.yaml

  # Validate a directory and list every rule failure
  tpgen validate --dir plans/ --all

  # Validate against a custom rule set
  TPGEN_RULES_FILE=lab-rules.yaml tpgen validate --file test_plan.yaml`,
	RunE: validateDocuments,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "document to validate")
	validateCmd.Flags().StringVarP(&validateFlags.dir, "dir", "d", "", "directory of documents")
	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "treat syntax warnings as errors")
	validateCmd.Flags().BoolVar(&validateFlags.all, "all", false, "report every failing rule, not just the first")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// ValidateResult is the check outcome for one file.
type ValidateResult struct {
	File   string        `json:"file"`
	Report *check.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func validateDocuments(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	files, err := documentFiles(validateFlags.file, validateFlags.dir)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	a, err := newApp(errWriter(cmd))
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer a.Close()
	checker, err := a.checker("cli", validateFlags.strict, validateFlags.all)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	var progress cli.ProgressReporter = cli.NopProgress{}
	if len(files) > 1 && format == cli.FormatText && cli.IsTerminal(errWriter(cmd)) {
		progress = cli.NewProgressReporter(errWriter(cmd))
	}

	stdout := outWriter(cmd)
	styles := cli.NewStyles(stdout)
	ctx := cmdContext(cmd)
	results := make([]ValidateResult, 0, len(files))
	blocked := 0

	progress.Start(int64(len(files)))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			results = append(results, ValidateResult{File: file, Error: err.Error()})
			blocked++
			progress.Update(int64(i + 1))
			continue
		}
		rep := checker.Check(logging.WithDocument(ctx, file), string(data))
		if !rep.Valid {
			blocked++
		}
		results = append(results, ValidateResult{File: file, Report: rep})
		progress.Update(int64(i + 1))
	}
	progress.Finish()

	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Report == nil {
				fmt.Fprintf(stdout, "%s %s\n  %s\n", styles.Fail("FAIL"), styles.Path(r.File), r.Error)
				continue
			}
			if err := styles.RenderReport(stdout, r.File, r.Report); err != nil {
				return err
			}
		}
		fmt.Fprintf(stdout, "\n%d document(s), %d blocked\n", len(files), blocked)
	}

	if blocked > 0 {
		return cli.Blocked("validate", blocked)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/document/parser"
)

var analyzeFlags struct {
	file   string
	format string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match a plan's hardware requirements against the catalog",
	Long: `Match the CPU and GPU a plan requires against every catalog machine and
list the compatible and incompatible machines.

Examples:
  tpgen analyze --file test_plan.yaml
  tpgen analyze --file test_plan.yaml --format json`,
	RunE: analyzeDocument,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFlags.file, "file", "f", "", "document to analyze")
	analyzeCmd.Flags().StringVar(&analyzeFlags.format, "format", "text", "output format: text, json")
}

func analyzeDocument(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(analyzeFlags.format)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	if analyzeFlags.file == "" {
		return cli.NewCommandError("analyze", errors.New("--file must be specified"))
	}
	data, err := os.ReadFile(analyzeFlags.file)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	doc, _, err := parser.Decode(string(data))
	if err != nil {
		return cli.NewCommandError("analyze", fmt.Errorf("failed to parse %s: %w", analyzeFlags.file, err))
	}

	a, err := newApp(errWriter(cmd))
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	cat, err := a.openCatalog(ctx)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}
	rep, err := catalog.Compatibility(ctx, cat, doc)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	stdout := outWriter(cmd)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(stdout, rep)
	}
	return renderCompatibility(stdout, cli.NewStyles(stdout), rep)
}

func renderCompatibility(w io.Writer, styles *cli.Styles, rep *catalog.Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d machine(s)\n", styles.Pass("Compatible:"), len(rep.Compatible))
	if len(rep.Compatible) > 0 {
		rows := make([][]string, 0, len(rep.Compatible))
		for _, m := range rep.Compatible {
			rows = append(rows, []string{fmt.Sprint(m.ID), m.Name, m.CPU, m.GPU})
		}
		sb.WriteString(styles.Table([]string{"ID", "NAME", "CPU", "GPU"}, rows) + "\n")
	}

	fmt.Fprintf(&sb, "%s %d machine(s)\n", styles.Fail("Incompatible:"), len(rep.Incompatible))
	for _, m := range rep.Incompatible {
		fmt.Fprintf(&sb, "  %s: %s\n", m.Machine.Name, strings.Join(m.Reasons, "; "))
	}
	for _, missing := range rep.MissingConfigurations {
		sb.WriteString("  " + styles.Warn("missing: "+missing) + "\n")
	}
	for _, warning := range rep.Warnings {
		sb.WriteString("  " + styles.Warn(warning) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/plan"
)

var generateFlags struct {
	selection   string
	out         string
	copy        bool
	lineNumbers bool
}

// Replaced in tests.
var (
	copyToClipboard = clipboard.WriteAll
	now             = time.Now
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build a test plan document from a selection",
	Long: `Build a test plan document from a selection file and check it.

The selection names the CPU and GPU, the catalog machines and test cases,
the OS and kernel choice (shared or per machine), firmware options and
any custom test cases. A document that fails a blocking check is never
written or copied.

Examples:
  # Print the plan
  tpgen generate --selection selection.yaml

  # Write test_plan_<timestamp>.yaml into plans/
  tpgen generate --selection selection.yaml --out plans/

  # Copy to the clipboard
  tpgen generate --selection selection.yaml --copy`,
	RunE: generatePlan,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.selection, "selection", "s", "", "selection file (YAML or JSON)")
	generateCmd.Flags().StringVarP(&generateFlags.out, "out", "o", "", "directory to write the plan into")
	generateCmd.Flags().BoolVar(&generateFlags.copy, "copy", false, "copy the plan to the clipboard")
	generateCmd.Flags().BoolVarP(&generateFlags.lineNumbers, "line-numbers", "n", false, "print with a line number gutter")
}

func generatePlan(cmd *cobra.Command, args []string) error {
	if generateFlags.selection == "" {
		return cli.NewCommandError("generate", errors.New("--selection must be specified"))
	}
	data, err := os.ReadFile(generateFlags.selection)
	if err != nil {
		return cli.NewCommandError("generate", fmt.Errorf("failed to read selection: %w", err))
	}
	var sel plan.Selection
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return cli.NewCommandError("generate", fmt.Errorf("invalid selection %s: %w", generateFlags.selection, err))
	}

	a, err := newApp(errWriter(cmd))
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer a.Close()

	ctx := cmdContext(cmd)
	cat, err := a.openCatalog(ctx)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	checker, err := a.checker("cli", false, true)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	generated := now()
	in, err := catalog.BuildInput(ctx, cat, sel, generated)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	doc, err := plan.NewBuilder(nil).Build(in)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	filename := plan.Filename(generated)
	rep := checker.CheckValue(ctx, doc)
	if err := check.Commit(rep); err != nil {
		cli.NewStyles(errWriter(cmd)).RenderReport(errWriter(cmd), filename, rep)
		return cli.Blocked("generate", 1)
	}

	return deliver(outWriter(cmd), filename, rep.Document)
}

// deliver writes, copies or prints a committable document.
func deliver(stdout io.Writer, filename, text string) error {
	delivered := false
	if generateFlags.out != "" {
		if err := os.MkdirAll(generateFlags.out, 0o755); err != nil {
			return cli.NewCommandError("generate", err)
		}
		path := filepath.Join(generateFlags.out, filename)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return cli.NewCommandError("generate", fmt.Errorf("failed to write plan: %w", err))
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		delivered = true
	}
	if generateFlags.copy {
		if err := copyToClipboard(text); err != nil {
			return cli.NewCommandError("generate", fmt.Errorf("failed to copy to clipboard: %w", err))
		}
		fmt.Fprintln(stdout, "Copied test plan to the clipboard")
		delivered = true
	}
	if delivered {
		return nil
	}
	if generateFlags.lineNumbers {
		text = numbered(text)
	}
	_, err := io.WriteString(stdout, text)
	return err
}

// numbered prefixes each line of text with its right-aligned number.
func numbered(text string) string {
	nums := plan.LineNumbers(text)
	lines := strings.SplitAfter(text, "\n")
	width := len(strconv.Itoa(len(nums)))
	var sb strings.Builder
	for i, n := range nums {
		fmt.Fprintf(&sb, "%*d | %s", width, n, lines[i])
	}
	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// cmdContext returns the command's context, which is nil when a RunE
// function is called directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

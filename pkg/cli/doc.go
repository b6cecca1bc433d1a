/*
Package cli provides command-line helpers for the tpgen command.

Reports are rendered with Styles, which colours PASS and FAIL markers and
source context only when writing to a terminal:

	styles := cli.NewStyles(os.Stdout)
	styles.RenderReport(os.Stdout, "plan.yaml", report)

Machine-readable output goes through a Formatter:

	cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, reports)

Commands return *CommandError; ExitCode maps it to the process exit
status, with 2 reserved for documents that were rejected.
*/
package cli

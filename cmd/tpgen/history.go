package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/history"
)

var historyFlags struct {
	format string
	since  time.Duration
	source string
	failed bool
	limit  int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune the check history",
	Long: `Inspect and prune the check history. History must be enabled
(history.enabled) and backed by sqlite (history.sqlite_path) to outlive a
single process.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded check outcomes, newest first",
	RunE:  listHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records older than the retention period",
	RunE:  pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyPruneCmd)

	historyListCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json")
	historyListCmd.Flags().DurationVar(&historyFlags.since, "since", 0, "only records newer than this, e.g. 24h")
	historyListCmd.Flags().StringVar(&historyFlags.source, "source", "", "only records from this source")
	historyListCmd.Flags().BoolVar(&historyFlags.failed, "failed", false, "only blocked documents")
	historyListCmd.Flags().IntVar(&historyFlags.limit, "limit", 50, "maximum records, 0 for all")
}

var errHistoryDisabled = errors.New("history is disabled (set history.enabled)")

func listHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}
	a, store, err := openHistoryApp(cmd)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}
	defer a.Close()

	q := &history.Query{Source: historyFlags.source, Limit: historyFlags.limit}
	if historyFlags.since > 0 {
		q.Since = now().Add(-historyFlags.since)
	}
	if historyFlags.failed {
		valid := false
		q.Valid = &valid
	}
	recs, err := store.List(cmdContext(cmd), q)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}

	stdout := outWriter(cmd)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(stdout, recs)
	}
	return renderHistory(stdout, cli.NewStyles(stdout), recs)
}

func renderHistory(w io.Writer, styles *cli.Styles, recs []*history.Record) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No records")
		return err
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		result := "pass"
		if !r.Valid {
			result = "blocked"
		}
		line := ""
		if r.Line > 0 {
			line = strconv.Itoa(r.Line)
		}
		rows = append(rows, []string{
			r.Time.Local().Format("2006-01-02 15:04:05"),
			r.Source,
			result,
			r.Stage,
			r.ErrorCode,
			line,
			shortHash(r.DocumentHash),
		})
	}
	_, err := fmt.Fprintln(w, styles.Table([]string{"TIME", "SOURCE", "RESULT", "STAGE", "CODE", "LINE", "DOCUMENT"}, rows))
	return err
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	a, store, err := openHistoryApp(cmd)
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	defer a.Close()

	if a.cfg.History.RetentionDays <= 0 {
		fmt.Fprintln(outWriter(cmd), "Retention is unlimited, nothing to prune")
		return nil
	}
	deleted, err := a.pruner(store).Prune(cmdContext(cmd))
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	fmt.Fprintf(outWriter(cmd), "Deleted %d record(s) older than %d day(s)\n", deleted, a.cfg.History.RetentionDays)
	return nil
}

func openHistoryApp(cmd *cobra.Command) (*app, history.Store, error) {
	a, err := newApp(errWriter(cmd))
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openHistory()
	if err == nil && store == nil {
		err = errHistoryDisabled
	}
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, store, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

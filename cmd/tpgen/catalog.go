package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/cli"
)

var catalogFlags struct {
	format string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog machines and test cases",
}

var catalogMachinesCmd = &cobra.Command{
	Use:   "machines",
	Short: "List the test machines",
	RunE:  listMachines,
}

var catalogTestCasesCmd = &cobra.Command{
	Use:   "test-cases",
	Short: "List the test cases",
	RunE:  listTestCases,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogMachinesCmd, catalogTestCasesCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogFlags.format, "format", "text", "output format: text, json")
}

func listMachines(cmd *cobra.Command, args []string) error {
	return withCatalogOutput(cmd, "catalog machines", func(a *app, w io.Writer, format cli.OutputFormat) error {
		cat, err := a.openCatalog(cmdContext(cmd))
		if err != nil {
			return err
		}
		list, err := cat.Machines(cmdContext(cmd))
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(w, list)
		}
		rows := make([][]string, 0, len(list))
		for _, m := range list {
			rows = append(rows, []string{strconv.Itoa(m.ID), m.Name, m.CPU, m.GPU, m.Motherboard, m.Status})
		}
		_, err = fmt.Fprintln(w, cli.NewStyles(w).Table([]string{"ID", "NAME", "CPU", "GPU", "MOTHERBOARD", "STATUS"}, rows))
		return err
	})
}

func listTestCases(cmd *cobra.Command, args []string) error {
	return withCatalogOutput(cmd, "catalog test-cases", func(a *app, w io.Writer, format cli.OutputFormat) error {
		cat, err := a.openCatalog(cmdContext(cmd))
		if err != nil {
			return err
		}
		list, err := cat.TestCases(cmdContext(cmd))
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(w, list)
		}
		rows := make([][]string, 0, len(list))
		for _, tc := range list {
			rows = append(rows, []string{strconv.Itoa(tc.ID), tc.Name, tc.Type, tc.Subgroup})
		}
		_, err = fmt.Fprintln(w, cli.NewStyles(w).Table([]string{"ID", "NAME", "TYPE", "SUBGROUP"}, rows))
		return err
	})
}

func withCatalogOutput(cmd *cobra.Command, name string, fn func(*app, io.Writer, cli.OutputFormat) error) error {
	format, err := cli.ParseFormat(catalogFlags.format)
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	a, err := newApp(errWriter(cmd))
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	defer a.Close()
	if err := fn(a, outWriter(cmd), format); err != nil {
		return cli.NewCommandError(name, err)
	}
	return nil
}

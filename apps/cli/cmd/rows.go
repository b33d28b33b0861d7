package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/mappers"
)

var rowsCmd = &cobra.Command{
	Use:   "rows <file-ref>",
	Short: "Print the parameter rows a file produces",
	Long: `Read a parameter file through a mapper and print each row the way it is
named in reports.

Examples:
  rowspec rows data/sums.csv
  rowspec rows data/users.json --mapper "json:users.#.[name,age]"
  rowspec rows classpath:rows.yaml --resource-dir testdata --arity 2`,
	Args: cobra.ExactArgs(1),
	RunE: rowsCommand,
}

var (
	rowsMapperFlag      string
	rowsArityFlag       int
	rowsResourceDirFlag string
)

func init() {
	rowsCmd.Flags().StringVarP(&rowsMapperFlag, "mapper", "m", "csv", "Mapper name with optional argument: csv, yaml, json, sql")
	rowsCmd.Flags().IntVar(&rowsArityFlag, "arity", 0, "Require every row to have this many values")
	rowsCmd.Flags().StringVar(&rowsResourceDirFlag, "resource-dir", "", "Directory backing classpath: references")
}

func rowsCommand(cmd *cobra.Command, args []string) error {
	opts := []params.MethodOption{params.WithSpec(params.File(args[0], rowsMapperFlag))}
	if rowsArityFlag > 0 {
		opts = append(opts, params.WithArity(rowsArityFlag))
	}
	m, err := params.NewMethod(params.NewClass("rows"), "rows", opts...)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	resolverOpts := params.ResolverOptions{Mappers: mappers.Default()}
	if rowsResourceDirFlag != "" {
		resolverOpts.Resources = os.DirFS(rowsResourceDirFlag)
	}

	rows, err := params.NewResolver(resolverOpts).Resolve(m)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	for i, row := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), params.Stringify(row, i))
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no rows")
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/core/parser"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate suite files without running them",
	Long: `Validate rowspec suite files without executing them. Class references
and parameter declarations are checked as well as syntax.

Examples:
  rowspec validate math.rowspec.yaml
  rowspec validate ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no suite files found")
	}

	registry := params.NewRegistry()
	hasErrors := false
	for _, file := range files {
		if err := validateFile(file, registry); err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return &exitError{code: ExitParseError, err: fmt.Errorf("validation failed")}
	}

	return nil
}

func validateFile(file string, registry *params.Registry) error {
	f, err := parser.ParseFile(file)
	if err != nil {
		return err
	}
	suites, err := parser.Build(f, parser.BuildOptions{Registry: registry})
	if err != nil {
		return err
	}
	for _, suite := range suites {
		for _, t := range suite.Tests {
			if t.Err != nil {
				return fmt.Errorf("%s.%s: %w", suite.Class.Name, t.Name, t.Err)
			}
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List all tests in suite files",
	Long: `List the classes and tests of rowspec suite files with the source of
their parameters.

Examples:
  rowspec list math.rowspec.yaml
  rowspec list ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no suite files found")
	}

	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, class := range f.Classes {
			header := class.Name
			if class.Extends != "" {
				header += " extends " + class.Extends
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", header)

			for _, t := range class.Tests {
				line := fmt.Sprintf("    - %s", t.Name)
				if t.Ignore {
					line += " (ignored)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
				if t.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", t.Description)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "      parameters: %s\n", describeParameters(t))
			}
		}
	}

	return nil
}

func describeParameters(t *parser.Test) string {
	var parts []string
	if p := t.Parameters; p != nil {
		switch {
		case len(p.Value) > 0:
			parts = append(parts, fmt.Sprintf("%d literal", len(p.Value)))
		case p.Method != "":
			source := p.Source
			if source == "" {
				source = "own class"
			}
			parts = append(parts, fmt.Sprintf("%s from %s", p.Method, source))
		case p.Source != "":
			parts = append(parts, "provide* of "+p.Source)
		default:
			parts = append(parts, "provide* or parametersFor"+capitalize(t.Name))
		}
	}
	if fp := t.FileParameters; fp != nil {
		mapper := fp.Mapper
		if mapper == "" {
			mapper = "csv"
		}
		parts = append(parts, fmt.Sprintf("file %s (%s)", fp.Path, mapper))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " + ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

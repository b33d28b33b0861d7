package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new rowspec project",
	Long: `Initialize a new rowspec project in the current directory.

This creates:
  - .rowspec.yaml          - Configuration file
  - example.rowspec.yaml   - Example suite
  - data/words.csv         - Parameter file used by the example

Examples:
  rowspec init
  rowspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSuite = `name: example
variables:
  greeting: hello
classes:
  - name: Base
    providers:
      - name: provideSmallSums
        rows:
          - [1, 1, 2]
          - [2, 3, 5]

  - name: Arithmetic
    extends: Base
    providers:
      - name: parametersForProduct
        rows:
          - [2, 3, 6]
          - [4, 5, 20]
    tests:
      # rows of every provide* provider in the hierarchy
      - name: sum
        command: test $(expr {{0}} + {{1}}) -eq {{2}}
        parameters: {}

      # a provider named explicitly
      - name: product
        command: test $(expr {{0}} \* {{1}}) -eq {{2}}
        parameters: {method: parametersForProduct}

      - name: positive
        command: test {{0}} -gt 0
        parameters: [1, 2, 3]

      - name: words
        description: every word in data/words.csv is non-empty
        command: test -n "{{0}}" && echo "{{greeting}} {{0}}"
        fileParameters:
          path: data/words.csv

      # exit status 75 marks a failed assumption, not a failure
      - name: onlyOnLinux
        command: '[ "$(uname)" = Linux ] || exit 75'
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".rowspec.yaml")
	exampleFile := filepath.Join(cwd, "example.rowspec.yaml")
	dataFile := filepath.Join(cwd, "data", "words.csv")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile, dataFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleSuite), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	if err := os.MkdirAll(filepath.Dir(dataFile), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dataFile, []byte("# one word per row\nalpha\nbeta\ngamma\n"), 0644); err != nil {
		return fmt.Errorf("failed to create parameter file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", dataFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nrowspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'rowspec run example.rowspec.yaml' to execute the example tests.\n")

	return nil
}

// Package cmd implements the rowspec CLI commands using Cobra.
//
// Available commands:
//   - run: Execute suite files, retrying failed rows
//   - validate: Check suite files without executing them
//   - list: Display the tests and parameter sources of suite files
//   - rows: Print the rows a parameter file produces
//   - history: Show recorded runs and flaky rows
//   - init: Create an example suite and configuration
//   - version: Show rowspec version information
//
// The run command supports filtering, several report formats, a SQLite run
// history, webhook notifications and watch mode for development workflows.
package cmd

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/output"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for rowspec.

Completion covers commands, flag values such as --output and --notify-on,
and suite files for run, validate and list.

  $ source <(rowspec completion bash)
  $ rowspec completion zsh > "${fpath[1]}/_rowspec"
  $ rowspec completion fish | source
  PS> rowspec completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{runCmd, validateCmd, listCmd} {
		c.ValidArgsFunction = completeSuiteFiles
	}
}

// completeSuiteFiles offers YAML files and directories
func completeSuiteFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

func fixedValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerRunCompletions is called once the run flags exist
func registerRunCompletions() {
	_ = runCmd.RegisterFlagCompletionFunc("output", fixedValues(output.Names...))
	_ = runCmd.RegisterFlagCompletionFunc("log-level", fixedValues("debug", "info", "warn", "error"))
	_ = runCmd.RegisterFlagCompletionFunc("notify", fixedValues("slack", "webhook"))
	_ = runCmd.RegisterFlagCompletionFunc("notify-on", fixedValues("always", "failure", "success", "recovery"))
	_ = rowsCmd.RegisterFlagCompletionFunc("mapper", fixedValues("csv", "csv:header", "csv:tab", "yaml", "json:", "sql"))
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rowspec version %s\n", version)
		fmt.Fprintf(out, "Built: %s (%s, %s/%s)\n", buildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Default retries: %d, assumption exit code: %d\n", config.DefaultRetryCount, config.DefaultAssumeExitCode)
	},
}

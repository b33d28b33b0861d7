package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
	"github.com/abdul-hamid-achik/rowspec/packages/metrics"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	metrics *metrics.Recorder
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if f.verbose {
		f.metrics = metrics.NewRecorder()
		f.metrics.ObserveRun(result)
	}

	class := ""
	for _, r := range result.Results {
		if r.Class != class {
			class = r.Class
			fmt.Fprintf(f.writer, "\n%s\n", bold(class))
		}

		switch r.Status {
		case runner.StatusIgnored:
			fmt.Fprintf(f.writer, "  %s %s %s\n", yellow("○"), r.Name, yellow("("+r.SkipReason+")"))
		case runner.StatusSkipped:
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if r.SkipReason != "" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
		case runner.StatusPassed:
			fmt.Fprintf(f.writer, "  %s %s %s", green("✓"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
			if r.Flaky() {
				fmt.Fprintf(f.writer, " %s", yellow(fmt.Sprintf("[passed on attempt %d]", r.Attempts)))
			}
			fmt.Fprintf(f.writer, "\n")
		default:
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
			if r.Attempts > 1 {
				fmt.Fprintf(f.writer, "    %s failed %d attempts\n", red("→"), r.Attempts)
			}
			if r.Error != nil {
				for _, line := range strings.Split(strings.TrimRight(r.Error.Error(), "\n"), "\n") {
					fmt.Fprintf(f.writer, "      %s\n", line)
				}
			}
		}

		if f.verbose && r.Row != nil {
			fmt.Fprintf(f.writer, "    Row: %s\n", formatRow(r.Row, 100))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	if result.Ignored > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d ignored", result.Ignored)))
	}
	if result.Retried > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d flaky", result.Retried)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total())
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())

	if f.metrics != nil {
		s := f.metrics.Summary()
		fmt.Fprintf(f.writer, "Latency: p50 %s, p95 %s, p99 %s\n", s.P50, s.P95, s.P99)
		fmt.Fprintf(f.writer, "Run:   %s\n", result.ID)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("rowspec"), version)
}

package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// Formatter renders run results
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that write once at the end
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Names lists the supported formats
var Names = []string{"console", "json", "junit", "tap", "html"}

// Options configure New
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under name
func New(name string, opts Options) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "console":
		consoleOpts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var o []JSONOption
		if opts.Writer != nil {
			o = append(o, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(o...), nil
	case "junit":
		var o []JUnitOption
		if opts.Writer != nil {
			o = append(o, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(o...), nil
	case "tap":
		var o []TAPOption
		if opts.Writer != nil {
			o = append(o, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(o...), nil
	case "html":
		var o []HTMLOption
		if opts.Writer != nil {
			o = append(o, HTMLWithWriter(opts.Writer))
		}
		return NewHTMLFormatter(o...), nil
	}
	return nil, fmt.Errorf("unknown output format %q (supported: %s)", name, strings.Join(Names, ", "))
}

// formatRow renders row values for display, truncating long output
func formatRow(row []any, maxLen int) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = formatValue(v, maxLen)
	}
	return strings.Join(parts, ", ")
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

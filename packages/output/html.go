package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// HTMLOutput represents the complete HTML output structure
type HTMLOutput struct {
	Version        string
	Summary        JSONSummary
	Tests          []HTMLTest
	Duration       float64
	Time           string
	PassedPercent  float64
	FailedPercent  float64
	SkippedPercent float64
}

// HTMLTest represents a single invocation for HTML output
type HTMLTest struct {
	Class       string
	Name        string
	Row         string
	Status      string
	Attempts    int
	Duration    float64
	Error       string
	SkipReason  string
	StatusClass string
}

// HTMLFormatter formats run results as HTML
type HTMLFormatter struct {
	writer  io.Writer
	results []HTMLTest
	version string
}

// HTMLOption is a functional option for HTMLFormatter
type HTMLOption func(*HTMLFormatter)

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter(opts ...HTMLOption) *HTMLFormatter {
	f := &HTMLFormatter{
		writer:  os.Stdout,
		results: make([]HTMLTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTMLWithWriter sets the output writer
func HTMLWithWriter(w io.Writer) HTMLOption {
	return func(f *HTMLFormatter) {
		f.writer = w
	}
}

// FormatResult accumulates a run result
func (f *HTMLFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		test := HTMLTest{
			Class:       r.Class,
			Name:        r.Name,
			Status:      string(r.Status),
			Attempts:    r.Attempts,
			Duration:    float64(r.Duration.Milliseconds()),
			Error:       errorText(r.Error),
			SkipReason:  r.SkipReason,
			StatusClass: string(r.Status),
		}
		if r.Row != nil {
			test.Row = formatRow(r.Row, 200)
		}
		if r.Flaky() {
			test.StatusClass = "flaky"
		}
		f.results = append(f.results, test)
	}
}

// FormatError handles errors (no-op for HTML, errors are in test results)
func (f *HTMLFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

// FormatHeader captures the version for the HTML report
func (f *HTMLFormatter) FormatHeader(version string) {
	f.version = version
}

// Flush writes the accumulated HTML output
func (f *HTMLFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, t := range f.results {
		summary.Total++
		switch runner.Status(t.Status) {
		case runner.StatusPassed:
			summary.Passed++
			if t.Attempts > 1 {
				summary.Flaky++
			}
		case runner.StatusFailed:
			summary.Failed++
		case runner.StatusSkipped:
			summary.Skipped++
		case runner.StatusIgnored:
			summary.Ignored++
		}
	}

	var passedPct, failedPct, skippedPct float64
	if summary.Total > 0 {
		total := float64(summary.Total)
		passedPct = float64(summary.Passed) / total * 100
		failedPct = float64(summary.Failed) / total * 100
		skippedPct = float64(summary.Skipped+summary.Ignored) / total * 100
	}

	output := HTMLOutput{
		Version:        f.version,
		Summary:        summary,
		Tests:          f.results,
		Duration:       float64(totalDuration.Milliseconds()),
		Time:           time.Now().Format("2006-01-02 15:04:05"),
		PassedPercent:  passedPct,
		FailedPercent:  failedPct,
		SkippedPercent: skippedPct,
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return tmpl.Execute(f.writer, output)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>rowspec report</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #222; }
.bar { display: flex; height: 10px; border-radius: 5px; overflow: hidden; background: #eee; }
.bar .passed { background: #2e7d32; } .bar .failed { background: #c62828; } .bar .skipped { background: #f9a825; }
table { border-collapse: collapse; width: 100%; margin-top: 1.5rem; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; vertical-align: top; }
tr.passed td.status { color: #2e7d32; } tr.failed td.status { color: #c62828; }
tr.skipped td.status, tr.ignored td.status, tr.flaky td.status { color: #f57f17; }
pre { margin: 0; white-space: pre-wrap; font-size: .85rem; }
</style>
</head>
<body>
<h1>rowspec {{.Version}}</h1>
<p>{{.Summary.Total}} total, {{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Skipped}} skipped, {{.Summary.Ignored}} ignored, {{.Summary.Flaky}} flaky in {{.Duration}}ms ({{.Time}})</p>
<div class="bar">
<div class="passed" style="width: {{printf "%.1f" .PassedPercent}}%"></div>
<div class="failed" style="width: {{printf "%.1f" .FailedPercent}}%"></div>
<div class="skipped" style="width: {{printf "%.1f" .SkippedPercent}}%"></div>
</div>
<table>
<tr><th>Class</th><th>Invocation</th><th>Status</th><th>Attempts</th><th>Time</th><th>Details</th></tr>
{{range .Tests}}<tr class="{{.StatusClass}}">
<td>{{.Class}}</td><td>{{.Name}}</td><td class="status">{{.Status}}</td><td>{{.Attempts}}</td><td>{{.Duration}}ms</td>
<td>{{if .Error}}<pre>{{.Error}}</pre>{{else if .SkipReason}}{{.SkipReason}}{{end}}</td>
</tr>
{{end}}</table>
</body>
</html>
`

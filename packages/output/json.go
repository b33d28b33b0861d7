package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
	"github.com/abdul-hamid-achik/rowspec/packages/metrics"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Runs     []string         `json:"runs"`
	Summary  JSONSummary      `json:"summary"`
	Tests    []JSONTest       `json:"tests"`
	Metrics  *metrics.Summary `json:"metrics,omitempty"`
	Duration float64          `json:"duration"`
	Time     string           `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Ignored int `json:"ignored"`
	Flaky   int `json:"flaky"`
}

// JSONTest represents a single invocation result
type JSONTest struct {
	Run        string  `json:"run"`
	Class      string  `json:"class"`
	Method     string  `json:"method"`
	Name       string  `json:"name"`
	Index      int     `json:"index"`
	Row        []any   `json:"row,omitempty"`
	Status     string  `json:"status"`
	Attempts   int     `json:"attempts"`
	Duration   float64 `json:"duration"`
	Error      string  `json:"error,omitempty"`
	SkipReason string  `json:"skipReason,omitempty"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runs    []string
	results []JSONTest
	metrics *metrics.Recorder
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
		metrics: metrics.NewRecorder(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.runs = append(f.runs, result.ID)
	f.metrics.ObserveRun(result)

	for _, r := range result.Results {
		f.results = append(f.results, JSONTest{
			Run:        result.ID,
			Class:      r.Class,
			Method:     r.Method,
			Name:       r.Name,
			Index:      r.Index,
			Row:        r.Row,
			Status:     string(r.Status),
			Attempts:   r.Attempts,
			Duration:   float64(r.Duration.Milliseconds()),
			Error:      errorText(r.Error),
			SkipReason: r.SkipReason,
		})
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
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

	output := JSONOutput{
		Runs:     f.runs,
		Summary:  summary,
		Tests:    f.results,
		Metrics:  f.metrics.Summary(),
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		ID:       "run-1",
		Started:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration: 50 * time.Millisecond,
		Passed:   2,
		Failed:   2,
		Skipped:  1,
		Ignored:  1,
		Retried:  1,
		Results: []*runner.InvocationResult{
			{Class: "Calc", Method: "add", Name: "[0] 1, 2 (add)", Row: params.Row{1, 2}, Status: runner.StatusPassed, Attempts: 1, Duration: 3 * time.Millisecond},
			{Class: "Calc", Method: "add", Name: "[1] 3, 4 (add)", Index: 1, Row: params.Row{3, 4}, Status: runner.StatusPassed, Attempts: 2, Duration: 5 * time.Millisecond},
			{Class: "Calc", Method: "div", Name: "[0] 1, 0 (div)", Row: params.Row{1, 0}, Status: runner.StatusFailed, Attempts: 3, Error: errors.New("division by zero")},
			{Class: "Calc", Method: "sub", Name: "[0] x (sub)", Row: params.Row{"x"}, Status: runner.StatusSkipped, Attempts: 1, SkipReason: "assumption failed: no x"},
			{Class: "Other", Method: "mul", Name: "mul", Status: runner.StatusIgnored, SkipReason: "method gets empty list of parameters, ignoring"},
			{Class: "Other", Method: "bad", Name: "bad", Status: runner.StatusFailed, Error: errors.New("provider not found")},
		},
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		f, err := New(name, Options{Writer: &bytes.Buffer{}})
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := New("xml", Options{})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Calc\n")
	assert.Contains(t, out, "✓ [0] 1, 2 (add)")
	assert.Contains(t, out, "[passed on attempt 2]")
	assert.Contains(t, out, "✗ [0] 1, 0 (div)")
	assert.Contains(t, out, "failed 3 attempts")
	assert.Contains(t, out, "division by zero")
	assert.Contains(t, out, "- [0] x (sub) (assumption failed: no x)")
	assert.Contains(t, out, "○ mul")
	assert.Contains(t, out, "Row: 1, 2")
	assert.Contains(t, out, "6 total")
	assert.Contains(t, out, "1 flaky")
	assert.Contains(t, out, "Run:   run-1")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, []string{"run-1"}, out.Runs)
	assert.Equal(t, JSONSummary{Total: 6, Passed: 2, Failed: 2, Skipped: 1, Ignored: 1, Flaky: 1}, out.Summary)
	require.Len(t, out.Tests, 6)
	assert.Equal(t, "division by zero", out.Tests[2].Error)
	assert.Equal(t, 3, out.Tests[2].Attempts)
	assert.Equal(t, []any{float64(1), float64(2)}, out.Tests[0].Row)
	require.NotNil(t, out.Metrics)
	assert.Equal(t, int64(6), out.Metrics.Total)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))

	var out JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, 6, out.Tests)
	assert.Equal(t, 1, out.Failures)
	assert.Equal(t, 1, out.Errors)
	assert.Equal(t, 2, out.Skipped)
	require.Len(t, out.TestSuites, 2)

	calc := out.TestSuites[0]
	assert.Equal(t, "Calc", calc.Name)
	assert.Equal(t, 4, calc.Tests)
	assert.Equal(t, "run-1", calc.Properties[0].Value)
	require.NotNil(t, calc.TestCases[2].Failure)
	assert.Equal(t, "division by zero", calc.TestCases[2].Failure.Content)
	assert.Equal(t, "passed on attempt 2", calc.TestCases[1].SystemOut)

	other := out.TestSuites[1]
	require.NotNil(t, other.TestCases[1].Error)
	assert.Equal(t, "provider not found", other.TestCases[1].Error.Message)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "TAP version 13", lines[0])
	assert.Equal(t, "1..6", lines[1])
	assert.Equal(t, "ok 1 - Calc [0] 1, 2 (add)", lines[2])

	out := buf.String()
	assert.Contains(t, out, "# passed on attempt 2")
	assert.Contains(t, out, "not ok 3 - Calc [0] 1, 0 (div)")
	assert.Contains(t, out, "  attempts: 3")
	assert.Contains(t, out, "ok 4 - Calc [0] x (sub) # SKIP assumption failed: no x")
	assert.Contains(t, out, "ok 5 - Other mul # SKIP method gets empty list of parameters, ignoring")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewHTMLFormatter(HTMLWithWriter(&buf))
	f.FormatHeader("v1.0.0")
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, "<h1>rowspec v1.0.0</h1>")
	assert.Contains(t, out, `<tr class="flaky">`)
	assert.Contains(t, out, "division by zero")
	assert.Contains(t, out, "6 total, 2 passed, 2 failed")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: \"b\"\nc"`, escapeYAML("a: \"b\"\nc"))
}

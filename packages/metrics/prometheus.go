package metrics

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WritePrometheus writes s in the Prometheus text exposition format
func WritePrometheus(w io.Writer, s *Summary) error {
	now := time.Now().UnixMilli()
	var b strings.Builder

	counter := func(name, help string, value int64) {
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", name)
		fmt.Fprintf(&b, "%s %d %d\n\n", name, value, now)
	}
	counter("rowspec_invocations_total", "Total number of reported invocations", s.Total)
	counter("rowspec_invocations_passed_total", "Invocations that passed", s.Passed)
	counter("rowspec_invocations_failed_total", "Invocations that failed after every retry", s.Failed)
	counter("rowspec_invocations_skipped_total", "Invocations skipped by an assumption", s.Skipped)
	counter("rowspec_methods_ignored_total", "Methods ignored explicitly or for lack of rows", s.Ignored)
	counter("rowspec_invocations_retried_total", "Invocations that passed after a retry", s.Retried)
	counter("rowspec_attempts_total", "Test body executions including retries", s.Attempts)

	fmt.Fprintf(&b, "# HELP rowspec_invocation_duration_ms Invocation duration in milliseconds\n")
	fmt.Fprintf(&b, "# TYPE rowspec_invocation_duration_ms gauge\n")
	writeQuantiles(&b, "", s.Latency, now)
	fmt.Fprintln(&b)

	if len(s.Methods) > 0 {
		fmt.Fprintf(&b, "# HELP rowspec_method_invocations_total Invocations per test method\n")
		fmt.Fprintf(&b, "# TYPE rowspec_method_invocations_total counter\n")
		for _, m := range s.Methods {
			fmt.Fprintf(&b, "rowspec_method_invocations_total{method=\"%s\"} %d %d\n", sanitizeLabel(m.Name), m.Total, now)
		}
		fmt.Fprintln(&b)

		fmt.Fprintf(&b, "# HELP rowspec_method_duration_ms Invocation duration per test method\n")
		fmt.Fprintf(&b, "# TYPE rowspec_method_duration_ms gauge\n")
		for _, m := range s.Methods {
			writeQuantiles(&b, sanitizeLabel(m.Name), m.Latency, now)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeQuantiles(b *strings.Builder, method string, l Latency, now int64) {
	name := "rowspec_invocation_duration_ms"
	label := ""
	if method != "" {
		name = "rowspec_method_duration_ms"
		label = fmt.Sprintf("method=\"%s\",", method)
	}
	for _, q := range []struct {
		quantile string
		value    time.Duration
	}{
		{"min", l.Min},
		{"0.50", l.P50},
		{"0.95", l.P95},
		{"0.99", l.P99},
		{"max", l.Max},
		{"avg", l.Mean},
	} {
		fmt.Fprintf(b, "%s{%squantile=\"%s\"} %.2f %d\n", name, label, q.quantile, ms(q.value), now)
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

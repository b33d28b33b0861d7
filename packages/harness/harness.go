// Package harness runs rowspec suites from go test. Every reported node
// becomes a subtest nested under its class and method.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/logging"
	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// TB is the part of *testing.T the harness reports through
type TB interface {
	Helper()
	Log(args ...any)
	Error(args ...any)
	Skip(args ...any)
	Run(name string, fn func(TB)) bool
}

type testingT struct {
	*testing.T
}

func (t testingT) Run(name string, fn func(TB)) bool {
	return t.T.Run(name, func(sub *testing.T) { fn(testingT{sub}) })
}

type options struct {
	cfg     *config.Config
	runOpts []runner.Option
	ctx     context.Context
}

type Option func(*options)

// WithConfig replaces the configuration read from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithRunnerOptions passes options through to the runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(o *options) { o.runOpts = append(o.runOpts, opts...) }
}

func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Run executes suites and reports each invocation as a subtest of t. Without
// WithConfig the retry count and overrides come from the process environment.
func Run(t *testing.T, suites []*runner.Suite, opts ...Option) *runner.RunResult {
	t.Helper()

	o := &options{ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig().ApplyEnv(config.OSLookup)
	}

	logger := logging.New(logging.Options{
		Writer:  logWriter{t},
		Level:   slog.LevelWarn,
		NoColor: true,
	})
	runOpts := append([]runner.Option{runner.WithLogger(logger)}, o.runOpts...)

	result := runner.NewRunner(o.cfg, runOpts...).Run(o.ctx, suites...)
	Report(testingT{t}, result)
	return result
}

// Report replays a finished run as nested subtests: class, method, then one
// subtest per row. Plain tests and methods that never ran report on the
// method subtest itself.
func Report(t TB, result *runner.RunResult) {
	t.Helper()

	for _, class := range groupBy(result.Results, func(r *runner.InvocationResult) string { return r.Class }) {
		t.Run(subtestName(class.key, "default"), func(t TB) {
			for _, method := range groupBy(class.results, func(r *runner.InvocationResult) string { return r.Method }) {
				t.Run(method.key, func(t TB) {
					for _, res := range method.results {
						if res.Name == res.Method {
							report(t, res)
							continue
						}
						t.Run(res.Name, func(t TB) { report(t, res) })
					}
				})
			}
		})
	}
}

func report(t TB, res *runner.InvocationResult) {
	t.Helper()

	switch res.Status {
	case runner.StatusPassed:
		if res.Flaky() {
			t.Log(fmt.Sprintf("passed on attempt %d", res.Attempts))
		}
	case runner.StatusSkipped:
		t.Skip(res.SkipReason)
	case runner.StatusIgnored:
		t.Log(res.SkipReason)
	case runner.StatusFailed:
		if res.Attempts > 1 {
			t.Error(fmt.Sprintf("failed %d attempts: %v", res.Attempts, res.Error))
			return
		}
		t.Error(res.Error)
	}
}

type group struct {
	key     string
	results []*runner.InvocationResult
}

// groupBy groups results by key, keeping first-seen order.
func groupBy(results []*runner.InvocationResult, key func(*runner.InvocationResult) string) []*group {
	var groups []*group
	index := make(map[string]*group)
	for _, r := range results {
		k := key(r)
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.results = append(g.results, r)
	}
	return groups
}

func subtestName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// logWriter sends log lines to the test log.
type logWriter struct {
	t testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

package runner

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

const emptyParametersWarning = "method gets empty list of parameters, ignoring"

// Status is the reported state of one invocation.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusIgnored Status = "ignored"
)

// Test is one declared test body on a class. Err holds a declaration error
// that prevented the method from being built.
type Test struct {
	Name   string
	Method *params.Method
	Body   Body
	Err    error
}

// Suite groups the tests declared on one class.
type Suite struct {
	Class  *params.Class
	Tests  []Test
	Before []Hook
	After  []Hook
}

func NewSuite(class *params.Class) *Suite {
	return &Suite{Class: class}
}

// Add declares a test. A malformed declaration is kept and reported as the
// test's failure when the suite runs.
func (s *Suite) Add(name string, body Body, opts ...params.MethodOption) *Suite {
	m, err := params.NewMethod(s.Class, name, opts...)
	s.Tests = append(s.Tests, Test{Name: name, Method: m, Body: body, Err: err})
	return s
}

func (s *Suite) className() string {
	if s.Class == nil {
		return ""
	}
	return s.Class.Name
}

type Runner struct {
	cfg          *config.Config
	resolver     *params.Resolver
	coordinator  *Coordinator
	notifier     *MultiNotifier
	logger       *slog.Logger
	interceptors []Interceptor
	mappers      *params.MapperRegistry
	resources    fs.FS
	nameFilter   string
	bail         bool
}

type Option func(*Runner)

// WithNotifier adds an event sink.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier.Add(n) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMappers sets the registry used for file parameters.
func WithMappers(reg *params.MapperRegistry) Option {
	return func(r *Runner) { r.mappers = reg }
}

// WithResources sets the filesystem behind classpath: references.
func WithResources(fsys fs.FS) Option {
	return func(r *Runner) { r.resources = fsys }
}

// WithInterceptors wraps every invocation; the first is outermost.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(r *Runner) { r.interceptors = append(r.interceptors, interceptors...) }
}

// WithNameFilter runs only tests whose name matches pattern. A leading or
// trailing * matches any suffix or prefix.
func WithNameFilter(pattern string) Option {
	return func(r *Runner) { r.nameFilter = pattern }
}

// WithBail stops a run after the first failed test.
func WithBail(bail bool) Option {
	return func(r *Runner) { r.bail = bail }
}

func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Runner{
		cfg:      cfg,
		notifier: NewMultiNotifier(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.resolver = params.NewResolver(params.ResolverOptions{
		Override:  cfg.Parameters,
		Resources: r.resources,
		Mappers:   r.mappers,
		Logger:    r.logger,
	})
	r.coordinator = NewCoordinator(cfg, r.notifier, r.logger)
	return r
}

// Resolver exposes the resolver shared by every suite of this runner.
func (r *Runner) Resolver() *params.Resolver { return r.resolver }

// Coordinator exposes the retrying coordinator.
func (r *Runner) Coordinator() *Coordinator { return r.coordinator }

type RunResult struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Results  []*InvocationResult
	Passed   int
	Failed   int
	Skipped  int
	Ignored  int
	Retried  int
}

// InvocationResult is one reported node: a row, a plain test, or a method
// that failed or was ignored before running.
type InvocationResult struct {
	Class      string
	Method     string
	Name       string
	Index      int
	Row        params.Row
	Status     Status
	Attempts   int
	Duration   time.Duration
	Error      error
	SkipReason string
}

// Flaky reports whether the invocation passed after at least one retry.
func (r *InvocationResult) Flaky() bool {
	return r.Status == StatusPassed && r.Attempts > 1
}

func newRunResult() *RunResult {
	return &RunResult{ID: uuid.NewString(), Started: time.Now()}
}

func (rr *RunResult) add(res *InvocationResult) {
	rr.Results = append(rr.Results, res)
	switch res.Status {
	case StatusPassed:
		rr.Passed++
		if res.Flaky() {
			rr.Retried++
		}
	case StatusFailed:
		rr.Failed++
	case StatusSkipped:
		rr.Skipped++
	case StatusIgnored:
		rr.Ignored++
	}
}

// Total is the number of reported nodes.
func (rr *RunResult) Total() int { return len(rr.Results) }

// Run executes suites in order and collects one result per reported node.
func (r *Runner) Run(ctx context.Context, suites ...*Suite) *RunResult {
	result := newRunResult()
	for _, suite := range suites {
		if !r.runSuite(ctx, suite, result) {
			break
		}
	}
	result.Duration = time.Since(result.Started)
	return result
}

// RunSuite executes a single suite.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) *RunResult {
	return r.Run(ctx, suite)
}

// runSuite returns false when the run should stop.
func (r *Runner) runSuite(ctx context.Context, suite *Suite, result *RunResult) bool {
	class := suite.className()

	if err := runHooks(ctx, suite.Before); err != nil {
		r.logger.Error("suite setup failed", "class", class, "error", err)
		for _, t := range suite.Tests {
			if r.selected(t) {
				r.failMethod(class, t.Name, err, result)
			}
		}
		r.runAfterHooks(ctx, suite, class)
		return !r.bail
	}

	for _, t := range suite.Tests {
		if !r.selected(t) {
			continue
		}
		if failed := r.runTest(ctx, class, t, result); failed && r.bail {
			r.runAfterHooks(ctx, suite, class)
			return false
		}
	}

	r.runAfterHooks(ctx, suite, class)
	return true
}

func (r *Runner) runAfterHooks(ctx context.Context, suite *Suite, class string) {
	if err := runHooks(ctx, suite.After); err != nil {
		r.logger.Warn("suite teardown failed", "class", class, "error", err)
	}
}

func (r *Runner) selected(t Test) bool {
	return r.nameFilter == "" || matchesPattern(t.Name, r.nameFilter)
}

// runTest runs every row of one test and reports whether any failed.
func (r *Runner) runTest(ctx context.Context, class string, t Test, result *RunResult) bool {
	if t.Err != nil {
		r.failMethod(class, t.Name, t.Err, result)
		return true
	}

	m := t.Method
	mr := NewMethodRunner(class, m, r.resolver, r.cfg.GetFlat())

	if m.Ignored {
		r.ignore(class, m, "ignored", result)
		return false
	}

	desc, err := mr.Describe()
	if err != nil {
		r.failMethod(class, m.Name, err, result)
		return true
	}
	if m.IsParameterised() && len(mr.Rows()) == 0 {
		r.logger.Warn(emptyParametersWarning, "class", class, "method", m.Name)
		r.ignore(class, m, emptyParametersWarning, result)
		return false
	}

	failed := false
	for mr.ShouldRun() {
		inv := mr.NextInvoker(t.Body)
		layers := append([]Interceptor{}, r.interceptors...)
		layers = append(layers, Trace(r.logger, m.Name), Recover)
		out := r.coordinator.Run(ctx, Chain(inv, layers...), desc)

		res := &InvocationResult{
			Class:    class,
			Method:   m.Name,
			Name:     out.Node.Name,
			Index:    out.Index,
			Row:      out.Row,
			Attempts: out.Attempts,
			Duration: out.Duration,
			Error:    out.Err,
		}
		if desc == out.Node && m.IsParameterised() {
			res.Name = params.DisplayName(out.Row, out.Index, m.Name)
		}
		switch out.Kind {
		case Passed:
			res.Status = StatusPassed
		case FailedAssumption:
			res.Status = StatusSkipped
			res.SkipReason = out.Err.Error()
		default:
			res.Status = StatusFailed
			failed = true
		}
		result.add(res)
	}
	return failed
}

// failMethod reports err as the sole failure of a method that could not run.
func (r *Runner) failMethod(class, method string, err error, result *RunResult) {
	node := &Description{Name: method, Class: class, Method: method}
	r.notifier.Begin(node)
	r.notifier.ReportFailure(node, err)
	r.notifier.End(node)
	result.add(&InvocationResult{Class: class, Method: method, Name: method, Status: StatusFailed, Error: err})
}

func (r *Runner) ignore(class string, m *params.Method, reason string, result *RunResult) {
	node := &Description{Name: m.Name, Class: class, Method: m.Name}
	r.notifier.Ignored(node, reason)
	result.add(&InvocationResult{Class: class, Method: m.Name, Name: m.Name, Status: StatusIgnored, SkipReason: reason})
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' && len(pattern) > 1 {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}

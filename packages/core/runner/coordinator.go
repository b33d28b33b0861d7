package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// OutcomeKind is the terminal state of one invocation.
type OutcomeKind int

const (
	Passed OutcomeKind = iota
	FailedAssumption
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Passed:
		return "passed"
	case FailedAssumption:
		return "assumption failed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome describes how an invocation finished. Err is the last error seen.
type Outcome struct {
	Kind     OutcomeKind
	Err      error
	Attempts int
	Duration time.Duration
	Node     *Description
	Index    int
	Row      params.Row
}

// Coordinator runs one invocation chain with bounded retries and reports its
// lifecycle to a Notifier. The retry policy is resolved once at construction.
type Coordinator struct {
	policy   config.RetryPolicy
	notifier Notifier
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// NewCoordinator resolves the retry policy from cfg.
func NewCoordinator(cfg *config.Config, notifier Notifier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	c := &Coordinator{
		policy:   config.ResolveRetryPolicy(cfg, logger),
		notifier: notifier,
		logger:   logger,
	}
	if c.policy.Delay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(c.policy.Delay), 1)
		c.limiter.Allow()
	}
	return c
}

// Policy returns the resolved retry policy.
func (c *Coordinator) Policy() config.RetryPolicy {
	return c.policy
}

// Run evaluates head and retries non-assumption failures up to the policy
// count. The reporting node is the child of method whose name starts with the
// owning invoker's identity, or method itself when it has no children. End is
// always emitted once Begin was.
func (c *Coordinator) Run(ctx context.Context, head Statement, method *Description) (out Outcome) {
	start := time.Now()
	node := method

	inv, err := FindOwningInvoker(head)
	if err == nil {
		out.Index, out.Row = inv.Index(), inv.Row()
		if method.IsSuite() {
			if node = method.ChildFor(inv.Identity()); node == nil {
				node = method
				err = fmt.Errorf("%w: %s", ErrNoReportingNode, inv.Identity())
			}
		}
	}
	out.Node = node

	c.notifier.Begin(node)
	defer func() {
		out.Duration = time.Since(start)
		c.notifier.End(node)
	}()

	if err != nil {
		c.notifier.ReportFailure(node, err)
		out.Kind, out.Err = Failed, err
		return out
	}

	attempts := c.policy.Attempts()
	for attempt := 1; ; attempt++ {
		out.Attempts = attempt
		err := c.evaluate(ctx, head)
		switch {
		case err == nil:
			out.Kind, out.Err = Passed, nil
			return out
		case IsAssumption(err):
			c.notifier.ReportAssumptionFailure(node, err)
			out.Kind, out.Err = FailedAssumption, err
			return out
		case errors.Is(err, ErrIncompatibleHostRuntime), attempt >= attempts:
			c.notifier.ReportFailure(node, err)
			out.Kind, out.Err = Failed, err
			return out
		}

		c.logger.Debug("retrying failed invocation", "test", node.Name, "attempt", attempt, "of", attempts, "error", err)
		c.pace(ctx)
	}
}

// evaluate runs head once. A panic escaping the chain becomes an error so
// classification and End still happen.
func (c *Coordinator) evaluate(ctx context.Context, head Statement) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return head.Evaluate(ctx)
}

// pace blocks until the limiter admits the next retry. Cancellation of ctx
// does not cut a retry budget short.
func (c *Coordinator) pace(ctx context.Context) {
	if c.limiter == nil {
		return
	}
	if err := c.limiter.Wait(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("retry pacing failed", "error", err)
	}
}

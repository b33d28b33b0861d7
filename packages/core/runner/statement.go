package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// ErrIncompatibleHostRuntime means an invocation chain carries no
// parameterized invoker. It is never retried.
var ErrIncompatibleHostRuntime = errors.New("cannot find invoker for the parameterized method in the invocation chain")

// ErrNoReportingNode means no reporting node matches the identity of a row.
var ErrNoReportingNode = errors.New("no reporting node for parameter row")

// Body is a test body run once per row.
type Body func(ctx context.Context, row params.Row) error

// Statement is one layer of an invocation.
type Statement interface {
	Evaluate(ctx context.Context) error
}

// Wrapper is a Statement that decorates another one. Unwrap exposes the inner
// layer so the chain can be walked.
type Wrapper interface {
	Statement
	Unwrap() Statement
}

// StatementFunc adapts a function to Statement.
type StatementFunc func(ctx context.Context) error

func (f StatementFunc) Evaluate(ctx context.Context) error { return f(ctx) }

// Interceptor wraps a statement with another layer.
type Interceptor func(next Statement) Statement

// ParameterizedInvoker calls a body with one row. Its identity is the rendered
// row and is fixed at construction.
type ParameterizedInvoker struct {
	method   string
	row      params.Row
	index    int
	identity string
	body     Body
}

func NewParameterizedInvoker(method string, row params.Row, index int, body Body) *ParameterizedInvoker {
	return &ParameterizedInvoker{
		method:   method,
		row:      row,
		index:    index,
		identity: params.Stringify(row, index),
		body:     body,
	}
}

// Identity is the rendered row, the prefix of its reporting node name.
func (p *ParameterizedInvoker) Identity() string { return p.identity }

func (p *ParameterizedInvoker) Index() int { return p.index }

func (p *ParameterizedInvoker) Row() params.Row { return p.row.Clone() }

func (p *ParameterizedInvoker) Evaluate(ctx context.Context) error {
	return p.body(ctx, p.row.Clone())
}

// FindOwningInvoker walks the chain from head through Unwrap until it reaches
// the parameterized invoker.
func FindOwningInvoker(head Statement) (*ParameterizedInvoker, error) {
	for cur := head; cur != nil; {
		if inv, ok := cur.(*ParameterizedInvoker); ok {
			return inv, nil
		}
		w, ok := cur.(Wrapper)
		if !ok {
			break
		}
		cur = w.Unwrap()
	}
	return nil, ErrIncompatibleHostRuntime
}

// Chain applies interceptors around inner; the first interceptor is outermost.
func Chain(inner Statement, interceptors ...Interceptor) Statement {
	head := inner
	for i := len(interceptors) - 1; i >= 0; i-- {
		head = interceptors[i](head)
	}
	return head
}

// recoverLayer converts a panicking body into an error.
type recoverLayer struct {
	next Statement
}

// Recover is an interceptor turning panics into failures.
func Recover(next Statement) Statement {
	return &recoverLayer{next: next}
}

func (r *recoverLayer) Unwrap() Statement { return r.next }

func (r *recoverLayer) Evaluate(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w\n%s", e, debug.Stack())
				return
			}
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return r.next.Evaluate(ctx)
}

// traceLayer logs each evaluation at debug level.
type traceLayer struct {
	next   Statement
	logger *slog.Logger
	name   string
}

// Trace returns an interceptor logging every attempt of name.
func Trace(logger *slog.Logger, name string) Interceptor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next Statement) Statement {
		return &traceLayer{next: next, logger: logger, name: name}
	}
}

func (t *traceLayer) Unwrap() Statement { return t.next }

func (t *traceLayer) Evaluate(ctx context.Context) error {
	start := time.Now()
	err := t.next.Evaluate(ctx)
	t.logger.Debug("attempt finished", "test", t.name, "duration", time.Since(start), "error", err)
	return err
}

// timeoutLayer bounds a single attempt.
type timeoutLayer struct {
	next    Statement
	timeout time.Duration
}

// Timeout returns an interceptor that cancels the context of an attempt after d.
func Timeout(d time.Duration) Interceptor {
	return func(next Statement) Statement {
		return &timeoutLayer{next: next, timeout: d}
	}
}

func (t *timeoutLayer) Unwrap() Statement { return t.next }

func (t *timeoutLayer) Evaluate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Evaluate(ctx)
}

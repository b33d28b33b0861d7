package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// failing returns a body that fails the first n calls with distinct errors.
func failing(n int) (Body, *int) {
	calls := 0
	return func(ctx context.Context, row params.Row) error {
		calls++
		if calls <= n {
			return fmt.Errorf("attempt %d failed", calls)
		}
		return nil
	}, &calls
}

func rowNode(row params.Row) *Description {
	return &Description{
		Name:     "add",
		Children: []*Description{{Name: params.DisplayName(row, 0, "add")}},
	}
}

func newTestCoordinator(retry string) (*Coordinator, *Recorder) {
	rec := NewRecorder()
	return NewCoordinator(&config.Config{Retry: retry}, rec, nil), rec
}

func TestCoordinator_Retry(t *testing.T) {
	row := params.Row{1, 2}

	t.Run("passes after two failures with no visible failure", func(t *testing.T) {
		c, rec := newTestCoordinator("2")
		body, calls := failing(2)

		out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

		assert.Equal(t, Passed, out.Kind)
		assert.NoError(t, out.Err)
		assert.Equal(t, 3, out.Attempts)
		assert.Equal(t, 3, *calls)
		assert.Zero(t, rec.Count(EventFailure))
		assert.Equal(t, 1, rec.Count(EventBegin))
		assert.Equal(t, 1, rec.Count(EventEnd))
	})

	t.Run("reports the last error once when every attempt fails", func(t *testing.T) {
		c, rec := newTestCoordinator("2")
		body, calls := failing(10)

		out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

		assert.Equal(t, Failed, out.Kind)
		assert.Equal(t, 3, *calls)
		assert.EqualError(t, out.Err, "attempt 3 failed")

		require.Equal(t, 1, rec.Count(EventFailure))
		events := rec.Events()
		require.Len(t, events, 3)
		assert.Equal(t, EventBegin, events[0].Type)
		assert.Equal(t, EventFailure, events[1].Type)
		assert.EqualError(t, events[1].Err, "attempt 3 failed")
		assert.Equal(t, EventEnd, events[2].Type)
		assert.Equal(t, "[0] 1, 2 (add)", events[1].Node)
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		c, _ := newTestCoordinator("0")
		body, calls := failing(1)

		out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

		assert.Equal(t, Failed, out.Kind)
		assert.Equal(t, 1, *calls)
	})
}

func TestCoordinator_Assumption(t *testing.T) {
	c, rec := newTestCoordinator("5")
	row := params.Row{"x"}
	calls := 0
	body := func(ctx context.Context, r params.Row) error {
		calls++
		return Assume(false, "service %s unavailable", "db")
	}

	out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

	assert.Equal(t, FailedAssumption, out.Kind)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, IsAssumption(out.Err))
	assert.Equal(t, 1, rec.Count(EventAssumption))
	assert.Zero(t, rec.Count(EventFailure))
	assert.Equal(t, 1, rec.Count(EventEnd))
}

func TestCoordinator_AssumptionDuringRetryIsTerminal(t *testing.T) {
	c, rec := newTestCoordinator("3")
	row := params.Row{"x"}
	calls := 0
	body := func(ctx context.Context, r params.Row) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return &AssumptionError{Reason: "gone"}
	}

	out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

	assert.Equal(t, FailedAssumption, out.Kind)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, rec.Count(EventAssumption))
	assert.Zero(t, rec.Count(EventFailure))
}

func TestCoordinator_PanicStillEnds(t *testing.T) {
	c, rec := newTestCoordinator("1")
	row := params.Row{"x"}
	body := func(ctx context.Context, r params.Row) error {
		panic("kaboom")
	}

	out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

	assert.Equal(t, Failed, out.Kind)
	assert.Equal(t, 2, out.Attempts)
	assert.Contains(t, out.Err.Error(), "kaboom")
	assert.Equal(t, []EventType{EventBegin, EventFailure, EventEnd}, eventTypes(rec))
}

func TestCoordinator_IncompatibleChain(t *testing.T) {
	c, rec := newTestCoordinator("2")
	calls := 0
	head := StatementFunc(func(ctx context.Context) error {
		calls++
		return nil
	})

	out := c.Run(context.Background(), head, &Description{Name: "add"})

	assert.Equal(t, Failed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrIncompatibleHostRuntime)
	assert.Zero(t, calls)
	assert.Equal(t, []EventType{EventBegin, EventFailure, EventEnd}, eventTypes(rec))
}

func TestCoordinator_NoReportingNode(t *testing.T) {
	c, rec := newTestCoordinator("2")
	body, calls := failing(0)
	node := &Description{Name: "add", Children: []*Description{{Name: "[0] other (add)"}}}

	out := c.Run(context.Background(), NewParameterizedInvoker("add", params.Row{"x"}, 0, body), node)

	assert.Equal(t, Failed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrNoReportingNode)
	assert.Zero(t, *calls)
	assert.Same(t, node, out.Node)
	assert.Equal(t, 1, rec.Count(EventEnd))
}

func TestCoordinator_LeafNode(t *testing.T) {
	c, rec := newTestCoordinator("0")
	body, _ := failing(0)
	node := &Description{Name: "plain"}

	out := c.Run(context.Background(), NewParameterizedInvoker("plain", nil, 0, body), node)

	assert.Equal(t, Passed, out.Kind)
	assert.Same(t, node, out.Node)
	assert.Equal(t, []EventType{EventBegin, EventEnd}, eventTypes(rec))
}

func TestCoordinator_RetryDelay(t *testing.T) {
	c := NewCoordinator(&config.Config{Retry: "2", RetryDelay: 20}, nil, nil)
	assert.Equal(t, 20*time.Millisecond, c.Policy().Delay)

	body, _ := failing(2)
	row := params.Row{"x"}
	start := time.Now()
	out := c.Run(context.Background(), NewParameterizedInvoker("add", row, 0, body), rowNode(row))

	assert.Equal(t, Passed, out.Kind)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestCoordinator_CancelledContextKeepsRetrying(t *testing.T) {
	c := NewCoordinator(&config.Config{Retry: "2", RetryDelay: 5}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, calls := failing(2)
	row := params.Row{"x"}
	out := c.Run(ctx, NewParameterizedInvoker("add", row, 0, body), rowNode(row))

	assert.Equal(t, Passed, out.Kind)
	assert.Equal(t, 3, *calls)
}

func eventTypes(rec *Recorder) []EventType {
	var types []EventType
	for _, e := range rec.Events() {
		types = append(types, e.Type)
	}
	return types
}

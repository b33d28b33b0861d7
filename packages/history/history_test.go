package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

func run(id string, started time.Time, results ...*runner.InvocationResult) *runner.RunResult {
	rr := &runner.RunResult{ID: id, Started: started, Duration: time.Second, Results: results}
	for _, r := range results {
		switch r.Status {
		case runner.StatusPassed:
			rr.Passed++
		case runner.StatusFailed:
			rr.Failed++
		}
	}
	return rr
}

func inv(name string, status runner.Status, attempts int) *runner.InvocationResult {
	r := &runner.InvocationResult{Class: "Calc", Method: "add", Name: name, Status: status, Attempts: attempts}
	if status == runner.StatusFailed {
		r.Error = errors.New("boom")
	}
	return r
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, run("r1", base,
		inv("[0] 1 (add)", runner.StatusPassed, 1),
		inv("[1] 2 (add)", runner.StatusPassed, 3),
		inv("[2] 3 (add)", runner.StatusFailed, 3),
	)))
	require.NoError(t, store.Record(ctx, run("r2", base.Add(time.Hour),
		inv("[0] 1 (add)", runner.StatusPassed, 1),
		inv("[1] 2 (add)", runner.StatusPassed, 1),
		inv("[2] 3 (add)", runner.StatusPassed, 1),
	)))

	t.Run("recent runs newest first", func(t *testing.T) {
		runs, err := store.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "r2", runs[0].ID)
		assert.Equal(t, 3, runs[0].Passed)
		assert.Equal(t, 1, runs[1].Failed)
		assert.True(t, runs[1].Started.Equal(base))
		assert.Equal(t, time.Second, runs[1].Duration)
	})

	t.Run("flaky rows", func(t *testing.T) {
		flaky, err := store.Flaky(ctx, 10)
		require.NoError(t, err)
		require.Len(t, flaky, 2)

		names := []string{flaky[0].Name, flaky[1].Name}
		assert.ElementsMatch(t, []string{"[1] 2 (add)", "[2] 3 (add)"}, names)
		for _, f := range flaky {
			assert.Equal(t, 2, f.Runs)
		}
	})

	t.Run("duplicate run id", func(t *testing.T) {
		err := store.Record(ctx, run("r1", base))
		assert.Error(t, err)
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		again, err := Open(ctx, path)
		require.NoError(t, err)
		defer again.Close()

		runs, err := again.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "r2", runs[0].ID)
	})
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

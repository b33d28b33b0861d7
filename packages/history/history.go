// Package history persists run results in SQLite and reports flaky rows.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
	"github.com/abdul-hamid-achik/rowspec/packages/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started     TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	ignored     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS invocations (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	class       TEXT NOT NULL,
	method      TEXT NOT NULL,
	name        TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	status      TEXT NOT NULL,
	attempts    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS invocations_name ON invocations(class, name);
`

// Store records runs in a SQLite database
type Store struct {
	client *db.Client
}

// Open creates or opens the history database at path. A path of
// ":memory:" keeps the history for the lifetime of the Store only.
func Open(ctx context.Context, path string) (*Store, error) {
	conn := path
	if !strings.HasPrefix(conn, "sqlite:") {
		conn = "sqlite:" + path
	}
	client, err := db.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	if _, err := client.RunScript(ctx, schema); err != nil {
		client.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Record stores a run and every one of its invocations
func (s *Store) Record(ctx context.Context, result *runner.RunResult) error {
	_, err := s.client.Exec(ctx,
		`INSERT INTO runs (id, started, duration_ms, passed, failed, skipped, ignored) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.Started.UTC().Format(time.RFC3339Nano), result.Duration.Milliseconds(),
		result.Passed, result.Failed, result.Skipped, result.Ignored)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", result.ID, err)
	}

	for _, r := range result.Results {
		var errText any
		if r.Error != nil {
			errText = r.Error.Error()
		}
		_, err := s.client.Exec(ctx,
			`INSERT INTO invocations (run_id, class, method, name, idx, status, attempts, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.ID, r.Class, r.Method, r.Name, r.Index, string(r.Status), r.Attempts, r.Duration.Milliseconds(), errText)
		if err != nil {
			return fmt.Errorf("recording %s: %w", r.Name, err)
		}
	}
	return nil
}

// Run is a stored run summary
type Run struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	Ignored  int
}

// Recent returns the latest runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	res, err := s.client.Query(ctx,
		`SELECT id, started, duration_ms, passed, failed, skipped, ignored FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(res.Rows))
	for _, row := range res.Rows {
		started, err := time.Parse(time.RFC3339Nano, fmt.Sprint(row[1]))
		if err != nil {
			return nil, fmt.Errorf("parsing start time of run %v: %w", row[0], err)
		}
		runs = append(runs, Run{
			ID:       fmt.Sprint(row[0]),
			Started:  started,
			Duration: time.Duration(toInt(row[2])) * time.Millisecond,
			Passed:   int(toInt(row[3])),
			Failed:   int(toInt(row[4])),
			Skipped:  int(toInt(row[5])),
			Ignored:  int(toInt(row[6])),
		})
	}
	return runs, nil
}

// Flaky is a row that needed retries or both passed and failed across runs
type Flaky struct {
	Class    string
	Name     string
	Runs     int
	Retried  int
	Failures int
}

// Flaky returns invocations that passed after a retry at least once, or
// that passed in some runs and failed in others, most unstable first
func (s *Store) Flaky(ctx context.Context, limit int) ([]Flaky, error) {
	res, err := s.client.Query(ctx, `
		SELECT class, name,
		       COUNT(*) AS runs,
		       SUM(CASE WHEN status = 'passed' AND attempts > 1 THEN 1 ELSE 0 END) AS retried,
		       SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failures,
		       SUM(CASE WHEN status = 'passed' THEN 1 ELSE 0 END) AS passes
		FROM invocations
		GROUP BY class, name
		HAVING retried > 0 OR (failures > 0 AND passes > 0)
		ORDER BY retried + failures DESC, class, name
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Flaky, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, Flaky{
			Class:    fmt.Sprint(row[0]),
			Name:     fmt.Sprint(row[1]),
			Runs:     int(toInt(row[2])),
			Retried:  int(toInt(row[3])),
			Failures: int(toInt(row[4])),
		})
	}
	return out, nil
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

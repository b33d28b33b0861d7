// Package notify posts the outcome of a run to chat webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when rows fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when no row fails
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and on the first
	// passing run after one
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a NotifyOn value. Empty means failure.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch on := NotifyOn(s); on {
	case "":
		return NotifyFailure, nil
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return on, nil
	}
	return "", fmt.Errorf("unknown notify condition %q (use always, failure, success or recovery)", s)
}

// maxFailedRows bounds the failures listed in one message
const maxFailedRows = 10

// RunSummary is the part of a run a notification carries
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Ignored     int           `json:"ignored"`
	Flaky       int           `json:"flaky"`
	Duration    time.Duration `json:"duration"`
	Environment string        `json:"environment,omitempty"`
	FailedRows  []FailedRow   `json:"failed_rows,omitempty"`
	Truncated   int           `json:"truncated,omitempty"`
	IsRecovery  bool          `json:"is_recovery,omitempty"`
}

// FailedRow is one failed reporting node
type FailedRow struct {
	Class    string `json:"class"`
	Name     string `json:"name"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// Summarize builds the notification summary of result
func Summarize(result *runner.RunResult, environment string) *RunSummary {
	s := &RunSummary{
		RunID:       result.ID,
		Total:       result.Total(),
		Passed:      result.Passed,
		Failed:      result.Failed,
		Skipped:     result.Skipped,
		Ignored:     result.Ignored,
		Flaky:       result.Retried,
		Duration:    result.Duration,
		Environment: environment,
	}
	for _, r := range result.Results {
		if r.Status != runner.StatusFailed {
			continue
		}
		if len(s.FailedRows) == maxFailedRows {
			s.Truncated++
			continue
		}
		row := FailedRow{Class: r.Class, Name: r.Name, Attempts: r.Attempts}
		if r.Error != nil {
			row.Error = firstLine(r.Error.Error())
		}
		s.FailedRows = append(s.FailedRows, row)
	}
	return s
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

// Notifier is the interface for notification services
type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary) error
	Name() string
}

// Manager applies a NotifyOn policy to a set of notifiers. It remembers the
// outcome of the previous run so watch mode can report recoveries.
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true,
	}
}

func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Notify sends summary to every notifier if the policy asks for it. Errors of
// all notifiers are joined.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) error {
	shouldNotify := false
	currentSuccess := summary.Failed == 0

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

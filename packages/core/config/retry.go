package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy bounds how often a failing invocation is re-run. Count is the
// number of retries after the first attempt and is never negative.
type RetryPolicy struct {
	Count int
	Delay time.Duration
}

// Attempts is the maximum number of times a body runs.
func (p RetryPolicy) Attempts() int {
	return p.Count + 1
}

// ResolveRetryPolicy picks the retry count from the explicit override, then
// the RETRY_COUNT environment value, then DefaultRetryCount. A value that is
// not a non-negative integer is logged and the default kept.
func ResolveRetryPolicy(c *Config, logger *slog.Logger) RetryPolicy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	policy := RetryPolicy{Count: DefaultRetryCount}
	if c == nil {
		return policy
	}
	if c.RetryDelay > 0 {
		policy.Delay = time.Duration(c.RetryDelay) * time.Millisecond
	}

	source, raw := "", ""
	switch {
	case strings.TrimSpace(c.Retry) != "":
		source, raw = "override", c.Retry
	case strings.TrimSpace(c.RetryEnv) != "":
		source, raw = EnvRetryCount, c.RetryEnv
	default:
		return policy
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn("ignoring non-numeric retry count", "source", source, "value", raw, "error", err, "default", DefaultRetryCount)
		return policy
	}
	if n < 0 {
		logger.Warn("ignoring negative retry count", "source", source, "value", n, "default", DefaultRetryCount)
		return policy
	}

	policy.Count = n
	return policy
}

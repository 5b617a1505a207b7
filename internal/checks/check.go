package checks

import (
	"context"
	"time"
)

// Status is the execution status of a single check.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Severity classifies the risk of a check's findings, ordered from least to
// most severe. Each check maps its findings count to a severity through a
// fixed threshold table, so the same findings always yield the same severity.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the position of the severity in the ordered set, with info
// lowest. Unknown values rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityLow:
		return 2
	case SeverityMedium:
		return 3
	case SeverityHigh:
		return 4
	default:
		return 0
	}
}

// maxSeverity returns the more severe of a and b.
func maxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Result is the outcome of one check execution. Every invocation of a check
// produces exactly one Result; internal failures are reported through the
// Status field, never by panicking.
type Result struct {
	Status   Status
	Data     map[string]any
	Findings int
	Severity Severity
}

// Config is the per-scan configuration bag. Keys are check-specific and
// optional; a missing key falls back to the check's default, never an error.
type Config map[string]any

// String returns the string value for key, or fallback when the key is
// missing or not a string.
func (c Config) String(key, fallback string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Seconds returns the duration for key interpreted as a number of seconds,
// or fallback when the key is missing or not numeric. JSON decoding yields
// float64 for numbers, so both int and float64 are accepted.
func (c Config) Seconds(key string, fallback time.Duration) time.Duration {
	switch v := c[key].(type) {
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Second))
		}
	}
	return fallback
}

// Check is one independently executable security probe. Implementations must
// enforce the time budget themselves and must never panic; any internal
// failure is converted into a Result with status failed (or error for truly
// unexpected conditions), zero findings and severity info.
type Check interface {
	Name() string
	Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result
}

// failedResult builds the uniform failure Result used by all checks when the
// probe itself could not run (missing binary, timeout, transport error).
func failedResult(msg string) Result {
	return Result{
		Status:   StatusFailed,
		Data:     map[string]any{"error": msg},
		Findings: 0,
		Severity: SeverityInfo,
	}
}

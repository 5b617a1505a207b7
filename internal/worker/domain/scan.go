package domain

import "time"

// Scan represents one claimed scan job as read from the database.
type Scan struct {
	ID       string
	TargetID string // saved target reference, empty for quick scans
	URL      string // inline target, empty when TargetID is set
	Checks   []string
	Config   map[string]any
	Status   string
	Progress int
}

// CheckResult is the immutable record produced by exactly one check
// execution. One row per (scan id, check type, attempt).
type CheckResult struct {
	ID        string
	ScanID    string
	CheckType string
	Status    string
	Data      map[string]any
	Findings  int
	Severity  string
	CreatedAt time.Time
}

package domain

// Scan status constants. Terminal states are completed and failed; no
// transition out of a terminal state is permitted.
const (
	ScanStatusQueued    = "queued"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// CheckResult status constants. "error" means the check raised rather than
// returning a graceful failure.
const (
	ResultStatusSuccess = "success"
	ResultStatusFailed  = "failed"
	ResultStatusError   = "error"
)

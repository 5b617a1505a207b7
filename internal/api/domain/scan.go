package domain

import (
	"errors"
)

const (
	ScanStatusQueued    = "queued"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

var (
	ErrScanNotFound   = errors.New("scan not found")
	ErrTargetNotFound = errors.New("target not found")
)

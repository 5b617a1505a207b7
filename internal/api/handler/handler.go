package handler

import (
	"context"
	"log/slog"

	"github.com/publicscanner/scanner-be/internal/api/model"
	"github.com/publicscanner/scanner-be/internal/api/storage"
	"github.com/publicscanner/scanner-be/internal/checks"
)

// ScanStore is the persistence surface the handlers need. *storage.Storage
// implements it; tests substitute an in-memory fake.
type ScanStore interface {
	CreateScan(ctx context.Context, scan *model.Scan) error
	GetScanByID(ctx context.Context, scanID string) (*model.Scan, error)
	ListScans(ctx context.Context, filter storage.ScanFilter) ([]model.Scan, error)
	ListResultsByScanID(ctx context.Context, scanID string) ([]model.ScanResult, error)
	CreateTarget(ctx context.Context, target *model.Target) error
	GetTargetByID(ctx context.Context, targetID string) (*model.Target, error)
	ListTargets(ctx context.Context) ([]model.Target, error)
}

// Notifier publishes queued-scan notifications. Nil disables publishing;
// workers fall back to polling.
type Notifier interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Storage  ScanStore
	Notifier Notifier
	Checks   *checks.Registry
}

// ScanHandler handles scan-related HTTP requests
type ScanHandler struct {
	logger   *slog.Logger
	storage  ScanStore
	notifier Notifier
	checks   *checks.Registry
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(deps *Dependencies) *ScanHandler {
	return &ScanHandler{
		logger:   deps.Logger,
		storage:  deps.Storage,
		notifier: deps.Notifier,
		checks:   deps.Checks,
	}
}

// TargetHandler handles target-related HTTP requests
type TargetHandler struct {
	logger  *slog.Logger
	storage ScanStore
}

// NewTargetHandler creates a new TargetHandler instance
func NewTargetHandler(deps *Dependencies) *TargetHandler {
	return &TargetHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
	}
}

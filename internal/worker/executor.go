package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/publicscanner/scanner-be/internal/checks"
	"github.com/publicscanner/scanner-be/internal/worker/domain"
)

// ScanStore provides claim and status/progress updates for scan jobs. All
// writes to a claimed scan happen only from the worker holding the claim.
type ScanStore interface {
	// ClaimNextScan atomically claims the oldest queued scan and flips it to
	// running. A nil scan with nil error means the queue is empty; an error
	// is a retryable store condition, never an empty queue.
	ClaimNextScan(ctx context.Context) (*domain.Scan, error)
	UpdateScanProgress(ctx context.Context, scanID string, progress int) error
	MarkScanCompleted(ctx context.Context, scanID string) error
	MarkScanFailed(ctx context.Context, scanID string) error
}

// ResultStore is the append-only sink for per-check results.
type ResultStore interface {
	SaveResult(ctx context.Context, result *domain.CheckResult) error
}

// TargetResolver turns a scan's target reference into a concrete host or URL.
type TargetResolver interface {
	ResolveTarget(ctx context.Context, scan *domain.Scan) (string, error)
}

// Executor runs a claimed scan's check sequence in order, persisting one
// CheckResult per check and bumping progress after each one. Checks are
// independent: a failed or errored check never stops the remaining sequence.
type Executor struct {
	scans       ScanStore
	results     ResultStore
	targets     TargetResolver
	registry    *checks.Registry
	checkBudget time.Duration
	logger      *slog.Logger
}

// ExecutorConfig holds Executor dependencies.
type ExecutorConfig struct {
	Scans       ScanStore
	Results     ResultStore
	Targets     TargetResolver
	Registry    *checks.Registry
	CheckBudget time.Duration
	Logger      *slog.Logger
}

// NewExecutor creates a new Executor instance.
func NewExecutor(cfg *ExecutorConfig) *Executor {
	return &Executor{
		scans:       cfg.Scans,
		results:     cfg.Results,
		targets:     cfg.Targets,
		registry:    cfg.Registry,
		checkBudget: cfg.CheckBudget,
		logger:      cfg.Logger,
	}
}

// Run executes one claimed scan to a terminal state. It is called exactly
// once per claim. If the process dies mid-scan the scan stays running with
// whatever results were already written; reclaiming stuck scans is left to
// an external reaper.
func (e *Executor) Run(ctx context.Context, scan *domain.Scan) {
	target, err := e.targets.ResolveTarget(ctx, scan)
	if err != nil {
		e.logger.Error("Failed to resolve scan target",
			slog.String("scan_id", scan.ID),
			slog.String("error", err.Error()),
		)
		if err := e.scans.MarkScanFailed(ctx, scan.ID); err != nil {
			e.logger.Error("Failed to mark scan failed",
				slog.String("scan_id", scan.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	e.logger.Info("Processing scan",
		slog.String("scan_id", scan.ID),
		slog.String("target", target),
		slog.Int("checks", len(scan.Checks)),
	)

	if err := e.scans.UpdateScanProgress(ctx, scan.ID, 0); err != nil {
		e.logger.Warn("Failed to reset scan progress",
			slog.String("scan_id", scan.ID),
			slog.String("error", err.Error()),
		)
	}

	total := len(scan.Checks)
	for i, name := range scan.Checks {
		// Cancellation is honored only between checks; an interrupted scan
		// stays running for the reaper, never silently completed.
		if ctx.Err() != nil {
			e.logger.Warn("Scan interrupted, leaving in running state",
				slog.String("scan_id", scan.ID),
				slog.Int("completed_checks", i),
			)
			return
		}

		e.logger.Info("Running check",
			slog.String("scan_id", scan.ID),
			slog.String("check", name),
		)

		res := e.runCheck(ctx, name, target, scan)

		record := &domain.CheckResult{
			ID:        uuid.New().String(),
			ScanID:    scan.ID,
			CheckType: name,
			Status:    string(res.Status),
			Data:      res.Data,
			Findings:  res.Findings,
			Severity:  string(res.Severity),
		}
		if err := e.results.SaveResult(ctx, record); err != nil {
			// A lost result must not abort the remaining sequence.
			e.logger.Error("Failed to save check result",
				slog.String("scan_id", scan.ID),
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
		}

		progress := int(math.Round(float64(i+1) / float64(total) * 100))
		if err := e.scans.UpdateScanProgress(ctx, scan.ID, progress); err != nil {
			e.logger.Warn("Failed to update scan progress",
				slog.String("scan_id", scan.ID),
				slog.Int("progress", progress),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := e.scans.MarkScanCompleted(ctx, scan.ID); err != nil {
		e.logger.Error("Failed to mark scan completed",
			slog.String("scan_id", scan.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	e.logger.Info("Scan completed", slog.String("scan_id", scan.ID))
}

// runCheck resolves and executes a single check, converting an unknown name
// or a panicking check into an errored Result so the scan keeps going.
func (e *Executor) runCheck(ctx context.Context, name, target string, scan *domain.Scan) (res checks.Result) {
	chk, ok := e.registry.Resolve(name)
	if !ok {
		e.logger.Warn("Unknown check requested",
			slog.String("scan_id", scan.ID),
			slog.String("check", name),
		)
		return checks.Result{
			Status:   checks.StatusError,
			Data:     map[string]any{"error": "unknown check: " + name},
			Findings: 0,
			Severity: checks.SeverityInfo,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Check panicked",
				slog.String("scan_id", scan.ID),
				slog.String("check", name),
				slog.Any("panic", r),
			)
			res = checks.Result{
				Status:   checks.StatusError,
				Data:     map[string]any{"error": fmt.Sprintf("check panicked: %v", r)},
				Findings: 0,
				Severity: checks.SeverityInfo,
			}
		}
	}()

	return chk.Run(ctx, target, checks.Config(scan.Config), e.checkBudget)
}

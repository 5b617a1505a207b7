package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/publicscanner/scanner-be/internal/worker/domain"
)

// Storage handles all database operations for the worker: the atomic claim,
// status/progress updates and append-only result inserts.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimNextScan claims the oldest queued scan. The SELECT and the status
// flip happen in one transaction with FOR UPDATE SKIP LOCKED, so a scan is
// handed to at most one of N concurrent claimers and is never visible as
// queued to a second caller after the first has locked it. A nil scan with
// nil error means the queue is empty; any store error is wrapped as
// retryable so the caller backs off instead of treating it as no work.
func (s *Storage) ClaimNextScan(ctx context.Context) (*domain.Scan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, domain.NewRetryableError(fmt.Errorf("failed to begin claim transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		scan      domain.Scan
		targetID  sql.NullString
		url       sql.NullString
		checks    pq.StringArray
		configRaw []byte
	)

	err = tx.QueryRowxContext(ctx, `
		SELECT id, target_id, url, checks, config
		FROM scan_jobs
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, domain.ScanStatusQueued).Scan(&scan.ID, &targetID, &url, &checks, &configRaw)

	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		_ = tx.Commit()
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewRetryableError(fmt.Errorf("failed to select queued scan: %w", err))
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = $1, progress = 0, started_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, domain.ScanStatusRunning, scan.ID); err != nil {
		return nil, domain.NewRetryableError(fmt.Errorf("failed to mark scan running: %w", err))
	}

	if err = tx.Commit(); err != nil {
		return nil, domain.NewRetryableError(fmt.Errorf("failed to commit claim: %w", err))
	}

	scan.TargetID = targetID.String
	scan.URL = url.String
	scan.Checks = checks
	scan.Status = domain.ScanStatusRunning
	if len(configRaw) > 0 {
		if jsonErr := json.Unmarshal(configRaw, &scan.Config); jsonErr != nil {
			s.logger.Warn("Failed to parse scan config, using defaults",
				slog.String("scan_id", scan.ID),
				slog.String("error", jsonErr.Error()),
			)
			scan.Config = nil
		}
	}

	s.logger.Info("Scan claimed",
		slog.String("scan_id", scan.ID),
		slog.Int("checks", len(scan.Checks)),
	)

	return &scan, nil
}

// UpdateScanProgress persists a progress value for a running scan. The
// status guard keeps terminal scans immutable.
func (s *Storage) UpdateScanProgress(ctx context.Context, scanID string, progress int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET progress = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, progress, scanID, domain.ScanStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update scan progress: %w", err)
	}
	return nil
}

// MarkScanCompleted transitions a running scan to completed with progress
// pinned to 100.
func (s *Storage) MarkScanCompleted(ctx context.Context, scanID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = $1, progress = 100, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, domain.ScanStatusCompleted, scanID, domain.ScanStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark scan completed: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		s.logger.Warn("Scan not in running state, completion skipped",
			slog.String("scan_id", scanID),
		)
	}
	return nil
}

// MarkScanFailed transitions a queued or running scan to failed. Queued is
// allowed for the degenerate case of an unresolvable target.
func (s *Storage) MarkScanFailed(ctx context.Context, scanID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = $1, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
	`, domain.ScanStatusFailed, scanID, domain.ScanStatusQueued, domain.ScanStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark scan failed: %w", err)
	}
	return nil
}

// SaveResult appends one check result row. Results are never updated or
// deleted by the worker.
func (s *Storage) SaveResult(ctx context.Context, result *domain.CheckResult) error {
	data, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal result data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_results (id, scan_id, check_type, status, data, findings, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, result.ID, result.ScanID, result.CheckType, result.Status, data, result.Findings, result.Severity)
	if err != nil {
		return fmt.Errorf("failed to save check result: %w", err)
	}

	s.logger.Info("Check result saved",
		slog.String("scan_id", result.ScanID),
		slog.String("check", result.CheckType),
		slog.String("status", result.Status),
		slog.Int("findings", result.Findings),
		slog.String("severity", result.Severity),
	)
	return nil
}

// ResolveTarget returns the concrete host or URL for a scan: the inline URL
// for quick scans, otherwise the saved target's hostname.
func (s *Storage) ResolveTarget(ctx context.Context, scan *domain.Scan) (string, error) {
	if scan.URL != "" {
		return scan.URL, nil
	}
	if scan.TargetID == "" {
		return "", domain.ErrTargetNotFound
	}

	var hostname string
	err := s.db.GetContext(ctx, &hostname, `SELECT hostname FROM targets WHERE id = $1`, scan.TargetID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrTargetNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve target: %w", err)
	}
	return hostname, nil
}

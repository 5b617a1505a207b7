package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/publicscanner/scanner-be/internal/api/domain"
	"github.com/publicscanner/scanner-be/internal/api/model"
	"github.com/publicscanner/scanner-be/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) CreateScan(ctx context.Context, scan *model.Scan) error {
	query := `
		INSERT INTO scan_jobs (
			id, target_id, url, checks, config,
			status, progress, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		scan.ID,
		scan.TargetID,
		scan.URL,
		scan.Checks,
		scan.Config,
		scan.Status,
		scan.Progress,
		scan.CreatedAt,
		scan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

func (s *Storage) GetScanByID(ctx context.Context, scanID string) (*model.Scan, error) {
	var scan model.Scan
	query := `
		SELECT
			id, target_id, url, checks, config,
			status, progress, started_at, completed_at, created_at, updated_at
		FROM scan_jobs
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &scan, query, scanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return &scan, nil
}

type ScanFilter struct {
	Status   string
	TargetID string
	PageSize int
	Cursor   *ScanCursor
}

type ScanCursor struct {
	CreatedAt time.Time
	ScanID    string
}

func (s *Storage) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `
		SELECT
			id, target_id, url, checks, config,
			status, progress, started_at, completed_at, created_at, updated_at
		FROM scan_jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.TargetID != "" {
		query += fmt.Sprintf(" AND target_id = $%d", argIdx)
		args = append(args, filter.TargetID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ScanID)
		argIdx += 2
	}

	// Keyset pagination over (created_at, id); one extra row signals more pages.
	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var scans []model.Scan
	err := s.db.SelectContext(ctx, &scans, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	return scans, nil
}

func (s *Storage) ListResultsByScanID(ctx context.Context, scanID string) ([]model.ScanResult, error) {
	query := `
		SELECT id, scan_id, check_type, status, data, findings, severity, created_at
		FROM scan_results
		WHERE scan_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var results []model.ScanResult
	err := s.db.SelectContext(ctx, &results, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}

	return results, nil
}

func (s *Storage) CreateTarget(ctx context.Context, target *model.Target) error {
	query := `
		INSERT INTO targets (id, name, hostname, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		target.ID,
		target.Name,
		target.Hostname,
		target.Description,
		target.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	return nil
}

func (s *Storage) GetTargetByID(ctx context.Context, targetID string) (*model.Target, error) {
	var target model.Target
	query := `
		SELECT id, name, hostname, description, created_at
		FROM targets
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &target, query, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get target: %w", err)
	}

	return &target, nil
}

func (s *Storage) ListTargets(ctx context.Context) ([]model.Target, error) {
	query := `
		SELECT id, name, hostname, description, created_at
		FROM targets
		ORDER BY created_at DESC
	`

	var targets []model.Target
	err := s.db.SelectContext(ctx, &targets, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	return targets, nil
}

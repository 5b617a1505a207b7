package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/publicscanner/scanner-be/internal/api/domain"
	"github.com/publicscanner/scanner-be/internal/api/dto"
	"github.com/publicscanner/scanner-be/internal/api/model"
	"github.com/publicscanner/scanner-be/internal/api/storage"
)

// CreateScan handles POST /api/v1/scans
// Queues a new scan; a worker picks it up through the database claim.
func (h *ScanHandler) CreateScan(c *gin.Context) {
	var req dto.CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := h.validateCreateScan(&req); err != nil {
		h.logger.Error("Invalid scan request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if req.TargetID != "" {
		_, err := h.storage.GetTargetByID(c.Request.Context(), req.TargetID)
		if errors.Is(err, domain.ErrTargetNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "unknown target_id",
			})
			return
		}
		if err != nil {
			h.logger.Error("Failed to resolve target", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create scan",
			})
			return
		}
	}

	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		h.logger.Error("Failed to encode scan config", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid scan config",
		})
		return
	}

	now := time.Now()
	scan := model.Scan{
		ID:        uuid.New().String(),
		Checks:    req.Checks,
		Config:    configJSON,
		Status:    domain.ScanStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.TargetID != "" {
		scan.TargetID = &req.TargetID
	}
	if req.URL != "" {
		scan.URL = &req.URL
	}

	if err := h.storage.CreateScan(c.Request.Context(), &scan); err != nil {
		h.logger.Error("Failed to create scan", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create scan",
		})
		return
	}

	h.logger.Info("Scan queued",
		slog.String("scan_id", scan.ID),
		slog.Any("checks", req.Checks),
	)

	// Best effort: workers poll the table anyway, so a failed publish only
	// costs claim latency.
	h.notifyQueued(c, scan.ID)

	c.JSON(http.StatusCreated, scanToDTO(&scan))
}

func (h *ScanHandler) validateCreateScan(req *dto.CreateScanRequest) error {
	if (req.TargetID == "") == (req.URL == "") {
		return fmt.Errorf("exactly one of target_id or url is required")
	}
	if len(req.Checks) == 0 {
		return fmt.Errorf("at least one check is required")
	}
	if h.checks != nil {
		for _, name := range req.Checks {
			if _, ok := h.checks.Resolve(name); !ok {
				return fmt.Errorf("unknown check: %s", name)
			}
		}
	}
	return nil
}

func (h *ScanHandler) notifyQueued(c *gin.Context, scanID string) {
	if h.notifier == nil {
		return
	}

	body, _ := json.Marshal(gin.H{"scan_id": scanID})
	if err := h.notifier.Publish(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Warn("Failed to publish scan notification",
			slog.String("scan_id", scanID),
			slog.String("error", err.Error()),
		)
	}
}

// GetScan handles GET /api/v1/scans/:scan_id
// Returns scan status and progress.
func (h *ScanHandler) GetScan(c *gin.Context) {
	scanID := c.Param("scan_id")

	if _, err := uuid.Parse(scanID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "scan_id must be a valid UUID",
		})
		return
	}

	scan, err := h.storage.GetScanByID(c.Request.Context(), scanID)
	if errors.Is(err, domain.ErrScanNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "scan not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get scan", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get scan",
		})
		return
	}

	c.JSON(http.StatusOK, scanToDTO(scan))
}

// ListScans handles GET /api/v1/scans
// Lists scans with optional filtering and cursor pagination
func (h *ScanHandler) ListScans(c *gin.Context) {
	var req dto.ListScansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeScanCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.ScanFilter{
		Status:   req.Status,
		TargetID: req.TargetID,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	scans, err := h.storage.ListScans(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list scans", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list scans",
		})
		return
	}

	hasMore := len(scans) > req.PageSize
	if hasMore {
		scans = scans[:req.PageSize]
	}

	scanResponse := make([]dto.ScanDTO, len(scans))
	for i := range scans {
		scanResponse[i] = scanToDTO(&scans[i])
	}

	var nextCursor string
	if hasMore {
		lastScan := scans[len(scans)-1]
		cursorObj := storage.ScanCursor{
			CreatedAt: lastScan.CreatedAt,
			ScanID:    lastScan.ID,
		}
		nextCursor, err = EncodeScanCursor(&cursorObj)
		if err != nil {
			h.logger.Error("Failed to encode next cursor", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode next cursor",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListScansResponse{
		Scans:      scanResponse,
		NextCursor: nextCursor,
	})
}

// ListScanResults handles GET /api/v1/scans/:scan_id/results
// Returns per-check results in the order they were recorded.
func (h *ScanHandler) ListScanResults(c *gin.Context) {
	scanID := c.Param("scan_id")

	if _, err := uuid.Parse(scanID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "scan_id must be a valid UUID",
		})
		return
	}

	if _, err := h.storage.GetScanByID(c.Request.Context(), scanID); err != nil {
		if errors.Is(err, domain.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "scan not found",
			})
			return
		}
		h.logger.Error("Failed to get scan", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list scan results",
		})
		return
	}

	results, err := h.storage.ListResultsByScanID(c.Request.Context(), scanID)
	if err != nil {
		h.logger.Error("Failed to list scan results", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list scan results",
		})
		return
	}

	response := make([]dto.ScanResultDTO, len(results))
	for i := range results {
		response[i] = resultToDTO(&results[i])
	}

	c.JSON(http.StatusOK, dto.ListScanResultsResponse{
		ScanID:  scanID,
		Results: response,
	})
}

func scanToDTO(scan *model.Scan) dto.ScanDTO {
	out := dto.ScanDTO{
		ID:        scan.ID,
		Checks:    scan.Checks,
		Status:    scan.Status,
		Progress:  scan.Progress,
		CreatedAt: scan.CreatedAt.Format(time.RFC3339),
		UpdatedAt: scan.UpdatedAt.Format(time.RFC3339),
	}
	if scan.TargetID != nil {
		out.TargetID = *scan.TargetID
	}
	if scan.URL != nil {
		out.URL = *scan.URL
	}
	if scan.StartedAt != nil {
		out.StartedAt = scan.StartedAt.Format(time.RFC3339)
	}
	if scan.CompletedAt != nil {
		out.CompletedAt = scan.CompletedAt.Format(time.RFC3339)
	}
	if len(scan.Config) > 0 {
		var cfg map[string]any
		if err := json.Unmarshal(scan.Config, &cfg); err == nil {
			out.Config = cfg
		}
	}
	return out
}

func resultToDTO(result *model.ScanResult) dto.ScanResultDTO {
	out := dto.ScanResultDTO{
		ID:        result.ID,
		ScanID:    result.ScanID,
		CheckType: result.CheckType,
		Status:    result.Status,
		Findings:  result.Findings,
		Severity:  result.Severity,
		CreatedAt: result.CreatedAt.Format(time.RFC3339),
	}
	if len(result.Data) > 0 {
		var data map[string]any
		if err := json.Unmarshal(result.Data, &data); err == nil {
			out.Data = data
		}
	}
	return out
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/publicscanner/scanner-be/internal/api/dto"
	"github.com/publicscanner/scanner-be/internal/api/model"
)

// CreateTarget handles POST /api/v1/targets
func (h *TargetHandler) CreateTarget(c *gin.Context) {
	var req dto.CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	target := model.Target{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Hostname:    req.Hostname,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := h.storage.CreateTarget(c.Request.Context(), &target); err != nil {
		h.logger.Error("Failed to create target", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create target",
		})
		return
	}

	h.logger.Info("Target created",
		slog.String("target_id", target.ID),
		slog.String("hostname", target.Hostname),
	)

	c.JSON(http.StatusCreated, targetToDTO(&target))
}

// ListTargets handles GET /api/v1/targets
func (h *TargetHandler) ListTargets(c *gin.Context) {
	targets, err := h.storage.ListTargets(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list targets", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list targets",
		})
		return
	}

	response := make([]dto.TargetDTO, len(targets))
	for i := range targets {
		response[i] = targetToDTO(&targets[i])
	}

	c.JSON(http.StatusOK, dto.ListTargetsResponse{Targets: response})
}

func targetToDTO(target *model.Target) dto.TargetDTO {
	return dto.TargetDTO{
		ID:          target.ID,
		Name:        target.Name,
		Hostname:    target.Hostname,
		Description: target.Description,
		CreatedAt:   target.CreatedAt.Format(time.RFC3339),
	}
}

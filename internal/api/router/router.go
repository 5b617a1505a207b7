package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/publicscanner/scanner-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "scan-api-service",
		})
	})

	scanHandler := handler.NewScanHandler(deps)
	targetHandler := handler.NewTargetHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		scans := v1.Group("/scans")
		{
			// POST /api/v1/scans - Queue a new scan
			scans.POST("", scanHandler.CreateScan)

			// GET /api/v1/scans - List scans with filtering and pagination
			scans.GET("", scanHandler.ListScans)

			// GET /api/v1/scans/:scan_id - Get scan status and progress
			scans.GET("/:scan_id", scanHandler.GetScan)

			// GET /api/v1/scans/:scan_id/results - Get per-check results
			scans.GET("/:scan_id/results", scanHandler.ListScanResults)
		}

		targets := v1.Group("/targets")
		{
			// POST /api/v1/targets - Register a target
			targets.POST("", targetHandler.CreateTarget)

			// GET /api/v1/targets - List registered targets
			targets.GET("", targetHandler.ListTargets)
		}
	}

	return r
}

package main

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ecothreads/threadscore/internal/assess"
	"github.com/ecothreads/threadscore/internal/cache"
	"github.com/ecothreads/threadscore/internal/config"
	"github.com/ecothreads/threadscore/internal/errors"
	appmw "github.com/ecothreads/threadscore/internal/middleware"
	"github.com/ecothreads/threadscore/internal/monitoring"
	"github.com/ecothreads/threadscore/internal/pipeline"
	"github.com/ecothreads/threadscore/internal/ratelimit"
	"github.com/ecothreads/threadscore/internal/report"
	"github.com/ecothreads/threadscore/internal/resilience"
	"github.com/ecothreads/threadscore/internal/security"
	"github.com/ecothreads/threadscore/internal/textile"
	"github.com/ecothreads/threadscore/internal/types"
)

type server struct {
	runner    *pipeline.Runner
	table     *textile.Table
	respCache *cache.Cache
	limiter   *ratelimit.Limiter
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
}

// assessmentResponse is the API shape: the synthesized assessment plus a
// rendered text report and the display band for the overall rating.
type assessmentResponse struct {
	assess.Assessment
	Band   string `json:"band"`
	Report string `json:"report"`
}

func newRouter(s *server, cfg config.Config) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}

	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())
	r.Use(cors.New(corsConfig))
	r.Use(security.HeadersMiddleware())
	r.Use(security.ContentTypeMiddleware())
	r.Use(appmw.Gzip())
	r.Use(monitoring.Middleware(s.metrics, s.logger))
	r.Use(s.limiter.Middleware())
	r.Use(security.TimeoutMiddleware(cfg.Server.WriteTimeout))
	r.Use(s.respCache.Middleware(s.metrics, s.logger))

	api := r.Group("/api/v1")
	{
		api.POST("/assessments", s.handleAssess)
		api.GET("/materials", s.handleListMaterials)
		api.GET("/materials/:name", s.handleGetMaterial)
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)

	return r
}

func (s *server) handleAssess(c *gin.Context) {
	var req types.AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("request body must include a product url", err))
		c.Abort()
		return
	}
	if err := security.ValidateProductURL(req.URL); err != nil {
		c.Error(errors.NewValidationError(err.Error(), err))
		c.Abort()
		return
	}
	depth, err := assess.ParseDepth(req.Depth)
	if err != nil {
		c.Error(errors.NewValidationError(err.Error(), err))
		c.Abort()
		return
	}

	result, err := s.runner.Assess(c.Request.Context(), req.URL, depth)
	if err != nil {
		switch {
		case stderrors.Is(err, assess.ErrInsufficientData):
			c.Error(errors.NewNoDataError("no scoring source produced a usable signal for this product", err))
		default:
			c.Error(errors.NewCollaboratorError("product-scraper", err))
		}
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, assessmentResponse{
		Assessment: result,
		Band:       report.BandLabel(result.OverallRating),
		Report:     report.Render(result),
	})
}

func (s *server) handleListMaterials(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"materials": s.table.Names(),
		"count":     s.table.Len(),
	})
}

func (s *server) handleGetMaterial(c *gin.Context) {
	entry, normalized, ok := s.table.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "material not found in reference table",
			"normalized": normalized.Canonical,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"material":  entry,
		"canonical": normalized.Canonical,
		"modifiers": normalized.Modifiers,
	})
}

func (s *server) handleHealth(c *gin.Context) {
	health := resilience.AllCollaboratorHealth()

	status := "healthy"
	for _, h := range health {
		if h.Level >= resilience.LevelCritical {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"time":             time.Now().UTC().Format(time.RFC3339),
		"collaborators":    health,
		"circuit_breakers": resilience.GetCircuitBreakerStats(),
		"rate_limiter":     s.limiter.Stats(),
		"materials_loaded": s.table.Len(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.respCache.Stats())
}

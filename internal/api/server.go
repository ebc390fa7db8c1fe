package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tenderbridge/tender-ingest/internal/api/handlers"
	"github.com/tenderbridge/tender-ingest/internal/api/middleware"
	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// Close stops background work owned by the server
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)

	// Probes bypass rate limiting
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	s.Router.GET("/metrics", handlers.NewMetricsHandler(s.services.TenderService, s.services.CacheService, s.logger).GetMetrics)

	// Swagger documentation
	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)

	// API v1 routes
	v1 := s.Router.Group("/api/v1")
	v1.Use(s.rateLimiter.Middleware())
	{
		tenderHandler := handlers.NewTenderHandler(s.services.TenderService, s.logger)
		tenders := v1.Group("/tenders")
		{
			tenders.GET("", tenderHandler.Ingest)
			tenders.POST("/normalize", tenderHandler.Normalize)
		}

		cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
		cache := v1.Group("/cache")
		{
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
		}
	}

	s.Router.HandleMethodNotAllowed = true

	// 404 handler
	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Not Found",
			Message:   "The requested resource was not found",
			Code:      "NOT_FOUND",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})

	// 405 handler
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:     "Method Not Allowed",
			Message:   "The requested method is not allowed for this resource",
			Code:      "METHOD_NOT_ALLOWED",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})
}

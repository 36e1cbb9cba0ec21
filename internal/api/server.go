package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/publicvector/courtsearch/internal/api/handlers"
	"github.com/publicvector/courtsearch/internal/api/middleware"
	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/services"
	"github.com/publicvector/courtsearch/internal/worker"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
	pool     *worker.Pool
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, container *services.Container, pool *worker.Pool) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: container,
		pool:     pool,
	}
	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	rateLimiter := middleware.NewRateLimiter(s.config.Security.RateLimit)
	s.Router.Use(rateLimiter.Middleware())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	metricsHandler := handlers.NewMetricsHandler(s.services, s.pool, s.logger)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	v1 := s.Router.Group("/api/v1")
	{
		searchHandler := handlers.NewSearchHandler(s.pool, s.logger)
		search := v1.Group("/search")
		{
			search.POST("", searchHandler.Search)
			search.POST("/batch", searchHandler.SearchBatch)
		}

		portalHandler := handlers.NewPortalHandler(s.services.Registry, s.logger)
		portals := v1.Group("/portals")
		{
			portals.GET("", portalHandler.List)
			portals.GET("/:name", portalHandler.Get)
		}

		docketHandler := handlers.NewDocketHandler(s.services.SearchService, s.logger)
		v1.GET("/dockets/:portal", docketHandler.Get)

		cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
		cache := v1.Group("/cache")
		{
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
			cache.DELETE("/:key", cacheHandler.Delete)
		}

		workerHandler := handlers.NewWorkerHandler(s.pool, s.logger)
		v1.GET("/workers/stats", workerHandler.GetStats)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/config"
	"github.com/user/yt-ingest/internal/metrics"
	"github.com/user/yt-ingest/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Server serves health, metrics and the stored channel data
type Server struct {
	store     store.Store
	router    *gin.Engine
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(st store.Store, cfg *config.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:     st,
		router:    gin.New(),
		startTime: time.Now(),
	}

	s.router.Use(gin.Recovery(), requestLogger())
	s.router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	s.setupRoutes()
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// requestLogger logs each request through zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/channels/:id", s.handleGetChannel)
	s.router.GET("/channels/:id/videos", s.handleListVideos)
	s.router.GET("/videos/:id/snapshots", s.handleListSnapshots)
}

// Handler returns the router, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports database connectivity and uptime, refreshing the
// stored videos gauge on the way
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	} else if count, err := s.store.CountVideos(ctx); err == nil {
		metrics.SetStoredVideos(count)
	}

	response := HealthResponse{
		Status:   "healthy",
		Database: dbStatus,
		Uptime:   s.GetUptime().Round(time.Second).String(),
	}

	code := http.StatusOK
	if dbStatus != "healthy" {
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func (s *Server) handleGetChannel(c *gin.Context) {
	channel, err := s.store.GetChannel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) handleListVideos(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	channelID := c.Param("id")
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	videos, err := s.store.ListVideos(ctx, channelID, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (s *Server) handleListSnapshots(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	videoID := c.Param("id")
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	snapshots, err := s.store.ListSnapshots(ctx, videoID, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// parseLimit reads ?limit=, writing a 400 response when it is invalid
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.startTime)
}

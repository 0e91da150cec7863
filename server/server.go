// Package server exposes the item tree, check history and scheduler over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/logstore"
	"github.com/amartya2002/uptime-checker-core/status"
	"github.com/amartya2002/uptime-checker-core/store"
	"github.com/amartya2002/uptime-checker-core/transfer"
	"github.com/amartya2002/uptime-checker-core/uptime"
)

type Server struct {
	items     *store.Store
	logs      *logstore.Store
	scheduler *uptime.Scheduler
	status    *status.Aggregator
	bus       *status.Broadcaster
	logger    *zap.Logger
}

func New(items *store.Store, logs *logstore.Store, scheduler *uptime.Scheduler,
	agg *status.Aggregator, bus *status.Broadcaster, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		items:     items,
		logs:      logs,
		scheduler: scheduler,
		status:    agg,
		bus:       bus,
		logger:    logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	items := r.Group("/items")
	items.GET("", s.listItems)
	items.POST("", s.createItem)
	items.DELETE("", s.clearItems)
	items.POST("/batch", s.createBatch)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.updateItem)
	items.DELETE("/:id", s.deleteItem)
	items.GET("/:id/children", s.listChildren)
	items.GET("/:id/endpoints", s.listEndpoints)
	items.GET("/:id/status", s.itemStatus)
	items.POST("/:id/move", s.moveItem)
	items.POST("/:id/reorder", s.reorderItem)
	items.POST("/:id/duplicate", s.duplicateItem)
	items.POST("/:id/pause", s.pauseItem(true))
	items.POST("/:id/resume", s.pauseItem(false))
	items.POST("/:id/check", s.checkItem)
	items.GET("/:id/logs", s.itemLogs)
	items.DELETE("/:id/logs", s.clearItemLogs)
	items.GET("/:id/curl", s.exportCurl)

	r.POST("/pause", s.pauseMany(true))
	r.POST("/resume", s.pauseMany(false))
	r.POST("/check", s.checkAll)

	r.GET("/status", s.globalStatus)
	r.GET("/events", s.events)

	r.GET("/logs", s.queryLogs)
	r.DELETE("/logs", s.clearLogs)

	r.GET("/export", s.exportJSON)
	r.POST("/import", s.importJSON)
	r.POST("/import/curl", s.importCurl)

	return r
}

// Handler wraps the router with CORS for the given origins.
func (s *Server) Handler(origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(s.Router())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// fail maps store and import errors onto HTTP status codes.
func (s *Server) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrValidation),
		errors.Is(err, transfer.ErrNotArray),
		errors.Is(err, transfer.ErrParentCycle),
		errors.Is(err, transfer.ErrNoURL):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrCycle):
		code = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// reschedule rebuilds every timer loop after a change to the tree.
// A failure leaves the previous loops running.
func (s *Server) reschedule(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.StartMonitoring(ctx); err != nil {
		s.logger.Warn("failed to restart monitoring", zap.Error(err))
	}
}

func (s *Server) refreshStatus(ctx context.Context) {
	if s.status != nil {
		s.status.Refresh(ctx)
	}
}

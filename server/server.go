// Package server exposes registered datasets over HTTP.
//
// Each dataset is queryable at GET /sources/:slug/data with LQL parameters
// on the query string. Query errors are user-input failures and map to
// 400; an unregistered slug maps to 404; anything else is a 500.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/libredata/lql/query"
	"github.com/libredata/lql/source"
)

// DefaultLimit bounds query results when Options.Limit is unset.
const DefaultLimit = 1000

// Options configures the HTTP server.
type Options struct {
	// Limit is the maximum number of rows retrieved per query.
	// OPTIONAL: defaults to DefaultLimit.
	Limit int

	// Geometry is passed through to the query engine.
	// OPTIONAL: the engine applies its own default.
	Geometry query.GeometryIntrospector

	// Logger receives request logs.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// Server routes dataset queries to the engine.
type Server struct {
	registry *source.Registry
	opts     Options
	router   *gin.Engine
}

// New creates a server over a dataset registry.
func New(registry *source.Registry, opts Options) *Server {
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{registry: registry, opts: opts}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.GET("/sources", s.listSources)
	router.GET("/sources/:slug/data", s.querySource)
	s.router = router

	return s
}

// Handler returns the server's HTTP handler, for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.opts.Logger.Info("listening", "addr", addr)
	return s.router.Run(addr)
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		start := time.Now()

		c.Next()

		s.opts.Logger.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": s.registry.Slugs()})
}

func (s *Server) querySource(c *gin.Context) {
	slug := c.Param("slug")
	dataset, ok := s.registry.Dataset(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown source: " + slug})
		return
	}

	// The engine takes one value per parameter name; repeated query string
	// parameters keep their first value.
	params := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	engine := query.New(dataset, query.Options{
		Limit:    s.opts.Limit,
		Resolver: s.registry,
		Geometry: s.opts.Geometry,
		Logger:   s.opts.Logger,
	})

	result, err := engine.Execute(params)
	if err != nil {
		var queryErr *query.Error
		if errors.As(err, &queryErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": queryErr.Message})
			return
		}
		s.opts.Logger.Error("query failed", "source", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":     result.Source,
		"redirected": result.Redirected,
		"data":       result.Data,
	})
}

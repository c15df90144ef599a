// Package api exposes the ontology engine over HTTP. Routes are grouped
// under /api: registry management for the three metadata kinds, generic
// item CRUD keyed by object type slug, link resolution, introspection,
// and action execution.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/introspect"
	"github.com/captify-io/ontology/links"
	"github.com/captify-io/ontology/registry"
)

// Server bundles the handlers with their dependencies.
type Server struct {
	engine     *engine.Engine
	registry   *registry.Registry
	resolver   *links.Resolver
	introspect *introspect.Service
	logger     *slog.Logger
}

// NewServer builds a Server around an engine. The resolver and
// introspection service are derived from the engine's registry.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:     eng,
		registry:   eng.Registry(),
		resolver:   links.New(eng),
		introspect: introspect.New(eng.Registry()),
		logger:     logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "namespace": s.registry.Namespace()})
	})

	apiGroup := r.Group("/api")

	ot := apiGroup.Group("/object-types")
	ot.POST("", s.createObjectType)
	ot.GET("", s.listObjectTypes)
	ot.GET("/:slug", s.getObjectType)
	ot.PATCH("/:slug/properties", s.updateObjectTypeProperties)
	ot.PATCH("/:slug/status", s.setObjectTypeStatus)
	ot.GET("/:slug/describe", s.describeObjectType)
	ot.GET("/:slug/link-types", s.listLinkTypes)
	ot.GET("/:slug/action-types", s.listActionTypes)

	lt := apiGroup.Group("/link-types")
	lt.POST("", s.createLinkType)
	lt.GET("/:slug", s.getLinkType)
	lt.PATCH("/:slug/status", s.setLinkTypeStatus)

	at := apiGroup.Group("/action-types")
	at.POST("", s.createActionType)
	at.GET("/:slug", s.getActionType)

	items := apiGroup.Group("/items/:type")
	items.POST("", s.createItem)
	items.GET("", s.listItems)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.updateItem)
	items.DELETE("/:id", s.deleteItem)
	items.GET("/:id/links", s.resolveLinks)

	apiGroup.POST("/actions/:slug/execute", s.executeAction)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// actor returns the caller identity for audit fields. Clients pass it in
// the X-Actor-Id header; unauthenticated requests fall back to "anonymous".
func actor(c *gin.Context) string {
	if id := c.GetHeader("X-Actor-Id"); id != "" {
		return id
	}
	return "anonymous"
}

package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// Handler handles HTTP requests for the server registry.
type Handler struct {
	store   *Store
	monitor *Monitor
	logger  *zap.Logger
}

// NewHandler creates a registry handler.
func NewHandler(store *Store, monitor *Monitor, logger *zap.Logger) *Handler {
	return &Handler{
		store:   store,
		monitor: monitor,
		logger:  logger.Named("handler"),
	}
}

// RegisterRoutes adds the registry routes to the router. Auth for the
// mutating routes is the caller's concern; see the api package.
func (h *Handler) RegisterRoutes(read, write gin.IRouter) {
	read.GET("/servers", h.ListServers)
	read.GET("/servers/:name", h.GetServer)
	write.POST("/servers/:name/validate", h.ValidateServer)
	write.POST("/validate", h.ValidateAdHoc)
}

// ListServers handles GET /api/servers.
func (h *Handler) ListServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"servers": h.store.List(),
	})
}

// GetServer handles GET /api/servers/:name.
func (h *Handler) GetServer(c *gin.Context) {
	name := c.Param("name")

	entry, ok := h.store.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "no server registered under that name",
		})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ValidateServer handles POST /api/servers/:name/validate. It validates the
// named server synchronously and returns the refreshed entry.
func (h *Handler) ValidateServer(c *gin.Context) {
	name := c.Param("name")

	entry, err := h.monitor.ValidateServer(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
		return
	}

	h.logger.Info("validated server on request",
		zap.String("server", name),
		zap.Bool("valid", entry.Outcome.Valid))

	c.JSON(http.StatusOK, entry)
}

// ValidateAdHoc handles POST /api/validate: validates a descriptor supplied
// in the request body without registering it.
func (h *Handler) ValidateAdHoc(c *gin.Context) {
	var sd domain.ServerDescriptor
	if err := c.ShouldBindJSON(&sd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	outcome, details := h.monitor.validator.Run(c.Request.Context(), sd)

	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome,
		"details": details,
	})
}

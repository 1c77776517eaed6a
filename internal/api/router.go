package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/registry"
	"github.com/acikit/go-aci-validator/pkg/middleware"
)

// RouterConfig carries the options needed to assemble the router.
type RouterConfig struct {
	// AdminToken guards the mutating validate endpoints.
	AdminToken string
	// AllowOrigins configures CORS. Empty means all origins.
	AllowOrigins []string
}

// NewRouter assembles the gin engine: common middleware, the status
// endpoint and the registry routes. The validate endpoints require the
// admin bearer token.
func NewRouter(cfg RouterConfig, store *registry.Store, monitor *registry.Monitor, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger.Named("http")))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	router.Use(cors.New(corsConfig))

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, StatusResponse{
			Status:       "ok",
			Service:      "aci-validator",
			APIVersion:   CurrentAPIVersion,
			Capabilities: APICapabilities[CurrentAPIVersion],
			Servers:      store.Len(),
		})
	})

	handler := registry.NewHandler(store, monitor, logger)

	readAPI := router.Group("/api")
	writeAPI := router.Group("/api")
	writeAPI.Use(middleware.AdminAuthMiddleware(cfg.AdminToken, logger))
	handler.RegisterRoutes(readAPI, writeAPI)

	return router
}

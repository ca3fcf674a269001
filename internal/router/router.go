// internal/router/router.go
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/confectionery-backend/internal/config"
	"github.com/javajoker/confectionery-backend/internal/handlers"
	"github.com/javajoker/confectionery-backend/internal/i18n"
	"github.com/javajoker/confectionery-backend/internal/metrics"
	"github.com/javajoker/confectionery-backend/internal/middleware"
	"github.com/javajoker/confectionery-backend/internal/repository"
	"github.com/javajoker/confectionery-backend/internal/services"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

const maxMultipartMemory = 32 << 20

// Dependencies are the long-lived collaborators built by the server.
type Dependencies struct {
	Store  repository.Store
	Images services.ImageStore
	Postal services.PostalLookup
}

type routeHandlers struct {
	confectioneries *handlers.ConfectioneryHandler
	products        *handlers.ProductHandler
	addresses       *handlers.AddressHandler
	uploadLimit     gin.HandlerFunc
}

// Initialize builds the engine. ctx bounds the rate limiter housekeeping.
func Initialize(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	confectioneryService := services.NewConfectioneryService(deps.Store, deps.Images, deps.Postal)
	productService := services.NewProductService(deps.Store, deps.Images)

	// Initialize handlers
	routes := routeHandlers{
		confectioneries: handlers.NewConfectioneryHandler(confectioneryService),
		products:        handlers.NewProductHandler(productService, cfg.Storage.MaxImageSize),
		addresses:       handlers.NewAddressHandler(deps.Postal),
	}

	generalLimiter := middleware.PerSecond(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	uploadLimiter := middleware.PerMinute(cfg.RateLimit.UploadsPerMinute, cfg.RateLimit.UploadBurst)
	for _, limiter := range []*middleware.RateLimiter{generalLimiter, uploadLimiter} {
		if limiter != nil {
			go limiter.Run(ctx)
		}
	}
	routes.uploadLimit = uploadLimiter.Middleware()

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(metrics.Middleware())
	r.Use(generalLimiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyHealthy),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	registerRoutes(r, routes)
	registerRoutes(r.Group("/api"), routes)

	// Uploaded images, when they live on this host
	if cfg.Storage.Driver == "local" {
		r.Static("/storage", cfg.Storage.LocalPath)
	}

	return r
}

func registerRoutes(g gin.IRoutes, h routeHandlers) {
	// Confectionery routes
	g.GET("/confectioneries", h.confectioneries.GetConfectioneries)
	g.POST("/confectioneries", h.confectioneries.CreateConfectionery)
	g.GET("/confectioneries/:id", h.confectioneries.GetConfectionery)
	g.PUT("/confectioneries/:id", h.confectioneries.UpdateConfectionery)
	g.PATCH("/confectioneries/:id", h.confectioneries.UpdateConfectionery)
	g.DELETE("/confectioneries/:id", h.confectioneries.DeleteConfectionery)

	// Product routes; writes may carry image uploads
	g.GET("/products", h.products.GetProducts)
	g.POST("/products", h.uploadLimit, h.products.CreateProduct)
	g.GET("/products/:id", h.products.GetProduct)
	g.PUT("/products/:id", h.uploadLimit, h.products.UpdateProduct)
	g.PATCH("/products/:id", h.uploadLimit, h.products.UpdateProduct)
	g.DELETE("/products/:id", h.products.DeleteProduct)

	// Postal code lookup
	g.GET("/address/cep/:cep", h.addresses.LookupCEP)
}

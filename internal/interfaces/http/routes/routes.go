// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/interfaces/http/handlers"
	"github.com/elegant-store/storefront/internal/interfaces/http/middleware"
	"github.com/elegant-store/storefront/internal/pkg/auth"
)

// Dependencies are the services the routes are wired to. Deliveries may be
// nil when the delivery log is disabled.
type Dependencies struct {
	Relay      handlers.Relayer
	Catalog    *catalog.Catalog
	Deliveries handlers.DeliveryLister
	JWT        *auth.JWTManager
	Logger     logrus.FieldLogger
}

// SetupTrackingRoutes sets up the server relay endpoint. root receives the
// legacy path the storefront pages post to.
func SetupTrackingRoutes(root *gin.Engine, rg *gin.RouterGroup, deps Dependencies) {
	conversionHandler := handlers.NewConversionHandler(deps.Relay, deps.Logger)

	root.POST("/api/fb-capi", conversionHandler.TrackEvent)

	tracking := rg.Group("/tracking")
	{
		tracking.POST("/events", conversionHandler.TrackEvent)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, deps Dependencies) {
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)

	products := rg.Group("/products")
	{
		products.GET("", catalogHandler.GetProducts)
		products.GET("/:id", catalogHandler.GetProduct)
	}
}

// SetupAdminRoutes sets up operator routes
func SetupAdminRoutes(rg *gin.RouterGroup, deps Dependencies) {
	deliveryHandler := handlers.NewDeliveryAdminHandler(deps.Deliveries, deps.Logger)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.JWT))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/deliveries", deliveryHandler.GetDeliveries)
		admin.GET("/deliveries/stats", deliveryHandler.GetDeliveryStats)
	}
}

// SetupRoutes sets up every API route
func SetupRoutes(root *gin.Engine, deps Dependencies) {
	apiV1 := root.Group("/api/v1")

	SetupTrackingRoutes(root, apiV1, deps)
	SetupProductRoutes(apiV1, deps)
	SetupAdminRoutes(apiV1, deps)
}

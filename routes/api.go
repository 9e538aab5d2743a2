package routes

import (
	"github.com/address-completer/app/controllers"
	"github.com/address-completer/app/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controllers groups the handlers mounted by SetupAllRoutes.
type Controllers struct {
	Address  *controllers.AddressController
	Location *controllers.LocationController
	Admin    *controllers.AdminController
}

// SetupAPIRoutes mounts the /v1 API.
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/complete", ctrl.Address.CompleteAddress)
			addresses.POST("/jobs", ctrl.Address.SubmitBatch)
			addresses.GET("/jobs/:jobID/status", ctrl.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", ctrl.Address.GetJobResults)
			addresses.GET("/tips", ctrl.Location.Tips)
			addresses.GET("/geocode", ctrl.Location.Geocode)
		}

		v1.POST("/places/match", ctrl.Location.MatchPlace)

		location := v1.Group("/location")
		{
			location.GET("/city", ctrl.Location.CurrentCity)
			location.GET("/current", ctrl.Location.CurrentCityInfo)
		}

		v1.GET("/weather/:adcode", ctrl.Location.Weather)
		v1.POST("/key/validate", ctrl.Location.ValidateKey)
		v1.POST("/routes/walking/validate", ctrl.Location.ValidateWalking)

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", ctrl.Admin.GetStats)
			admin.GET("/quota", ctrl.Admin.GetQuota)
			admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
			admin.POST("/cache/clear", ctrl.Admin.ClearCache)
		}

		v1.GET("/health", ctrl.Address.HealthCheck)
	}
}

// SetupHealthRoutes mounts the probe endpoints.
func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.HealthCheck)
	router.GET("/live", addressController.HealthCheck)
}

// SetupAllRoutes installs middleware and every route.
func SetupAllRoutes(router *gin.Engine, ctrl Controllers, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Address)
	SetupAPIRoutes(router, ctrl)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
}

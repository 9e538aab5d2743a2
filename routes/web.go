package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes mounts the landing and documentation pages.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Address Completer Service",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Address Completer API v1",
				"endpoints": map[string]string{
					"complete":         "POST /v1/addresses/complete",
					"batch":            "POST /v1/addresses/jobs",
					"job_status":       "GET /v1/addresses/jobs/:jobID/status",
					"job_results":      "GET /v1/addresses/jobs/:jobID/results?format=ndjson&gzip=1",
					"tips":             "GET /v1/addresses/tips?keywords=",
					"geocode":          "GET /v1/addresses/geocode?address=&city=",
					"place_match":      "POST /v1/places/match",
					"current_city":     "GET /v1/location/city",
					"current_location": "GET /v1/location/current",
					"weather":          "GET /v1/weather/:adcode",
					"key_validate":     "POST /v1/key/validate",
					"walking_validate": "POST /v1/routes/walking/validate",
					"admin_stats":      "GET /v1/admin/stats",
					"admin_quota":      "GET /v1/admin/quota",
					"cache_invalidate": "POST /v1/admin/cache/invalidate?parser_version=",
					"cache_clear":      "POST /v1/admin/cache/clear",
					"health":           "GET /v1/health",
				},
			})
		})
	}
}

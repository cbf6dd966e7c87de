package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"powerpulse-backend/config"
	"powerpulse-backend/internal/mw"
)

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/metrics/:home_id", caching, handler.GetDashboardMetrics)
			dashboard.GET("/current-power/:home_id", caching, handler.GetCurrentPower)
			dashboard.GET("/today-usage/:home_id", caching, handler.GetTodayUsage)
			dashboard.GET("/today-cost/:home_id", caching, handler.GetTodayCost)
			dashboard.GET("/today-co2/:home_id", caching, handler.GetTodayCO2)
			dashboard.GET("/hourly-usage/:home_id", caching, handler.GetHourlyUsage)
			dashboard.GET("/weather/:home_id", caching, handler.GetDashboardWeather)
		}

		api.GET("/homes", caching, handler.GetHomes)
		api.GET("/homes/:home_id/devices", caching, handler.GetDevices)
		api.GET("/homes/:home_id/devices/:appliance/stats", caching, handler.GetDeviceStats)

		api.GET("/forecast/:home_id", caching, handler.GetForecast)
		api.GET("/forecast/:home_id/weather", caching, handler.GetWeatherForecast)

		api.POST("/analyze/:home_id", handler.PostAnalyze)

		api.POST("/coach/chat", handler.PostCoachChat)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

// WrapCORS applies the configured origin policy around the router.
func WrapCORS(cfg *config.ServerConfig, router http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.New(opts).Handler(router)
}

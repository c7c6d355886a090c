package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/pkg/container"
)

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = c.Config.Classifier.MaxImageBytes

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheckHandler(c))

	authed := v1.Group("", middleware.AuthMiddleware(c.JWTManager))
	for _, h := range []routeRegistrar{
		c.RequestHandler,
		c.SourcingHandler,
		c.ReservationHandler,
		c.InspectionHandler,
		c.CompletionHandler,
		c.ProcurementHandler,
		c.WarehouseHandler,
		c.SupplierHandler,
		c.ReportHandler,
	} {
		h.RegisterRoutes(authed)
	}

	return router
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"store":     appCtx.Config.App.Store,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		switch {
		case appCtx.Config.App.Store == "memory":
			dbStatus = "memory"
		case appCtx.DB == nil || appCtx.DB.Pool == nil:
			dbStatus = "disconnected"
		default:
			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
			}
		}

		cacheStatus := "ok"
		if appCtx.Cache == nil {
			cacheStatus = "disabled"
		} else if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = fmt.Sprintf("error: %v", err)
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"cache":    cacheStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" && dbStatus != "memory" {
			health["status"] = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}

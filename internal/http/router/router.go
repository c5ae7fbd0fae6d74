// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "orcamento_backend/internal/http"
	"orcamento_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// New builds the engine with shared middleware and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.Recovery(app.Logger))
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	if mw := corsMiddleware(app.Config); mw != nil {
		engine.Use(mw)
	}

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(httpkit.AuthRequired(app.Config))

	public := v1.Group("/public")
	public.Use(httpkit.NewPublicRateLimiter(app.Config, app.Logger).RateLimit())

	routerCtx := &apphttp.RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
		Public:    public,
		Config:    app.Config,
	}
	for _, m := range app.Modules {
		m.RegisterRoutes(routerCtx)
		app.Logger.Debug("module routes registered", "module", m.Name())
	}

	return engine
}

func corsMiddleware(cfg apphttp.RouterConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", httpkit.HeaderRequestID},
		ExposeHeaders: []string{"Content-Disposition", httpkit.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	switch {
	case cfg.GetCORSAllowAll():
		corsCfg.AllowAllOrigins = true
	case len(cfg.GetCORSOrigins()) > 0:
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
		corsCfg.AllowCredentials = cfg.GetCORSAllowCreds()
	default:
		return nil
	}
	return cors.New(corsCfg)
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/Depado/ginprom"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gltp/captrack/internal/config"
	"github.com/gltp/captrack/internal/record"
	"github.com/gltp/captrack/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"
)

func createRouter(conf config.Config, records record.Records, sentryEnabled bool) (*gin.Engine, error) {
	gin.SetMode(conf.General.Mode.String())

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(sloggin.NewWithConfig(slog.Default(), sloggin.Config{
		DefaultLevel: log.ToSlogLevel(conf.Log.Level),
	}))

	if sentryEnabled {
		engine.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	useCors(engine, conf.HTTP.CORSOrigins)
	usePrometheus(engine)

	engine.GET("/api/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "version": BuildVersion})
	})

	record.NewHandler(engine, records, authKeyMiddleware(conf.HTTP.AuthKey))

	return engine, nil
}

func useCors(engine *gin.Engine, origins []string) {
	if len(origins) == 0 {
		slog.Warn("No cors origins defined, disabling")

		return
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Auth-Key")
	corsConfig.AllowWildcard = true

	engine.Use(cors.New(corsConfig))
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "captrack"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// authKeyMiddleware guards the mutating endpoints with a pre-shared key. An
// empty configured key disables submissions entirely rather than opening
// them to everyone.
func authKeyMiddleware(authKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if authKey == "" || ctx.GetHeader("X-Auth-Key") != authKey {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}
}

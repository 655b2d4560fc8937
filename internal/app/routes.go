package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kurz-app/kurz-go/internal/middleware"
	"github.com/kurz-app/kurz-go/internal/modules/asset"
	"github.com/kurz-app/kurz-go/internal/modules/gateway"
	"github.com/kurz-app/kurz-go/internal/modules/summarize"
	"github.com/kurz-app/kurz-go/internal/modules/transcript"
	redisc "github.com/kurz-app/kurz-go/internal/pkg/redis"
	"github.com/kurz-app/kurz-go/internal/pkg/response"
	"github.com/kurz-app/kurz-go/internal/pkg/taskqueue"
	"github.com/kurz-app/kurz-go/internal/pkg/webpush"
)

func (a *App) registerRoutes(rc *redisc.Client) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "kurz",
		"version":  "1.0.0",
		"homepage": "https://github.com/kurz-app/kurz-go",
		"issues":   "https://github.com/kurz-app/kurz-go/issues",
	}

	r.Use(middleware.RateLimit(rc.Raw()))

	// Shared services
	store := asset.NewS3Store(a.cfg.S3)
	summaryCache := summarize.NewCache(rc, a.logger)
	generator := summarize.NewGenerator(a.cfg.AI)
	captions := transcript.NewYouTubeFetcher()
	speech := transcript.NewAssemblyClient(a.cfg.AssemblyAI.APIKey, a.cfg.AssemblyAI.Endpoint)

	summarySvc := summarize.NewService(generator, summaryCache, captions, speech, a.cfg.Limits, a.logger)
	taskSvc := taskqueue.NewService(rc)
	pushSvc := webpush.New(func() (string, bool) {
		return a.cfg.WebPush.URL, a.cfg.WebPush.Enable
	})
	runner := summarize.NewJobRunner(summarySvc, taskSvc, a.hub, pushSvc, store, a.logger)

	// Versioned API
	api := r.Group("/api/v2")

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	asset.NewHandler(store, summaryCache, a.cfg.Limits).RegisterRoutes(api)
	summarize.NewHandler(summarySvc, runner, a.logger).RegisterRoutes(api)

	// Socket gateway lives at the server root so stock clients find it.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)
	api.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"clients": a.hub.ClientCount(""),
		})
	})
}

package httptransport

import (
	"log/slog"

	"github.com/FlyinPancake/nag/internal/callback"
	"github.com/FlyinPancake/nag/internal/health"
	"github.com/FlyinPancake/nag/internal/transport/http/handler"
	"github.com/FlyinPancake/nag/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Chore      *handler.ChoreHandler
	Completion *handler.CompletionHandler
	Tag        *handler.TagHandler
	DueView    *handler.DueViewHandler
}

func NewRouter(
	logger *slog.Logger,
	h Handlers,
	authMiddleware gin.HandlerFunc,
	checker *health.Checker,
	telegramCallback *callback.Ingestor,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz/live", func(c *gin.Context) {
		c.JSON(200, checker.Liveness(c.Request.Context()))
	})
	r.GET("/healthz/ready", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		status := 200
		if result.Status != "up" {
			status = 503
		}
		c.JSON(status, result)
	})

	r.POST("/callbacks/telegram", telegramCallback.Handle)

	chores := r.Group("/chores", authMiddleware)
	chores.GET("", h.Chore.List)
	chores.POST("", h.Chore.Create)
	chores.GET("/due", h.DueView.Get)
	chores.GET("/:id", h.Chore.GetByID)
	chores.PUT("/:id", h.Chore.Update)
	chores.DELETE("/:id", h.Chore.Delete)
	chores.POST("/:id/complete", h.Chore.Complete)
	chores.GET("/:id/completions", h.Completion.List)

	completions := r.Group("/completions", authMiddleware)
	completions.DELETE("/:completion_id", h.Completion.Delete)

	tags := r.Group("/tags", authMiddleware)
	tags.GET("", h.Tag.List)
	tags.POST("", h.Tag.Create)
	tags.PUT("/:id", h.Tag.Update)
	tags.DELETE("/:id", h.Tag.Delete)

	return r
}

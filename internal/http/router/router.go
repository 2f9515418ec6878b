package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/auth"
	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	"github.com/ignatzorin/hiring-lifecycle/internal/http/middleware"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/handler"
)

// Handlers - всё, что обслуживает HTTP API.
type Handlers struct {
	Health      *handler.HealthHandler
	Hirings     *handler.HiringHandler
	Deliveries  *handler.DeliveryHandler
	Claims      *handler.ClaimHandler
	Compliances *handler.ComplianceHandler
	Moderation  *handler.ModerationHandler
	Attachments *handler.AttachmentHandler
	WS          *handler.WSHandler
}

func SetupRouter(cfg *config.Config, tokens *auth.TokenManager, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	// Публичные маршруты: подпись callback проверяется в хэндлере, токен ws - в query
	api.POST("/payments/callback", h.Deliveries.PaymentCallback)
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	commandLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	id := middleware.UUIDValidator("id")

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/hirings", h.Hirings.List)
		protected.GET("/hirings/:id", id, h.Hirings.Get)
		protected.GET("/hirings/:id/deliverables", id, h.Hirings.ListDeliverables)
		protected.GET("/hirings/:id/deliveries", id, h.Deliveries.List)
		protected.GET("/hirings/:id/can-claim", id, h.Claims.CanCreate)

		protected.GET("/deliveries/:id", id, h.Deliveries.Get)

		protected.GET("/claims", h.Claims.List)
		protected.GET("/claims/:id", id, h.Claims.Get)

		protected.GET("/compliances", h.Compliances.List)
		protected.GET("/compliances/:id", id, h.Compliances.Get)
	}

	commands := api.Group("/")
	commands.Use(middleware.AuthMiddleware(tokens), commandLimit)
	{
		commands.POST("/hirings", h.Hirings.Create)
		commands.POST("/hirings/:id/start", id, h.Hirings.Start)
		commands.POST("/hirings/:id/deliveries", id, h.Deliveries.Submit)
		commands.POST("/hirings/:id/claims", id, h.Claims.Open)

		commands.POST("/deliveries/:id/review", id, h.Deliveries.Review)

		commands.POST("/attachments", h.Attachments.Upload)

		commands.POST("/claims/:id/review", id, h.Claims.StartReview)
		commands.POST("/claims/:id/clarification", id, h.Claims.RequestClarification)
		commands.POST("/claims/:id/clarify", id, h.Claims.ProvideClarification)
		commands.POST("/claims/:id/escalate", id, h.Claims.Escalate)
		commands.POST("/claims/:id/cancel", id, h.Claims.Cancel)
		commands.POST("/claims/:id/reject", id, h.Claims.Reject)
		commands.POST("/claims/:id/resolve", id, h.Claims.Resolve)

		commands.POST("/compliances/:id/submit", id, h.Compliances.Submit)
		commands.POST("/compliances/:id/peer-review", id, h.Compliances.PeerReview)
		commands.POST("/compliances/:id/review", id, h.Compliances.StartReview)
		commands.POST("/compliances/:id/decide", id, h.Compliances.Decide)
	}

	moderationGroup := api.Group("/moderation")
	moderationGroup.Use(middleware.AuthMiddleware(tokens), middleware.RequireStaff())
	{
		moderationGroup.GET("/analyses", h.Moderation.List)
		moderationGroup.POST("/analyses", commandLimit, h.Moderation.Flag)
		moderationGroup.POST("/analyses/:id/resolve", id, commandLimit, h.Moderation.Resolve)
	}

	return r
}

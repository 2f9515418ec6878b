package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// RateLimitMiddleware ограничивает число команд. Ключ - пользователь, если он
// известен, иначе IP клиента.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if actor, ok := ActorFrom(c); ok {
			key = "user:" + actor.UserID.String()
		}

		lctx, err := instance.Get(c, key)
		if err != nil {
			logger.L().WithError(err).Error("rate limiter failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			c.Header("Retry-After", strconv.FormatInt(max(lctx.Reset-time.Now().Unix(), 1), 10))
			response.Error(c, &apperror.AppError{
				Code:       "RATE_LIMITED",
				Message:    "слишком много запросов, попробуйте позже",
				HTTPStatus: http.StatusTooManyRequests,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

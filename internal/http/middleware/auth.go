package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/auth"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// ContextActorKey - ключ gin.Context с entity.Actor текущего запроса.
const ContextActorKey = "actor"

// AuthMiddleware проверяет JWT access токен и кладёт пользователя в контекст.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.L().WithError(err).WithField("path", c.FullPath()).Debug("access token rejected")
			response.Error(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFrom возвращает пользователя, установленного AuthMiddleware.
func ActorFrom(c *gin.Context) (entity.Actor, bool) {
	raw, ok := c.Get(ContextActorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := raw.(entity.Actor)
	return actor, ok
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		response.Error(c, apperror.Forbidden())
		c.Abort()
	}
}

// RequireStaff - RequireRole для модераторов и администраторов.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(valueobject.RoleModerator, valueobject.RoleAdmin)
}

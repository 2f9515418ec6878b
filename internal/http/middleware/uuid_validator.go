package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметры пути являются валидными UUID.
// Использование: group.GET("/claims/:id", UUIDValidator("id"), handler.Get)
func UUIDValidator(paramNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range paramNames {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				response.Error(c, apperror.Validation("параметр %s должен быть валидным UUID", name))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

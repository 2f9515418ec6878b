package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/http/middleware"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

// currentActor возвращает пользователя запроса или отвечает 401.
func currentActor(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return entity.Actor{}, false
	}
	return actor, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("параметр %s должен быть валидным UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса; ошибки привязки превращаются в 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation("некорректные данные запроса: %v", err))
		return false
	}
	return true
}

// checkLengths проверяет верхние границы текстовых полей.
func checkLengths(c *gin.Context, fields ...validation.Field) bool {
	if err := validation.ValidateMax(fields...); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func pageQuery(c *gin.Context) repository.Page {
	return repository.Page{
		Limit:  parseIntQuery(c, "limit", repository.DefaultPageLimit),
		Offset: parseIntQuery(c, "offset", 0),
	}.Normalize()
}

// statusQuery принимает ?status=a&status=b и ?status=a,b.
func statusQuery(c *gin.Context) []string {
	var out []string
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func optionalUUIDQuery(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(c, apperror.Validation("параметр %s должен быть валидным UUID", key))
		return nil, false
	}
	return &id, true
}

// Package auth проверяет access-токены и превращает их в пользователя команды.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

// TokenManager проверяет JWT, выпущенные сервисом аккаунтов.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{accessSecret: []byte(accessSecret), accessTTL: accessTTL}
}

// ParseAccess извлекает id, роль и email из access токена.
func (m *TokenManager) ParseAccess(token string) (entity.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return entity.Actor{}, fmt.Errorf("auth: токен невалиден: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	role, _ := claims["role"].(string)
	if !valueobject.Role(role).IsValid() {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	email, _ := claims["email"].(string)

	return entity.Actor{UserID: userID, Role: valueobject.Role(role), Email: email}, nil
}

// Issue выпускает access токен. Используется CLI и тестами; пользователям токены выдаёт сервис аккаунтов.
func (m *TokenManager) Issue(actor entity.Actor) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   actor.UserID.String(),
		"role":  string(actor.Role),
		"email": actor.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

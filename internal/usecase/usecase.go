// Package usecase содержит общие для команд жизненного цикла зависимости.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
)

// Clock возвращает текущее время. Тесты подставляют фиксированные часы.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// Notification - событие, которое отправляется после фиксации транзакции.
type Notification struct {
	UserID uuid.UUID
	Event  string
	Data   any
}

// Dispatch отправляет накопленные события. Notifier может быть nil.
func Dispatch(ctx context.Context, n repository.Notifier, events []Notification) {
	if n == nil {
		return
	}
	for _, e := range events {
		if e.UserID == uuid.Nil {
			continue
		}
		n.Notify(ctx, e.UserID, e.Event, e.Data)
	}
}

// NopNotifier отбрасывает события.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, uuid.UUID, string, any) {}

// LoggingNotifier только пишет события в лог.
type LoggingNotifier struct{}

func (LoggingNotifier) Notify(_ context.Context, userID uuid.UUID, event string, _ any) {
	logger.L().WithField("user_id", userID).WithField("event", event).Debug("notification")
}

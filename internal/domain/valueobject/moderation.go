package valueobject

import (
	"slices"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type Classification string

const (
	ClassificationBan    Classification = "Banear"
	ClassificationReview Classification = "Revisar"
)

func (c Classification) IsValid() bool {
	return c == ClassificationBan || c == ClassificationReview
}

type ModerationAction string

const (
	ModerationActionBan            ModerationAction = "ban_user"
	ModerationActionSuspend        ModerationAction = "suspend_user"
	ModerationActionRelease        ModerationAction = "release_user"
	ModerationActionKeepMonitoring ModerationAction = "keep_monitoring"
)

// AllowedSuspensionDays перечисляет допустимые сроки приостановки аккаунта.
var AllowedSuspensionDays = []int{7, 15, 30}

func NewModerationAction(v string) (ModerationAction, error) {
	a := ModerationAction(v)
	switch a {
	case ModerationActionBan, ModerationActionSuspend, ModerationActionRelease, ModerationActionKeepMonitoring:
		return a, nil
	}
	return "", apperror.Validation("некорректное действие модерации: %q", v)
}

// RequiresNotes сообщает, обязательна ли заметка для пользователя.
func (a ModerationAction) RequiresNotes() bool {
	return a == ModerationActionBan || a == ModerationActionSuspend
}

// Cascades сообщает, закрывает ли действие открытые сущности пользователя.
func (a ModerationAction) Cascades() bool {
	return a == ModerationActionBan || a == ModerationActionSuspend
}

func IsAllowedSuspension(days int) bool {
	return slices.Contains(AllowedSuspensionDays, days)
}

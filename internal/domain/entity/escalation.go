package entity

import (
	"time"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

// EscalationPolicy задаёт, через сколько после срока обязательство получает
// следующий уровень. Просрочка наступает сразу после срока.
type EscalationPolicy struct {
	WarningAfter  time.Duration
	EscalateAfter time.Duration
	FinishAfter   time.Duration
}

func DefaultEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{
		WarningAfter:  72 * time.Hour,
		EscalateAfter: 168 * time.Hour,
		FinishAfter:   336 * time.Hour,
	}
}

func (p EscalationPolicy) level(overdueBy time.Duration) int {
	switch {
	case overdueBy <= 0:
		return 0
	case overdueBy >= p.FinishAfter:
		return 4
	case overdueBy >= p.EscalateAfter:
		return 3
	case overdueBy >= p.WarningAfter:
		return 2
	default:
		return 1
	}
}

// EvaluateEscalation вычисляет статус по сроку и текущему времени.
// Уровень только растёт: результат не ниже текущего. Повторный вызов с тем же now ничего не меняет.
func EvaluateEscalation(status valueobject.ComplianceStatus, deadline, now time.Time, policy EscalationPolicy) valueobject.ComplianceStatus {
	if !status.IsEscalationEligible() {
		return status
	}
	computed := policy.level(now.Sub(deadline))
	if computed <= status.EscalationLevel() {
		return status
	}
	return valueobject.EscalationStatus(computed)
}

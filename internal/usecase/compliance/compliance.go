// Package compliance содержит команды над обязательствами, назначенными по итогам претензии,
// и периодическую эскалацию просроченных сроков.
package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

type Deps struct {
	Tx          repository.TxManager
	Compliances repository.ComplianceRepository
	Claims      repository.ClaimRepository
	Analyses    repository.ModerationRepository
	Notifier    repository.Notifier
	Policy      entity.EscalationPolicy
	MaxFileSize int64
	Clock       usecase.Clock
}

func (d Deps) policy() entity.EscalationPolicy {
	if d.Policy == (entity.EscalationPolicy{}) {
		return entity.DefaultEscalationPolicy()
	}
	return d.Policy
}

// escalate применяет эскалацию к записи внутри транзакции и сохраняет её.
// Достижение finished_by_moderation ставит исполнителя на проверку модератору.
func (d Deps) escalate(ctx context.Context, c *entity.Compliance, now time.Time) ([]usecase.Notification, error) {
	from := c.Status
	if !c.ApplyEscalation(d.policy(), now) {
		return nil, nil
	}
	if err := d.Compliances.Update(ctx, c); err != nil {
		return nil, err
	}
	if c.Status == valueobject.ComplianceStatusFinishedByModeration {
		if err := d.Analyses.Create(ctx, entity.NewComplianceAnalysis(c, now)); err != nil {
			return nil, err
		}
	}
	logger.Transition("compliance", c.ID, from, c.Status, "escalation")
	return []usecase.Notification{{
		UserID: c.AssignedUserID,
		Event:  repository.EventComplianceEscalated,
		Data:   map[string]any{"compliance_id": c.ID, "status": c.Status, "deadline": c.Deadline},
	}}, nil
}

// authorize проверяет, что пользователь видит обязательство: исполнитель, сторона претензии или модератор.
func (d Deps) authorize(ctx context.Context, actor entity.Actor, c *entity.Compliance) (*entity.Claim, error) {
	claim, err := d.Claims.FindByID(ctx, c.ClaimID)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff() || c.AssignedUserID == actor.UserID || claim.IsParty(actor.UserID) {
		return claim, nil
	}
	return nil, apperror.Forbidden()
}

func (d Deps) find(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Compliance, error) {
	c, err := d.Compliances.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) && !actor.IsStaff() {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	return c, nil
}

type complianceStep func(c *entity.Compliance, claim *entity.Claim, now time.Time) error

// command выполняет шаг над обязательством: сначала доводит эскалацию до текущего
// момента, затем применяет шаг. Эскалация сохраняется, даже если шаг отклонён.
func (d Deps) command(ctx context.Context, actor entity.Actor, id uuid.UUID, allowed func(*entity.Compliance, *entity.Claim) bool, step complianceStep) (*entity.Compliance, error) {
	var (
		result  *entity.Compliance
		events  []usecase.Notification
		blocked error
	)
	err := d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := d.find(ctx, actor, id)
		if err != nil {
			return err
		}
		claim, err := d.authorize(ctx, actor, c)
		if err != nil {
			return err
		}
		if !allowed(c, claim) {
			return apperror.Forbidden()
		}

		now := d.Clock.Now()
		escalated, err := d.escalate(ctx, c, now)
		if err != nil {
			return err
		}
		events = escalated

		from := c.Status
		if err := step(c, claim, now); err != nil {
			if len(escalated) > 0 {
				// фиксируем эскалацию, а отказ возвращаем после коммита
				blocked = err
				return nil
			}
			return err
		}
		if err := d.Compliances.Update(ctx, c); err != nil {
			return err
		}
		logger.Transition("compliance", c.ID, from, c.Status, actor.UserID)
		result = c
		data := map[string]any{"compliance_id": c.ID, "status": c.Status}
		events = append(events,
			usecase.Notification{UserID: claim.ClaimantUserID, Event: repository.EventComplianceUpdated, Data: data},
			usecase.Notification{UserID: claim.RespondentUserID, Event: repository.EventComplianceUpdated, Data: data},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, d.Notifier, events)
	if blocked != nil {
		return nil, blocked
	}
	return result, nil
}

package compliance

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

type GetComplianceUseCase struct{ deps Deps }

func NewGetComplianceUseCase(deps Deps) *GetComplianceUseCase {
	return &GetComplianceUseCase{deps: deps}
}

// Execute возвращает обязательство, предварительно доведя эскалацию до текущего момента.
func (uc *GetComplianceUseCase) Execute(ctx context.Context, actor entity.Actor, complianceID uuid.UUID) (*entity.Compliance, error) {
	var (
		result *entity.Compliance
		events []usecase.Notification
	)
	err := uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := uc.deps.find(ctx, actor, complianceID)
		if err != nil {
			return err
		}
		if _, err := uc.deps.authorize(ctx, actor, c); err != nil {
			return err
		}
		if events, err = uc.deps.escalate(ctx, c, uc.deps.Clock.Now()); err != nil {
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, uc.deps.Notifier, events)
	return result, nil
}

type ListCompliancesInput struct {
	Actor    entity.Actor
	ClaimID  *uuid.UUID
	Statuses []string
	Page     repository.Page
}

type ListCompliancesUseCase struct{ deps Deps }

func NewListCompliancesUseCase(deps Deps) *ListCompliancesUseCase {
	return &ListCompliancesUseCase{deps: deps}
}

// Execute показывает статус с учётом эскалации на текущий момент, но не сохраняет его:
// записи в хранилище продвигает периодическая проверка.
func (uc *ListCompliancesUseCase) Execute(ctx context.Context, input ListCompliancesInput) ([]*entity.Compliance, int, error) {
	filter := repository.ComplianceFilter{ClaimID: input.ClaimID, Page: input.Page.Normalize()}
	if !input.Actor.IsStaff() {
		id := input.Actor.UserID
		filter.ParticipantID = &id
	}
	for _, s := range input.Statuses {
		status := valueobject.ComplianceStatus(s)
		if !status.IsValid() {
			return nil, 0, apperror.Validation("некорректный статус обязательства: %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	list, total, err := uc.deps.Compliances.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	now := uc.deps.Clock.Now()
	policy := uc.deps.policy()
	for _, c := range list {
		c.Status = entity.EvaluateEscalation(c.Status, c.Deadline, now, policy)
	}
	return list, total, nil
}

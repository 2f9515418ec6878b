package claim

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

// ComplianceSpec описывает обязательство, назначаемое при разрешении претензии.
type ComplianceSpec struct {
	AssignedUserID uuid.UUID
	ComplianceType string
	Instructions   string
	DeadlineDays   int
}

type ResolveClaimInput struct {
	Actor         entity.Actor
	ClaimID       uuid.UUID
	Resolution    string
	Justification string
	Compliances   []ComplianceSpec
}

type ResolveClaimOutput struct {
	Claim       *entity.Claim
	Hiring      *entity.Hiring
	Compliances []*entity.Compliance
}

type ResolveClaimUseCase struct{ deps Deps }

func NewResolveClaimUseCase(deps Deps) *ResolveClaimUseCase {
	return &ResolveClaimUseCase{deps: deps}
}

// Execute разрешает претензию, переводит найм в итоговый статус по типу решения
// и создаёт обязательства сторон. Всё фиксируется одной транзакцией.
func (uc *ResolveClaimUseCase) Execute(ctx context.Context, input ResolveClaimInput) (*ResolveClaimOutput, error) {
	if !input.Actor.IsStaff() {
		return nil, apperror.Forbidden()
	}
	resolution, err := valueobject.NewResolutionType(input.Resolution)
	if err != nil {
		return nil, err
	}

	var out *ResolveClaimOutput
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := uc.deps.Claims.FindByID(ctx, input.ClaimID)
		if err != nil {
			return err
		}
		h, err := uc.deps.Hirings.LockByID(ctx, c.HiringID)
		if err != nil {
			return err
		}
		if c, err = uc.deps.Claims.FindByID(ctx, input.ClaimID); err != nil {
			return err
		}

		now := uc.deps.Clock.Now()
		compliances, err := buildCompliances(c, input.Compliances, now)
		if err != nil {
			return err
		}

		from, hiringFrom := c.Status, h.Status
		if err := c.Resolve(resolution, input.Justification, input.Actor.UserID, now); err != nil {
			return err
		}
		if err := h.ResolveClaim(resolution, now); err != nil {
			return err
		}
		if err := uc.deps.Claims.Update(ctx, c); err != nil {
			return err
		}
		if err := uc.deps.Hirings.Update(ctx, h); err != nil {
			return err
		}
		if len(compliances) > 0 {
			if err := uc.deps.Compliances.CreateBatch(ctx, compliances); err != nil {
				return err
			}
		}

		logger.Transition("claim", c.ID, from, c.Status, input.Actor.UserID)
		logger.Transition("hiring", h.ID, hiringFrom, h.Status, input.Actor.UserID)
		out = &ResolveClaimOutput{Claim: c, Hiring: h, Compliances: compliances}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.notifyParties(ctx, out.Claim, repository.EventClaimResolved)
	events := make([]usecase.Notification, 0, len(out.Compliances))
	for _, cm := range out.Compliances {
		events = append(events, usecase.Notification{
			UserID: cm.AssignedUserID,
			Event:  repository.EventComplianceAssigned,
			Data:   map[string]any{"compliance_id": cm.ID, "claim_id": cm.ClaimID, "deadline": cm.Deadline},
		})
	}
	usecase.Dispatch(ctx, uc.deps.Notifier, events)
	return out, nil
}

// buildCompliances проверяет спецификации обязательств: назначать их можно только сторонам претензии.
func buildCompliances(c *entity.Claim, specs []ComplianceSpec, now time.Time) ([]*entity.Compliance, error) {
	out := make([]*entity.Compliance, 0, len(specs))
	for _, spec := range specs {
		if !c.IsParty(spec.AssignedUserID) {
			return nil, apperror.Validation("обязательство можно назначить только стороне претензии")
		}
		cm, err := entity.NewCompliance(c.ID, spec.AssignedUserID, spec.ComplianceType, spec.Instructions, spec.DeadlineDays, now)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}

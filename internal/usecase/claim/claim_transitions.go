package claim

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

// Deps - общие зависимости команд над претензией.
type Deps struct {
	Tx          repository.TxManager
	Hirings     repository.HiringRepository
	Claims      repository.ClaimRepository
	Compliances repository.ComplianceRepository
	Notifier    repository.Notifier
	Clock       usecase.Clock
}

type claimStep func(c *entity.Claim, h *entity.Hiring, now time.Time) (hiringChanged bool, err error)

// transition загружает претензию под блокировкой найма, проверяет права и применяет шаг.
func (d Deps) transition(ctx context.Context, actor entity.Actor, claimID uuid.UUID, allowed func(*entity.Claim) bool, step claimStep) (*entity.Claim, error) {
	var result *entity.Claim
	err := d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := d.Claims.FindByID(ctx, claimID)
		if err != nil {
			if apperror.IsNotFound(err) && !actor.IsStaff() {
				return apperror.Forbidden()
			}
			return err
		}
		h, err := d.Hirings.LockByID(ctx, c.HiringID)
		if err != nil {
			return err
		}
		// после блокировки найма перечитываем претензию
		if c, err = d.Claims.FindByID(ctx, claimID); err != nil {
			return err
		}
		if !allowed(c) {
			return apperror.Forbidden()
		}

		from, hiringFrom := c.Status, h.Status
		hiringChanged, err := step(c, h, d.Clock.Now())
		if err != nil {
			return err
		}
		if err := d.Claims.Update(ctx, c); err != nil {
			return err
		}
		if hiringChanged {
			if err := d.Hirings.Update(ctx, h); err != nil {
				return err
			}
			logger.Transition("hiring", h.ID, hiringFrom, h.Status, actor.UserID)
		}
		logger.Transition("claim", c.ID, from, c.Status, actor.UserID)
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.notifyParties(ctx, result, repository.EventClaimUpdated)
	return result, nil
}

func (d Deps) notifyParties(ctx context.Context, c *entity.Claim, event string) {
	data := map[string]any{"claim_id": c.ID, "status": c.Status}
	usecase.Dispatch(ctx, d.Notifier, []usecase.Notification{
		{UserID: c.ClaimantUserID, Event: event, Data: data},
		{UserID: c.RespondentUserID, Event: event, Data: data},
	})
}

func staffOnly(actor entity.Actor) func(*entity.Claim) bool {
	return func(*entity.Claim) bool { return actor.IsStaff() }
}

type StartReviewUseCase struct{ deps Deps }

func NewStartReviewUseCase(deps Deps) *StartReviewUseCase {
	return &StartReviewUseCase{deps: deps}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID) (*entity.Claim, error) {
	return uc.deps.transition(ctx, actor, claimID, staffOnly(actor), func(c *entity.Claim, _ *entity.Hiring, now time.Time) (bool, error) {
		return false, c.StartReview(now)
	})
}

type RequestClarificationUseCase struct{ deps Deps }

func NewRequestClarificationUseCase(deps Deps) *RequestClarificationUseCase {
	return &RequestClarificationUseCase{deps: deps}
}

func (uc *RequestClarificationUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID, question string) (*entity.Claim, error) {
	return uc.deps.transition(ctx, actor, claimID, staffOnly(actor), func(c *entity.Claim, _ *entity.Hiring, now time.Time) (bool, error) {
		return false, c.RequestClarification(question, now)
	})
}

type ProvideClarificationUseCase struct{ deps Deps }

func NewProvideClarificationUseCase(deps Deps) *ProvideClarificationUseCase {
	return &ProvideClarificationUseCase{deps: deps}
}

// Execute: отвечать на уточнение могут обе стороны претензии.
func (uc *ProvideClarificationUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID, answer string) (*entity.Claim, error) {
	allowed := func(c *entity.Claim) bool { return c.IsParty(actor.UserID) }
	return uc.deps.transition(ctx, actor, claimID, allowed, func(c *entity.Claim, _ *entity.Hiring, now time.Time) (bool, error) {
		return false, c.ProvideClarification(answer, now)
	})
}

type EscalateClaimUseCase struct{ deps Deps }

func NewEscalateClaimUseCase(deps Deps) *EscalateClaimUseCase {
	return &EscalateClaimUseCase{deps: deps}
}

func (uc *EscalateClaimUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID) (*entity.Claim, error) {
	return uc.deps.transition(ctx, actor, claimID, staffOnly(actor), func(c *entity.Claim, _ *entity.Hiring, now time.Time) (bool, error) {
		return false, c.EscalateToStaff(now)
	})
}

type CancelClaimUseCase struct{ deps Deps }

func NewCancelClaimUseCase(deps Deps) *CancelClaimUseCase {
	return &CancelClaimUseCase{deps: deps}
}

// Execute: отозвать претензию может только заявитель; найм возвращается в прежний статус.
func (uc *CancelClaimUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID, reason string) (*entity.Claim, error) {
	allowed := func(c *entity.Claim) bool { return c.ClaimantUserID == actor.UserID }
	return uc.deps.transition(ctx, actor, claimID, allowed, func(c *entity.Claim, h *entity.Hiring, now time.Time) (bool, error) {
		if err := c.Cancel(reason, now); err != nil {
			return false, err
		}
		return true, h.LeaveClaim(now)
	})
}

type RejectClaimUseCase struct{ deps Deps }

func NewRejectClaimUseCase(deps Deps) *RejectClaimUseCase {
	return &RejectClaimUseCase{deps: deps}
}

func (uc *RejectClaimUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID, reason string) (*entity.Claim, error) {
	return uc.deps.transition(ctx, actor, claimID, staffOnly(actor), func(c *entity.Claim, h *entity.Hiring, now time.Time) (bool, error) {
		if err := c.Reject(reason, now); err != nil {
			return false, err
		}
		return true, h.LeaveClaim(now)
	})
}

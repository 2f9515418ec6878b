package claim

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

// CanCreateClaim - проверка из карточки найма: сторона найма, подходящий статус
// и отсутствие другой активной претензии.
func CanCreateClaim(h *entity.Hiring, actor entity.Actor, hasActiveClaim bool) error {
	if !h.IsParty(actor.UserID) {
		return apperror.Forbidden()
	}
	if !h.Status.IsClaimable() {
		return apperror.StateConflict("по найму в статусе %s нельзя открыть претензию", h.Status)
	}
	if hasActiveClaim {
		return apperror.StateConflict("по найму уже есть активная претензия")
	}
	return nil
}

func hasActiveClaim(ctx context.Context, claimRepo repository.ClaimRepository, hiringID uuid.UUID) (bool, error) {
	_, err := claimRepo.FindActiveByHiring(ctx, hiringID)
	switch {
	case err == nil:
		return true, nil
	case apperror.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type CanCreateClaimUseCase struct {
	hiringRepo repository.HiringRepository
	claimRepo  repository.ClaimRepository
}

func NewCanCreateClaimUseCase(hiringRepo repository.HiringRepository, claimRepo repository.ClaimRepository) *CanCreateClaimUseCase {
	return &CanCreateClaimUseCase{hiringRepo: hiringRepo, claimRepo: claimRepo}
}

func (uc *CanCreateClaimUseCase) Execute(ctx context.Context, actor entity.Actor, hiringID uuid.UUID) (*Eligibility, error) {
	h, err := uc.hiringRepo.FindByID(ctx, hiringID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	if !h.IsParty(actor.UserID) {
		return nil, apperror.Forbidden()
	}
	active, err := hasActiveClaim(ctx, uc.claimRepo, h.ID)
	if err != nil {
		return nil, err
	}
	if err := CanCreateClaim(h, actor, active); err != nil {
		var reason string
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			reason = appErr.Message
		}
		return &Eligibility{Allowed: false, Reason: reason}, nil
	}
	return &Eligibility{Allowed: true}, nil
}

type OpenClaimInput struct {
	Actor       entity.Actor
	HiringID    uuid.UUID
	ClaimType   string
	Description string
	Priority    string
}

type OpenClaimUseCase struct {
	tx         repository.TxManager
	hiringRepo repository.HiringRepository
	claimRepo  repository.ClaimRepository
	notifier   repository.Notifier
	clock      usecase.Clock
}

func NewOpenClaimUseCase(tx repository.TxManager, hiringRepo repository.HiringRepository, claimRepo repository.ClaimRepository, notifier repository.Notifier, clock usecase.Clock) *OpenClaimUseCase {
	return &OpenClaimUseCase{tx: tx, hiringRepo: hiringRepo, claimRepo: claimRepo, notifier: notifier, clock: clock}
}

// Execute открывает претензию и переводит найм в in_claim. Строка найма блокируется,
// поэтому открытие и разрешение претензий по одному найму не пересекаются.
func (uc *OpenClaimUseCase) Execute(ctx context.Context, input OpenClaimInput) (*entity.Claim, error) {
	var (
		result *entity.Claim
		hiring *entity.Hiring
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := uc.hiringRepo.LockByID(ctx, input.HiringID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.Forbidden()
			}
			return err
		}
		active, err := hasActiveClaim(ctx, uc.claimRepo, h.ID)
		if err != nil {
			return err
		}
		if err := CanCreateClaim(h, input.Actor, active); err != nil {
			return err
		}

		now := uc.clock.Now()
		c, err := entity.NewClaim(h, input.Actor.UserID, input.ClaimType, input.Description, input.Priority, now)
		if err != nil {
			return err
		}
		from := h.Status
		if err := h.EnterClaim(now); err != nil {
			return err
		}
		if err := uc.claimRepo.Create(ctx, c); err != nil {
			return err
		}
		if err := uc.hiringRepo.Update(ctx, h); err != nil {
			return err
		}
		logger.Transition("claim", c.ID, "", c.Status, input.Actor.UserID)
		logger.Transition("hiring", h.ID, from, h.Status, input.Actor.UserID)
		result, hiring = c, h
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, uc.notifier, []usecase.Notification{{
		UserID: result.RespondentUserID,
		Event:  repository.EventClaimOpened,
		Data:   map[string]any{"claim_id": result.ID, "hiring_id": hiring.ID, "claim_type": result.ClaimType},
	}})
	return result, nil
}

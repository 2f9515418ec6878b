package hiring

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

type CreateHiringInput struct {
	Actor           entity.Actor
	ProviderID      uuid.UUID
	ServiceID       uuid.UUID
	PaymentModality string
	QuotedPrice     float64
	Deliverables    []entity.DeliverablePlan
}

type CreateHiringOutput struct {
	Hiring       *entity.Hiring
	Deliverables []*entity.Deliverable
}

type CreateHiringUseCase struct {
	tx              repository.TxManager
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
	clock           usecase.Clock
}

func NewCreateHiringUseCase(tx repository.TxManager, hiringRepo repository.HiringRepository, deliverableRepo repository.DeliverableRepository, clock usecase.Clock) *CreateHiringUseCase {
	return &CreateHiringUseCase{tx: tx, hiringRepo: hiringRepo, deliverableRepo: deliverableRepo, clock: clock}
}

func (uc *CreateHiringUseCase) Execute(ctx context.Context, input CreateHiringInput) (*CreateHiringOutput, error) {
	if input.Actor.Role != valueobject.RoleClient {
		return nil, apperror.Forbidden()
	}
	modality, err := valueobject.NewPaymentModality(input.PaymentModality)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	h, err := entity.NewHiring(input.Actor.UserID, input.ProviderID, input.ServiceID, modality, input.QuotedPrice, now)
	if err != nil {
		return nil, err
	}
	deliverables, err := entity.NewDeliverables(h, input.Deliverables, now)
	if err != nil {
		return nil, err
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.hiringRepo.Create(ctx, h); err != nil {
			return err
		}
		if len(deliverables) > 0 {
			return uc.deliverableRepo.CreateBatch(ctx, deliverables)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Transition("hiring", h.ID, "", h.Status, input.Actor.UserID)
	return &CreateHiringOutput{Hiring: h, Deliverables: deliverables}, nil
}

type StartHiringUseCase struct {
	tx         repository.TxManager
	hiringRepo repository.HiringRepository
	clock      usecase.Clock
}

func NewStartHiringUseCase(tx repository.TxManager, hiringRepo repository.HiringRepository, clock usecase.Clock) *StartHiringUseCase {
	return &StartHiringUseCase{tx: tx, hiringRepo: hiringRepo, clock: clock}
}

// Execute переводит найм в работу; выполняет только исполнитель.
func (uc *StartHiringUseCase) Execute(ctx context.Context, actor entity.Actor, hiringID uuid.UUID) (*entity.Hiring, error) {
	var result *entity.Hiring
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := uc.hiringRepo.LockByID(ctx, hiringID)
		if err != nil {
			return err
		}
		if !h.IsProvider(actor.UserID) {
			return apperror.Forbidden()
		}
		from := h.Status
		if err := h.Start(uc.clock.Now()); err != nil {
			return err
		}
		if err := uc.hiringRepo.Update(ctx, h); err != nil {
			return err
		}
		logger.Transition("hiring", h.ID, from, h.Status, actor.UserID)
		result = h
		return nil
	})
	return result, err
}

package delivery

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

// ensureNotFrozen запрещает сдачу и проверку работы, пока по найму есть активная претензия.
func ensureNotFrozen(ctx context.Context, claimRepo repository.ClaimRepository, h *entity.Hiring) error {
	if h.Status == valueobject.HiringStatusInClaim {
		return apperror.StateConflict("по найму открыта претензия, действия со сдачами заморожены")
	}
	_, err := claimRepo.FindActiveByHiring(ctx, h.ID)
	switch {
	case err == nil:
		return apperror.StateConflict("по найму открыта претензия, действия со сдачами заморожены")
	case apperror.IsNotFound(err):
		return nil
	default:
		return err
	}
}

type SubmitDeliveryInput struct {
	Actor         entity.Actor
	HiringID      uuid.UUID
	DeliverableID *uuid.UUID
	Content       string
	Attachments   []entity.Attachment
}

type SubmitDeliveryUseCase struct {
	tx              repository.TxManager
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
	deliveryRepo    repository.DeliveryRepository
	claimRepo       repository.ClaimRepository
	notifier        repository.Notifier
	rules           entity.AttachmentRules
	clock           usecase.Clock
}

func NewSubmitDeliveryUseCase(
	tx repository.TxManager,
	hiringRepo repository.HiringRepository,
	deliverableRepo repository.DeliverableRepository,
	deliveryRepo repository.DeliveryRepository,
	claimRepo repository.ClaimRepository,
	notifier repository.Notifier,
	maxFileSize int64,
	clock usecase.Clock,
) *SubmitDeliveryUseCase {
	return &SubmitDeliveryUseCase{
		tx:              tx,
		hiringRepo:      hiringRepo,
		deliverableRepo: deliverableRepo,
		deliveryRepo:    deliveryRepo,
		claimRepo:       claimRepo,
		notifier:        notifier,
		rules:           entity.AttachmentRules{MaxCount: entity.MaxDeliveryAttachments, MaxFileSize: maxFileSize},
		clock:           clock,
	}
}

func (uc *SubmitDeliveryUseCase) Execute(ctx context.Context, input SubmitDeliveryInput) (*entity.Delivery, error) {
	var (
		result *entity.Delivery
		events []usecase.Notification
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := uc.hiringRepo.LockByID(ctx, input.HiringID)
		if err != nil {
			return err
		}
		if !h.IsProvider(input.Actor.UserID) {
			return apperror.Forbidden()
		}
		if err := ensureNotFrozen(ctx, uc.claimRepo, h); err != nil {
			return err
		}
		if !h.Status.AcceptsDeliveries() {
			return apperror.StateConflict("найм в статусе %s не принимает сдачи", h.Status)
		}

		now := uc.clock.Now()
		price := h.QuotedPrice
		var target *entity.Deliverable
		if h.ByDeliverables() {
			if input.DeliverableID == nil {
				return apperror.Validation("для оплаты по этапам нужно указать этап")
			}
			list, err := uc.deliverableRepo.ListByHiring(ctx, h.ID)
			if err != nil {
				return err
			}
			for _, d := range list {
				if d.ID == *input.DeliverableID {
					target = d
				}
			}
			if target == nil {
				return apperror.ErrDeliverableNotFound
			}
			if entity.IsLocked(list, target) {
				return apperror.OrderViolation("этап %d недоступен, пока не одобрен предыдущий", target.OrderIndex)
			}
			if !target.Status.AcceptsDelivery() {
				return apperror.StateConflict("этап %d в статусе %s не принимает сдачу", target.OrderIndex, target.Status)
			}
			price = target.Price
		} else {
			if input.DeliverableID != nil {
				return apperror.Validation("найм с полной оплатой не содержит этапов")
			}
			latest, err := uc.deliveryRepo.FindLatest(ctx, h.ID, nil)
			switch {
			case err == nil && latest.Status != valueobject.DeliveryStatusRevisionRequested:
				return apperror.StateConflict("предыдущая сдача ещё не закрыта")
			case err != nil && !apperror.IsNotFound(err):
				return err
			}
		}

		d, err := entity.NewDelivery(h.ID, input.DeliverableID, input.Content, input.Attachments, price, uc.rules, now)
		if err != nil {
			return err
		}
		if target != nil {
			if err := target.MarkDelivered(now); err != nil {
				return err
			}
			if err := uc.deliverableRepo.Update(ctx, target); err != nil {
				return err
			}
		}
		from := h.Status
		if err := h.MarkDelivered(now); err != nil {
			return err
		}
		if err := uc.hiringRepo.Update(ctx, h); err != nil {
			return err
		}
		if err := uc.deliveryRepo.Create(ctx, d); err != nil {
			return err
		}

		logger.Transition("hiring", h.ID, from, h.Status, input.Actor.UserID)
		logger.Transition("delivery", d.ID, "", d.Status, input.Actor.UserID)
		result = d
		events = append(events, usecase.Notification{UserID: h.ClientID, Event: repository.EventDeliverySubmitted, Data: map[string]any{
			"hiring_id": h.ID, "delivery_id": d.ID,
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, uc.notifier, events)
	return result, nil
}

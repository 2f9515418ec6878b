package delivery

import (
	"context"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

// PaymentCallback - проверенный результат платежа от шлюза.
type PaymentCallback struct {
	ExternalRef string
	Succeeded   bool
	Reason      string
}

type ConfirmPaymentOutput struct {
	Payment  *entity.Payment
	Delivery *entity.Delivery
	Hiring   *entity.Hiring
}

type ConfirmPaymentUseCase struct {
	tx              repository.TxManager
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
	deliveryRepo    repository.DeliveryRepository
	paymentRepo     repository.PaymentRepository
	notifier        repository.Notifier
	clock           usecase.Clock
}

func NewConfirmPaymentUseCase(
	tx repository.TxManager,
	hiringRepo repository.HiringRepository,
	deliverableRepo repository.DeliverableRepository,
	deliveryRepo repository.DeliveryRepository,
	paymentRepo repository.PaymentRepository,
	notifier repository.Notifier,
	clock usecase.Clock,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		tx:              tx,
		hiringRepo:      hiringRepo,
		deliverableRepo: deliverableRepo,
		deliveryRepo:    deliveryRepo,
		paymentRepo:     paymentRepo,
		notifier:        notifier,
		clock:           clock,
	}
}

// Execute применяет результат платежа. Повторный callback по обработанному платежу
// возвращает AlreadyResolved и ничего не меняет.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cb PaymentCallback) (*ConfirmPaymentOutput, error) {
	if cb.ExternalRef == "" {
		return nil, apperror.Validation("не указан идентификатор платежа")
	}
	var (
		out    *ConfirmPaymentOutput
		events []usecase.Notification
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.paymentRepo.FindByExternalRef(ctx, cb.ExternalRef)
		if err != nil {
			return err
		}
		d, err := uc.deliveryRepo.LockByID(ctx, p.DeliveryID)
		if err != nil {
			return err
		}
		h, err := uc.hiringRepo.LockByID(ctx, d.HiringID)
		if err != nil {
			return err
		}
		now := uc.clock.Now()

		if !cb.Succeeded {
			if err := p.Fail(cb.Reason, now); err != nil {
				return err
			}
			if err := uc.paymentRepo.Update(ctx, p); err != nil {
				return err
			}
			logger.L().WithField("delivery_id", d.ID).WithField("reason", cb.Reason).Warn("payment failed")
			out = &ConfirmPaymentOutput{Payment: p, Delivery: d, Hiring: h}
			events = append(events, usecase.Notification{UserID: h.ClientID, Event: repository.EventPaymentFailed, Data: map[string]any{
				"delivery_id": d.ID, "reason": cb.Reason,
			}})
			return nil
		}

		if d.Status != valueobject.DeliveryStatusPendingPayment {
			return apperror.AlreadyResolved("сдача не ожидает оплаты")
		}
		if err := p.Confirm(now); err != nil {
			return err
		}
		if err := d.Approve(now); err != nil {
			return err
		}

		allApproved := true
		if d.DeliverableID != nil {
			list, err := uc.deliverableRepo.ListByHiring(ctx, h.ID)
			if err != nil {
				return err
			}
			for _, item := range list {
				if item.ID != *d.DeliverableID {
					continue
				}
				if err := item.Approve(now); err != nil {
					return err
				}
				if err := uc.deliverableRepo.Update(ctx, item); err != nil {
					return err
				}
			}
			allApproved = entity.AllApproved(list)
		}

		from := h.Status
		if err := h.ApplyPayment(allApproved, now); err != nil {
			return err
		}
		if err := uc.hiringRepo.Update(ctx, h); err != nil {
			return err
		}
		if err := uc.deliveryRepo.Update(ctx, d); err != nil {
			return err
		}
		if err := uc.paymentRepo.Update(ctx, p); err != nil {
			return err
		}

		logger.Transition("delivery", d.ID, valueobject.DeliveryStatusPendingPayment, d.Status, "payment-gateway")
		logger.Transition("hiring", h.ID, from, h.Status, "payment-gateway")
		out = &ConfirmPaymentOutput{Payment: p, Delivery: d, Hiring: h}
		data := map[string]any{"delivery_id": d.ID, "hiring_status": h.Status}
		events = append(events,
			usecase.Notification{UserID: h.ProviderID, Event: repository.EventDeliveryPaid, Data: data},
			usecase.Notification{UserID: h.ClientID, Event: repository.EventDeliveryPaid, Data: data},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, uc.notifier, events)
	return out, nil
}

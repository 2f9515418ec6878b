package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type Payment struct {
	ID          uuid.UUID
	DeliveryID  uuid.UUID
	HiringID    uuid.UUID
	Amount      valueobject.Money
	Status      valueobject.PaymentStatus
	ExternalRef string
	RedirectURL string
	FailReason  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewPayment(delivery *Delivery, externalRef, redirectURL string, now time.Time) *Payment {
	return &Payment{
		ID:          uuid.New(),
		DeliveryID:  delivery.ID,
		HiringID:    delivery.HiringID,
		Amount:      delivery.Price,
		Status:      valueobject.PaymentStatusInitiated,
		ExternalRef: externalRef,
		RedirectURL: redirectURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p *Payment) Confirm(now time.Time) error {
	if p.Status != valueobject.PaymentStatusInitiated {
		return apperror.AlreadyResolved("платёж уже обработан")
	}
	p.Status = valueobject.PaymentStatusConfirmed
	p.UpdatedAt = now
	return nil
}

func (p *Payment) Fail(reason string, now time.Time) error {
	if p.Status != valueobject.PaymentStatusInitiated {
		return apperror.AlreadyResolved("платёж уже обработан")
	}
	p.Status = valueobject.PaymentStatusFailed
	p.FailReason = &reason
	p.UpdatedAt = now
	return nil
}

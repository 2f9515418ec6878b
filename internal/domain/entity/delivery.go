package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

const DeliveryContentMinLength = 10

type Delivery struct {
	ID            uuid.UUID
	HiringID      uuid.UUID
	DeliverableID *uuid.UUID
	Content       string
	Attachments   []Attachment
	Status        valueobject.DeliveryStatus
	Price         valueobject.Money
	DeliveredAt   time.Time
	ReviewedAt    *time.Time
	RevisionNotes *string
	ApprovedAt    *time.Time
	Version       int
	UpdatedAt     time.Time
}

// NewDelivery проверяет содержимое и вложения. Последовательность этапов проверяет вызывающий.
func NewDelivery(hiringID uuid.UUID, deliverableID *uuid.UUID, content string, attachments []Attachment, price valueobject.Money, rules AttachmentRules, now time.Time) (*Delivery, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < DeliveryContentMinLength {
		return nil, apperror.Validation("описание сдачи должно содержать не менее %d символов", DeliveryContentMinLength)
	}
	if rules.MaxCount == 0 {
		rules.MaxCount = MaxDeliveryAttachments
	}
	if rules.MaxFileSize == 0 {
		rules.MaxFileSize = DefaultMaxFileSize
	}
	if err := rules.Validate(attachments); err != nil {
		return nil, err
	}

	return &Delivery{
		ID:            uuid.New(),
		HiringID:      hiringID,
		DeliverableID: deliverableID,
		Content:       content,
		Attachments:   attachments,
		Status:        valueobject.DeliveryStatusDelivered,
		Price:         price,
		DeliveredAt:   now,
		Version:       1,
		UpdatedAt:     now,
	}, nil
}

func (d *Delivery) transition(next valueobject.DeliveryStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(next) {
		return apperror.StateConflict("невозможно перевести сдачу из статуса %s в %s", d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = now
	return nil
}

// Approve закрывает сдачу без оплаты через шлюз (полная оплата найма) или после подтверждения платежа.
func (d *Delivery) Approve(now time.Time) error {
	if err := d.transition(valueobject.DeliveryStatusApproved, now); err != nil {
		return err
	}
	if d.ReviewedAt == nil {
		d.ReviewedAt = &now
	}
	d.ApprovedAt = &now
	return nil
}

func (d *Delivery) MarkPendingPayment(now time.Time) error {
	if err := d.transition(valueobject.DeliveryStatusPendingPayment, now); err != nil {
		return err
	}
	d.ReviewedAt = &now
	return nil
}

func (d *Delivery) RequestRevision(notes string, now time.Time) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return apperror.Validation("укажите, что нужно доработать")
	}
	if err := d.transition(valueobject.DeliveryStatusRevisionRequested, now); err != nil {
		return err
	}
	d.RevisionNotes = &notes
	d.ReviewedAt = &now
	return nil
}

// NeedsWatermark: клиент не получает исходные файлы, пока сдача не одобрена и не оплачена.
func (d *Delivery) NeedsWatermark(viewerIsClient bool) bool {
	return viewerIsClient && d.Status != valueobject.DeliveryStatusApproved
}

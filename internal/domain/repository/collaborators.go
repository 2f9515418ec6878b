package repository

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
)

type PaymentRequest struct {
	DeliveryID  uuid.UUID
	HiringID    uuid.UUID
	Amount      valueobject.Money
	Description string
}

type PaymentSession struct {
	ExternalRef string
	RedirectURL string
}

// PaymentGateway инициирует платёж; результат приходит позже через callback.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}

type StoredFile struct {
	Path string
	Size int64
}

type FileStorage interface {
	Store(ctx context.Context, fileName string, r io.Reader) (*StoredFile, error)
	// Derive возвращает путь к защищённой водяным знаком копии файла.
	Derive(ctx context.Context, path string) (string, error)
}

// Notifier доставляет событие жизненного цикла пользователю. Ошибки доставки не влияют на команду.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, data any)
}

const (
	EventDeliverySubmitted   = "delivery_submitted"
	EventDeliveryReviewed    = "delivery_reviewed"
	EventDeliveryPaid        = "delivery_paid"
	EventPaymentFailed       = "payment_failed"
	EventClaimOpened         = "claim_opened"
	EventClaimUpdated        = "claim_updated"
	EventClaimResolved       = "claim_resolved"
	EventComplianceAssigned  = "compliance_assigned"
	EventComplianceUpdated   = "compliance_updated"
	EventComplianceEscalated = "compliance_escalated"
	EventModerationResolved  = "moderation_resolved"
)

package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
)

type SubmitDeliveryRequest struct {
	DeliverableID *uuid.UUID      `json:"deliverable_id"`
	Content       string          `json:"content" binding:"required"`
	Attachments   []AttachmentDTO `json:"attachments" binding:"dive"`
}

type ReviewDeliveryRequest struct {
	Action string `json:"action" binding:"required,oneof=approve request_revision"`
	Notes  string `json:"notes"`
}

// PaymentCallbackRequest - подписанное уведомление платёжного шлюза.
type PaymentCallbackRequest struct {
	Token string `json:"token" binding:"required"`
}

type DeliveryResponse struct {
	ID             uuid.UUID       `json:"id"`
	HiringID       uuid.UUID       `json:"hiring_id"`
	DeliverableID  *uuid.UUID      `json:"deliverable_id,omitempty"`
	Content        string          `json:"content"`
	Attachments    []AttachmentDTO `json:"attachments"`
	Status         string          `json:"status"`
	Price          MoneyDTO        `json:"price"`
	DeliveredAt    time.Time       `json:"delivered_at"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
	RevisionNotes  *string         `json:"revision_notes,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	NeedsWatermark bool            `json:"needs_watermark"`
}

func ToDeliveryResponse(d *entity.Delivery, needsWatermark bool) DeliveryResponse {
	return DeliveryResponse{
		ID:             d.ID,
		HiringID:       d.HiringID,
		DeliverableID:  d.DeliverableID,
		Content:        d.Content,
		Attachments:    FromAttachments(d.Attachments),
		Status:         string(d.Status),
		Price:          MoneyDTO{Amount: d.Price.Amount, Currency: d.Price.Currency},
		DeliveredAt:    d.DeliveredAt,
		ReviewedAt:     d.ReviewedAt,
		RevisionNotes:  d.RevisionNotes,
		ApprovedAt:     d.ApprovedAt,
		NeedsWatermark: needsWatermark,
	}
}

func ToDeliveryView(v *delivery.DeliveryView) DeliveryResponse {
	return ToDeliveryResponse(v.Delivery, v.NeedsWatermark)
}

func ToDeliveryViews(list []*delivery.DeliveryView) []DeliveryResponse {
	out := make([]DeliveryResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToDeliveryView(v))
	}
	return out
}

type ReviewDeliveryResponse struct {
	Delivery    DeliveryResponse `json:"delivery"`
	Hiring      HiringResponse   `json:"hiring"`
	RedirectURL string           `json:"redirect_url,omitempty"`
}

type PaymentResponse struct {
	ID          uuid.UUID `json:"id"`
	DeliveryID  uuid.UUID `json:"delivery_id"`
	Status      string    `json:"status"`
	ExternalRef string    `json:"external_ref"`
	FailReason  *string   `json:"fail_reason,omitempty"`
}

type ConfirmPaymentResponse struct {
	Payment        PaymentResponse `json:"payment"`
	DeliveryID     uuid.UUID       `json:"delivery_id"`
	DeliveryStatus string          `json:"delivery_status"`
	HiringStatus   string          `json:"hiring_status"`
}

func ToConfirmPaymentResponse(out *delivery.ConfirmPaymentOutput) ConfirmPaymentResponse {
	return ConfirmPaymentResponse{
		Payment: PaymentResponse{
			ID:          out.Payment.ID,
			DeliveryID:  out.Payment.DeliveryID,
			Status:      string(out.Payment.Status),
			ExternalRef: out.Payment.ExternalRef,
			FailReason:  out.Payment.FailReason,
		},
		DeliveryID:     out.Delivery.ID,
		DeliveryStatus: string(out.Delivery.Status),
		HiringStatus:   string(out.Hiring.Status),
	}
}

package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
)

type CreateHiringRequest struct {
	ProviderID      uuid.UUID            `json:"provider_id"`
	ServiceID       uuid.UUID            `json:"service_id"`
	PaymentModality string               `json:"payment_modality" binding:"required"`
	QuotedPrice     float64              `json:"quoted_price" binding:"required,gt=0"`
	Deliverables    []DeliverablePlanDTO `json:"deliverables"`
}

type DeliverablePlanDTO struct {
	Title                 string     `json:"title" binding:"required"`
	Description           string     `json:"description"`
	Price                 float64    `json:"price" binding:"required,gt=0"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
}

func (r CreateHiringRequest) Plan() []entity.DeliverablePlan {
	plan := make([]entity.DeliverablePlan, 0, len(r.Deliverables))
	for _, d := range r.Deliverables {
		plan = append(plan, entity.DeliverablePlan{
			Title:                 d.Title,
			Description:           d.Description,
			Price:                 d.Price,
			EstimatedDeliveryDate: d.EstimatedDeliveryDate,
		})
	}
	return plan
}

type HiringResponse struct {
	ID                uuid.UUID `json:"id"`
	ClientID          uuid.UUID `json:"client_id"`
	ProviderID        uuid.UUID `json:"provider_id"`
	ServiceID         uuid.UUID `json:"service_id"`
	PaymentModality   string    `json:"payment_modality"`
	QuotedPrice       MoneyDTO  `json:"quoted_price"`
	Status            string    `json:"status"`
	StatusBeforeClaim *string   `json:"status_before_claim,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ToHiringResponse(h *entity.Hiring) HiringResponse {
	resp := HiringResponse{
		ID:              h.ID,
		ClientID:        h.ClientID,
		ProviderID:      h.ProviderID,
		ServiceID:       h.ServiceID,
		PaymentModality: string(h.PaymentModality),
		QuotedPrice:     MoneyDTO{Amount: h.QuotedPrice.Amount, Currency: h.QuotedPrice.Currency},
		Status:          string(h.Status),
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}
	if h.StatusBeforeClaim != nil {
		s := string(*h.StatusBeforeClaim)
		resp.StatusBeforeClaim = &s
	}
	return resp
}

func ToHiringList(list []*entity.Hiring) []HiringResponse {
	out := make([]HiringResponse, 0, len(list))
	for _, h := range list {
		out = append(out, ToHiringResponse(h))
	}
	return out
}

type DeliverableResponse struct {
	ID                    uuid.UUID  `json:"id"`
	HiringID              uuid.UUID  `json:"hiring_id"`
	OrderIndex            int        `json:"order_index"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Price                 MoneyDTO   `json:"price"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
	Status                string     `json:"status"`
	IsLocked              bool       `json:"is_locked"`
}

func ToDeliverableResponse(v entity.DeliverableView) DeliverableResponse {
	return DeliverableResponse{
		ID:                    v.ID,
		HiringID:              v.HiringID,
		OrderIndex:            v.OrderIndex,
		Title:                 v.Title,
		Description:           v.Description,
		Price:                 MoneyDTO{Amount: v.Price.Amount, Currency: v.Price.Currency},
		EstimatedDeliveryDate: v.EstimatedDeliveryDate,
		Status:                string(v.Status),
		IsLocked:              v.IsLocked,
	}
}

func ToDeliverableList(views []entity.DeliverableView) []DeliverableResponse {
	out := make([]DeliverableResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ToDeliverableResponse(v))
	}
	return out
}

// ToCreatedDeliverables - этапы только что созданного найма, первый из них открыт.
func ToCreatedDeliverables(list []*entity.Deliverable) []DeliverableResponse {
	return ToDeliverableList(entity.ViewDeliverables(list, true))
}

type HiringDetailsResponse struct {
	Hiring       HiringResponse        `json:"hiring"`
	Deliverables []DeliverableResponse `json:"deliverables"`
	ActiveClaim  *ClaimResponse        `json:"active_claim,omitempty"`
}

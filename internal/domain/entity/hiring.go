package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type Hiring struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	ProviderID        uuid.UUID
	ServiceID         uuid.UUID
	PaymentModality   valueobject.PaymentModality
	QuotedPrice       valueobject.Money
	Status            valueobject.HiringStatus
	StatusBeforeClaim *valueobject.HiringStatus
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewHiring(clientID, providerID, serviceID uuid.UUID, modality valueobject.PaymentModality, quotedPrice float64, now time.Time) (*Hiring, error) {
	if providerID == uuid.Nil {
		return nil, apperror.Validation("исполнитель обязателен")
	}
	if clientID == providerID {
		return nil, apperror.Validation("клиент и исполнитель должны быть разными пользователями")
	}
	if serviceID == uuid.Nil {
		return nil, apperror.Validation("услуга обязательна")
	}
	if !modality.IsValid() {
		return nil, apperror.Validation("некорректная модальность оплаты: %q", modality)
	}
	price, err := valueobject.NewPrice(quotedPrice)
	if err != nil {
		return nil, err
	}

	return &Hiring{
		ID:              uuid.New(),
		ClientID:        clientID,
		ProviderID:      providerID,
		ServiceID:       serviceID,
		PaymentModality: modality,
		QuotedPrice:     price,
		Status:          valueobject.HiringStatusApproved,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (h *Hiring) IsClient(userID uuid.UUID) bool {
	return h.ClientID == userID
}

func (h *Hiring) IsProvider(userID uuid.UUID) bool {
	return h.ProviderID == userID
}

func (h *Hiring) IsParty(userID uuid.UUID) bool {
	return h.IsClient(userID) || h.IsProvider(userID)
}

// Counterparty возвращает другую сторону найма.
func (h *Hiring) Counterparty(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case h.ClientID:
		return h.ProviderID, true
	case h.ProviderID:
		return h.ClientID, true
	}
	return uuid.Nil, false
}

// CanView: стороны найма и персонал.
func (h *Hiring) CanView(actor Actor) bool {
	return actor.IsStaff() || h.IsParty(actor.UserID)
}

func (h *Hiring) ByDeliverables() bool {
	return h.PaymentModality == valueobject.PaymentModalityByDeliverables
}

func (h *Hiring) transition(next valueobject.HiringStatus, now time.Time) error {
	if h.Status == next {
		return nil
	}
	if !h.Status.CanTransitionTo(next) {
		return apperror.StateConflict("невозможно перевести найм из статуса %s в %s", h.Status, next)
	}
	h.Status = next
	h.UpdatedAt = now
	return nil
}

func (h *Hiring) Start(now time.Time) error {
	if h.Status != valueobject.HiringStatusApproved {
		return apperror.StateConflict("начать работу можно только по одобренному найму")
	}
	return h.transition(valueobject.HiringStatusInProgress, now)
}

// MarkDelivered фиксирует, что по найму есть сдача, ожидающая проверки.
func (h *Hiring) MarkDelivered(now time.Time) error {
	if !h.Status.AcceptsDeliveries() {
		return apperror.StateConflict("найм в статусе %s не принимает сдачи", h.Status)
	}
	return h.transition(valueobject.HiringStatusDelivered, now)
}

func (h *Hiring) MarkRevisionRequested(now time.Time) error {
	return h.transition(valueobject.HiringStatusRevisionRequested, now)
}

// ContinueWork возвращает найм в работу после оплаты промежуточного этапа.
func (h *Hiring) ContinueWork(now time.Time) error {
	return h.transition(valueobject.HiringStatusInProgress, now)
}

func (h *Hiring) Complete(now time.Time) error {
	return h.transition(valueobject.HiringStatusCompleted, now)
}

// ApplyPayment отражает подтверждённую оплату этапа. Во время претензии меняется
// только статус, который будет восстановлен после её отмены.
func (h *Hiring) ApplyPayment(allApproved bool, now time.Time) error {
	next := valueobject.HiringStatusInProgress
	if allApproved {
		next = valueobject.HiringStatusCompleted
	}
	switch {
	case h.Status.IsTerminal():
		return nil
	case h.Status == valueobject.HiringStatusInClaim:
		h.StatusBeforeClaim = &next
		h.UpdatedAt = now
		return nil
	}
	return h.transition(next, now)
}

// EnterClaim замораживает найм и запоминает статус, в который его можно вернуть.
func (h *Hiring) EnterClaim(now time.Time) error {
	if !h.Status.IsClaimable() {
		return apperror.StateConflict("по найму в статусе %s нельзя открыть претензию", h.Status)
	}
	prev := h.Status
	if err := h.transition(valueobject.HiringStatusInClaim, now); err != nil {
		return err
	}
	h.StatusBeforeClaim = &prev
	return nil
}

// LeaveClaim восстанавливает статус после отмены или отклонения претензии.
func (h *Hiring) LeaveClaim(now time.Time) error {
	if h.Status != valueobject.HiringStatusInClaim {
		return apperror.StateConflict("найм не находится в претензии")
	}
	prev := valueobject.HiringStatusInProgress
	if h.StatusBeforeClaim != nil {
		prev = *h.StatusBeforeClaim
	}
	if err := h.transition(prev, now); err != nil {
		return err
	}
	h.StatusBeforeClaim = nil
	return nil
}

// ResolveClaim переводит найм в итоговый статус, однозначно заданный типом решения.
func (h *Hiring) ResolveClaim(resolution valueobject.ResolutionType, now time.Time) error {
	next, ok := resolution.HiringStatus()
	if !ok {
		return apperror.Validation("некорректный тип решения: %q", resolution)
	}
	if h.Status != valueobject.HiringStatusInClaim {
		return apperror.StateConflict("найм не находится в претензии")
	}
	if err := h.transition(next, now); err != nil {
		return err
	}
	h.StatusBeforeClaim = nil
	return nil
}

// CancelByModeration принудительно закрывает найм. Для терминальных статусов ничего не делает.
func (h *Hiring) CancelByModeration(now time.Time) bool {
	if h.Status.IsTerminal() {
		return false
	}
	h.Status = valueobject.HiringStatusCancelledByModeration
	h.StatusBeforeClaim = nil
	h.UpdatedAt = now
	return true
}

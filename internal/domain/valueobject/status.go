package valueobject

import (
	"slices"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// canTransition проверяет переход по таблице допустимых переходов.
func canTransition[S comparable](table map[S][]S, from, to S) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

type PaymentModality string

const (
	PaymentModalityFull           PaymentModality = "full_payment"
	PaymentModalityByDeliverables PaymentModality = "by_deliverables"
)

func (m PaymentModality) IsValid() bool {
	return m == PaymentModalityFull || m == PaymentModalityByDeliverables
}

func NewPaymentModality(v string) (PaymentModality, error) {
	m := PaymentModality(v)
	if !m.IsValid() {
		return "", apperror.Validation("некорректная модальность оплаты: %q", v)
	}
	return m, nil
}

type HiringStatus string

const (
	HiringStatusApproved               HiringStatus = "approved"
	HiringStatusInProgress             HiringStatus = "in_progress"
	HiringStatusDelivered              HiringStatus = "delivered"
	HiringStatusRevisionRequested      HiringStatus = "revision_requested"
	HiringStatusCompleted              HiringStatus = "completed"
	HiringStatusInClaim                HiringStatus = "in_claim"
	HiringStatusCancelledByClaim       HiringStatus = "cancelled_by_claim"
	HiringStatusCompletedByClaim       HiringStatus = "completed_by_claim"
	HiringStatusCompletedWithAgreement HiringStatus = "completed_with_agreement"
	HiringStatusCancelledByModeration  HiringStatus = "cancelled_by_moderation"
)

var hiringTransitions = map[HiringStatus][]HiringStatus{
	HiringStatusApproved: {
		HiringStatusInProgress, HiringStatusDelivered, HiringStatusInClaim, HiringStatusCancelledByModeration,
	},
	HiringStatusInProgress: {
		HiringStatusDelivered, HiringStatusInClaim, HiringStatusCancelledByModeration,
	},
	HiringStatusDelivered: {
		HiringStatusCompleted, HiringStatusRevisionRequested, HiringStatusInProgress,
		HiringStatusInClaim, HiringStatusCancelledByModeration,
	},
	HiringStatusRevisionRequested: {
		HiringStatusDelivered, HiringStatusInClaim, HiringStatusCancelledByModeration,
	},
	// Выход из in_claim в рабочие статусы возможен только при отмене или отклонении претензии;
	// completed - если последний этап был оплачен во время претензии.
	HiringStatusInClaim: {
		HiringStatusCancelledByClaim, HiringStatusCompletedByClaim, HiringStatusCompletedWithAgreement,
		HiringStatusCancelledByModeration, HiringStatusCompleted,
		HiringStatusApproved, HiringStatusInProgress, HiringStatusDelivered, HiringStatusRevisionRequested,
	},
}

func (s HiringStatus) IsValid() bool {
	switch s {
	case HiringStatusApproved, HiringStatusInProgress, HiringStatusDelivered, HiringStatusRevisionRequested,
		HiringStatusCompleted, HiringStatusInClaim, HiringStatusCancelledByClaim, HiringStatusCompletedByClaim,
		HiringStatusCompletedWithAgreement, HiringStatusCancelledByModeration:
		return true
	}
	return false
}

func (s HiringStatus) CanTransitionTo(next HiringStatus) bool {
	return canTransition(hiringTransitions, s, next)
}

func (s HiringStatus) IsTerminal() bool {
	switch s {
	case HiringStatusCompleted, HiringStatusCancelledByClaim, HiringStatusCompletedByClaim,
		HiringStatusCompletedWithAgreement, HiringStatusCancelledByModeration:
		return true
	}
	return false
}

// IsClaimable сообщает, можно ли открыть претензию по найму в этом статусе.
func (s HiringStatus) IsClaimable() bool {
	switch s {
	case HiringStatusInProgress, HiringStatusApproved, HiringStatusRevisionRequested, HiringStatusDelivered:
		return true
	}
	return false
}

// AcceptsDeliveries сообщает, может ли исполнитель сдавать работу в этом статусе.
func (s HiringStatus) AcceptsDeliveries() bool {
	switch s {
	case HiringStatusApproved, HiringStatusInProgress, HiringStatusRevisionRequested, HiringStatusDelivered:
		return true
	}
	return false
}

func NewHiringStatus(v string) (HiringStatus, error) {
	s := HiringStatus(v)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус найма: %q", v)
	}
	return s, nil
}

type DeliverableStatus string

const (
	DeliverableStatusPending           DeliverableStatus = "pending"
	DeliverableStatusDelivered         DeliverableStatus = "delivered"
	DeliverableStatusRevisionRequested DeliverableStatus = "revision_requested"
	DeliverableStatusApproved          DeliverableStatus = "approved"
)

var deliverableTransitions = map[DeliverableStatus][]DeliverableStatus{
	DeliverableStatusPending:           {DeliverableStatusDelivered},
	DeliverableStatusDelivered:         {DeliverableStatusApproved, DeliverableStatusRevisionRequested},
	DeliverableStatusRevisionRequested: {DeliverableStatusDelivered},
	DeliverableStatusApproved:          {},
}

func (s DeliverableStatus) IsValid() bool {
	switch s {
	case DeliverableStatusPending, DeliverableStatusDelivered, DeliverableStatusRevisionRequested, DeliverableStatusApproved:
		return true
	}
	return false
}

func (s DeliverableStatus) CanTransitionTo(next DeliverableStatus) bool {
	return canTransition(deliverableTransitions, s, next)
}

// AcceptsDelivery сообщает, открыт ли этап для новой сдачи.
func (s DeliverableStatus) AcceptsDelivery() bool {
	return s == DeliverableStatusPending || s == DeliverableStatusRevisionRequested
}

type DeliveryStatus string

const (
	DeliveryStatusDelivered         DeliveryStatus = "delivered"
	DeliveryStatusPendingPayment    DeliveryStatus = "pending_payment"
	DeliveryStatusApproved          DeliveryStatus = "approved"
	DeliveryStatusRevisionRequested DeliveryStatus = "revision_requested"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusDelivered:         {DeliveryStatusApproved, DeliveryStatusPendingPayment, DeliveryStatusRevisionRequested},
	DeliveryStatusPendingPayment:    {DeliveryStatusApproved},
	DeliveryStatusApproved:          {},
	DeliveryStatusRevisionRequested: {},
}

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusPendingPayment, DeliveryStatusApproved, DeliveryStatusRevisionRequested:
		return true
	}
	return false
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	return canTransition(deliveryTransitions, s, next)
}

// IsAwaitingReview сообщает, что сдача ещё не закрыта: ждёт решения клиента или оплаты.
func (s DeliveryStatus) IsAwaitingReview() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusPendingPayment
}

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

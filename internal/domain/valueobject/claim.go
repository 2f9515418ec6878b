package valueobject

import "github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"

type ClaimStatus string

const (
	ClaimStatusOpen                  ClaimStatus = "open"
	ClaimStatusInReview              ClaimStatus = "in_review"
	ClaimStatusPendingClarification  ClaimStatus = "pending_clarification"
	ClaimStatusRequiresStaffResponse ClaimStatus = "requires_staff_response"
	ClaimStatusResolved              ClaimStatus = "resolved"
	ClaimStatusCancelled             ClaimStatus = "cancelled"
	ClaimStatusRejected              ClaimStatus = "rejected"

	// Устаревшие значения: читаются из старых записей, но ни один переход в них не ведёт.
	ClaimStatusLegacyRequiresResponse     ClaimStatus = "requires_response"
	ClaimStatusLegacyPendingCompliance    ClaimStatus = "pending_compliance"
	ClaimStatusLegacyReviewingCompliance  ClaimStatus = "reviewing_compliance"
	ClaimStatusLegacyFinishedByModeration ClaimStatus = "finished_by_moderation"
)

// legacyClaimAliases сопоставляет устаревший статус с актуальным для чтения.
var legacyClaimAliases = map[ClaimStatus]ClaimStatus{
	ClaimStatusLegacyRequiresResponse:     ClaimStatusPendingClarification,
	ClaimStatusLegacyPendingCompliance:    ClaimStatusRequiresStaffResponse,
	ClaimStatusLegacyReviewingCompliance:  ClaimStatusRequiresStaffResponse,
	ClaimStatusLegacyFinishedByModeration: ClaimStatusResolved,
}

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusOpen: {
		ClaimStatusInReview, ClaimStatusCancelled, ClaimStatusRejected,
	},
	ClaimStatusInReview: {
		ClaimStatusPendingClarification, ClaimStatusRequiresStaffResponse, ClaimStatusResolved,
		ClaimStatusCancelled, ClaimStatusRejected,
	},
	ClaimStatusPendingClarification: {
		ClaimStatusInReview, ClaimStatusCancelled, ClaimStatusRejected,
	},
	ClaimStatusRequiresStaffResponse: {
		ClaimStatusResolved, ClaimStatusCancelled, ClaimStatusRejected,
	},
}

func (s ClaimStatus) IsLegacy() bool {
	_, ok := legacyClaimAliases[s]
	return ok
}

// Canonical возвращает актуальный статус, эквивалентный устаревшему.
func (s ClaimStatus) Canonical() ClaimStatus {
	if alias, ok := legacyClaimAliases[s]; ok {
		return alias
	}
	return s
}

func (s ClaimStatus) IsValid() bool {
	switch s.Canonical() {
	case ClaimStatusOpen, ClaimStatusInReview, ClaimStatusPendingClarification, ClaimStatusRequiresStaffResponse,
		ClaimStatusResolved, ClaimStatusCancelled, ClaimStatusRejected:
		return true
	}
	return false
}

func (s ClaimStatus) IsTerminal() bool {
	switch s.Canonical() {
	case ClaimStatusResolved, ClaimStatusCancelled, ClaimStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo допускает переход только в актуальные статусы; исходный устаревший
// статус трактуется через свой актуальный эквивалент.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	if next.IsLegacy() {
		return false
	}
	return canTransition(claimTransitions, s.Canonical(), next)
}

// ActiveClaimStatuses перечисляет все нетерминальные значения, включая устаревшие.
func ActiveClaimStatuses() []ClaimStatus {
	return []ClaimStatus{
		ClaimStatusOpen, ClaimStatusInReview, ClaimStatusPendingClarification, ClaimStatusRequiresStaffResponse,
		ClaimStatusLegacyRequiresResponse, ClaimStatusLegacyPendingCompliance, ClaimStatusLegacyReviewingCompliance,
	}
}

type ClaimType string

// Типы претензий клиента.
const (
	ClaimTypeNotDelivered   ClaimType = "not_delivered"
	ClaimTypePoorQuality    ClaimType = "poor_quality"
	ClaimTypeNotAsDescribed ClaimType = "not_as_described"
	ClaimTypeMissedDeadline ClaimType = "missed_deadline"
	ClaimTypeClientOther    ClaimType = "client_other"
)

// Типы претензий исполнителя.
const (
	ClaimTypeNonPayment         ClaimType = "non_payment"
	ClaimTypeScopeChange        ClaimType = "scope_change"
	ClaimTypeUnresponsiveClient ClaimType = "unresponsive_client"
	ClaimTypeAbusiveBehavior    ClaimType = "abusive_behavior"
	ClaimTypeProviderOther      ClaimType = "provider_other"
)

var clientClaimTypes = map[ClaimType]ClaimPriority{
	ClaimTypeNotDelivered:   ClaimPriorityHigh,
	ClaimTypePoorQuality:    ClaimPriorityMedium,
	ClaimTypeNotAsDescribed: ClaimPriorityMedium,
	ClaimTypeMissedDeadline: ClaimPriorityMedium,
	ClaimTypeClientOther:    ClaimPriorityLow,
}

var providerClaimTypes = map[ClaimType]ClaimPriority{
	ClaimTypeNonPayment:         ClaimPriorityHigh,
	ClaimTypeScopeChange:        ClaimPriorityMedium,
	ClaimTypeUnresponsiveClient: ClaimPriorityLow,
	ClaimTypeAbusiveBehavior:    ClaimPriorityUrgent,
	ClaimTypeProviderOther:      ClaimPriorityLow,
}

// NewClaimType проверяет, что тип претензии допустим для стороны найма.
func NewClaimType(v string, claimantIsClient bool) (ClaimType, error) {
	t := ClaimType(v)
	table := providerClaimTypes
	if claimantIsClient {
		table = clientClaimTypes
	}
	if _, ok := table[t]; !ok {
		return "", apperror.Validation("тип претензии %q недоступен для этой стороны", v)
	}
	return t, nil
}

// DefaultPriority возвращает приоритет по умолчанию для типа претензии.
func (t ClaimType) DefaultPriority() ClaimPriority {
	if p, ok := clientClaimTypes[t]; ok {
		return p
	}
	if p, ok := providerClaimTypes[t]; ok {
		return p
	}
	return ClaimPriorityLow
}

type ClaimPriority string

const (
	ClaimPriorityLow    ClaimPriority = "low"
	ClaimPriorityMedium ClaimPriority = "medium"
	ClaimPriorityHigh   ClaimPriority = "high"
	ClaimPriorityUrgent ClaimPriority = "urgent"
)

func (p ClaimPriority) IsValid() bool {
	switch p {
	case ClaimPriorityLow, ClaimPriorityMedium, ClaimPriorityHigh, ClaimPriorityUrgent:
		return true
	}
	return false
}

type ResolutionType string

const (
	ResolutionClientFavor      ResolutionType = "client_favor"
	ResolutionProviderFavor    ResolutionType = "provider_favor"
	ResolutionPartialAgreement ResolutionType = "partial_agreement"
)

var resolutionHiringStatus = map[ResolutionType]HiringStatus{
	ResolutionClientFavor:      HiringStatusCancelledByClaim,
	ResolutionProviderFavor:    HiringStatusCompletedByClaim,
	ResolutionPartialAgreement: HiringStatusCompletedWithAgreement,
}

func (r ResolutionType) IsValid() bool {
	_, ok := resolutionHiringStatus[r]
	return ok
}

// HiringStatus возвращает итоговый статус найма для решения по претензии.
func (r ResolutionType) HiringStatus() (HiringStatus, bool) {
	s, ok := resolutionHiringStatus[r]
	return s, ok
}

func NewResolutionType(v string) (ResolutionType, error) {
	r := ResolutionType(v)
	if !r.IsValid() {
		return "", apperror.Validation("некорректный тип решения: %q", v)
	}
	return r, nil
}

// WithLegacyAliases возвращает статус вместе со всеми устаревшими значениями,
// которые читаются как он. Используется в фильтрах списков.
func (s ClaimStatus) WithLegacyAliases() []ClaimStatus {
	out := []ClaimStatus{s}
	for legacy, alias := range legacyClaimAliases {
		if alias == s {
			out = append(out, legacy)
		}
	}
	return out
}

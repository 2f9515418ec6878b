package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

const (
	ClaimDescriptionMinLength        = 10
	ResolutionJustificationMinLength = 20
)

type Claim struct {
	ID                      uuid.UUID
	HiringID                uuid.UUID
	ClaimantUserID          uuid.UUID
	RespondentUserID        uuid.UUID
	ClaimType               valueobject.ClaimType
	Description             string
	Status                  valueobject.ClaimStatus
	Priority                valueobject.ClaimPriority
	ClarificationRequest    *string
	ClarificationResponse   *string
	StatusReason            *string
	ResolutionType          *valueobject.ResolutionType
	ResolutionJustification *string
	ResolvedBy              *uuid.UUID
	ResolvedAt              *time.Time
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// NewClaim открывает претензию стороны найма против другой стороны.
// Приоритет по умолчанию берётся из типа претензии.
func NewClaim(hiring *Hiring, claimantID uuid.UUID, claimType, description, priority string, now time.Time) (*Claim, error) {
	respondent, ok := hiring.Counterparty(claimantID)
	if !ok {
		return nil, apperror.Forbidden()
	}
	ct, err := valueobject.NewClaimType(claimType, hiring.IsClient(claimantID))
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) < ClaimDescriptionMinLength {
		return nil, apperror.Validation("описание претензии должно содержать не менее %d символов", ClaimDescriptionMinLength)
	}
	p := ct.DefaultPriority()
	if priority != "" {
		p = valueobject.ClaimPriority(priority)
		if !p.IsValid() {
			return nil, apperror.Validation("некорректный приоритет: %q", priority)
		}
	}

	return &Claim{
		ID:               uuid.New(),
		HiringID:         hiring.ID,
		ClaimantUserID:   claimantID,
		RespondentUserID: respondent,
		ClaimType:        ct,
		Description:      description,
		Status:           valueobject.ClaimStatusOpen,
		Priority:         p,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (c *Claim) IsParty(userID uuid.UUID) bool {
	return c.ClaimantUserID == userID || c.RespondentUserID == userID
}

func (c *Claim) CanView(actor Actor) bool {
	return actor.IsStaff() || c.IsParty(actor.UserID)
}

func (c *Claim) IsActive() bool {
	return !c.Status.IsTerminal()
}

func (c *Claim) transition(next valueobject.ClaimStatus, now time.Time) error {
	if c.Status.Canonical() == valueobject.ClaimStatusResolved {
		return apperror.AlreadyResolved("претензия уже разрешена")
	}
	if !c.Status.CanTransitionTo(next) {
		return apperror.StateConflict("невозможно перевести претензию из статуса %s в %s", c.Status, next)
	}
	c.Status = next
	c.UpdatedAt = now
	return nil
}

func (c *Claim) StartReview(now time.Time) error {
	return c.transition(valueobject.ClaimStatusInReview, now)
}

func (c *Claim) RequestClarification(question string, now time.Time) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return apperror.Validation("вопрос для уточнения обязателен")
	}
	if err := c.transition(valueobject.ClaimStatusPendingClarification, now); err != nil {
		return err
	}
	c.ClarificationRequest = &question
	c.ClarificationResponse = nil
	return nil
}

func (c *Claim) ProvideClarification(answer string, now time.Time) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return apperror.Validation("ответ на уточнение обязателен")
	}
	if c.Status.Canonical() != valueobject.ClaimStatusPendingClarification {
		return apperror.StateConflict("претензия не ожидает уточнения")
	}
	if err := c.transition(valueobject.ClaimStatusInReview, now); err != nil {
		return err
	}
	c.ClarificationResponse = &answer
	return nil
}

func (c *Claim) EscalateToStaff(now time.Time) error {
	return c.transition(valueobject.ClaimStatusRequiresStaffResponse, now)
}

func (c *Claim) Cancel(reason string, now time.Time) error {
	if err := c.transition(valueobject.ClaimStatusCancelled, now); err != nil {
		return err
	}
	c.setReason(reason)
	return nil
}

func (c *Claim) Reject(reason string, now time.Time) error {
	if err := c.transition(valueobject.ClaimStatusRejected, now); err != nil {
		return err
	}
	c.setReason(reason)
	return nil
}

func (c *Claim) setReason(reason string) {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		c.StatusReason = &reason
	}
}

// Resolve необратимо разрешает претензию. Повторное разрешение возвращает AlreadyResolved.
func (c *Claim) Resolve(resolution valueobject.ResolutionType, justification string, resolvedBy uuid.UUID, now time.Time) error {
	if !resolution.IsValid() {
		return apperror.Validation("некорректный тип решения: %q", resolution)
	}
	justification = strings.TrimSpace(justification)
	if utf8.RuneCountInString(justification) < ResolutionJustificationMinLength {
		return apperror.Validation("обоснование решения должно содержать не менее %d символов", ResolutionJustificationMinLength)
	}
	if err := c.transition(valueobject.ClaimStatusResolved, now); err != nil {
		return err
	}
	c.ResolutionType = &resolution
	c.ResolutionJustification = &justification
	c.ResolvedBy = &resolvedBy
	c.ResolvedAt = &now
	return nil
}

// CancelByModeration закрывает активную претензию при блокировке одной из сторон.
func (c *Claim) CancelByModeration(now time.Time) bool {
	if !c.IsActive() {
		return false
	}
	reason := "закрыта модерацией"
	c.Status = valueobject.ClaimStatusCancelled
	c.StatusReason = &reason
	c.UpdatedAt = now
	return true
}

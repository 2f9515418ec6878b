package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

const (
	MinComplianceDeadlineDays = 1
	MaxComplianceDeadlineDays = 60
)

type Compliance struct {
	ID             uuid.UUID
	ClaimID        uuid.UUID
	AssignedUserID uuid.UUID
	ComplianceType valueobject.ComplianceType
	Instructions   string
	Deadline       time.Time
	Status         valueobject.ComplianceStatus
	UserResponse   *string
	EvidenceFiles  []Attachment
	PeerReviewerID *uuid.UUID
	PeerNotes      *string
	ModeratorNotes *string
	SubmittedAt    *time.Time
	ReviewedAt     *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func deadlineFrom(now time.Time, days int) (time.Time, error) {
	if days < MinComplianceDeadlineDays || days > MaxComplianceDeadlineDays {
		return time.Time{}, apperror.Validation("срок обязательства должен быть от %d до %d дней", MinComplianceDeadlineDays, MaxComplianceDeadlineDays)
	}
	return now.Add(time.Duration(days) * 24 * time.Hour), nil
}

func NewCompliance(claimID, assignedUserID uuid.UUID, complianceType, instructions string, deadlineDays int, now time.Time) (*Compliance, error) {
	ct, err := valueobject.NewComplianceType(complianceType)
	if err != nil {
		return nil, err
	}
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return nil, apperror.Validation("инструкции к обязательству обязательны")
	}
	deadline, err := deadlineFrom(now, deadlineDays)
	if err != nil {
		return nil, err
	}

	return &Compliance{
		ID:             uuid.New(),
		ClaimID:        claimID,
		AssignedUserID: assignedUserID,
		ComplianceType: ct,
		Instructions:   instructions,
		Deadline:       deadline,
		Status:         valueobject.ComplianceStatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Compliance) transition(next valueobject.ComplianceStatus, now time.Time) error {
	if !c.Status.CanTransitionTo(next) {
		return apperror.StateConflict("невозможно перевести обязательство из статуса %s в %s", c.Status, next)
	}
	c.Status = next
	c.UpdatedAt = now
	return nil
}

func (c *Compliance) Submit(response string, evidence []Attachment, rules AttachmentRules, now time.Time) error {
	if !c.Status.AcceptsSubmission() {
		return apperror.StateConflict("обязательство в статусе %s не принимает ответ", c.Status)
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return apperror.Validation("ответ по обязательству обязателен")
	}
	rules.MaxCount = MaxEvidenceFiles
	if rules.MaxFileSize == 0 {
		rules.MaxFileSize = DefaultMaxFileSize
	}
	if err := rules.Validate(evidence); err != nil {
		return err
	}
	if err := c.transition(valueobject.ComplianceStatusSubmitted, now); err != nil {
		return err
	}
	c.UserResponse = &response
	c.EvidenceFiles = evidence
	c.SubmittedAt = &now
	return nil
}

// PeerReview - необязывающая проверка ответа второй стороной перед модератором.
func (c *Compliance) PeerReview(reviewerID uuid.UUID, approve bool, notes string, now time.Time) error {
	if c.Status != valueobject.ComplianceStatusSubmitted {
		return apperror.StateConflict("обязательство не ожидает проверки второй стороной")
	}
	next := valueobject.ComplianceStatusPeerObjected
	if approve {
		next = valueobject.ComplianceStatusPeerApproved
	}
	notes = strings.TrimSpace(notes)
	if !approve && notes == "" {
		return apperror.Validation("опишите возражение")
	}
	if err := c.transition(next, now); err != nil {
		return err
	}
	c.PeerReviewerID = &reviewerID
	if notes != "" {
		c.PeerNotes = &notes
	}
	return nil
}

func (c *Compliance) StartReview(now time.Time) error {
	return c.transition(valueobject.ComplianceStatusInReview, now)
}

// Decide - решение модератора. Из peer_approved допускается только подтверждение.
// Для requires_adjustment назначается новый срок. Он ориентир для исполнителя:
// эскалация действует только для pending и submitted.
func (c *Compliance) Decide(decision valueobject.ComplianceDecision, notes string, adjustmentDays int, now time.Time) error {
	next := valueobject.ComplianceStatus(decision)
	if decision == valueobject.ComplianceDecisionRequireAdjustment {
		deadline, err := deadlineFrom(now, adjustmentDays)
		if err != nil {
			return err
		}
		if err := c.transition(next, now); err != nil {
			return err
		}
		c.Deadline = deadline
	} else if err := c.transition(next, now); err != nil {
		return err
	}
	notes = strings.TrimSpace(notes)
	if notes != "" {
		c.ModeratorNotes = &notes
	}
	c.ReviewedAt = &now
	return nil
}

// ApplyEscalation продвигает статус по просроченному сроку. Возвращает true, если статус изменился.
func (c *Compliance) ApplyEscalation(policy EscalationPolicy, now time.Time) bool {
	next := EvaluateEscalation(c.Status, c.Deadline, now, policy)
	if next == c.Status {
		return false
	}
	c.Status = next
	c.UpdatedAt = now
	return true
}

// FinishByModeration закрывает открытое обязательство при блокировке пользователя.
func (c *Compliance) FinishByModeration(now time.Time) bool {
	if c.Status.IsTerminal() {
		return false
	}
	c.Status = valueobject.ComplianceStatusFinishedByModeration
	c.UpdatedAt = now
	return true
}

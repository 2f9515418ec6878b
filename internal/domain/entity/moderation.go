package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type ModerationAnalysis struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Classification     valueobject.Classification
	TotalReports       int
	OffensiveReports   int
	ViolationReports   int
	AISummary          string
	SourceComplianceID *uuid.UUID
	Resolved           bool
	ResolutionAction   *valueobject.ModerationAction
	ResolutionNotes    *string
	SuspensionDays     *int
	ResolvedByEmail    *string
	ResolvedAt         *time.Time
	Version            int
	CreatedAt          time.Time
}

// NewComplianceAnalysis ставит пользователя на проверку модератору после
// исчерпания эскалации по обязательству.
func NewComplianceAnalysis(c *Compliance, now time.Time) *ModerationAnalysis {
	complianceID := c.ID
	return &ModerationAnalysis{
		ID:                 uuid.New(),
		UserID:             c.AssignedUserID,
		Classification:     valueobject.ClassificationReview,
		AISummary:          fmt.Sprintf("Обязательство %s (%s) не выполнено после всех напоминаний", c.ID, c.ComplianceType),
		SourceComplianceID: &complianceID,
		Version:            1,
		CreatedAt:          now,
	}
}

type ModerationResolution struct {
	Action          valueobject.ModerationAction
	Notes           string
	SuspensionDays  int
	ResolvedByEmail string
}

// Resolve фиксирует решение модератора. Решение окончательно.
func (a *ModerationAnalysis) Resolve(res ModerationResolution, now time.Time) error {
	if a.Resolved {
		return apperror.AlreadyResolved("анализ уже разрешён")
	}
	notes := strings.TrimSpace(res.Notes)
	if res.Action.RequiresNotes() && notes == "" {
		return apperror.Validation("для блокировки или приостановки нужна заметка для пользователя")
	}
	if res.Action == valueobject.ModerationActionSuspend {
		if !valueobject.IsAllowedSuspension(res.SuspensionDays) {
			return apperror.Validation("срок приостановки должен быть одним из %v дней", valueobject.AllowedSuspensionDays)
		}
		days := res.SuspensionDays
		a.SuspensionDays = &days
	}

	action := res.Action
	email := res.ResolvedByEmail
	a.Resolved = true
	a.ResolutionAction = &action
	if notes != "" {
		a.ResolutionNotes = &notes
	}
	a.ResolvedByEmail = &email
	a.ResolvedAt = &now
	return nil
}

// FlagInput - сигнал о пользователе от автоматического анализа жалоб.
type FlagInput struct {
	UserID           uuid.UUID
	Classification   string
	TotalReports     int
	OffensiveReports int
	ViolationReports int
	Summary          string
}

func NewModerationAnalysis(in FlagInput, now time.Time) (*ModerationAnalysis, error) {
	if in.UserID == uuid.Nil {
		return nil, apperror.Validation("не указан пользователь")
	}
	class := valueobject.Classification(in.Classification)
	if !class.IsValid() {
		return nil, apperror.Validation("некорректная классификация: %q", in.Classification)
	}
	if in.TotalReports < 0 || in.OffensiveReports < 0 || in.ViolationReports < 0 {
		return nil, apperror.Validation("число жалоб не может быть отрицательным")
	}
	if in.OffensiveReports+in.ViolationReports > in.TotalReports {
		return nil, apperror.Validation("число жалоб по категориям превышает общее")
	}
	return &ModerationAnalysis{
		ID:               uuid.New(),
		UserID:           in.UserID,
		Classification:   class,
		TotalReports:     in.TotalReports,
		OffensiveReports: in.OffensiveReports,
		ViolationReports: in.ViolationReports,
		AISummary:        strings.TrimSpace(in.Summary),
		Version:          1,
		CreatedAt:        now,
	}, nil
}

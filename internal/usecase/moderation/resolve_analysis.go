// Package moderation применяет решения модератора по анализам пользователей.
package moderation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

type Deps struct {
	Tx          repository.TxManager
	Analyses    repository.ModerationRepository
	Users       repository.UserRepository
	Hirings     repository.HiringRepository
	Claims      repository.ClaimRepository
	Compliances repository.ComplianceRepository
	Listings    repository.ListingRepository
	Notifier    repository.Notifier
	Clock       usecase.Clock
}

type ResolveAnalysisInput struct {
	Actor          entity.Actor
	AnalysisID     uuid.UUID
	Action         string
	Notes          string
	SuspensionDays int
}

// CascadeSummary - что закрыло решение модератора.
type CascadeSummary struct {
	HiringsClosed     int                       `json:"hirings_closed"`
	ClaimsCancelled   int                       `json:"claims_cancelled"`
	ListingsRetracted int                       `json:"listings_retracted"`
	CompliancesClosed int                       `json:"compliances_closed"`
	AccountStatus     valueobject.AccountStatus `json:"account_status,omitempty"`
}

type ResolveAnalysisOutput struct {
	Analysis *entity.ModerationAnalysis
	Cascade  CascadeSummary
}

type ResolveAnalysisUseCase struct{ deps Deps }

func NewResolveAnalysisUseCase(deps Deps) *ResolveAnalysisUseCase {
	return &ResolveAnalysisUseCase{deps: deps}
}

// Execute фиксирует решение и применяет его последствия в той же транзакции.
// Повторное разрешение анализа возвращает AlreadyResolved.
func (uc *ResolveAnalysisUseCase) Execute(ctx context.Context, input ResolveAnalysisInput) (*ResolveAnalysisOutput, error) {
	if !input.Actor.IsStaff() {
		return nil, apperror.Forbidden()
	}
	action, err := valueobject.NewModerationAction(input.Action)
	if err != nil {
		return nil, err
	}

	var (
		out    *ResolveAnalysisOutput
		events []usecase.Notification
	)
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := uc.deps.Analyses.LockByID(ctx, input.AnalysisID)
		if err != nil {
			return err
		}
		now := uc.deps.Clock.Now()
		if err := a.Resolve(entity.ModerationResolution{
			Action:          action,
			Notes:           input.Notes,
			SuspensionDays:  input.SuspensionDays,
			ResolvedByEmail: input.Actor.Email,
		}, now); err != nil {
			return err
		}

		summary, cascadeEvents, err := uc.apply(ctx, a, action, now)
		if err != nil {
			return err
		}
		if err := uc.deps.Analyses.Update(ctx, a); err != nil {
			return err
		}

		logger.L().WithField("analysis_id", a.ID).
			WithField("user_id", a.UserID).
			WithField("action", action).
			WithField("hirings_closed", summary.HiringsClosed).
			WithField("claims_cancelled", summary.ClaimsCancelled).
			WithField("listings_retracted", summary.ListingsRetracted).
			WithField("actor", input.Actor.UserID).
			Info("moderation analysis resolved")

		out = &ResolveAnalysisOutput{Analysis: a, Cascade: summary}
		events = append(cascadeEvents, usecase.Notification{
			UserID: a.UserID,
			Event:  repository.EventModerationResolved,
			Data:   map[string]any{"action": action, "notes": a.ResolutionNotes, "suspension_days": a.SuspensionDays},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.Dispatch(ctx, uc.deps.Notifier, events)
	return out, nil
}

func (uc *ResolveAnalysisUseCase) apply(ctx context.Context, a *entity.ModerationAnalysis, action valueobject.ModerationAction, now time.Time) (CascadeSummary, []usecase.Notification, error) {
	var summary CascadeSummary
	if action == valueobject.ModerationActionKeepMonitoring {
		return summary, nil, nil
	}
	u, err := uc.deps.Users.FindByID(ctx, a.UserID)
	if err != nil {
		return summary, nil, err
	}

	var events []usecase.Notification
	if action.Cascades() {
		if events, err = uc.cascade(ctx, u.ID, now, &summary); err != nil {
			return summary, nil, err
		}
	}
	switch action {
	case valueobject.ModerationActionBan:
		u.Ban(now)
	case valueobject.ModerationActionSuspend:
		u.Suspend(*a.SuspensionDays, now)
	default:
		u.Reactivate(now)
	}
	if err := uc.deps.Users.UpdateAccountStatus(ctx, u); err != nil {
		return summary, nil, err
	}
	summary.AccountStatus = u.AccountStatus
	return summary, events, nil
}

// cascade закрывает открытые наймы, претензии и обязательства пользователя и снимает его услуги.
func (uc *ResolveAnalysisUseCase) cascade(ctx context.Context, userID uuid.UUID, now time.Time, summary *CascadeSummary) ([]usecase.Notification, error) {
	var events []usecase.Notification

	hirings, err := uc.deps.Hirings.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, listed := range hirings {
		h, err := uc.deps.Hirings.LockByID(ctx, listed.ID)
		if err != nil {
			return nil, err
		}
		from := h.Status
		if !h.CancelByModeration(now) {
			continue
		}
		if err := uc.deps.Hirings.Update(ctx, h); err != nil {
			return nil, err
		}
		logger.Transition("hiring", h.ID, from, h.Status, "moderation")
		summary.HiringsClosed++
		if other, ok := h.Counterparty(userID); ok {
			events = append(events, usecase.Notification{
				UserID: other,
				Event:  repository.EventModerationResolved,
				Data:   map[string]any{"hiring_id": h.ID, "hiring_status": h.Status},
			})
		}
	}

	claims, err := uc.deps.Claims.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range claims {
		from := c.Status
		if !c.CancelByModeration(now) {
			continue
		}
		if err := uc.deps.Claims.Update(ctx, c); err != nil {
			return nil, err
		}
		logger.Transition("claim", c.ID, from, c.Status, "moderation")
		summary.ClaimsCancelled++
	}

	compliances, err := uc.deps.Compliances.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range compliances {
		from := c.Status
		if !c.FinishByModeration(now) {
			continue
		}
		if err := uc.deps.Compliances.Update(ctx, c); err != nil {
			return nil, err
		}
		logger.Transition("compliance", c.ID, from, c.Status, "moderation")
		summary.CompliancesClosed++
	}

	retracted, err := uc.deps.Listings.RetractByProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.ListingsRetracted = retracted
	return events, nil
}

package moderation

import (
	"context"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
)

type ListAnalysesInput struct {
	Actor          entity.Actor
	Resolved       *bool
	Classification string
	Page           repository.Page
}

type ListAnalysesUseCase struct {
	analysisRepo repository.ModerationRepository
}

func NewListAnalysesUseCase(analysisRepo repository.ModerationRepository) *ListAnalysesUseCase {
	return &ListAnalysesUseCase{analysisRepo: analysisRepo}
}

func (uc *ListAnalysesUseCase) Execute(ctx context.Context, input ListAnalysesInput) ([]*entity.ModerationAnalysis, int, error) {
	if !input.Actor.IsStaff() {
		return nil, 0, apperror.Forbidden()
	}
	filter := repository.AnalysisFilter{Resolved: input.Resolved, Page: input.Page.Normalize()}
	if input.Classification != "" {
		filter.Classification = valueobject.Classification(input.Classification)
		if !filter.Classification.IsValid() {
			return nil, 0, apperror.Validation("некорректная классификация: %q", input.Classification)
		}
	}
	return uc.analysisRepo.List(ctx, filter)
}

type FlagUserUseCase struct {
	analysisRepo repository.ModerationRepository
	userRepo     repository.UserRepository
	clock        usecase.Clock
}

func NewFlagUserUseCase(analysisRepo repository.ModerationRepository, userRepo repository.UserRepository, clock usecase.Clock) *FlagUserUseCase {
	return &FlagUserUseCase{analysisRepo: analysisRepo, userRepo: userRepo, clock: clock}
}

// Execute ставит пользователя в очередь модерации по результатам анализа жалоб.
func (uc *FlagUserUseCase) Execute(ctx context.Context, actor entity.Actor, input entity.FlagInput) (*entity.ModerationAnalysis, error) {
	if !actor.IsStaff() {
		return nil, apperror.Forbidden()
	}
	if _, err := uc.userRepo.FindByID(ctx, input.UserID); err != nil {
		return nil, err
	}
	a, err := entity.NewModerationAnalysis(input, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.analysisRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	logger.L().WithField("analysis_id", a.ID).
		WithField("user_id", a.UserID).
		WithField("classification", a.Classification).
		Info("user flagged for moderation")
	return a, nil
}

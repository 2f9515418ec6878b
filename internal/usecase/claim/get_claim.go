package claim

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type GetClaimUseCase struct {
	claimRepo repository.ClaimRepository
}

func NewGetClaimUseCase(claimRepo repository.ClaimRepository) *GetClaimUseCase {
	return &GetClaimUseCase{claimRepo: claimRepo}
}

func (uc *GetClaimUseCase) Execute(ctx context.Context, actor entity.Actor, claimID uuid.UUID) (*entity.Claim, error) {
	c, err := uc.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		if apperror.IsNotFound(err) && !actor.IsStaff() {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	if !c.CanView(actor) {
		return nil, apperror.Forbidden()
	}
	return c, nil
}

type ListClaimsInput struct {
	Actor    entity.Actor
	HiringID *uuid.UUID
	Statuses []string
	Page     repository.Page
}

type ListClaimsUseCase struct {
	claimRepo repository.ClaimRepository
}

func NewListClaimsUseCase(claimRepo repository.ClaimRepository) *ListClaimsUseCase {
	return &ListClaimsUseCase{claimRepo: claimRepo}
}

// Execute: модератор видит все претензии, сторона - только свои.
// Фильтр по статусу учитывает устаревшие значения.
func (uc *ListClaimsUseCase) Execute(ctx context.Context, input ListClaimsInput) ([]*entity.Claim, int, error) {
	filter := repository.ClaimFilter{HiringID: input.HiringID, Page: input.Page.Normalize()}
	if !input.Actor.IsStaff() {
		id := input.Actor.UserID
		filter.ParticipantID = &id
	}
	for _, s := range input.Statuses {
		status := valueobject.ClaimStatus(s)
		if !status.IsValid() {
			return nil, 0, apperror.Validation("некорректный статус претензии: %q", s)
		}
		filter.Statuses = append(filter.Statuses, status.Canonical().WithLegacyAliases()...)
	}
	return uc.claimRepo.List(ctx, filter)
}

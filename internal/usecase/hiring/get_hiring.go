package hiring

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type HiringDetails struct {
	Hiring       *entity.Hiring
	Deliverables []entity.DeliverableView
	ActiveClaim  *entity.Claim
}

type GetHiringUseCase struct {
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
	claimRepo       repository.ClaimRepository
}

func NewGetHiringUseCase(hiringRepo repository.HiringRepository, deliverableRepo repository.DeliverableRepository, claimRepo repository.ClaimRepository) *GetHiringUseCase {
	return &GetHiringUseCase{hiringRepo: hiringRepo, deliverableRepo: deliverableRepo, claimRepo: claimRepo}
}

func (uc *GetHiringUseCase) Execute(ctx context.Context, actor entity.Actor, hiringID uuid.UUID) (*HiringDetails, error) {
	h, err := loadVisible(ctx, uc.hiringRepo, actor, hiringID)
	if err != nil {
		return nil, err
	}
	list, err := uc.deliverableRepo.ListByHiring(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	details := &HiringDetails{
		Hiring:       h,
		Deliverables: entity.ViewDeliverables(list, h.IsClient(actor.UserID)),
	}
	claim, err := uc.claimRepo.FindActiveByHiring(ctx, h.ID)
	switch {
	case err == nil:
		details.ActiveClaim = claim
	case !apperror.IsNotFound(err):
		return nil, err
	}
	return details, nil
}

// loadVisible скрывает существование найма от посторонних: для них ответ - Forbidden.
func loadVisible(ctx context.Context, repo repository.HiringRepository, actor entity.Actor, hiringID uuid.UUID) (*entity.Hiring, error) {
	h, err := repo.FindByID(ctx, hiringID)
	if err != nil {
		if apperror.IsNotFound(err) && !actor.IsStaff() {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	if !h.CanView(actor) {
		return nil, apperror.Forbidden()
	}
	return h, nil
}

type ListDeliverablesUseCase struct {
	hiringRepo      repository.HiringRepository
	deliverableRepo repository.DeliverableRepository
}

func NewListDeliverablesUseCase(hiringRepo repository.HiringRepository, deliverableRepo repository.DeliverableRepository) *ListDeliverablesUseCase {
	return &ListDeliverablesUseCase{hiringRepo: hiringRepo, deliverableRepo: deliverableRepo}
}

// Execute возвращает этапы с блокировкой, вычисленной для зрителя.
func (uc *ListDeliverablesUseCase) Execute(ctx context.Context, actor entity.Actor, hiringID uuid.UUID) ([]entity.DeliverableView, error) {
	h, err := loadVisible(ctx, uc.hiringRepo, actor, hiringID)
	if err != nil {
		return nil, err
	}
	list, err := uc.deliverableRepo.ListByHiring(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	return entity.ViewDeliverables(list, h.IsClient(actor.UserID)), nil
}

type ListHiringsInput struct {
	Actor    entity.Actor
	Statuses []string
	Page     repository.Page
}

type ListHiringsUseCase struct {
	hiringRepo repository.HiringRepository
}

func NewListHiringsUseCase(hiringRepo repository.HiringRepository) *ListHiringsUseCase {
	return &ListHiringsUseCase{hiringRepo: hiringRepo}
}

// Execute: персонал видит все наймы, стороны - только свои.
func (uc *ListHiringsUseCase) Execute(ctx context.Context, input ListHiringsInput) ([]*entity.Hiring, int, error) {
	filter := repository.HiringFilter{Page: input.Page.Normalize()}
	if !input.Actor.IsStaff() {
		id := input.Actor.UserID
		filter.ParticipantID = &id
	}
	for _, s := range input.Statuses {
		status, err := valueobject.NewHiringStatus(s)
		if err != nil {
			return nil, 0, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return uc.hiringRepo.List(ctx, filter)
}

package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type DeliveryView struct {
	*entity.Delivery
	NeedsWatermark bool
}

// watermarkGate подменяет пути вложений на защищённые копии для клиента,
// пока сдача не оплачена. Исходный путь в этом случае не возвращается никогда.
type watermarkGate struct {
	storage repository.FileStorage
}

func (g watermarkGate) view(ctx context.Context, d *entity.Delivery, viewerIsClient bool) (*DeliveryView, error) {
	v := &DeliveryView{Delivery: d, NeedsWatermark: d.NeedsWatermark(viewerIsClient)}
	if !v.NeedsWatermark || len(d.Attachments) == 0 {
		return v, nil
	}
	masked := *d
	masked.Attachments = make([]entity.Attachment, len(d.Attachments))
	for i, a := range d.Attachments {
		derived, err := g.storage.Derive(ctx, a.FilePath)
		if err != nil {
			return nil, apperror.External(err, "не удалось подготовить защищённую копию файла")
		}
		a.FilePath = derived
		masked.Attachments[i] = a
	}
	v.Delivery = &masked
	return v, nil
}

type GetDeliveryUseCase struct {
	hiringRepo   repository.HiringRepository
	deliveryRepo repository.DeliveryRepository
	gate         watermarkGate
}

func NewGetDeliveryUseCase(hiringRepo repository.HiringRepository, deliveryRepo repository.DeliveryRepository, storage repository.FileStorage) *GetDeliveryUseCase {
	return &GetDeliveryUseCase{hiringRepo: hiringRepo, deliveryRepo: deliveryRepo, gate: watermarkGate{storage: storage}}
}

func (uc *GetDeliveryUseCase) Execute(ctx context.Context, actor entity.Actor, deliveryID uuid.UUID) (*DeliveryView, error) {
	d, err := uc.deliveryRepo.FindByID(ctx, deliveryID)
	if err != nil {
		if apperror.IsNotFound(err) && !actor.IsStaff() {
			return nil, apperror.Forbidden()
		}
		return nil, err
	}
	h, err := uc.hiringRepo.FindByID(ctx, d.HiringID)
	if err != nil {
		return nil, err
	}
	if !h.CanView(actor) {
		return nil, apperror.Forbidden()
	}
	return uc.gate.view(ctx, d, h.IsClient(actor.UserID))
}

type ListDeliveriesInput struct {
	Actor         entity.Actor
	HiringID      uuid.UUID
	DeliverableID *uuid.UUID
	Statuses      []string
	Page          repository.Page
}

type ListDeliveriesUseCase struct {
	hiringRepo   repository.HiringRepository
	deliveryRepo repository.DeliveryRepository
	gate         watermarkGate
}

func NewListDeliveriesUseCase(hiringRepo repository.HiringRepository, deliveryRepo repository.DeliveryRepository, storage repository.FileStorage) *ListDeliveriesUseCase {
	return &ListDeliveriesUseCase{hiringRepo: hiringRepo, deliveryRepo: deliveryRepo, gate: watermarkGate{storage: storage}}
}

func (uc *ListDeliveriesUseCase) Execute(ctx context.Context, input ListDeliveriesInput) ([]*DeliveryView, int, error) {
	h, err := uc.hiringRepo.FindByID(ctx, input.HiringID)
	if err != nil {
		if apperror.IsNotFound(err) && !input.Actor.IsStaff() {
			return nil, 0, apperror.Forbidden()
		}
		return nil, 0, err
	}
	if !h.CanView(input.Actor) {
		return nil, 0, apperror.Forbidden()
	}

	filter := repository.DeliveryFilter{HiringID: h.ID, DeliverableID: input.DeliverableID, Page: input.Page.Normalize()}
	for _, s := range input.Statuses {
		status := valueobject.DeliveryStatus(s)
		if !status.IsValid() {
			return nil, 0, apperror.Validation("некорректный статус сдачи: %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	list, total, err := uc.deliveryRepo.ListByHiring(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	isClient := h.IsClient(input.Actor.UserID)
	views := make([]*DeliveryView, 0, len(list))
	for _, d := range list {
		v, err := uc.gate.view(ctx, d, isClient)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, nil
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/hiring"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

type HiringHandler struct {
	uc app.HiringUseCases
}

func NewHiringHandler(uc app.HiringUseCases) *HiringHandler {
	return &HiringHandler{uc: uc}
}

// Create обрабатывает POST /hirings.
func (h *HiringHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateHiringRequest
	if !bindJSON(c, &req) {
		return
	}
	for _, d := range req.Deliverables {
		if !checkLengths(c, validation.Field{Name: "description", Value: d.Description, Max: validation.MaxDescriptionLength}) {
			return
		}
	}

	out, err := h.uc.Create.Execute(c.Request.Context(), hiring.CreateHiringInput{
		Actor:           actor,
		ProviderID:      req.ProviderID,
		ServiceID:       req.ServiceID,
		PaymentModality: req.PaymentModality,
		QuotedPrice:     req.QuotedPrice,
		Deliverables:    req.Plan(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.HiringDetailsResponse{
		Hiring:       dto.ToHiringResponse(out.Hiring),
		Deliverables: dto.ToCreatedDeliverables(out.Deliverables),
	})
}

// Start обрабатывает POST /hirings/:id/start.
func (h *HiringHandler) Start(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.uc.Start.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToHiringResponse(result))
}

// Get обрабатывает GET /hirings/:id.
func (h *HiringHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := h.uc.Get.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.HiringDetailsResponse{
		Hiring:       dto.ToHiringResponse(details.Hiring),
		Deliverables: dto.ToDeliverableList(details.Deliverables),
	}
	if details.ActiveClaim != nil {
		claim := dto.ToClaimResponse(details.ActiveClaim)
		resp.ActiveClaim = &claim
	}
	response.Success(c, resp)
}

// List обрабатывает GET /hirings.
func (h *HiringHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page := pageQuery(c)

	list, total, err := h.uc.List.Execute(c.Request.Context(), hiring.ListHiringsInput{
		Actor:    actor,
		Statuses: statusQuery(c),
		Page:     page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToHiringList(list), total, page.Limit, page.Offset)
}

// ListDeliverables обрабатывает GET /hirings/:id/deliverables.
func (h *HiringHandler) ListDeliverables(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	views, err := h.uc.ListDeliverables.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDeliverableList(views))
}

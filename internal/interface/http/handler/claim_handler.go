package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/claim"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

type ClaimHandler struct {
	uc app.ClaimUseCases
}

func NewClaimHandler(uc app.ClaimUseCases) *ClaimHandler {
	return &ClaimHandler{uc: uc}
}

// CanCreate обрабатывает GET /hirings/:id/can-claim.
func (h *ClaimHandler) CanCreate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hiringID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	eligibility, err := h.uc.CanCreate.Execute(c.Request.Context(), actor, hiringID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, eligibility)
}

// Open обрабатывает POST /hirings/:id/claims.
func (h *ClaimHandler) Open(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hiringID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.OpenClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "description", Value: req.Description, Max: validation.MaxDescriptionLength}) {
		return
	}

	result, err := h.uc.Open.Execute(c.Request.Context(), claim.OpenClaimInput{
		Actor:       actor,
		HiringID:    hiringID,
		ClaimType:   req.ClaimType,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToClaimResponse(result))
}

// Get обрабатывает GET /claims/:id.
func (h *ClaimHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.uc.Get.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToClaimResponse(result))
}

// List обрабатывает GET /claims.
func (h *ClaimHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hiringID, ok := optionalUUIDQuery(c, "hiring_id")
	if !ok {
		return
	}
	page := pageQuery(c)

	list, total, err := h.uc.List.Execute(c.Request.Context(), claim.ListClaimsInput{
		Actor:    actor,
		HiringID: hiringID,
		Statuses: statusQuery(c),
		Page:     page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToClaimList(list), total, page.Limit, page.Offset)
}

type claimCommand func(ctx context.Context, actor entity.Actor, claimID uuid.UUID) (*entity.Claim, error)

// run выполняет команду над претензией из пути и отдаёт её новое состояние.
func (h *ClaimHandler) run(c *gin.Context, cmd claimCommand) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := cmd(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToClaimResponse(result))
}

// StartReview обрабатывает POST /claims/:id/review.
func (h *ClaimHandler) StartReview(c *gin.Context) {
	h.run(c, h.uc.StartReview.Execute)
}

// RequestClarification обрабатывает POST /claims/:id/clarification.
func (h *ClaimHandler) RequestClarification(c *gin.Context) {
	var req dto.ClarificationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "question", Value: req.Question, Max: validation.MaxNotesLength}) {
		return
	}
	h.run(c, func(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Claim, error) {
		return h.uc.RequestClarification.Execute(ctx, actor, id, req.Question)
	})
}

// ProvideClarification обрабатывает POST /claims/:id/clarify.
func (h *ClaimHandler) ProvideClarification(c *gin.Context) {
	var req dto.ClarifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "answer", Value: req.Answer, Max: validation.MaxNotesLength}) {
		return
	}
	h.run(c, func(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Claim, error) {
		return h.uc.ProvideClarification.Execute(ctx, actor, id, req.Answer)
	})
}

// Escalate обрабатывает POST /claims/:id/escalate.
func (h *ClaimHandler) Escalate(c *gin.Context) {
	h.run(c, h.uc.Escalate.Execute)
}

// Cancel обрабатывает POST /claims/:id/cancel.
func (h *ClaimHandler) Cancel(c *gin.Context) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	h.run(c, func(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Claim, error) {
		return h.uc.Cancel.Execute(ctx, actor, id, reason)
	})
}

// Reject обрабатывает POST /claims/:id/reject.
func (h *ClaimHandler) Reject(c *gin.Context) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	h.run(c, func(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Claim, error) {
		return h.uc.Reject.Execute(ctx, actor, id, reason)
	})
}

// bindReason читает необязательную причину; пустое тело допустимо.
func bindReason(c *gin.Context) (string, bool) {
	var req dto.ReasonRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return "", false
	}
	if !checkLengths(c, validation.Field{Name: "reason", Value: req.Reason, Max: validation.MaxReasonLength}) {
		return "", false
	}
	return req.Reason, true
}

// Resolve обрабатывает POST /claims/:id/resolve.
func (h *ClaimHandler) Resolve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Compliances) > validation.MaxCompliancesPerClaim {
		response.BadRequest(c, "слишком много обязательств в одном решении")
		return
	}
	fields := []validation.Field{{Name: "justification", Value: req.Justification, Max: validation.MaxDescriptionLength}}
	for _, spec := range req.Compliances {
		fields = append(fields, validation.Field{Name: "instructions", Value: spec.Instructions, Max: validation.MaxInstructionsLength})
	}
	if !checkLengths(c, fields...) {
		return
	}

	out, err := h.uc.Resolve.Execute(c.Request.Context(), claim.ResolveClaimInput{
		Actor:         actor,
		ClaimID:       id,
		Resolution:    req.Resolution,
		Justification: req.Justification,
		Compliances:   req.Specs(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToResolveClaimResponse(out))
}

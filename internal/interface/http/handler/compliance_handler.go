package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

type ComplianceHandler struct {
	uc app.ComplianceUseCases
}

func NewComplianceHandler(uc app.ComplianceUseCases) *ComplianceHandler {
	return &ComplianceHandler{uc: uc}
}

// List обрабатывает GET /compliances.
// Статусы в ответе учитывают просрочку на момент запроса.
func (h *ComplianceHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	claimID, ok := optionalUUIDQuery(c, "claim_id")
	if !ok {
		return
	}
	page := pageQuery(c)

	list, total, err := h.uc.List.Execute(c.Request.Context(), compliance.ListCompliancesInput{
		Actor:    actor,
		ClaimID:  claimID,
		Statuses: statusQuery(c),
		Page:     page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToComplianceList(list), total, page.Limit, page.Offset)
}

// Get обрабатывает GET /compliances/:id.
func (h *ComplianceHandler) Get(c *gin.Context) {
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
	response.Success(c, dto.ToComplianceResponse(result))
}

// Submit обрабатывает POST /compliances/:id/submit.
func (h *ComplianceHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitComplianceRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "response", Value: req.Response, Max: validation.MaxContentLength}) {
		return
	}

	result, err := h.uc.Submit.Execute(c.Request.Context(), compliance.SubmitComplianceInput{
		Actor:        actor,
		ComplianceID: id,
		Response:     req.Response,
		Evidence:     dto.ToAttachments(req.Evidence),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToComplianceResponse(result))
}

// PeerReview обрабатывает POST /compliances/:id/peer-review.
func (h *ComplianceHandler) PeerReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.PeerReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "notes", Value: req.Notes, Max: validation.MaxNotesLength}) {
		return
	}

	result, err := h.uc.PeerReview.Execute(c.Request.Context(), compliance.PeerReviewInput{
		Actor:        actor,
		ComplianceID: id,
		Approve:      *req.Approve,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToComplianceResponse(result))
}

// StartReview обрабатывает POST /compliances/:id/review.
func (h *ComplianceHandler) StartReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.uc.StartReview.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToComplianceResponse(result))
}

// Decide обрабатывает POST /compliances/:id/decide.
func (h *ComplianceHandler) Decide(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.DecideComplianceRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "notes", Value: req.Notes, Max: validation.MaxNotesLength}) {
		return
	}

	result, err := h.uc.Decide.Execute(c.Request.Context(), compliance.DecideInput{
		Actor:          actor,
		ComplianceID:   id,
		Decision:       req.Decision,
		Notes:          req.Notes,
		AdjustmentDays: req.AdjustmentDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToComplianceResponse(result))
}

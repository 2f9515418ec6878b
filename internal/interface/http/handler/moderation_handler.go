package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/moderation"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

// ModerationHandler - очередь модерации, доступна только персоналу.
type ModerationHandler struct {
	uc app.ModerationUseCases
}

func NewModerationHandler(uc app.ModerationUseCases) *ModerationHandler {
	return &ModerationHandler{uc: uc}
}

// List обрабатывает GET /moderation/analyses.
func (h *ModerationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	input := moderation.ListAnalysesInput{
		Actor:          actor,
		Classification: c.Query("classification"),
		Page:           pageQuery(c),
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "параметр resolved должен быть true или false")
			return
		}
		input.Resolved = &resolved
	}

	list, total, err := h.uc.List.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToAnalysisList(list), total, input.Page.Limit, input.Page.Offset)
}

// Flag обрабатывает POST /moderation/analyses.
func (h *ModerationHandler) Flag(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.FlagUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "summary", Value: req.Summary, Max: validation.MaxSummaryLength}) {
		return
	}

	result, err := h.uc.Flag.Execute(c.Request.Context(), actor, req.Input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAnalysisResponse(result))
}

// Resolve обрабатывает POST /moderation/analyses/:id/resolve.
func (h *ModerationHandler) Resolve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveAnalysisRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "notes", Value: req.Notes, Max: validation.MaxNotesLength}) {
		return
	}

	out, err := h.uc.Resolve.Execute(c.Request.Context(), moderation.ResolveAnalysisInput{
		Actor:          actor,
		AnalysisID:     id,
		Action:         req.Action,
		Notes:          req.Notes,
		SuspensionDays: req.SuspensionDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ResolveAnalysisResponse{
		Analysis: dto.ToAnalysisResponse(out.Analysis),
		Cascade:  out.Cascade,
	})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

// CallbackVerifier проверяет подпись уведомления платёжного шлюза.
type CallbackVerifier interface {
	VerifyCallback(token string) (delivery.PaymentCallback, error)
}

type DeliveryHandler struct {
	uc       app.DeliveryUseCases
	verifier CallbackVerifier
}

func NewDeliveryHandler(uc app.DeliveryUseCases, verifier CallbackVerifier) *DeliveryHandler {
	return &DeliveryHandler{uc: uc, verifier: verifier}
}

// Submit обрабатывает POST /hirings/:id/deliveries.
func (h *DeliveryHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hiringID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "content", Value: req.Content, Max: validation.MaxContentLength}) {
		return
	}

	d, err := h.uc.Submit.Execute(c.Request.Context(), delivery.SubmitDeliveryInput{
		Actor:         actor,
		HiringID:      hiringID,
		DeliverableID: req.DeliverableID,
		Content:       req.Content,
		Attachments:   dto.ToAttachments(req.Attachments),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDeliveryResponse(d, false))
}

// Review обрабатывает POST /deliveries/:id/review.
func (h *DeliveryHandler) Review(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkLengths(c, validation.Field{Name: "notes", Value: req.Notes, Max: validation.MaxNotesLength}) {
		return
	}

	out, err := h.uc.Review.Execute(c.Request.Context(), delivery.ReviewDeliveryInput{
		Actor:      actor,
		DeliveryID: id,
		Action:     req.Action,
		Notes:      req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ReviewDeliveryResponse{
		Delivery:    dto.ToDeliveryResponse(out.Delivery, false),
		Hiring:      dto.ToHiringResponse(out.Hiring),
		RedirectURL: out.RedirectURL,
	})
}

// Get обрабатывает GET /deliveries/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.uc.Get.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToDeliveryView(view))
}

// List обрабатывает GET /hirings/:id/deliveries.
func (h *DeliveryHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hiringID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deliverableID, ok := optionalUUIDQuery(c, "deliverable_id")
	if !ok {
		return
	}
	page := pageQuery(c)

	views, total, err := h.uc.List.Execute(c.Request.Context(), delivery.ListDeliveriesInput{
		Actor:         actor,
		HiringID:      hiringID,
		DeliverableID: deliverableID,
		Statuses:      statusQuery(c),
		Page:          page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToDeliveryViews(views), total, page.Limit, page.Offset)
}

// PaymentCallback обрабатывает POST /payments/callback. Маршрут публичный:
// доверие к запросу даёт только подпись токена.
func (h *DeliveryHandler) PaymentCallback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if !bindJSON(c, &req) {
		return
	}
	cb, err := h.verifier.VerifyCallback(req.Token)
	if err != nil {
		logger.L().WithError(err).WithField("ip", c.ClientIP()).Warn("payment callback rejected")
		response.Error(c, apperror.New(apperror.ErrCodeUnauthorized, "подпись уведомления невалидна"))
		return
	}

	out, err := h.uc.ConfirmPayment.Execute(c.Request.Context(), cb)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToConfirmPaymentResponse(out))
}

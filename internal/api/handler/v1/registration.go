package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

const paymentProofField = "paymentProof"

type RegistrationService interface {
	Register(ctx context.Context, participantID uint, req service.RegistrationRequest) (domain.Registration, error)
	Cancel(ctx context.Context, participantID, id uint) error
	Mine(ctx context.Context, participantID uint) ([]domain.RegistrationDetail, error)
	Ticket(ctx context.Context, principal domain.Principal, ticketID string) (domain.RegistrationDetail, error)
	PendingPayments(ctx context.Context, principal domain.Principal, eventID uint) ([]domain.RegistrationDetail, error)
	ReviewPayment(ctx context.Context, principal domain.Principal, id uint, approve bool) (domain.Registration, error)
}

type RegistrationHandler struct {
	svc     RegistrationService
	uploads *Uploads
}

func NewRegistrationHandler(svc RegistrationService, uploads *Uploads) *RegistrationHandler {
	return &RegistrationHandler{
		svc:     svc,
		uploads: uploads,
	}
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Multipart form. formResponses and merchandisePurchases are JSON encoded.
// @Tags         registrations
// @Accept       multipart/form-data
// @Produce      json
// @Param        eventId               formData  int     true   "Event ID"
// @Param        formResponses         formData  string  false  "JSON array of {label, value}"
// @Param        merchandisePurchases  formData  string  false  "JSON array of {item_id, quantity}"
// @Param        paymentProof          formData  file    false  "jpg, png or pdf up to 5 MB"
// @Success      201  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /registrations [post]
// @Security BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var form request.RegistrationForm
	if err := ctx.ShouldBind(&form); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := form.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	req, err := form.ToRequest()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	file, err := ctx.FormFile(paymentProofField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	default:
		if err = checkProof(file); err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		req.PaymentProofURL, err = h.uploads.Save(ctx, file)
		if err != nil {
			response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleRegister -> h.uploads.Save -> %w", err)))
			return
		}
	}

	reg, err := h.svc.Register(ctx.Request.Context(), principal.ID, req)
	if err != nil {
		h.uploads.Remove(req.PaymentProofURL)
		response.RenderErr(ctx, serviceErr("v1.HandleRegister -> h.svc.Register", err))
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

// HandleMyRegistrations godoc
// @Summary      Registrations of the signed in participant
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   domain.RegistrationDetail
// @Router       /registrations/my [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleMyRegistrations(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	regs, err := h.svc.Mine(ctx.Request.Context(), principal.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleMyRegistrations -> h.svc.Mine", err))
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleCancel godoc
// @Summary      Cancel a registration
// @Tags         registrations
// @Param        id   path      int  true  "Registration ID"
// @Success      200  {object}  response.Message
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /registrations/{id} [delete]
// @Security BearerAuth
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Cancel(ctx.Request.Context(), principal.ID, id); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleCancel -> h.svc.Cancel", err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "registration cancelled"})
}

// HandleTicket godoc
// @Summary      Look up a ticket
// @Tags         registrations
// @Produce      json
// @Param        ticketId   path      string  true  "Ticket ID"
// @Success      200  {object}  domain.RegistrationDetail
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /tickets/{ticketId} [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleTicket(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	detail, err := h.svc.Ticket(ctx.Request.Context(), principal, ctx.Param("ticketId"))
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleTicket -> h.svc.Ticket", err))
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

// HandlePendingPayments godoc
// @Summary      Registrations waiting for payment review
// @Tags         registrations
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Success      200  {array}   domain.RegistrationDetail
// @Failure      403  {object}  response.Err
// @Router       /registrations/event/{eventId}/pending-payments [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandlePendingPayments(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	regs, err := h.svc.PendingPayments(ctx.Request.Context(), principal, eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandlePendingPayments -> h.svc.PendingPayments", err))
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleReviewPayment godoc
// @Summary      Approve or reject a payment proof
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Registration ID"
// @Param        input  body      request.PaymentReviewRequest  true  "approve or reject"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /registrations/{id}/payment-review [patch]
// @Security BearerAuth
func (h *RegistrationHandler) HandleReviewPayment(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.PaymentReviewRequest
	if !bindJSON(ctx, &req) {
		return
	}

	reg, err := h.svc.ReviewPayment(ctx.Request.Context(), principal, id, req.Approve())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleReviewPayment -> h.svc.ReviewPayment", err))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

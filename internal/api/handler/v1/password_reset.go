package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
)

type PasswordResetService interface {
	Request(ctx context.Context, organizerID uint, reason string) (domain.PasswordResetRequest, error)
	Mine(ctx context.Context, organizerID uint) ([]domain.PasswordResetRequest, error)
	List(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error)
	Approve(ctx context.Context, adminID, id uint, comment string) (domain.PasswordResetRequest, domain.Credential, error)
	Reject(ctx context.Context, adminID, id uint, comment string) (domain.PasswordResetRequest, error)
	Acknowledge(ctx context.Context, id uint) error
}

type PasswordResetHandler struct {
	svc PasswordResetService
}

func NewPasswordResetHandler(svc PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{
		svc: svc,
	}
}

// HandleRequestReset godoc
// @Summary      Ask an admin for a new password
// @Tags         password-resets
// @Accept       json
// @Produce      json
// @Param        input  body      request.ResetRequest  true  "Reason"
// @Success      201  {object}  domain.PasswordResetRequest
// @Failure      409  {object}  response.Err
// @Router       /password-resets [post]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleRequestReset(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.ResetRequest
	if !bindJSON(ctx, &req) {
		return
	}

	created, err := h.svc.Request(ctx.Request.Context(), principal.ID, req.Reason)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleRequestReset -> h.svc.Request", err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleMyResets godoc
// @Summary      Reset requests of the signed in organizer
// @Tags         password-resets
// @Produce      json
// @Success      200  {array}   domain.PasswordResetRequest
// @Router       /password-resets/my [get]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleMyResets(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	reqs, err := h.svc.Mine(ctx.Request.Context(), principal.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleMyResets -> h.svc.Mine", err))
		return
	}

	ctx.JSON(http.StatusOK, reqs)
}

// HandleListResets godoc
// @Summary      List reset requests
// @Tags         password-resets
// @Produce      json
// @Param        status   query     string  false  "pending, approved or rejected"
// @Success      200  {array}   domain.PasswordResetRequest
// @Router       /password-resets [get]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleListResets(ctx *gin.Context) {
	reqs, err := h.svc.List(ctx.Request.Context(), domain.ResetStatus(ctx.Query("status")))
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleListResets -> h.svc.List", err))
		return
	}

	ctx.JSON(http.StatusOK, reqs)
}

// HandleApprove godoc
// @Summary      Approve a reset and generate a password
// @Description  The new password is returned once.
// @Tags         password-resets
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Request ID"
// @Param        input  body      request.ReviewResetRequest  false  "Comment"
// @Success      200  {object}  response.ResetApprovalResponse
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /password-resets/{id}/approve [patch]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleApprove(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.ReviewResetRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	resolved, credential, err := h.svc.Approve(ctx.Request.Context(), principal.ID, id, req.Comment)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleApprove -> h.svc.Approve", err))
		return
	}

	ctx.JSON(http.StatusOK, response.ResetApprovalResponse{Request: resolved, Credentials: credential})
}

// HandleReject godoc
// @Summary      Reject a reset
// @Tags         password-resets
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Request ID"
// @Param        input  body      request.ReviewResetRequest  false  "Comment"
// @Success      200  {object}  domain.PasswordResetRequest
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /password-resets/{id}/reject [patch]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleReject(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.ReviewResetRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	resolved, err := h.svc.Reject(ctx.Request.Context(), principal.ID, id, req.Comment)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleReject -> h.svc.Reject", err))
		return
	}

	ctx.JSON(http.StatusOK, resolved)
}

// HandleAcknowledge godoc
// @Summary      Forget the generated password of an approved reset
// @Tags         password-resets
// @Param        id     path      int  true  "Request ID"
// @Success      200  {object}  response.Message
// @Failure      404  {object}  response.Err
// @Router       /password-resets/{id}/acknowledge [post]
// @Security BearerAuth
func (h *PasswordResetHandler) HandleAcknowledge(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Acknowledge(ctx.Request.Context(), id); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleAcknowledge -> h.svc.Acknowledge", err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "acknowledged"})
}

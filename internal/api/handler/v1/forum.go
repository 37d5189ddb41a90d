package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
)

type ForumService interface {
	Messages(ctx context.Context, principal domain.Principal, eventID uint) ([]domain.ForumMessage, error)
	PostMessage(ctx context.Context, principal domain.Principal, eventID uint, content string, parentID *uint) (domain.ForumMessage, error)
	Announce(ctx context.Context, principal domain.Principal, eventID uint, content string) (domain.ForumMessage, error)
	TogglePin(ctx context.Context, principal domain.Principal, eventID, msgID uint) (domain.ForumMessage, error)
	Delete(ctx context.Context, principal domain.Principal, eventID, msgID uint) error
	React(ctx context.Context, principal domain.Principal, eventID, msgID uint, emoji string) (domain.ForumMessage, error)
}

type ForumHandler struct {
	svc ForumService
}

func NewForumHandler(svc ForumService) *ForumHandler {
	return &ForumHandler{
		svc: svc,
	}
}

// forumTarget reads the principal, the event and, when withMessage is set, the message id.
func forumTarget(ctx *gin.Context, withMessage bool) (principal domain.Principal, eventID, msgID uint, ok bool) {
	if principal, ok = principalOf(ctx); !ok {
		return
	}
	if eventID, ok = idParam(ctx, "eventId"); !ok {
		return
	}
	if withMessage {
		msgID, ok = idParam(ctx, "msgId")
	}

	return
}

// HandleMessages godoc
// @Summary      Forum messages of an event
// @Description  Pinned messages first, then oldest first. Deleted messages are hidden.
// @Tags         forum
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Success      200  {array}   domain.ForumMessage
// @Failure      403  {object}  response.Err
// @Router       /forum/{eventId}/messages [get]
// @Security BearerAuth
func (h *ForumHandler) HandleMessages(ctx *gin.Context) {
	principal, eventID, _, ok := forumTarget(ctx, false)
	if !ok {
		return
	}

	messages, err := h.svc.Messages(ctx.Request.Context(), principal, eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleMessages -> h.svc.Messages", err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// HandlePostMessage godoc
// @Summary      Post a message or a reply
// @Tags         forum
// @Accept       json
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Param        input  body      request.MessageRequest  true  "Message"
// @Success      201  {object}  domain.ForumMessage
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /forum/{eventId}/messages [post]
// @Security BearerAuth
func (h *ForumHandler) HandlePostMessage(ctx *gin.Context) {
	principal, eventID, _, ok := forumTarget(ctx, false)
	if !ok {
		return
	}

	var req request.MessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := h.svc.PostMessage(ctx.Request.Context(), principal, eventID, req.Content, req.ParentID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandlePostMessage -> h.svc.PostMessage", err))
		return
	}

	ctx.JSON(http.StatusCreated, msg)
}

// HandleAnnounce godoc
// @Summary      Post a pinned announcement
// @Tags         forum
// @Accept       json
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Param        input  body      request.AnnouncementRequest  true  "Announcement"
// @Success      201  {object}  domain.ForumMessage
// @Failure      403  {object}  response.Err
// @Router       /forum/{eventId}/announce [post]
// @Security BearerAuth
func (h *ForumHandler) HandleAnnounce(ctx *gin.Context) {
	principal, eventID, _, ok := forumTarget(ctx, false)
	if !ok {
		return
	}

	var req request.AnnouncementRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := h.svc.Announce(ctx.Request.Context(), principal, eventID, req.Content)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleAnnounce -> h.svc.Announce", err))
		return
	}

	ctx.JSON(http.StatusCreated, msg)
}

// HandleTogglePin godoc
// @Summary      Pin or unpin a message
// @Tags         forum
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Param        msgId     path      int  true  "Message ID"
// @Success      200  {object}  domain.ForumMessage
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /forum/{eventId}/messages/{msgId}/pin [patch]
// @Security BearerAuth
func (h *ForumHandler) HandleTogglePin(ctx *gin.Context) {
	principal, eventID, msgID, ok := forumTarget(ctx, true)
	if !ok {
		return
	}

	msg, err := h.svc.TogglePin(ctx.Request.Context(), principal, eventID, msgID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleTogglePin -> h.svc.TogglePin", err))
		return
	}

	ctx.JSON(http.StatusOK, msg)
}

// HandleDeleteMessage godoc
// @Summary      Hide a message
// @Tags         forum
// @Param        eventId   path      int  true  "Event ID"
// @Param        msgId     path      int  true  "Message ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /forum/{eventId}/messages/{msgId} [delete]
// @Security BearerAuth
func (h *ForumHandler) HandleDeleteMessage(ctx *gin.Context) {
	principal, eventID, msgID, ok := forumTarget(ctx, true)
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), principal, eventID, msgID); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleDeleteMessage -> h.svc.Delete", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleReact godoc
// @Summary      Toggle an emoji reaction
// @Tags         forum
// @Accept       json
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Param        msgId     path      int  true  "Message ID"
// @Param        input  body      request.ReactionRequest  true  "Emoji"
// @Success      200  {object}  domain.ForumMessage
// @Failure      403  {object}  response.Err
// @Router       /forum/{eventId}/messages/{msgId}/react [post]
// @Security BearerAuth
func (h *ForumHandler) HandleReact(ctx *gin.Context) {
	principal, eventID, msgID, ok := forumTarget(ctx, true)
	if !ok {
		return
	}

	var req request.ReactionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := h.svc.React(ctx.Request.Context(), principal, eventID, msgID, req.Emoji)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleReact -> h.svc.React", err))
		return
	}

	ctx.JSON(http.StatusOK, msg)
}

package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
)

type FeedbackService interface {
	Submit(ctx context.Context, participantID, eventID uint, rating int, comment string) (domain.Feedback, error)
	Summary(ctx context.Context, principal domain.Principal, eventID uint, rating int) (domain.FeedbackSummary, error)
	Submitted(ctx context.Context, participantID, eventID uint) (bool, error)
}

type FeedbackHandler struct {
	svc FeedbackService
}

func NewFeedbackHandler(svc FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		svc: svc,
	}
}

// HandleSubmit godoc
// @Summary      Leave anonymous feedback on a completed event
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Param        input  body      request.FeedbackRequest  true  "Rating and comment"
// @Success      201  {object}  domain.Feedback
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /feedback/{eventId} [post]
// @Security BearerAuth
func (h *FeedbackHandler) HandleSubmit(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	var req request.FeedbackRequest
	if !bindJSON(ctx, &req) {
		return
	}

	feedback, err := h.svc.Submit(ctx.Request.Context(), principal.ID, eventID, req.Rating, req.Comment)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleSubmit -> h.svc.Submit", err))
		return
	}

	ctx.JSON(http.StatusCreated, feedback)
}

// HandleSummary godoc
// @Summary      Feedback of an event
// @Tags         feedback
// @Produce      json
// @Param        eventId   path      int  true   "Event ID"
// @Param        rating    query     int  false  "only this rating"
// @Success      200  {object}  domain.FeedbackSummary
// @Failure      403  {object}  response.Err
// @Router       /feedback/{eventId} [get]
// @Security BearerAuth
func (h *FeedbackHandler) HandleSummary(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	rating := 0
	if raw := ctx.Query("rating"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 5 {
			response.RenderErr(ctx, response.ErrBadRequest(errRatingFilter))
			return
		}
		rating = parsed
	}

	summary, err := h.svc.Summary(ctx.Request.Context(), principal, eventID, rating)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleSummary -> h.svc.Summary", err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleCheck godoc
// @Summary      Whether the participant already left feedback
// @Tags         feedback
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Success      200  {object}  map[string]bool
// @Router       /feedback/{eventId}/check [get]
// @Security BearerAuth
func (h *FeedbackHandler) HandleCheck(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	submitted, err := h.svc.Submitted(ctx.Request.Context(), principal.ID, eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleCheck -> h.svc.Submitted", err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"submitted": submitted})
}

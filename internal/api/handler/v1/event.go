package v1

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

type EventService interface {
	Create(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error)
	Get(ctx context.Context, principal domain.Principal, id uint) (service.EventView, error)
	List(ctx context.Context, principal domain.Principal, query service.EventQuery) (service.EventPage, error)
	Trending(ctx context.Context) ([]service.EventView, error)
	Update(ctx context.Context, principal domain.Principal, id uint, edit domain.EventEdit) (domain.Event, error)
	ReplaceForm(ctx context.Context, principal domain.Principal, id uint, form []domain.FormField) (domain.Event, error)
	ChangeStatus(ctx context.Context, principal domain.Principal, id uint, target domain.EventStatus) (domain.Event, error)
	Delete(ctx context.Context, principal domain.Principal, id uint) error
	RecordView(ctx context.Context, id uint) error
	Participants(ctx context.Context, principal domain.Principal, id uint) ([]domain.RegistrationDetail, error)
	ExportParticipants(ctx context.Context, principal domain.Principal, id uint, w io.Writer) error
	OrganizerEvents(ctx context.Context, organizerID uint) ([]service.EventView, error)
	Analytics(ctx context.Context, organizerID uint) (service.OrganizerAnalytics, error)
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleListEvents godoc
// @Summary      Browse events
// @Description  Participants only see published, ongoing and completed events, ranked by their preferences.
// @Tags         events
// @Produce      json
// @Param        search       query     string  false  "fuzzy search on name, description and tags"
// @Param        eventType    query     string  false  "normal, merchandise or hackathon"
// @Param        eligibility  query     string  false  "all, iiit-only or non-iiit-only"
// @Param        status       query     string  false  "event status"
// @Param        startFrom    query     string  false  "YYYY-MM-DD"
// @Param        startTo      query     string  false  "YYYY-MM-DD"
// @Param        followed     query     bool    false  "only followed organizers"
// @Param        page         query     int     false  "page"
// @Param        limit        query     int     false  "page size"
// @Success      200  {object}  service.EventPage
// @Failure      400  {object}  response.Err
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	var q request.EventListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	principal, _ := middleware.Principal(ctx)
	page, err := h.svc.List(ctx.Request.Context(), principal, q.ToQuery())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleListEvents -> h.svc.List", err))
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleTrending godoc
// @Summary      Trending events
// @Description  Top five events by registrations in the last 24 hours.
// @Tags         events
// @Produce      json
// @Success      200  {array}  service.EventView
// @Router       /events/trending [get]
func (h *EventHandler) HandleTrending(ctx *gin.Context) {
	events, err := h.svc.Trending(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleTrending -> h.svc.Trending", err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        id   path      int  true  "Event ID"
// @Success      200  {object}  service.EventView
// @Failure      404  {object}  response.Err
// @Router       /events/{id} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	principal, _ := middleware.Principal(ctx)
	event, err := h.svc.Get(ctx.Request.Context(), principal, id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleGetEvent -> h.svc.Get", err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleRecordView godoc
// @Summary      Count an event page view
// @Tags         events
// @Param        id   path      int  true  "Event ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Router       /events/{id}/view [post]
func (h *EventHandler) HandleRecordView(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.RecordView(ctx.Request.Context(), id); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleRecordView -> h.svc.RecordView", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Events start as draft unless created as published.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.CreateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := h.svc.Create(ctx.Request.Context(), principal.ID, req.ToEvent())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleCreateEvent -> h.svc.Create", err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Edit an event
// @Description  Drafts accept any change. Published events accept description, deadline extension,
// @Description  limit increase and closing registrations. Later statuses are locked.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Event ID"
// @Param        input  body      request.UpdateEventRequest  true  "Changed fields"
// @Success      200    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Router       /events/{id} [put]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.UpdateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}
	edit, err := req.ToEdit()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Update(ctx.Request.Context(), principal, id, edit)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleUpdateEvent -> h.svc.Update", err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleReplaceForm godoc
// @Summary      Replace the registration form
// @Description  Only for normal events whose form is not locked by a registration.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Event ID"
// @Param        input  body      request.FormRequest  true  "Form fields"
// @Success      200    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Router       /events/{id}/form [put]
// @Security BearerAuth
func (h *EventHandler) HandleReplaceForm(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.FormRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := h.svc.ReplaceForm(ctx.Request.Context(), principal, id, req.ToForm())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleReplaceForm -> h.svc.ReplaceForm", err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleChangeStatus godoc
// @Summary      Move an event through its lifecycle
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Event ID"
// @Param        input  body      request.StatusRequest  true  "Target status"
// @Success      200    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Router       /events/{id}/status [patch]
// @Security BearerAuth
func (h *EventHandler) HandleChangeStatus(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.StatusRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := h.svc.ChangeStatus(ctx.Request.Context(), principal, id, req.Status)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleChangeStatus -> h.svc.ChangeStatus", err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Param        id   path      int  true  "Event ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /events/{id} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), principal, id); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleDeleteEvent -> h.svc.Delete", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleParticipants godoc
// @Summary      Registrations of an event
// @Tags         events
// @Produce      json
// @Param        id   path      int  true  "Event ID"
// @Success      200  {array}   domain.RegistrationDetail
// @Failure      403  {object}  response.Err
// @Router       /events/{id}/participants [get]
// @Security BearerAuth
func (h *EventHandler) HandleParticipants(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	details, err := h.svc.Participants(ctx.Request.Context(), principal, id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleParticipants -> h.svc.Participants", err))
		return
	}

	ctx.JSON(http.StatusOK, details)
}

// HandleExportParticipants godoc
// @Summary      Export registrations as CSV
// @Tags         events
// @Produce      text/csv
// @Param        id   path      int  true  "Event ID"
// @Success      200
// @Failure      403  {object}  response.Err
// @Router       /events/{id}/export [get]
// @Security BearerAuth
func (h *EventHandler) HandleExportParticipants(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportParticipants(ctx.Request.Context(), principal, id, &buf); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleExportParticipants -> h.svc.ExportParticipants", err))
		return
	}

	renderCSV(ctx, fmt.Sprintf("event-%d-participants.csv", id), buf.Bytes())
}

// HandleOrganizerEvents godoc
// @Summary      Events of the signed in organizer
// @Tags         organizers
// @Produce      json
// @Success      200  {array}   service.EventView
// @Router       /organizer/events [get]
// @Security BearerAuth
func (h *EventHandler) HandleOrganizerEvents(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	events, err := h.svc.OrganizerEvents(ctx.Request.Context(), principal.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleOrganizerEvents -> h.svc.OrganizerEvents", err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleAnalytics godoc
// @Summary      Registration, revenue, attendance and view totals per event
// @Tags         organizers
// @Produce      json
// @Success      200  {object}  service.OrganizerAnalytics
// @Router       /organizer/analytics [get]
// @Security BearerAuth
func (h *EventHandler) HandleAnalytics(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	analytics, err := h.svc.Analytics(ctx.Request.Context(), principal.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleAnalytics -> h.svc.Analytics", err))
		return
	}

	ctx.JSON(http.StatusOK, analytics)
}

func renderCSV(ctx *gin.Context, filename string, body []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

const defaultUserPageSize = 50

type AdminService interface {
	CreateOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, domain.Credential, error)
	ListOrganizers(ctx context.Context, status domain.OrganizerStatus) ([]domain.Organizer, error)
	SetOrganizerStatus(ctx context.Context, id uint, status domain.OrganizerStatus) (domain.Organizer, error)
	DeleteOrganizer(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, term string, limit, offset int) ([]domain.User, int64, error)
	SetUserActive(ctx context.Context, id uint, active bool) (domain.User, error)
	Stats(ctx context.Context) (service.Stats, error)
}

type AdminHandler struct {
	svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{
		svc: svc,
	}
}

// HandleCreateOrganizer godoc
// @Summary      Provision an organizer account
// @Description  The generated password is returned once and cannot be retrieved again.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateOrganizerRequest  true  "Organizer"
// @Success      201  {object}  response.CredentialResponse
// @Failure      400  {object}  response.Err
// @Router       /admin/organizers [post]
// @Security BearerAuth
func (h *AdminHandler) HandleCreateOrganizer(ctx *gin.Context) {
	var req request.CreateOrganizerRequest
	if !bindJSON(ctx, &req) {
		return
	}

	organizer, credential, err := h.svc.CreateOrganizer(ctx.Request.Context(), req.ToOrganizer())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleCreateOrganizer -> h.svc.CreateOrganizer", err))
		return
	}

	ctx.JSON(http.StatusCreated, response.CredentialResponse{Organizer: organizer, Credentials: credential})
}

// HandleListOrganizers godoc
// @Summary      List organizers
// @Tags         admin
// @Produce      json
// @Param        status   query     string  false  "active, disabled or archived"
// @Success      200  {array}   domain.Organizer
// @Router       /admin/organizers [get]
// @Security BearerAuth
func (h *AdminHandler) HandleListOrganizers(ctx *gin.Context) {
	organizers, err := h.svc.ListOrganizers(ctx.Request.Context(), domain.OrganizerStatus(ctx.Query("status")))
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleListOrganizers -> h.svc.ListOrganizers", err))
		return
	}

	ctx.JSON(http.StatusOK, organizers)
}

// HandleOrganizerStatus godoc
// @Summary      Enable, disable or archive an organizer
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Organizer ID"
// @Param        input  body      request.OrganizerStatusRequest  true  "Status"
// @Success      200  {object}  domain.Organizer
// @Failure      404  {object}  response.Err
// @Router       /admin/organizers/{id}/status [patch]
// @Security BearerAuth
func (h *AdminHandler) HandleOrganizerStatus(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.OrganizerStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}

	organizer, err := h.svc.SetOrganizerStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleOrganizerStatus -> h.svc.SetOrganizerStatus", err))
		return
	}

	ctx.JSON(http.StatusOK, organizer)
}

// HandleDeleteOrganizer godoc
// @Summary      Delete an organizer
// @Tags         admin
// @Param        id     path      int  true  "Organizer ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Router       /admin/organizers/{id} [delete]
// @Security BearerAuth
func (h *AdminHandler) HandleDeleteOrganizer(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteOrganizer(ctx.Request.Context(), id); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleDeleteOrganizer -> h.svc.DeleteOrganizer", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleSearchUsers godoc
// @Summary      Search participants by name or email
// @Tags         admin
// @Produce      json
// @Param        search   query     string  false  "name or email"
// @Param        limit    query     int     false  "page size"
// @Param        offset   query     int     false  "offset"
// @Success      200  {object}  response.UserPage
// @Router       /admin/users [get]
// @Security BearerAuth
func (h *AdminHandler) HandleSearchUsers(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultUserPageSize)))
	if err != nil || limit < 1 || limit > 200 {
		limit = defaultUserPageSize
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	users, total, err := h.svc.SearchUsers(ctx.Request.Context(), ctx.Query("search"), limit, offset)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleSearchUsers -> h.svc.SearchUsers", err))
		return
	}

	ctx.JSON(http.StatusOK, response.UserPage{Users: users, Total: total})
}

// HandleUserStatus godoc
// @Summary      Activate or deactivate a participant
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "User ID"
// @Param        input  body      request.UserStatusRequest  true  "Active flag"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /admin/users/{id}/status [patch]
// @Security BearerAuth
func (h *AdminHandler) HandleUserStatus(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.UserStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.SetUserActive(ctx.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleUserStatus -> h.svc.SetUserActive", err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleStats godoc
// @Summary      Platform counts
// @Tags         admin
// @Produce      json
// @Success      200  {object}  service.Stats
// @Router       /admin/stats [get]
// @Security BearerAuth
func (h *AdminHandler) HandleStats(ctx *gin.Context) {
	stats, err := h.svc.Stats(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleStats -> h.svc.Stats", err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

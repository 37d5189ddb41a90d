package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

type UserService interface {
	Onboard(ctx context.Context, userID uint, interests []string, followed []uint) (domain.User, error)
	UpdateProfile(ctx context.Context, userID uint, update service.ProfileUpdate) (domain.User, error)
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	ListOrganizers(ctx context.Context) ([]domain.Organizer, error)
	OrganizerProfile(ctx context.Context, id uint) (service.OrganizerProfile, error)
	UpdateOrganizerProfile(ctx context.Context, id uint, update service.OrganizerUpdate) (domain.Organizer, error)
	ChangeOrganizerPassword(ctx context.Context, id uint, current, next string) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleOnboarding godoc
// @Summary      Save onboarding preferences
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.OnboardingRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Router       /users/onboarding [post]
// @Security BearerAuth
func (h *UserHandler) HandleOnboarding(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.OnboardingRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Onboard(ctx.Request.Context(), principal.ID, req.Interests, req.FollowedOrganizers)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleOnboarding -> h.svc.Onboard", err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateProfile godoc
// @Summary      Update participant profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.UpdateProfileRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Router       /users/profile [put]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateProfile(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(ctx.Request.Context(), principal.ID, req.ToUpdate())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleUpdateProfile -> h.svc.UpdateProfile", err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleChangePassword godoc
// @Summary      Change password
// @Description  Works for participants and organizers.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.ChangePasswordRequest true "request body"
// @Success      200      {object}   response.Message
// @Failure      400      {object}   response.Err
// @Router       /users/change-password [post]
// @Security BearerAuth
func (h *UserHandler) HandleChangePassword(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.ChangePasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	var err error
	if principal.Is(domain.RoleOrganizer) {
		err = h.svc.ChangeOrganizerPassword(ctx.Request.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	} else {
		err = h.svc.ChangePassword(ctx.Request.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	}
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleChangePassword", err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "password updated"})
}

// HandleListOrganizers godoc
// @Summary      List active organizers
// @Tags         organizers
// @Produce      json
// @Success      200      {array}    domain.Organizer
// @Router       /users/organizers [get]
// @Security BearerAuth
func (h *UserHandler) HandleListOrganizers(ctx *gin.Context) {
	organizers, err := h.svc.ListOrganizers(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleListOrganizers -> h.svc.ListOrganizers", err))
		return
	}

	ctx.JSON(http.StatusOK, organizers)
}

// HandleOrganizerProfile godoc
// @Summary      Public organizer profile
// @Tags         organizers
// @Produce      json
// @Param        id   path      int  true  "Organizer ID"
// @Success      200      {object}   service.OrganizerProfile
// @Failure      404      {object}   response.Err
// @Router       /organizers/{id} [get]
func (h *UserHandler) HandleOrganizerProfile(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	profile, err := h.svc.OrganizerProfile(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleOrganizerProfile -> h.svc.OrganizerProfile", err))
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

// HandleUpdateOrganizer godoc
// @Summary      Update own organizer profile
// @Tags         organizers
// @Accept       json
// @Produce      json
// @Param        request   body      request.UpdateOrganizerRequest true "request body"
// @Success      200      {object}   domain.Organizer
// @Failure      400      {object}   response.Err
// @Router       /organizer/profile [put]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateOrganizer(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.UpdateOrganizerRequest
	if !bindJSON(ctx, &req) {
		return
	}

	organizer, err := h.svc.UpdateOrganizerProfile(ctx.Request.Context(), principal.ID, req.ToUpdate())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleUpdateOrganizer -> h.svc.UpdateOrganizerProfile", err))
		return
	}

	ctx.JSON(http.StatusOK, organizer)
}

package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/config"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/jwthelper"
	"github.com/felicity-events/felicity-api/internal/service"
)

const defaultTokenTTL = 7 * 24 * time.Hour

type AuthService interface {
	RegisterParticipant(ctx context.Context, user domain.User) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	OrganizerLogin(ctx context.Context, email, password string) (domain.Organizer, error)
	Me(ctx context.Context, principal domain.Principal) (service.Account, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

func (h *AuthHandler) issue(principal domain.Principal) (string, error) {
	ttl := h.conf.JWTTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), principal, ttl)
}

// HandleRegister godoc
// @Summary      Register a participant
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      201      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/register [post]
func (h *AuthHandler) HandleRegister(ctx *gin.Context) {
	var req request.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.RegisterParticipant(ctx.Request.Context(), domain.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
		CollegeOrg:    req.CollegeOrg,
	})
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleRegister -> h.svc.RegisterParticipant", err))
		return
	}

	token, err := h.issue(domain.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleRegister -> h.issue -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, response.LoginResponse{Token: token, User: &user})
}

// HandleLogin godoc
// @Summary      Login a participant or admin
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	var req request.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleLogin -> h.svc.Login", err))
		return
	}

	token, err := h.issue(domain.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleLogin -> h.issue -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{Token: token, User: &user})
}

// HandleOrganizerLogin godoc
// @Summary      Login an organizer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Router       /auth/organizer/login [post]
func (h *AuthHandler) HandleOrganizerLogin(ctx *gin.Context) {
	var req request.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	organizer, err := h.svc.OrganizerLogin(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleOrganizerLogin -> h.svc.OrganizerLogin", err))
		return
	}

	token, err := h.issue(domain.Principal{ID: organizer.ID, Role: domain.RoleOrganizer})
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleOrganizerLogin -> h.issue -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{Token: token, Organizer: &organizer})
}

// HandleMe godoc
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200      {object}   service.Account
// @Failure      401      {object}   response.Err
// @Router       /auth/me [get]
// @Security BearerAuth
func (h *AuthHandler) HandleMe(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	account, err := h.svc.Me(ctx.Request.Context(), principal)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleMe -> h.svc.Me", err))
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleLogout godoc
// @Summary      Logout
// @Description  Tokens are stateless; the client discards its token.
// @Tags         auth
// @Produce      json
// @Success      200      {object}   response.Message
// @Router       /auth/logout [post]
// @Security BearerAuth
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.Message{Message: "logged out"})
}

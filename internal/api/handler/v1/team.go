package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
)

type TeamService interface {
	Create(ctx context.Context, leaderID, eventID uint, name string) (domain.Team, error)
	Mine(ctx context.Context, participantID uint) ([]domain.Team, error)
	Get(ctx context.Context, principal domain.Principal, id uint) (domain.Team, error)
	Preview(ctx context.Context, code string) (domain.Team, error)
	Join(ctx context.Context, participantID uint, code string) (domain.Team, error)
	Invite(ctx context.Context, leaderID, teamID uint, email string) (domain.Team, error)
	Respond(ctx context.Context, actorID, teamID, memberID uint, accept bool) (domain.Team, error)
	Leave(ctx context.Context, participantID, teamID uint) (domain.Team, error)
	Reconcile(ctx context.Context, principal domain.Principal, teamID uint) (domain.Team, error)
}

type TeamHandler struct {
	svc TeamService
}

func NewTeamHandler(svc TeamService) *TeamHandler {
	return &TeamHandler{
		svc: svc,
	}
}

// HandleCreateTeam godoc
// @Summary      Create a hackathon team
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateTeamRequest  true  "Team"
// @Success      201  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /teams [post]
// @Security BearerAuth
func (h *TeamHandler) HandleCreateTeam(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.CreateTeamRequest
	if !bindJSON(ctx, &req) {
		return
	}

	team, err := h.svc.Create(ctx.Request.Context(), principal.ID, req.EventID, req.Name)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleCreateTeam -> h.svc.Create", err))
		return
	}

	ctx.JSON(http.StatusCreated, team)
}

// HandleMyTeams godoc
// @Summary      Teams of the signed in participant
// @Tags         teams
// @Produce      json
// @Success      200  {array}   domain.Team
// @Router       /teams/my [get]
// @Security BearerAuth
func (h *TeamHandler) HandleMyTeams(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	teams, err := h.svc.Mine(ctx.Request.Context(), principal.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleMyTeams -> h.svc.Mine", err))
		return
	}

	ctx.JSON(http.StatusOK, teams)
}

// HandleGetTeam godoc
// @Summary      Get a team
// @Tags         teams
// @Produce      json
// @Param        id   path      int  true  "Team ID"
// @Success      200  {object}  domain.Team
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /teams/{id} [get]
// @Security BearerAuth
func (h *TeamHandler) HandleGetTeam(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	team, err := h.svc.Get(ctx.Request.Context(), principal, id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleGetTeam -> h.svc.Get", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandlePreview godoc
// @Summary      Look up a team by invite code
// @Tags         teams
// @Produce      json
// @Param        inviteCode   path      string  true  "Invite code"
// @Success      200  {object}  domain.Team
// @Failure      404  {object}  response.Err
// @Router       /teams/join/{inviteCode} [get]
// @Security BearerAuth
func (h *TeamHandler) HandlePreview(ctx *gin.Context) {
	team, err := h.svc.Preview(ctx.Request.Context(), ctx.Param("inviteCode"))
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandlePreview -> h.svc.Preview", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandleJoin godoc
// @Summary      Ask to join a team with its invite code
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        input  body      request.JoinTeamRequest  true  "Invite code"
// @Success      200  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /teams/join [post]
// @Security BearerAuth
func (h *TeamHandler) HandleJoin(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.JoinTeamRequest
	if !bindJSON(ctx, &req) {
		return
	}

	team, err := h.svc.Join(ctx.Request.Context(), principal.ID, req.InviteCode)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleJoin -> h.svc.Join", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandleInvite godoc
// @Summary      Invite a participant by email
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Team ID"
// @Param        input  body      request.InviteRequest  true  "Invitee"
// @Success      200  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /teams/{id}/invite [post]
// @Security BearerAuth
func (h *TeamHandler) HandleInvite(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.InviteRequest
	if !bindJSON(ctx, &req) {
		return
	}

	team, err := h.svc.Invite(ctx.Request.Context(), principal.ID, id, req.Email)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleInvite -> h.svc.Invite", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandleRespond godoc
// @Summary      Accept or decline a pending membership
// @Description  Invitees answer their own invite. The leader answers join requests by naming the member.
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Team ID"
// @Param        input  body      request.RespondInviteRequest  true  "Answer"
// @Success      200  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /teams/{id}/respond [post]
// @Security BearerAuth
func (h *TeamHandler) HandleRespond(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req request.RespondInviteRequest
	if !bindJSON(ctx, &req) {
		return
	}

	team, err := h.svc.Respond(ctx.Request.Context(), principal.ID, id, req.MemberID, req.Accept())
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleRespond -> h.svc.Respond", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandleLeave godoc
// @Summary      Leave a team
// @Description  A leader leaving disbands the team.
// @Tags         teams
// @Produce      json
// @Param        id   path      int  true  "Team ID"
// @Success      200  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Router       /teams/{id}/leave [delete]
// @Security BearerAuth
func (h *TeamHandler) HandleLeave(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	team, err := h.svc.Leave(ctx.Request.Context(), principal.ID, id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleLeave -> h.svc.Leave", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

// HandleReconcile godoc
// @Summary      Retry failed member registrations of a complete team
// @Tags         teams
// @Produce      json
// @Param        id   path      int  true  "Team ID"
// @Success      200  {object}  domain.Team
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /teams/{id}/reconcile [post]
// @Security BearerAuth
func (h *TeamHandler) HandleReconcile(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	team, err := h.svc.Reconcile(ctx.Request.Context(), principal, id)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleReconcile -> h.svc.Reconcile", err))
		return
	}

	ctx.JSON(http.StatusOK, team)
}

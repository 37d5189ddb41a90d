package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

var (
	errNoPrincipal  = errors.New("request is not authenticated")
	errRatingFilter = errors.New("rating must be between 1 and 5")
)

type statusGroup struct {
	status    int
	sentinels []error
}

// statusGroups maps service sentinels to the status code they surface as.
// Groups are matched in order.
var statusGroups = []statusGroup{
	{http.StatusBadRequest, []error{
		service.ErrInvalidInput,
		service.ErrInvalidEvent,
		service.ErrInvalidTransition,
		service.ErrEditRestricted,
		service.ErrEventLocked,
		service.ErrFormLocked,
		service.ErrWrongPassword,
		service.ErrUserEmailExists,
		service.ErrOrganizerEmailExists,
		service.ErrEventNotOpen,
		service.ErrDeadlinePassed,
		service.ErrPaymentProofRequired,
		service.ErrPurchaseLimit,
		service.ErrTeamRegistration,
		service.ErrNoPaymentToReview,
		service.ErrAlreadyCancelled,
		service.ErrNotTeamEvent,
		service.ErrTeamNotForming,
		service.ErrTeamFull,
		service.ErrTeamLeader,
		service.ErrInviteAlreadyAnswered,
		service.ErrNotTeamMember,
		service.ErrTeamNotComplete,
		service.ErrInviteeNotEligible,
		service.ErrInvalidPayload,
		service.ErrRegistrationInvalid,
		service.ErrReasonRequired,
		service.ErrEventNotCompleted,
	}},
	{http.StatusUnauthorized, []error{
		service.ErrWrongCredentials,
	}},
	{http.StatusForbidden, []error{
		service.ErrForbidden,
		service.ErrNotEligible,
		service.ErrAccountDisabled,
		service.ErrNotAttendee,
		service.ErrNotAllowedToRespond,
	}},
	{http.StatusNotFound, []error{
		service.ErrEventNotFound,
		service.ErrRegistrationNotFound,
		service.ErrTeamNotFound,
		service.ErrUserNotFound,
		service.ErrOrganizerNotFound,
		service.ErrAttendanceNotFound,
		service.ErrMessageNotFound,
		service.ErrResetRequestNotFound,
		service.ErrInviteNotFound,
	}},
	{http.StatusConflict, []error{
		service.ErrDuplicateRegistration,
		service.ErrEventFull,
		service.ErrInsufficientStock,
		service.ErrAlreadyReviewed,
		service.ErrFeedbackExists,
		service.ErrResetAlreadyPending,
		service.ErrResetNotPending,
		service.ErrAlreadyInTeam,
		service.ErrAlreadyInEventTeam,
		service.ErrStatusChanged,
		service.ErrTeamVersionChanged,
	}},
}

// serviceErr translates an error returned by a service into a response.
// Anything unknown is a 500 and carries op for the log line.
func serviceErr(op string, err error) *response.Err {
	for _, group := range statusGroups {
		for _, sentinel := range group.sentinels {
			if !errors.Is(err, sentinel) {
				continue
			}
			switch group.status {
			case http.StatusBadRequest:
				return response.ErrBadRequest(err)
			case http.StatusUnauthorized:
				return response.ErrWrongCredentials(err)
			case http.StatusForbidden:
				return response.ErrPermissionDenied(err)
			case http.StatusNotFound:
				return response.ErrNotFound(err)
			case http.StatusConflict:
				return response.ErrConflict(err)
			}
		}
	}

	return response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err))
}

// bindJSON decodes and validates the body into req. It renders the error itself.
func bindJSON(ctx *gin.Context, req interface{ Validate() error }) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}

	return true
}

func principalOf(ctx *gin.Context) (domain.Principal, bool) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errNoPrincipal))
	}

	return principal, ok
}

func idParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("%s must be a positive integer, got %q", name, raw)))
		return 0, false
	}

	return uint(id), true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(ctx *gin.Context, req interface{ Validate() error }) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}

	return bindJSON(ctx, req)
}

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
	"github.com/felicity-events/felicity-api/internal/domain"
)

type AttendanceService interface {
	Scan(ctx context.Context, principal domain.Principal, eventID uint, raw string) (domain.CheckIn, error)
	Manual(ctx context.Context, principal domain.Principal, eventID, registrationID uint, reason string) (domain.CheckIn, error)
	Revert(ctx context.Context, principal domain.Principal, eventID, attendanceID uint, reason string) error
	Summary(ctx context.Context, principal domain.Principal, eventID uint) (domain.AttendanceSummary, error)
	Export(ctx context.Context, principal domain.Principal, eventID uint, w io.Writer) error
}

type AttendanceHandler struct {
	svc AttendanceService
}

func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		svc: svc,
	}
}

func renderCheckIn(ctx *gin.Context, checkIn domain.CheckIn) {
	if checkIn.AlreadyCheckedIn {
		ctx.JSON(http.StatusOK, checkIn)
		return
	}

	ctx.JSON(http.StatusCreated, checkIn)
}

// HandleScan godoc
// @Summary      Check in a scanned ticket
// @Description  A ticket scanned twice returns the first check-in with already_checked_in set.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        input  body      request.ScanRequest  true  "QR payload or ticket id"
// @Success      201  {object}  domain.CheckIn
// @Success      200  {object}  domain.CheckIn
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /attendance/scan [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleScan(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.ScanRequest
	if !bindJSON(ctx, &req) {
		return
	}

	checkIn, err := h.svc.Scan(ctx.Request.Context(), principal, req.EventID, req.Payload)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleScan -> h.svc.Scan", err))
		return
	}

	renderCheckIn(ctx, checkIn)
}

// HandleManual godoc
// @Summary      Check in a registration by hand
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        input  body      request.ManualAttendanceRequest  true  "Registration and reason"
// @Success      201  {object}  domain.CheckIn
// @Success      200  {object}  domain.CheckIn
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /attendance/manual [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleManual(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}

	var req request.ManualAttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}

	checkIn, err := h.svc.Manual(ctx.Request.Context(), principal, req.EventID, req.RegistrationID, req.Reason)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleManual -> h.svc.Manual", err))
		return
	}

	renderCheckIn(ctx, checkIn)
}

// HandleSummary godoc
// @Summary      Attendance of an event
// @Tags         attendance
// @Produce      json
// @Param        eventId   path      int  true  "Event ID"
// @Success      200  {object}  domain.AttendanceSummary
// @Failure      403  {object}  response.Err
// @Router       /attendance/{eventId} [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleSummary(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	summary, err := h.svc.Summary(ctx.Request.Context(), principal, eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleSummary -> h.svc.Summary", err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleExport godoc
// @Summary      Export attendance as CSV
// @Tags         attendance
// @Produce      text/csv
// @Param        eventId   path      int  true  "Event ID"
// @Success      200
// @Failure      403  {object}  response.Err
// @Router       /attendance/{eventId}/export [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleExport(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(ctx.Request.Context(), principal, eventID, &buf); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleExport -> h.svc.Export", err))
		return
	}

	renderCSV(ctx, fmt.Sprintf("event-%d-attendance.csv", eventID), buf.Bytes())
}

// HandleRevert godoc
// @Summary      Undo a check-in
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventId       path      int  true  "Event ID"
// @Param        attendanceId  path      int  true  "Attendance ID"
// @Param        input  body      request.RevertAttendanceRequest  true  "Reason"
// @Success      200  {object}  response.Message
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /attendance/{eventId}/{attendanceId} [delete]
// @Security BearerAuth
func (h *AttendanceHandler) HandleRevert(ctx *gin.Context) {
	principal, ok := principalOf(ctx)
	if !ok {
		return
	}
	eventID, ok := idParam(ctx, "eventId")
	if !ok {
		return
	}
	attendanceID, ok := idParam(ctx, "attendanceId")
	if !ok {
		return
	}

	var req request.RevertAttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := h.svc.Revert(ctx.Request.Context(), principal, eventID, attendanceID, req.Reason); err != nil {
		response.RenderErr(ctx, serviceErr("v1.HandleRevert -> h.svc.Revert", err))
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "check-in reverted"})
}

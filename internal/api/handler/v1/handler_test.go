package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/jwthelper"
	"github.com/felicity-events/felicity-api/internal/service"
)

const testKey = "handler-test-key"

func bearer(t *testing.T, principal domain.Principal) string {
	t.Helper()

	token, err := jwthelper.GenerateToken([]byte(testKey), principal, time.Hour)
	require.NoError(t, err)

	return "Bearer " + token
}

func do(r *gin.Engine, method, target, authorization, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func newEngine() (*gin.Engine, gin.HandlerFunc) {
	gin.SetMode(gin.TestMode)

	return gin.New(), middleware.NewAuthenticator(testKey).VerifyJWT()
}

func TestServiceErr(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrDeadlinePassed, http.StatusBadRequest},
		{service.ErrWrongCredentials, http.StatusUnauthorized},
		{service.ErrNotEligible, http.StatusForbidden},
		{service.ErrEventNotFound, http.StatusNotFound},
		{service.ErrEventFull, http.StatusConflict},
		{service.ErrFeedbackExists, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("svc.Op -> %w", tt.err)
			got := serviceErr("v1.Test", wrapped)
			assert.Equal(t, tt.want, got.HTTPStatusCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	internal := serviceErr("v1.Test", errors.New("dial tcp: refused"))
	assert.Equal(t, "something went wrong", internal.Message)
	assert.Contains(t, internal.Error(), "v1.Test -> dial tcp")
}

type stubFeedback struct {
	rating    int
	submitErr error
}

func (s *stubFeedback) Submit(_ context.Context, participantID, eventID uint, rating int, comment string) (domain.Feedback, error) {
	if s.submitErr != nil {
		return domain.Feedback{}, s.submitErr
	}
	return domain.Feedback{EventID: eventID, Rating: rating, Comment: comment}, nil
}

func (s *stubFeedback) Summary(_ context.Context, _ domain.Principal, eventID uint, rating int) (domain.FeedbackSummary, error) {
	s.rating = rating
	return domain.FeedbackSummary{}, nil
}

func (s *stubFeedback) Submitted(context.Context, uint, uint) (bool, error) {
	return true, nil
}

func TestFeedbackHandler(t *testing.T) {
	svc := &stubFeedback{}
	h := NewFeedbackHandler(svc)
	r, verify := newEngine()
	r.POST("/feedback/:eventId", verify, h.HandleSubmit)
	r.GET("/feedback/:eventId", verify, h.HandleSummary)
	r.GET("/feedback/:eventId/check", verify, h.HandleCheck)

	participant := bearer(t, domain.Principal{ID: 9, Role: domain.RoleParticipant})
	organizer := bearer(t, domain.Principal{ID: 2, Role: domain.RoleOrganizer})

	w := do(r, http.MethodPost, "/feedback/4", participant, `{"rating":5,"comment":"loved it"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/feedback/4", participant, `{"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/feedback/abc", participant, `{"rating":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/feedback/4", "", `{"rating":3}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.submitErr = fmt.Errorf("FeedbackService.Submit -> %w", service.ErrFeedbackExists)
	w = do(r, http.MethodPost, "/feedback/4", participant, `{"rating":3}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/feedback/4?rating=9", organizer, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/feedback/4?rating=4", organizer, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, svc.rating)

	w = do(r, http.MethodGet, "/feedback/4", organizer, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, svc.rating)

	w = do(r, http.MethodGet, "/feedback/4/check", participant, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"submitted":true}`, w.Body.String())
}

type stubAttendance struct {
	already  bool
	scanned  int
	reverted string
}

func (s *stubAttendance) Scan(_ context.Context, _ domain.Principal, eventID uint, raw string) (domain.CheckIn, error) {
	s.scanned++
	return domain.CheckIn{AlreadyCheckedIn: s.already}, nil
}

func (s *stubAttendance) Manual(_ context.Context, _ domain.Principal, _, _ uint, _ string) (domain.CheckIn, error) {
	return domain.CheckIn{}, nil
}

func (s *stubAttendance) Revert(_ context.Context, _ domain.Principal, _, _ uint, reason string) error {
	s.reverted = reason
	return nil
}

func (s *stubAttendance) Summary(context.Context, domain.Principal, uint) (domain.AttendanceSummary, error) {
	return domain.AttendanceSummary{}, nil
}

func (s *stubAttendance) Export(_ context.Context, _ domain.Principal, _ uint, w io.Writer) error {
	_, err := io.WriteString(w, "ticket_id,name\nFEL-1,Asha\n")
	return err
}

func TestAttendanceHandler(t *testing.T) {
	svc := &stubAttendance{}
	h := NewAttendanceHandler(svc)
	r, verify := newEngine()
	r.POST("/attendance/scan", verify, h.HandleScan)
	r.GET("/attendance/:eventId/export", verify, h.HandleExport)
	r.DELETE("/attendance/:eventId/:attendanceId", verify, h.HandleRevert)

	organizer := bearer(t, domain.Principal{ID: 2, Role: domain.RoleOrganizer})

	w := do(r, http.MethodPost, "/attendance/scan", organizer, `{"event_id":5,"payload":"FEL-1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.already = true
	w = do(r, http.MethodPost, "/attendance/scan", organizer, `{"event_id":5,"payload":"FEL-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_checked_in":true`)

	w = do(r, http.MethodPost, "/attendance/scan", organizer, `{"event_id":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, svc.scanned)

	w = do(r, http.MethodGet, "/attendance/5/export", organizer, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="event-5-attendance.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ticket_id,name\nFEL-1,Asha\n", w.Body.String())

	w = do(r, http.MethodDelete, "/attendance/5/11", organizer, `{"reason":"scanned wrong ticket"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scanned wrong ticket", svc.reverted)

	w = do(r, http.MethodDelete, "/attendance/5/0", organizer, `{"reason":"scanned wrong ticket"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckProof(t *testing.T) {
	tests := []struct {
		name    string
		file    multipart.FileHeader
		wantErr error
	}{
		{"png", multipart.FileHeader{Filename: "receipt.PNG", Size: 1024}, nil},
		{"pdf", multipart.FileHeader{Filename: "receipt.pdf", Size: maxProofSize}, nil},
		{"too large", multipart.FileHeader{Filename: "receipt.jpg", Size: maxProofSize + 1}, errProofTooLarge},
		{"wrong type", multipart.FileHeader{Filename: "receipt.exe", Size: 10}, errProofType},
		{"no extension", multipart.FileHeader{Filename: "receipt", Size: 10}, errProofType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkProof(&tt.file)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUploadsRemove(t *testing.T) {
	dir := t.TempDir()
	u := NewUploads(dir)

	path := dir + "/proof.png"
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	u.Remove("/uploads/proof.png")
	assert.NoFileExists(t, path)

	// unknown or empty paths are ignored
	u.Remove("")
	u.Remove("/uploads/missing.png")
}

func TestChatHandlerRequiresToken(t *testing.T) {
	h := NewChatHandler(middleware.NewAuthenticator(testKey), nil, nil)
	r, _ := newEngine()
	r.GET("/ws", h.HandleWebSocket)

	w := do(r, http.MethodGet, "/ws", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/ws?token=garbage", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

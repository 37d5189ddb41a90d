package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/metrics"
	"github.com/felicity-events/felicity-api/internal/pkg/csvexport"
	"github.com/felicity-events/felicity-api/internal/pkg/ticket"
	"github.com/felicity-events/felicity-api/internal/realtime"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrAttendanceNotFound  = repository.ErrAttendanceNotFound
	ErrInvalidPayload      = ticket.ErrInvalidPayload
	ErrRegistrationInvalid = errors.New("registration is not valid for check-in")
	ErrReasonRequired      = errors.New("a reason is required")
)

type AttendanceRepository interface {
	Create(ctx context.Context, attendance domain.Attendance) (domain.Attendance, bool, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Attendance, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	Delete(ctx context.Context, eventID, id uint) (domain.Attendance, error)
}

type AttendanceRegistrationRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error)
	FindByEvent(ctx context.Context, eventID uint, statuses ...domain.RegistrationStatus) ([]domain.Registration, error)
	CountByEvent(ctx context.Context, eventID uint, status domain.RegistrationStatus) (int64, error)
}

type AttendanceUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error)
}

type AttendanceService struct {
	attendance    AttendanceRepository
	registrations AttendanceRegistrationRepository
	events        EventFinder
	users         AttendanceUserRepository
	broadcaster   Broadcaster
	now           func() time.Time
}

func NewAttendanceService(
	attendance AttendanceRepository,
	registrations AttendanceRegistrationRepository,
	events EventFinder,
	users AttendanceUserRepository,
	broadcaster Broadcaster,
) *AttendanceService {
	return &AttendanceService{
		attendance:    attendance,
		registrations: registrations,
		events:        events,
		users:         users,
		broadcaster:   broadcaster,
		now:           utcNow,
	}
}

// AuthorizeAttendance lets organizers follow the live check-ins of their own events.
func (s *AttendanceService) AuthorizeAttendance(ctx context.Context, principal domain.Principal, eventID uint) error {
	_, err := ownedEvent(ctx, s.events, principal, eventID)
	return err
}

// Scan checks in the ticket encoded in a scanned QR payload. Scanning a ticket
// twice returns the first check-in.
func (s *AttendanceService) Scan(ctx context.Context, principal domain.Principal, eventID uint, raw string) (domain.CheckIn, error) {
	payload, err := ticket.ParsePayload(raw)
	if err != nil {
		return domain.CheckIn{}, err
	}
	if payload.EventID != 0 && payload.EventID != eventID {
		return domain.CheckIn{}, ErrForbidden
	}

	reg, err := s.registrations.FindByTicketID(ctx, payload.TicketID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.CheckIn{}, ErrInvalidPayload
		}
		return domain.CheckIn{}, fmt.Errorf("s.registrations.FindByTicketID -> %w", err)
	}
	if payload.UserID != 0 && payload.UserID != reg.ParticipantID {
		return domain.CheckIn{}, ErrInvalidPayload
	}

	return s.checkIn(ctx, principal, eventID, reg, domain.Attendance{Method: domain.CheckInQRScan})
}

// Manual checks a registration in without a ticket scan. The reason is kept in
// the record's audit trail.
func (s *AttendanceService) Manual(ctx context.Context, principal domain.Principal, eventID, registrationID uint, reason string) (domain.CheckIn, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.CheckIn{}, ErrReasonRequired
	}

	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("s.registrations.FindByID -> %w", err)
	}

	return s.checkIn(ctx, principal, eventID, reg, domain.Attendance{
		Method:           domain.CheckInManual,
		IsManualOverride: true,
		OverrideReason:   reason,
		Audit: []domain.OverrideAudit{{
			By:     principal.ID,
			At:     s.now(),
			Reason: reason,
			Action: domain.OverrideCheckIn,
		}},
	})
}

func (s *AttendanceService) checkIn(ctx context.Context, principal domain.Principal, eventID uint, reg domain.Registration, attendance domain.Attendance) (domain.CheckIn, error) {
	if _, err := ownedEvent(ctx, s.events, principal, eventID); err != nil {
		return domain.CheckIn{}, err
	}
	if reg.EventID != eventID {
		return domain.CheckIn{}, ErrForbidden
	}
	if !reg.IsActive() || !reg.HoldsSlot() {
		return domain.CheckIn{}, ErrRegistrationInvalid
	}

	attendance.EventID = eventID
	attendance.RegistrationID = reg.ID
	attendance.ParticipantID = reg.ParticipantID
	attendance.CheckedInAt = s.now()
	attendance.MarkedBy = principal.ID

	stored, created, err := s.attendance.Create(ctx, attendance)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("s.attendance.Create -> %w", err)
	}
	if !created {
		return domain.CheckIn{Attendance: stored, AlreadyCheckedIn: true}, nil
	}

	metrics.CheckIns.WithLabelValues(string(stored.Method)).Inc()
	s.broadcaster.Broadcast(realtime.AttendanceRoom(eventID), realtime.FrameNewCheckIn, s.entry(ctx, stored, reg))

	return domain.CheckIn{Attendance: stored}, nil
}

func (s *AttendanceService) entry(ctx context.Context, a domain.Attendance, reg domain.Registration) domain.AttendanceEntry {
	entry := domain.AttendanceEntry{Attendance: a, TicketID: reg.TicketID}

	user, err := s.users.FindByID(ctx, a.ParticipantID)
	if err != nil {
		zap.L().Warn("attendance participant lookup failed", zap.Uint("participant_id", a.ParticipantID), zap.Error(err))
		return entry
	}
	entry.ParticipantName = user.FullName()
	entry.ParticipantEmail = user.Email

	return entry
}

// Revert deletes a check-in outright. The reason only goes to the log.
func (s *AttendanceService) Revert(ctx context.Context, principal domain.Principal, eventID, attendanceID uint, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if _, err := ownedEvent(ctx, s.events, principal, eventID); err != nil {
		return err
	}

	removed, err := s.attendance.Delete(ctx, eventID, attendanceID)
	if err != nil {
		return fmt.Errorf("s.attendance.Delete -> %w", err)
	}

	zap.L().Info("attendance reverted",
		zap.Uint("event_id", eventID),
		zap.Uint("attendance_id", removed.ID),
		zap.Uint("registration_id", removed.RegistrationID),
		zap.Uint("by", principal.ID),
		zap.String("reason", reason),
	)

	s.broadcaster.Broadcast(realtime.AttendanceRoom(eventID), realtime.FrameCheckInReverted, map[string]uint{
		"attendance_id":   removed.ID,
		"registration_id": removed.RegistrationID,
	})

	return nil
}

// Summary counts check-ins against active registrations and lists every check-in.
func (s *AttendanceService) Summary(ctx context.Context, principal domain.Principal, eventID uint) (domain.AttendanceSummary, error) {
	if _, err := ownedEvent(ctx, s.events, principal, eventID); err != nil {
		return domain.AttendanceSummary{}, err
	}

	var (
		checked int64
		total   int64
		records []domain.Attendance
		regs    []domain.Registration
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.attendance.CountByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("s.attendance.CountByEvent -> %w", err)
		}
		checked = count
		return nil
	})
	g.Go(func() error {
		count, err := s.registrations.CountByEvent(gctx, eventID, domain.RegistrationActive)
		if err != nil {
			return fmt.Errorf("s.registrations.CountByEvent -> %w", err)
		}
		total = count
		return nil
	})
	g.Go(func() error {
		found, err := s.attendance.FindByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("s.attendance.FindByEvent -> %w", err)
		}
		records = found
		return nil
	})
	g.Go(func() error {
		found, err := s.registrations.FindByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("s.registrations.FindByEvent -> %w", err)
		}
		regs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.AttendanceSummary{}, err
	}

	entries, err := s.entries(ctx, records, regs)
	if err != nil {
		return domain.AttendanceSummary{}, err
	}

	notChecked := total - checked
	if notChecked < 0 {
		notChecked = 0
	}

	return domain.AttendanceSummary{
		EventID:    eventID,
		Checked:    checked,
		Total:      total,
		NotChecked: notChecked,
		CheckIns:   entries,
	}, nil
}

func (s *AttendanceService) entries(ctx context.Context, records []domain.Attendance, regs []domain.Registration) ([]domain.AttendanceEntry, error) {
	tickets := make(map[uint]string, len(regs))
	for _, r := range regs {
		tickets[r.ID] = r.TicketID
	}

	ids := make([]uint, 0, len(records))
	for _, a := range records {
		ids = append(ids, a.ParticipantID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	entries := make([]domain.AttendanceEntry, 0, len(records))
	for _, a := range records {
		user := users[a.ParticipantID]
		entries = append(entries, domain.AttendanceEntry{
			Attendance:       a,
			TicketID:         tickets[a.RegistrationID],
			ParticipantName:  user.FullName(),
			ParticipantEmail: user.Email,
		})
	}

	return entries, nil
}

var attendanceColumns = []string{
	"Ticket ID", "Name", "Email", "Checked In At", "Method", "Manual Override", "Override Reason",
}

func (s *AttendanceService) Export(ctx context.Context, principal domain.Principal, eventID uint, w io.Writer) error {
	summary, err := s.Summary(ctx, principal, eventID)
	if err != nil {
		return err
	}

	table := csvexport.Table{Header: attendanceColumns}
	for _, e := range summary.CheckIns {
		table.Append(
			e.TicketID,
			e.ParticipantName,
			e.ParticipantEmail,
			e.CheckedInAt.Format(time.RFC3339),
			string(e.Method),
			strconv.FormatBool(e.IsManualOverride),
			e.OverrideReason,
		)
	}

	if err = csvexport.Write(w, table); err != nil {
		return fmt.Errorf("csvexport.Write -> %w", err)
	}

	return nil
}

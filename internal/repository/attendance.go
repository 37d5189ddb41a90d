package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrAttendanceNotFound = dao.ErrAttendanceNotFound
	ErrAlreadyCheckedIn   = dao.ErrAlreadyCheckedIn
)

type AttendanceDAO interface {
	Insert(ctx context.Context, attendance dao.Attendance) (dao.Attendance, error)
	FindByRegistration(ctx context.Context, eventID, registrationID uint) (dao.Attendance, error)
	FindByEvent(ctx context.Context, eventID uint) ([]dao.Attendance, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	Delete(ctx context.Context, eventID, id uint) (dao.Attendance, error)
}

type AttendanceRepository struct {
	dao AttendanceDAO
}

func NewAttendanceRepository(dao AttendanceDAO) *AttendanceRepository {
	return &AttendanceRepository{
		dao: dao,
	}
}

// Create records a check-in. If the registration was already checked in, the
// stored record is returned with created set to false.
func (r *AttendanceRepository) Create(ctx context.Context, attendance domain.Attendance) (domain.Attendance, bool, error) {
	stored, err := r.dao.Insert(ctx, attendanceToDAO(attendance))
	if errors.Is(err, dao.ErrAlreadyCheckedIn) {
		return attendanceToDomain(stored), false, nil
	}
	if err != nil {
		return domain.Attendance{}, false, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return attendanceToDomain(stored), true, nil
}

func (r *AttendanceRepository) FindByRegistration(ctx context.Context, eventID, registrationID uint) (domain.Attendance, error) {
	found, err := r.dao.FindByRegistration(ctx, eventID, registrationID)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("r.dao.FindByRegistration -> %w", err)
	}

	return attendanceToDomain(found), nil
}

func (r *AttendanceRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.Attendance, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	records := make([]domain.Attendance, 0, len(found))
	for _, a := range found {
		records = append(records, attendanceToDomain(a))
	}

	return records, nil
}

func (r *AttendanceRepository) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	count, err := r.dao.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByEvent -> %w", err)
	}

	return count, nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, eventID, id uint) (domain.Attendance, error) {
	deleted, err := r.dao.Delete(ctx, eventID, id)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return attendanceToDomain(deleted), nil
}

func attendanceToDomain(a dao.Attendance) domain.Attendance {
	attendance := domain.Attendance{
		ID:               a.ID,
		EventID:          a.EventID,
		RegistrationID:   a.RegistrationID,
		ParticipantID:    a.ParticipantID,
		CheckedInAt:      a.CheckedInAt,
		Method:           domain.CheckInMethod(a.Method),
		MarkedBy:         a.MarkedBy,
		IsManualOverride: a.IsManualOverride,
		OverrideReason:   a.OverrideReason,
	}
	for _, audit := range a.Audit {
		attendance.Audit = append(attendance.Audit, domain.OverrideAudit{
			By:     audit.By,
			At:     audit.At,
			Reason: audit.Reason,
			Action: domain.OverrideAction(audit.Action),
		})
	}

	return attendance
}

func attendanceToDAO(a domain.Attendance) dao.Attendance {
	attendance := dao.Attendance{
		ID:               a.ID,
		EventID:          a.EventID,
		RegistrationID:   a.RegistrationID,
		ParticipantID:    a.ParticipantID,
		CheckedInAt:      a.CheckedInAt,
		Method:           string(a.Method),
		MarkedBy:         a.MarkedBy,
		IsManualOverride: a.IsManualOverride,
		OverrideReason:   a.OverrideReason,
	}
	for _, audit := range a.Audit {
		attendance.Audit = append(attendance.Audit, dao.OverrideAudit{
			By:     audit.By,
			At:     audit.At,
			Reason: audit.Reason,
			Action: string(audit.Action),
		})
	}

	return attendance
}

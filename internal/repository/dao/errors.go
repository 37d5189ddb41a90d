package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserEmailExists      = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizerEmailExists = errors.New("organizer login email already exists")
	ErrOrganizerNotFound    = errors.New("organizer not found")

	ErrEventNotFound         = errors.New("event not found")
	ErrItemNotFound          = errors.New("merchandise item not found")
	ErrEventFull             = errors.New("event is full")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrStatusChanged         = errors.New("event status changed concurrently")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("participant is already registered for this event")
	ErrAlreadyReviewed       = errors.New("payment has already been reviewed")
	ErrAlreadyCancelled      = errors.New("registration is already cancelled")

	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamVersionChanged = errors.New("team was modified concurrently")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAlreadyCheckedIn   = errors.New("registration is already checked in")

	ErrMessageNotFound = errors.New("forum message not found")

	ErrFeedbackExists = errors.New("feedback already submitted")

	ErrResetRequestNotFound = errors.New("password reset request not found")
	ErrResetAlreadyPending  = errors.New("a password reset request is already pending")
	ErrResetNotPending      = errors.New("password reset request is not pending")
)

// isUniqueViolation recognises unique constraint failures from postgres and from
// drivers that translate them into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}

	return err
}

package repository

import (
	"gorm.io/gorm"

	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

// Set holds one repository per aggregate, all backed by the same database.
type Set struct {
	Users         *UserRepository
	Organizers    *OrganizerRepository
	Events        *EventRepository
	Registrations *RegistrationRepository
	Teams         *TeamRepository
	Attendance    *AttendanceRepository
	Forum         *ForumRepository
	Feedback      *FeedbackRepository
	Resets        *PasswordResetRepository
}

func NewSet(db *gorm.DB) *Set {
	return &Set{
		Users:         NewUserRepository(dao.NewUserDAO(db)),
		Organizers:    NewOrganizerRepository(dao.NewOrganizerDAO(db)),
		Events:        NewEventRepository(dao.NewEventDAO(db)),
		Registrations: NewRegistrationRepository(dao.NewRegistrationDAO(db)),
		Teams:         NewTeamRepository(dao.NewTeamDAO(db)),
		Attendance:    NewAttendanceRepository(dao.NewAttendanceDAO(db)),
		Forum:         NewForumRepository(dao.NewForumDAO(db)),
		Feedback:      NewFeedbackRepository(dao.NewFeedbackDAO(db)),
		Resets:        NewPasswordResetRepository(dao.NewPasswordResetDAO(db)),
	}
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
	"github.com/felicity-events/felicity-api/internal/testutil"
)

// fixture wires the services against a fresh in-memory database with a fixed clock.
type fixture struct {
	t   *testing.T
	ctx context.Context
	now time.Time

	users         *repository.UserRepository
	organizers    *repository.OrganizerRepository
	events        *repository.EventRepository
	registrations *repository.RegistrationRepository
	teams         *repository.TeamRepository
	attendance    *repository.AttendanceRepository
	forum         *repository.ForumRepository
	feedback      *repository.FeedbackRepository
	resets        *repository.PasswordResetRepository

	dispatcher  *testutil.Dispatcher
	broadcaster *testutil.Broadcaster

	seq int
}

func newFixture(t *testing.T) *fixture {
	repos := repository.NewSet(testutil.NewDB(t))

	return &fixture{
		t:   t,
		ctx: context.Background(),
		now: time.Now().UTC().Truncate(time.Second),

		users:         repos.Users,
		organizers:    repos.Organizers,
		events:        repos.Events,
		registrations: repos.Registrations,
		teams:         repos.Teams,
		attendance:    repos.Attendance,
		forum:         repos.Forum,
		feedback:      repos.Feedback,
		resets:        repos.Resets,

		dispatcher:  &testutil.Dispatcher{},
		broadcaster: &testutil.Broadcaster{},
	}
}

func (f *fixture) clock() time.Time {
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) participant(typ domain.ParticipantType) domain.User {
	f.seq++
	user, err := f.users.Create(f.ctx, domain.User{
		FirstName: "Participant",
		LastName:  fmt.Sprint(f.seq),
		Email:     fmt.Sprintf("participant%d@example.com", f.seq),
		Password:  "hash",
		Type:      typ,
		Role:      domain.RoleParticipant,
		IsActive:  true,
	})
	require.NoError(f.t, err)

	return user
}

func (f *fixture) organizer() domain.Organizer {
	f.seq++
	organizer, err := f.organizers.Create(f.ctx, domain.Organizer{
		Name:         fmt.Sprintf("Club %d", f.seq),
		Category:     "technical",
		ContactEmail: fmt.Sprintf("club%d@example.com", f.seq),
		LoginEmail:   fmt.Sprintf("club%d@example.com", f.seq),
		Password:     "hash",
		Status:       domain.OrganizerActive,
	})
	require.NoError(f.t, err)

	return organizer
}

// event stores a published normal event opening a day from now, then applies edit.
func (f *fixture) event(organizerID uint, edit func(*domain.Event)) domain.Event {
	event := domain.Event{
		OrganizerID:          organizerID,
		Name:                 "Open Mic",
		Description:          "An evening of music",
		Type:                 domain.EventTypeNormal,
		Eligibility:          domain.EligibilityAll,
		Status:               domain.EventPublished,
		StartDate:            f.now.Add(48 * time.Hour),
		EndDate:              f.now.Add(72 * time.Hour),
		RegistrationDeadline: f.now.Add(24 * time.Hour),
		RegistrationLimit:    10,
	}
	if edit != nil {
		edit(&event)
	}

	created, err := f.events.Create(f.ctx, event)
	require.NoError(f.t, err)

	return created
}

func (f *fixture) reload(id uint) domain.Event {
	event, err := f.events.FindByID(f.ctx, id)
	require.NoError(f.t, err)

	return event
}

func organizerPrincipal(o domain.Organizer) domain.Principal {
	return domain.Principal{ID: o.ID, Role: domain.RoleOrganizer}
}

func participantPrincipal(u domain.User) domain.Principal {
	return domain.Principal{ID: u.ID, Role: domain.RoleParticipant}
}

func (f *fixture) registrationService() *RegistrationService {
	s := NewRegistrationService(f.registrations, f.events, f.users, f.dispatcher)
	s.now = f.clock
	return s
}

func (f *fixture) eventService() *EventService {
	s := NewEventService(f.events, f.registrations, f.users, f.organizers, f.attendance, f.dispatcher)
	s.now = f.clock
	return s
}

func (f *fixture) teamService() *TeamService {
	s := NewTeamService(f.teams, f.events, f.users, f.registrations, f.dispatcher)
	s.now = f.clock
	return s
}

func (f *fixture) attendanceService() *AttendanceService {
	s := NewAttendanceService(f.attendance, f.registrations, f.events, f.users, f.broadcaster)
	s.now = f.clock
	return s
}

func (f *fixture) forumService() *ForumService {
	return NewForumService(f.forum, f.events, f.registrations, f.users, f.organizers, f.broadcaster)
}

func (f *fixture) feedbackService() *FeedbackService {
	s := NewFeedbackService(f.feedback, f.events, f.registrations, "feedback-secret")
	s.now = f.clock
	return s
}

// register creates a free registration that holds a slot.
func (f *fixture) register(user domain.User, eventID uint) domain.Registration {
	reg, err := f.registrationService().Register(f.ctx, user.ID, RegistrationRequest{EventID: eventID})
	require.NoError(f.t, err)

	return reg
}

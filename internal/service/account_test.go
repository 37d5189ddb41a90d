package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/felicity-events/felicity-api/internal/domain"
)

type AccountServiceTestSuite struct {
	suite.Suite

	f      *fixture
	auth   *AuthService
	admin  *AdminService
	resets *PasswordResetService
	users  *UserService
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.auth = NewAuthService(s.f.users, s.f.organizers, []string{"iiit.ac.in"})
	s.admin = NewAdminService(s.f.users, s.f.organizers, s.f.events, s.f.registrations)
	s.resets = NewPasswordResetService(s.f.resets, s.f.organizers)
	s.resets.now = s.f.clock
	s.users = NewUserService(s.f.users, s.f.organizers, s.f.events)
	s.users.now = s.f.clock
}

func (s *AccountServiceTestSuite) signUp(email string) domain.User {
	user, err := s.auth.RegisterParticipant(s.f.ctx, domain.User{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     email,
		Password:  "correct horse",
	})
	s.Require().NoError(err)

	return user
}

func (s *AccountServiceTestSuite) TestRegisterDerivesParticipantType() {
	campus := s.signUp("  Asha.Rao@Students.IIIT.ac.in ")
	s.Equal("asha.rao@students.iiit.ac.in", campus.Email)
	s.Equal(domain.ParticipantIIIT, campus.Type)
	s.Equal(domain.RoleParticipant, campus.Role)
	s.True(campus.IsActive)
	s.NotEqual("correct horse", campus.Password)

	outside := s.signUp("asha@gmail.com")
	s.Equal(domain.ParticipantNonIIIT, outside.Type)

	_, err := s.auth.RegisterParticipant(s.f.ctx, domain.User{Email: "ASHA@gmail.com", Password: "other"})
	s.ErrorIs(err, ErrUserEmailExists)
}

func (s *AccountServiceTestSuite) TestLogin() {
	user := s.signUp("asha@gmail.com")

	logged, err := s.auth.Login(s.f.ctx, " ASHA@gmail.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(user.ID, logged.ID)

	_, err = s.auth.Login(s.f.ctx, "asha@gmail.com", "wrong")
	s.ErrorIs(err, ErrWrongCredentials)

	_, err = s.auth.Login(s.f.ctx, "nobody@gmail.com", "correct horse")
	s.ErrorIs(err, ErrWrongCredentials)

	_, err = s.admin.SetUserActive(s.f.ctx, user.ID, false)
	s.Require().NoError(err)
	_, err = s.auth.Login(s.f.ctx, "asha@gmail.com", "correct horse")
	s.ErrorIs(err, ErrAccountDisabled)
}

func (s *AccountServiceTestSuite) TestEnsureAdminIsIdempotent() {
	s.Require().NoError(s.auth.EnsureAdmin(s.f.ctx, "Admin@Felicity.io", "s3cret"))
	s.Require().NoError(s.auth.EnsureAdmin(s.f.ctx, "other@felicity.io", "s3cret"))

	admin, err := s.auth.Login(s.f.ctx, "admin@felicity.io", "s3cret")
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, admin.Role)

	_, err = s.auth.Login(s.f.ctx, "other@felicity.io", "s3cret")
	s.ErrorIs(err, ErrWrongCredentials)

	_, err = s.admin.SetUserActive(s.f.ctx, admin.ID, false)
	s.ErrorIs(err, ErrForbidden)

	account, err := s.auth.Me(s.f.ctx, domain.Principal{ID: admin.ID, Role: domain.RoleAdmin})
	s.Require().NoError(err)
	s.Require().NotNil(account.User)
	s.Nil(account.Organizer)
}

func (s *AccountServiceTestSuite) TestCreateOrganizerHandsOutLogin() {
	organizer, credential, err := s.admin.CreateOrganizer(s.f.ctx, domain.Organizer{
		Name:         "Robotics Club",
		Category:     "technical",
		ContactEmail: " Robotics@Clubs.iiit.ac.in",
	})
	s.Require().NoError(err)
	s.Equal("robotics@clubs.iiit.ac.in", organizer.LoginEmail)
	s.Equal(domain.OrganizerActive, organizer.Status)
	s.Equal(organizer.LoginEmail, credential.Email)
	s.Len(credential.Password, 16)

	logged, err := s.auth.OrganizerLogin(s.f.ctx, credential.Email, credential.Password)
	s.Require().NoError(err)
	s.Equal(organizer.ID, logged.ID)

	account, err := s.auth.Me(s.f.ctx, domain.Principal{ID: organizer.ID, Role: domain.RoleOrganizer})
	s.Require().NoError(err)
	s.Require().NotNil(account.Organizer)
	s.Equal("Robotics Club", account.Organizer.Name)

	_, _, err = s.admin.CreateOrganizer(s.f.ctx, domain.Organizer{Name: "Copy", LoginEmail: "robotics@clubs.iiit.ac.in"})
	s.ErrorIs(err, ErrOrganizerEmailExists)

	_, err = s.admin.SetOrganizerStatus(s.f.ctx, organizer.ID, "paused")
	s.ErrorIs(err, ErrInvalidInput)

	disabled, err := s.admin.SetOrganizerStatus(s.f.ctx, organizer.ID, domain.OrganizerDisabled)
	s.Require().NoError(err)
	s.Equal(domain.OrganizerDisabled, disabled.Status)

	_, err = s.auth.OrganizerLogin(s.f.ctx, credential.Email, credential.Password)
	s.ErrorIs(err, ErrAccountDisabled)

	active, err := s.admin.ListOrganizers(s.f.ctx, domain.OrganizerActive)
	s.Require().NoError(err)
	s.Empty(active)

	s.Require().NoError(s.admin.DeleteOrganizer(s.f.ctx, organizer.ID))
	s.ErrorIs(s.admin.DeleteOrganizer(s.f.ctx, organizer.ID), ErrOrganizerNotFound)
}

func (s *AccountServiceTestSuite) TestSearchUsersAndStats() {
	s.signUp("meera@gmail.com")
	s.signUp("kabir@students.iiit.ac.in")
	s.Require().NoError(s.auth.EnsureAdmin(s.f.ctx, "admin@felicity.io", "s3cret"))

	users, total, err := s.admin.SearchUsers(s.f.ctx, "MEERA", 10, 0)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(users, 1)
	s.Equal("meera@gmail.com", users[0].Email)

	_, total, err = s.admin.SearchUsers(s.f.ctx, "", 10, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	organizer := s.f.organizer()
	s.f.event(organizer.ID, nil)
	s.f.event(organizer.ID, func(e *domain.Event) { e.Status = domain.EventDraft })

	stats, err := s.admin.Stats(s.f.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.Participants)
	s.Equal(int64(1), stats.Organizers)
	s.Equal(int64(1), stats.ActiveOrganizers)
	s.Equal(int64(2), stats.Events)
	s.Equal(int64(1), stats.EventsByStatus[domain.EventPublished])
	s.Equal(int64(1), stats.EventsByStatus[domain.EventDraft])
	s.Equal(int64(0), stats.Registrations)
}

func (s *AccountServiceTestSuite) TestPasswordResetApproval() {
	organizer := s.f.organizer()

	_, err := s.resets.Request(s.f.ctx, organizer.ID, "  ")
	s.ErrorIs(err, ErrInvalidInput)

	req, err := s.resets.Request(s.f.ctx, organizer.ID, "lost the handover doc")
	s.Require().NoError(err)
	s.Equal(domain.ResetPending, req.Status)

	_, err = s.resets.Request(s.f.ctx, organizer.ID, "again")
	s.ErrorIs(err, ErrResetAlreadyPending)

	pending, err := s.resets.List(s.f.ctx, domain.ResetPending)
	s.Require().NoError(err)
	s.Len(pending, 1)

	approved, credential, err := s.resets.Approve(s.f.ctx, 1, req.ID, "verified on call")
	s.Require().NoError(err)
	s.Equal(domain.ResetApproved, approved.Status)
	s.Equal(organizer.LoginEmail, credential.Email)
	s.Equal(credential.Password, approved.NewPassword)
	s.Require().NotNil(approved.ReviewedBy)
	s.Equal(uint(1), *approved.ReviewedBy)

	_, err = s.auth.OrganizerLogin(s.f.ctx, credential.Email, credential.Password)
	s.NoError(err)

	_, _, err = s.resets.Approve(s.f.ctx, 1, req.ID, "")
	s.ErrorIs(err, ErrResetNotPending)
	_, err = s.resets.Reject(s.f.ctx, 1, req.ID, "")
	s.ErrorIs(err, ErrResetNotPending)

	mine, err := s.resets.Mine(s.f.ctx, organizer.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Empty(mine[0].NewPassword)

	s.Require().NoError(s.resets.Acknowledge(s.f.ctx, req.ID))
	listed, err := s.resets.List(s.f.ctx, domain.ResetApproved)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Empty(listed[0].NewPassword)
}

func (s *AccountServiceTestSuite) TestPasswordResetRejection() {
	organizer := s.f.organizer()

	req, err := s.resets.Request(s.f.ctx, organizer.ID, "forgot it")
	s.Require().NoError(err)

	rejected, err := s.resets.Reject(s.f.ctx, 1, req.ID, "ask your club lead")
	s.Require().NoError(err)
	s.Equal(domain.ResetRejected, rejected.Status)
	s.Equal("ask your club lead", rejected.AdminComment)
	s.Empty(rejected.NewPassword)

	stored, err := s.f.organizers.FindByID(s.f.ctx, organizer.ID)
	s.Require().NoError(err)
	s.Equal("hash", stored.Password)

	_, err = s.resets.Request(s.f.ctx, organizer.ID, "still forgot it")
	s.NoError(err)
}

func (s *AccountServiceTestSuite) TestOnboardAndProfile() {
	user := s.signUp("asha@gmail.com")
	club := s.f.organizer()
	archived := s.f.organizer()
	_, err := s.admin.SetOrganizerStatus(s.f.ctx, archived.ID, domain.OrganizerArchived)
	s.Require().NoError(err)

	_, err = s.users.Onboard(s.f.ctx, user.ID, []string{"music"}, []uint{archived.ID})
	s.ErrorIs(err, ErrInvalidInput)
	_, err = s.users.Onboard(s.f.ctx, user.ID, []string{"music"}, []uint{9999})
	s.ErrorIs(err, ErrInvalidInput)

	onboarded, err := s.users.Onboard(s.f.ctx, user.ID, []string{"music", "robotics"}, []uint{club.ID})
	s.Require().NoError(err)
	s.True(onboarded.Onboarded)
	s.Equal([]uint{club.ID}, onboarded.FollowedOrganizers)

	phone := "+91 98480 22338"
	updated, err := s.users.UpdateProfile(s.f.ctx, user.ID, ProfileUpdate{ContactNumber: &phone})
	s.Require().NoError(err)
	s.Equal(phone, updated.ContactNumber)
	s.Equal([]string{"music", "robotics"}, updated.Interests)
	s.Equal("Asha", updated.FirstName)

	s.ErrorIs(s.users.ChangePassword(s.f.ctx, user.ID, "wrong", "next"), ErrWrongPassword)
	s.Require().NoError(s.users.ChangePassword(s.f.ctx, user.ID, "correct horse", "battery staple"))
	_, err = s.auth.Login(s.f.ctx, "asha@gmail.com", "battery staple")
	s.NoError(err)
}

func (s *AccountServiceTestSuite) TestOrganizerProfileListsUpcomingEvents() {
	club := s.f.organizer()
	later := s.f.event(club.ID, func(e *domain.Event) {
		e.Name = "Later"
		e.StartDate = s.f.now.Add(96 * time.Hour)
		e.EndDate = s.f.now.Add(100 * time.Hour)
	})
	sooner := s.f.event(club.ID, func(e *domain.Event) { e.Name = "Sooner" })
	s.f.event(club.ID, func(e *domain.Event) { e.Status = domain.EventDraft })

	profile, err := s.users.OrganizerProfile(s.f.ctx, club.ID)
	s.Require().NoError(err)
	s.Equal(club.ID, profile.Organizer.ID)
	s.Require().Len(profile.UpcomingEvents, 2)
	s.Equal(sooner.ID, profile.UpcomingEvents[0].ID)
	s.Equal(later.ID, profile.UpcomingEvents[1].ID)

	s.f.advance(80 * time.Hour)
	profile, err = s.users.OrganizerProfile(s.f.ctx, club.ID)
	s.Require().NoError(err)
	s.Require().Len(profile.UpcomingEvents, 1)
	s.Equal(later.ID, profile.UpcomingEvents[0].ID)

	_, err = s.admin.SetOrganizerStatus(s.f.ctx, club.ID, domain.OrganizerDisabled)
	s.Require().NoError(err)
	_, err = s.users.OrganizerProfile(s.f.ctx, club.ID)
	s.ErrorIs(err, ErrOrganizerNotFound)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

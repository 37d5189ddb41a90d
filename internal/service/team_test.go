package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/repository"
)

type TeamServiceTestSuite struct {
	suite.Suite

	f         *fixture
	service   *TeamService
	organizer domain.Organizer
	event     domain.Event
	leader    domain.User
}

func (s *TeamServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.service = s.f.teamService()
	s.organizer = s.f.organizer()
	s.event = s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.Name = "HackIIIT"
		e.Type = domain.EventTypeHackathon
		e.TeamSize = 3
	})
	s.leader = s.f.participant(domain.ParticipantIIIT)
}

// formTeam builds a team that is one acceptance short of complete. The invitee
// still has to answer; the joiner was accepted by the leader.
func (s *TeamServiceTestSuite) formTeam() (domain.Team, domain.User, domain.User) {
	team, err := s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, "  Null Pointers ")
	s.Require().NoError(err)
	s.Equal("Null Pointers", team.Name)
	s.Equal(3, team.MaxSize)
	s.Equal(domain.TeamForming, team.Status)

	invitee := s.f.participant(domain.ParticipantIIIT)
	joiner := s.f.participant(domain.ParticipantIIIT)

	team, err = s.service.Invite(s.f.ctx, s.leader.ID, team.ID, "  "+invitee.Email)
	s.Require().NoError(err)

	team, err = s.service.Join(s.f.ctx, joiner.ID, team.InviteCode)
	s.Require().NoError(err)
	s.Require().Len(team.Members, 2)

	_, err = s.service.Respond(s.f.ctx, joiner.ID, team.ID, joiner.ID, true)
	s.ErrorIs(err, ErrNotAllowedToRespond)

	team, err = s.service.Respond(s.f.ctx, s.leader.ID, team.ID, joiner.ID, true)
	s.Require().NoError(err)
	s.Equal(domain.TeamForming, team.Status)
	s.Equal(2, team.AcceptedCount())

	return team, invitee, joiner
}

func (s *TeamServiceTestSuite) TestCompletionRegistersEveryMember() {
	team, invitee, _ := s.formTeam()

	team, err := s.service.Respond(s.f.ctx, invitee.ID, team.ID, 0, true)
	s.Require().NoError(err)
	s.Equal(domain.TeamComplete, team.Status)
	s.Require().Len(team.Outcomes, 3)

	tickets := map[string]bool{}
	for _, id := range team.AcceptedParticipantIDs() {
		outcome, ok := team.Outcome(id)
		s.Require().True(ok)
		s.Equal(domain.OutcomeRegistered, outcome.Status)

		reg, err := s.f.registrations.FindLive(s.f.ctx, id, s.event.ID)
		s.Require().NoError(err)
		s.Equal(*outcome.RegistrationID, reg.ID)
		s.Require().NotNil(reg.TeamID)
		s.Equal(team.ID, *reg.TeamID)
		s.Equal(domain.PaymentNotRequired, reg.PaymentStatus)
		s.NotEmpty(reg.QRCode)
		tickets[reg.TicketID] = true
	}
	s.Len(tickets, 3)
	s.Equal(3, s.f.reload(s.event.ID).RegistrationCount)

	jobs := s.f.dispatcher.Jobs()
	s.Len(jobs, 3)
	for _, job := range jobs {
		s.Equal(notify.KindTicketEmail, job.Kind)
	}

	_, err = s.service.Respond(s.f.ctx, invitee.ID, team.ID, 0, true)
	s.ErrorIs(err, ErrInviteAlreadyAnswered)
}

func (s *TeamServiceTestSuite) TestReconcileRetriesFailedMembers() {
	tight := s.f.reload(s.event.ID)
	tight.RegistrationLimit = 2
	_, err := s.f.events.Update(s.f.ctx, tight, false)
	s.Require().NoError(err)

	team, invitee, joiner := s.formTeam()
	team, err = s.service.Respond(s.f.ctx, invitee.ID, team.ID, 0, true)
	s.Require().NoError(err)
	s.Equal(domain.TeamComplete, team.Status)

	// members settle in order: leader, invitee, joiner
	outcome, ok := team.Outcome(joiner.ID)
	s.Require().True(ok)
	s.Equal(domain.OutcomeFailed, outcome.Status)
	s.NotEmpty(outcome.Reason)
	s.Equal([]uint{joiner.ID}, team.PendingFanOut())
	s.Equal(2, s.f.reload(s.event.ID).RegistrationCount)

	stranger := s.f.participant(domain.ParticipantIIIT)
	_, err = s.service.Reconcile(s.f.ctx, participantPrincipal(stranger), team.ID)
	s.ErrorIs(err, ErrForbidden)

	raised := 3
	_, err = s.f.eventService().Update(s.f.ctx, organizerPrincipal(s.organizer), s.event.ID, domain.EventEdit{RegistrationLimit: &raised})
	s.Require().NoError(err)

	team, err = s.service.Reconcile(s.f.ctx, participantPrincipal(s.leader), team.ID)
	s.Require().NoError(err)
	s.Empty(team.PendingFanOut())

	outcome, _ = team.Outcome(joiner.ID)
	s.Equal(domain.OutcomeRegistered, outcome.Status)
	s.Equal(3, s.f.reload(s.event.ID).RegistrationCount)

	_, err = s.service.Reconcile(s.f.ctx, organizerPrincipal(s.organizer), team.ID)
	s.Require().NoError(err)
	s.Equal(3, s.f.reload(s.event.ID).RegistrationCount)
}

func (s *TeamServiceTestSuite) TestExistingRegistrationIsSkipped() {
	team, invitee, _ := s.formTeam()

	_, err := s.f.registrationService().Register(s.f.ctx, invitee.ID, RegistrationRequest{EventID: s.event.ID})
	s.ErrorIs(err, ErrTeamRegistration)

	teamID := team.ID
	earlier, err := s.f.registrations.CreateWithReservation(s.f.ctx, domain.Registration{
		TicketID:      "EARLIER01",
		ParticipantID: invitee.ID,
		EventID:       s.event.ID,
		Type:          domain.EventTypeHackathon,
		Status:        domain.RegistrationActive,
		PaymentStatus: domain.PaymentNotRequired,
		TeamID:        &teamID,
	}, repository.Reservation{ReserveSlot: true})
	s.Require().NoError(err)

	team, err = s.service.Respond(s.f.ctx, invitee.ID, team.ID, 0, true)
	s.Require().NoError(err)

	outcome, ok := team.Outcome(invitee.ID)
	s.Require().True(ok)
	s.Equal(domain.OutcomeSkippedExisting, outcome.Status)
	s.Require().NotNil(outcome.RegistrationID)
	s.Equal(earlier.ID, *outcome.RegistrationID)
	s.Empty(team.PendingFanOut())
	s.Equal(3, s.f.reload(s.event.ID).RegistrationCount)
	s.Len(s.f.dispatcher.Jobs(), 2)
}

func (s *TeamServiceTestSuite) TestOneTeamPerEvent() {
	team, err := s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, "First")
	s.Require().NoError(err)

	_, err = s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, "Second")
	s.ErrorIs(err, ErrAlreadyInEventTeam)

	other := s.f.participant(domain.ParticipantIIIT)
	otherTeam, err := s.service.Create(s.f.ctx, other.ID, s.event.ID, "Rivals")
	s.Require().NoError(err)

	member := s.f.participant(domain.ParticipantIIIT)
	_, err = s.service.Join(s.f.ctx, member.ID, team.InviteCode)
	s.Require().NoError(err)

	_, err = s.service.Join(s.f.ctx, member.ID, otherTeam.InviteCode)
	s.ErrorIs(err, ErrAlreadyInEventTeam)

	_, err = s.service.Respond(s.f.ctx, s.leader.ID, team.ID, member.ID, false)
	s.Require().NoError(err)

	_, err = s.service.Join(s.f.ctx, member.ID, otherTeam.InviteCode)
	s.NoError(err)
}

func (s *TeamServiceTestSuite) TestCreateRules() {
	normal := s.f.event(s.organizer.ID, nil)
	_, err := s.service.Create(s.f.ctx, s.leader.ID, normal.ID, "Team")
	s.ErrorIs(err, ErrNotTeamEvent)

	_, err = s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, " ")
	s.ErrorIs(err, ErrInvalidInput)

	external := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.Type = domain.EventTypeHackathon
		e.TeamSize = 2
		e.Eligibility = domain.EligibilityNonIIITOnly
	})
	_, err = s.service.Create(s.f.ctx, s.leader.ID, external.ID, "Team")
	s.ErrorIs(err, ErrNotEligible)
}

func (s *TeamServiceTestSuite) TestInviteOnlyByLeader() {
	team, err := s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, "Team")
	s.Require().NoError(err)
	invitee := s.f.participant(domain.ParticipantIIIT)

	_, err = s.service.Invite(s.f.ctx, invitee.ID, team.ID, s.leader.Email)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.Invite(s.f.ctx, s.leader.ID, team.ID, s.leader.Email)
	s.ErrorIs(err, ErrTeamLeader)

	team, err = s.service.Invite(s.f.ctx, s.leader.ID, team.ID, invitee.Email)
	s.Require().NoError(err)

	_, err = s.service.Invite(s.f.ctx, s.leader.ID, team.ID, invitee.Email)
	s.ErrorIs(err, ErrAlreadyInTeam)
}

func (s *TeamServiceTestSuite) TestPreviewHidesOutcomes() {
	team, invitee, _ := s.formTeam()
	_, err := s.service.Respond(s.f.ctx, invitee.ID, team.ID, 0, true)
	s.Require().NoError(err)

	preview, err := s.service.Preview(s.f.ctx, " "+team.InviteCode+" ")
	s.Require().NoError(err)
	s.Equal(team.ID, preview.ID)
	s.Empty(preview.Outcomes)
}

func (s *TeamServiceTestSuite) TestLeave() {
	team, invitee, _ := s.formTeam()

	team, err := s.service.Leave(s.f.ctx, invitee.ID, team.ID)
	s.Require().NoError(err)
	s.Len(team.Members, 1)
	s.False(team.HasEntry(invitee.ID))

	_, err = s.service.Leave(s.f.ctx, invitee.ID, team.ID)
	s.ErrorIs(err, ErrNotTeamMember)

	team, err = s.service.Leave(s.f.ctx, s.leader.ID, team.ID)
	s.Require().NoError(err)
	s.Equal(domain.TeamCancelled, team.Status)

	_, err = s.service.Create(s.f.ctx, s.leader.ID, s.event.ID, "Again")
	s.NoError(err)
}

func (s *TeamServiceTestSuite) TestGetAccess() {
	team, invitee, _ := s.formTeam()

	_, err := s.service.Get(s.f.ctx, participantPrincipal(invitee), team.ID)
	s.NoError(err)

	_, err = s.service.Get(s.f.ctx, organizerPrincipal(s.organizer), team.ID)
	s.NoError(err)

	stranger := s.f.participant(domain.ParticipantIIIT)
	_, err = s.service.Get(s.f.ctx, participantPrincipal(stranger), team.ID)
	s.ErrorIs(err, ErrForbidden)

	mine, err := s.service.Mine(s.f.ctx, invitee.ID)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func TestTeamServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TeamServiceTestSuite))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/metrics"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/pkg/ticket"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrTeamNotFound          = repository.ErrTeamNotFound
	ErrTeamVersionChanged    = repository.ErrTeamVersionChanged
	ErrTeamNotForming        = domain.ErrTeamNotForming
	ErrTeamFull              = domain.ErrTeamFull
	ErrAlreadyInTeam         = domain.ErrAlreadyInTeam
	ErrTeamLeader            = domain.ErrTeamLeader
	ErrInviteNotFound        = domain.ErrInviteNotFound
	ErrInviteAlreadyAnswered = domain.ErrInviteAlreadyAnswered
	ErrNotAllowedToRespond   = domain.ErrNotAllowedToRespond
	ErrNotTeamMember         = domain.ErrNotTeamMember

	ErrNotTeamEvent        = errors.New("event does not take team registrations")
	ErrAlreadyInEventTeam  = errors.New("participant already belongs to a team for this event")
	ErrTeamNotComplete     = errors.New("team is not complete")
	ErrInviteeNotEligible  = errors.New("invitee is not a participant account")
	errTeamMutationRetries = errors.New("team kept changing concurrently")
)

const teamMutationAttempts = 5

type TeamRepository interface {
	Create(ctx context.Context, team domain.Team) (domain.Team, error)
	Save(ctx context.Context, team domain.Team) (domain.Team, error)
	FindByID(ctx context.Context, id uint) (domain.Team, error)
	FindByInviteCode(ctx context.Context, code string) (domain.Team, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Team, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]domain.Team, error)
}

type TeamRegistrationRepository interface {
	CreateWithReservation(ctx context.Context, reg domain.Registration, res repository.Reservation) (domain.Registration, error)
	FindLive(ctx context.Context, participantID, eventID uint) (domain.Registration, error)
}

type TeamUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type TeamService struct {
	teams         TeamRepository
	events        EventFinder
	users         TeamUserRepository
	registrations TeamRegistrationRepository
	dispatcher    notify.Dispatcher
	now           func() time.Time
}

func NewTeamService(
	teams TeamRepository,
	events EventFinder,
	users TeamUserRepository,
	registrations TeamRegistrationRepository,
	dispatcher notify.Dispatcher,
) *TeamService {
	return &TeamService{
		teams:         teams,
		events:        events,
		users:         users,
		registrations: registrations,
		dispatcher:    dispatcher,
		now:           utcNow,
	}
}

// Create starts a forming team for a hackathon with the caller as leader.
func (s *TeamService) Create(ctx context.Context, leaderID, eventID uint, name string) (domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Team{}, invalidInput("team name is required")
	}

	event, err := s.teamEvent(ctx, eventID)
	if err != nil {
		return domain.Team{}, err
	}
	if err = s.checkParticipant(ctx, event, leaderID); err != nil {
		return domain.Team{}, err
	}

	created, err := s.teams.Create(ctx, domain.Team{
		Name:       name,
		EventID:    event.ID,
		LeaderID:   leaderID,
		MaxSize:    event.TeamSize,
		InviteCode: ticket.NewInviteCode(),
		Status:     domain.TeamForming,
	})
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.Create -> %w", err)
	}

	return created, nil
}

func (s *TeamService) teamEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.Type != domain.EventTypeHackathon {
		return domain.Event{}, ErrNotTeamEvent
	}
	if event.Status != domain.EventPublished && event.Status != domain.EventOngoing {
		return domain.Event{}, ErrEventNotOpen
	}

	return event, nil
}

// checkParticipant verifies the participant may take part in the event and is
// not tied to another live team for it.
func (s *TeamService) checkParticipant(ctx context.Context, event domain.Event, participantID uint) error {
	user, err := s.users.FindByID(ctx, participantID)
	if err != nil {
		return fmt.Errorf("s.users.FindByID -> %w", err)
	}
	if user.Role != domain.RoleParticipant {
		return ErrInviteeNotEligible
	}
	if !event.Eligibility.Allows(user.Type) {
		return ErrNotEligible
	}
	if s.now().After(event.RegistrationDeadline) {
		return ErrDeadlinePassed
	}

	teams, err := s.teams.FindByParticipant(ctx, participantID)
	if err != nil {
		return fmt.Errorf("s.teams.FindByParticipant -> %w", err)
	}
	for _, t := range teams {
		if t.EventID != event.ID || t.Status == domain.TeamCancelled {
			continue
		}
		if t.LeaderID == participantID || memberStatus(t, participantID) != domain.MemberDeclined {
			return ErrAlreadyInEventTeam
		}
	}

	return nil
}

func memberStatus(t domain.Team, participantID uint) domain.MemberStatus {
	for _, m := range t.Members {
		if m.ParticipantID == participantID {
			return m.Status
		}
	}

	return ""
}

func (s *TeamService) Mine(ctx context.Context, participantID uint) ([]domain.Team, error) {
	teams, err := s.teams.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.teams.FindByParticipant -> %w", err)
	}

	return teams, nil
}

// Get shows a team to its members, the event's organizer and admins.
func (s *TeamService) Get(ctx context.Context, principal domain.Principal, id uint) (domain.Team, error) {
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.FindByID -> %w", err)
	}
	if principal.Is(domain.RoleParticipant) && team.Involves(principal.ID) {
		return team, nil
	}
	if _, err = ownedEvent(ctx, s.events, principal, team.EventID); err != nil {
		return domain.Team{}, err
	}

	return team, nil
}

// Preview returns the public part of a team found by invite code.
func (s *TeamService) Preview(ctx context.Context, code string) (domain.Team, error) {
	team, err := s.teams.FindByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.FindByInviteCode -> %w", err)
	}
	team.Outcomes = nil

	return team, nil
}

// Join files a join request that waits for the leader.
func (s *TeamService) Join(ctx context.Context, participantID uint, code string) (domain.Team, error) {
	found, err := s.teams.FindByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.FindByInviteCode -> %w", err)
	}

	event, err := s.teamEvent(ctx, found.EventID)
	if err != nil {
		return domain.Team{}, err
	}
	if !found.Involves(participantID) {
		if err = s.checkParticipant(ctx, event, participantID); err != nil {
			return domain.Team{}, err
		}
	}

	return s.mutate(ctx, found.ID, func(t *domain.Team) error {
		return t.RequestToJoin(participantID)
	})
}

// Invite adds a pending invitation for the participant with the given email.
func (s *TeamService) Invite(ctx context.Context, leaderID, teamID uint, email string) (domain.Team, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.FindByID -> %w", err)
	}
	if team.LeaderID != leaderID {
		return domain.Team{}, ErrForbidden
	}

	invitee, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.users.FindByEmail -> %w", err)
	}

	event, err := s.teamEvent(ctx, team.EventID)
	if err != nil {
		return domain.Team{}, err
	}
	if !team.Involves(invitee.ID) {
		if err = s.checkParticipant(ctx, event, invitee.ID); err != nil {
			return domain.Team{}, err
		}
	}

	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		return t.Invite(invitee.ID)
	})
}

// Respond answers a pending entry. The leader answers join requests by naming
// the member; invitees answer their own invitation. An accept that fills the
// team registers every accepted member.
func (s *TeamService) Respond(ctx context.Context, actorID, teamID, memberID uint, accept bool) (domain.Team, error) {
	if memberID == 0 {
		memberID = actorID
	}

	completed := false
	team, err := s.mutate(ctx, teamID, func(t *domain.Team) error {
		done, err := t.Respond(actorID, memberID, accept, s.now())
		completed = done
		return err
	})
	if err != nil {
		return domain.Team{}, err
	}

	if completed {
		return s.fanOut(ctx, team)
	}

	return team, nil
}

// Leave removes the participant. A leaving leader disbands the team.
func (s *TeamService) Leave(ctx context.Context, participantID, teamID uint) (domain.Team, error) {
	return s.mutate(ctx, teamID, func(t *domain.Team) error {
		if t.Status == domain.TeamCancelled {
			return ErrTeamNotForming
		}
		_, err := t.Leave(participantID)
		return err
	})
}

// Reconcile retries the registrations of a complete team that have not
// succeeded yet. Members already settled are not touched.
func (s *TeamService) Reconcile(ctx context.Context, principal domain.Principal, teamID uint) (domain.Team, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.teams.FindByID -> %w", err)
	}

	leader := principal.Is(domain.RoleParticipant) && team.LeaderID == principal.ID
	if !leader {
		if _, err = ownedEvent(ctx, s.events, principal, team.EventID); err != nil {
			return domain.Team{}, err
		}
	}
	if team.Status != domain.TeamComplete {
		return domain.Team{}, ErrTeamNotComplete
	}

	return s.fanOut(ctx, team)
}

// fanOut creates one registration per accepted member that has none yet and
// records each member's outcome on the team.
func (s *TeamService) fanOut(ctx context.Context, team domain.Team) (domain.Team, error) {
	event, err := s.events.FindByID(ctx, team.EventID)
	if err != nil {
		return domain.Team{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	var (
		outcomes []domain.MemberOutcome
		created  []uint
	)
	for _, participantID := range team.PendingFanOut() {
		outcome := s.registerMember(ctx, event, team.ID, participantID)
		outcomes = append(outcomes, outcome)
		metrics.TeamFanOut.WithLabelValues(string(outcome.Status)).Inc()

		if outcome.Status == domain.OutcomeRegistered {
			created = append(created, *outcome.RegistrationID)
		}
		if outcome.Status == domain.OutcomeFailed {
			zap.L().Warn("team member registration failed",
				zap.Uint("team_id", team.ID),
				zap.Uint("participant_id", participantID),
				zap.String("reason", outcome.Reason),
			)
		}
	}

	updated, err := s.mutate(ctx, team.ID, func(t *domain.Team) error {
		for _, o := range outcomes {
			t.RecordOutcome(o)
		}
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}

	for _, id := range created {
		s.dispatcher.Dispatch(ctx, notify.TicketEmail(id))
	}

	return updated, nil
}

func (s *TeamService) registerMember(ctx context.Context, event domain.Event, teamID, participantID uint) domain.MemberOutcome {
	outcome := domain.MemberOutcome{ParticipantID: participantID, At: s.now()}

	existing, err := s.registrations.FindLive(ctx, participantID, event.ID)
	if err == nil {
		outcome.Status = domain.OutcomeSkippedExisting
		outcome.RegistrationID = &existing.ID
		return outcome
	}
	if !errors.Is(err, repository.ErrRegistrationNotFound) {
		outcome.Status = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	reg := domain.Registration{
		TicketID:      ticket.NewTicketID(),
		ParticipantID: participantID,
		EventID:       event.ID,
		Type:          domain.EventTypeHackathon,
		Status:        domain.RegistrationActive,
		PaymentStatus: domain.PaymentNotRequired,
		TeamID:        &teamID,
	}
	if reg.QRCode, err = issueQR(reg); err != nil {
		outcome.Status = domain.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	created, err := s.registrations.CreateWithReservation(ctx, reg, repository.Reservation{ReserveSlot: true})
	switch {
	case errors.Is(err, repository.ErrDuplicateRegistration):
		outcome.Status = domain.OutcomeSkippedExisting
	case err != nil:
		outcome.Status = domain.OutcomeFailed
		outcome.Reason = err.Error()
	default:
		metrics.RegistrationsCreated.WithLabelValues(string(created.Type), string(created.PaymentStatus)).Inc()
		outcome.Status = domain.OutcomeRegistered
		outcome.RegistrationID = &created.ID
	}

	return outcome
}

// mutate applies fn to the latest version of the team and saves it, retrying
// when another writer saved the team in between.
func (s *TeamService) mutate(ctx context.Context, teamID uint, fn func(*domain.Team) error) (domain.Team, error) {
	for attempt := 0; attempt < teamMutationAttempts; attempt++ {
		team, err := s.teams.FindByID(ctx, teamID)
		if err != nil {
			return domain.Team{}, fmt.Errorf("s.teams.FindByID -> %w", err)
		}

		if err = fn(&team); err != nil {
			return domain.Team{}, err
		}

		saved, err := s.teams.Save(ctx, team)
		if errors.Is(err, repository.ErrTeamVersionChanged) {
			continue
		}
		if err != nil {
			return domain.Team{}, fmt.Errorf("s.teams.Save -> %w", err)
		}

		return saved, nil
	}

	return domain.Team{}, fmt.Errorf("%w: %w", ErrTeamVersionChanged, errTeamMutationRetries)
}

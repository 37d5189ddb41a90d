package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrTeamNotFound       = dao.ErrTeamNotFound
	ErrTeamVersionChanged = dao.ErrTeamVersionChanged
)

type TeamDAO interface {
	Insert(ctx context.Context, team dao.Team) (dao.Team, error)
	Save(ctx context.Context, team dao.Team) (dao.Team, error)
	FindByID(ctx context.Context, id uint) (dao.Team, error)
	FindByInviteCode(ctx context.Context, code string) (dao.Team, error)
	FindByEvent(ctx context.Context, eventID uint) ([]dao.Team, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]dao.Team, error)
}

type TeamRepository struct {
	dao TeamDAO
}

func NewTeamRepository(dao TeamDAO) *TeamRepository {
	return &TeamRepository{
		dao: dao,
	}
}

func (r *TeamRepository) Create(ctx context.Context, team domain.Team) (domain.Team, error) {
	created, err := r.dao.Insert(ctx, teamToDAO(team))
	if err != nil {
		return domain.Team{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return teamToDomain(created), nil
}

// Save writes the team if nobody else changed it since it was read. Otherwise
// ErrTeamVersionChanged is returned and the caller should reload.
func (r *TeamRepository) Save(ctx context.Context, team domain.Team) (domain.Team, error) {
	saved, err := r.dao.Save(ctx, teamToDAO(team))
	if err != nil {
		return domain.Team{}, fmt.Errorf("r.dao.Save -> %w", err)
	}

	return teamToDomain(saved), nil
}

func (r *TeamRepository) FindByID(ctx context.Context, id uint) (domain.Team, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Team{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return teamToDomain(found), nil
}

func (r *TeamRepository) FindByInviteCode(ctx context.Context, code string) (domain.Team, error) {
	found, err := r.dao.FindByInviteCode(ctx, code)
	if err != nil {
		return domain.Team{}, fmt.Errorf("r.dao.FindByInviteCode -> %w", err)
	}

	return teamToDomain(found), nil
}

func (r *TeamRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.Team, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	return teamsToDomain(found), nil
}

func (r *TeamRepository) FindByParticipant(ctx context.Context, participantID uint) ([]domain.Team, error) {
	found, err := r.dao.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParticipant -> %w", err)
	}

	return teamsToDomain(found), nil
}

func teamsToDomain(found []dao.Team) []domain.Team {
	teams := make([]domain.Team, 0, len(found))
	for _, t := range found {
		teams = append(teams, teamToDomain(t))
	}

	return teams
}

func teamToDomain(t dao.Team) domain.Team {
	team := domain.Team{
		ID:         t.ID,
		Name:       t.Name,
		EventID:    t.EventID,
		LeaderID:   t.LeaderID,
		MaxSize:    t.MaxSize,
		InviteCode: t.InviteCode,
		Status:     domain.TeamStatus(t.Status),
		Version:    t.Version,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		Members:    make([]domain.TeamMember, 0, len(t.Members)),
	}

	for _, m := range t.Members {
		team.Members = append(team.Members, domain.TeamMember{
			ParticipantID: m.ParticipantID,
			Status:        domain.MemberStatus(m.Status),
			Origin:        domain.MemberOrigin(m.Origin),
			RespondedAt:   m.RespondedAt,
		})
	}
	for _, o := range t.Outcomes {
		team.Outcomes = append(team.Outcomes, domain.MemberOutcome{
			ParticipantID:  o.ParticipantID,
			Status:         domain.OutcomeStatus(o.Status),
			RegistrationID: o.RegistrationID,
			Reason:         o.Reason,
			At:             o.At,
		})
	}

	return team
}

func teamToDAO(t domain.Team) dao.Team {
	team := dao.Team{
		ID:         t.ID,
		Name:       t.Name,
		EventID:    t.EventID,
		LeaderID:   t.LeaderID,
		MaxSize:    t.MaxSize,
		InviteCode: t.InviteCode,
		Status:     string(t.Status),
		Version:    t.Version,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}

	for _, m := range t.Members {
		team.Members = append(team.Members, dao.TeamMember{
			TeamID:        t.ID,
			ParticipantID: m.ParticipantID,
			Status:        string(m.Status),
			Origin:        string(m.Origin),
			RespondedAt:   m.RespondedAt,
		})
	}
	for _, o := range t.Outcomes {
		team.Outcomes = append(team.Outcomes, dao.MemberOutcome{
			ParticipantID:  o.ParticipantID,
			Status:         string(o.Status),
			RegistrationID: o.RegistrationID,
			Reason:         o.Reason,
			At:             o.At,
		})
	}

	return team
}

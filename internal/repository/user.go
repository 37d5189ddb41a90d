package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrUserEmailExists      = dao.ErrUserEmailExists
	ErrUserNotFound         = dao.ErrUserNotFound
	ErrOrganizerEmailExists = dao.ErrOrganizerEmailExists
	ErrOrganizerNotFound    = dao.ErrOrganizerNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	Update(ctx context.Context, user dao.User) (dao.User, error)
	UpdateActive(ctx context.Context, id uint, active bool) error
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
	Search(ctx context.Context, term string, role string, limit, offset int) ([]dao.User, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	updated, err := r.dao.Update(ctx, r.domainToDAO(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	if err := r.dao.UpdateActive(ctx, id, active); err != nil {
		return fmt.Errorf("r.dao.UpdateActive -> %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// FindByIDs returns the users keyed by id. Unknown ids are left out.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	users := make(map[uint]domain.User, len(found))
	for _, u := range found {
		users[u.ID] = r.daoToDomain(u)
	}

	return users, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	exists, err := r.dao.ExistsByRole(ctx, string(role))
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsByRole -> %w", err)
	}

	return exists, nil
}

func (r *UserRepository) Search(ctx context.Context, term string, role domain.Role, limit, offset int) ([]domain.User, int64, error) {
	found, total, err := r.dao.Search(ctx, term, string(role), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.Search -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, r.daoToDomain(u))
	}

	return users, total, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	count, err := r.dao.CountByRole(ctx, string(role))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByRole -> %w", err)
	}

	return count, nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:                 u.ID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Password:           u.Password,
		Type:               domain.ParticipantType(u.Type),
		Role:               domain.Role(u.Role),
		ContactNumber:      u.ContactNumber,
		CollegeOrg:         u.CollegeOrg,
		Interests:          u.Interests,
		FollowedOrganizers: u.FollowedOrganizers,
		Onboarded:          u.Onboarded,
		IsActive:           u.IsActive,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (r *UserRepository) domainToDAO(u domain.User) dao.User {
	return dao.User{
		ID:                 u.ID,
		Email:              u.Email,
		Password:           u.Password,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Type:               string(u.Type),
		Role:               string(u.Role),
		ContactNumber:      u.ContactNumber,
		CollegeOrg:         u.CollegeOrg,
		Interests:          u.Interests,
		FollowedOrganizers: u.FollowedOrganizers,
		Onboarded:          u.Onboarded,
		IsActive:           u.IsActive,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

type OrganizerDAO interface {
	Insert(ctx context.Context, organizer dao.Organizer) (dao.Organizer, error)
	Update(ctx context.Context, organizer dao.Organizer) (dao.Organizer, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (dao.Organizer, error)
	FindByLoginEmail(ctx context.Context, email string) (dao.Organizer, error)
	List(ctx context.Context, status string) ([]dao.Organizer, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type OrganizerRepository struct {
	dao OrganizerDAO
}

func NewOrganizerRepository(dao OrganizerDAO) *OrganizerRepository {
	return &OrganizerRepository{
		dao: dao,
	}
}

func (r *OrganizerRepository) Create(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	created, err := r.dao.Insert(ctx, organizerToDAO(organizer))
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return organizerToDomain(created), nil
}

func (r *OrganizerRepository) Update(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	updated, err := r.dao.Update(ctx, organizerToDAO(organizer))
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return organizerToDomain(updated), nil
}

func (r *OrganizerRepository) SetStatus(ctx context.Context, id uint, status domain.OrganizerStatus) error {
	if err := r.dao.UpdateStatus(ctx, id, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *OrganizerRepository) SetPassword(ctx context.Context, id uint, hash string) error {
	if err := r.dao.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("r.dao.UpdatePassword -> %w", err)
	}

	return nil
}

func (r *OrganizerRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *OrganizerRepository) FindByID(ctx context.Context, id uint) (domain.Organizer, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return organizerToDomain(found), nil
}

func (r *OrganizerRepository) FindByLoginEmail(ctx context.Context, email string) (domain.Organizer, error) {
	found, err := r.dao.FindByLoginEmail(ctx, email)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("r.dao.FindByLoginEmail -> %w", err)
	}

	return organizerToDomain(found), nil
}

func (r *OrganizerRepository) List(ctx context.Context, status domain.OrganizerStatus) ([]domain.Organizer, error) {
	found, err := r.dao.List(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	organizers := make([]domain.Organizer, 0, len(found))
	for _, o := range found {
		organizers = append(organizers, organizerToDomain(o))
	}

	return organizers, nil
}

func (r *OrganizerRepository) Count(ctx context.Context, status domain.OrganizerStatus) (int64, error) {
	count, err := r.dao.CountByStatus(ctx, string(status))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	return count, nil
}

func organizerToDomain(o dao.Organizer) domain.Organizer {
	return domain.Organizer{
		ID:             o.ID,
		Name:           o.Name,
		Category:       o.Category,
		Description:    o.Description,
		ContactEmail:   o.ContactEmail,
		LoginEmail:     o.LoginEmail,
		Password:       o.Password,
		DiscordWebhook: o.DiscordWebhook,
		Status:         domain.OrganizerStatus(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func organizerToDAO(o domain.Organizer) dao.Organizer {
	return dao.Organizer{
		ID:             o.ID,
		LoginEmail:     o.LoginEmail,
		Password:       o.Password,
		Name:           o.Name,
		Category:       o.Category,
		Description:    o.Description,
		ContactEmail:   o.ContactEmail,
		DiscordWebhook: o.DiscordWebhook,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

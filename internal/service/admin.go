package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var ErrOrganizerEmailExists = repository.ErrOrganizerEmailExists

type AdminUserRepository interface {
	SetActive(ctx context.Context, id uint, active bool) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	Search(ctx context.Context, term string, role domain.Role, limit, offset int) ([]domain.User, int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

type AdminOrganizerRepository interface {
	Create(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error)
	SetStatus(ctx context.Context, id uint, status domain.OrganizerStatus) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
	List(ctx context.Context, status domain.OrganizerStatus) ([]domain.Organizer, error)
	Count(ctx context.Context, status domain.OrganizerStatus) (int64, error)
}

type AdminEventRepository interface {
	CountByStatus(ctx context.Context) (map[domain.EventStatus]int64, error)
}

type AdminRegistrationRepository interface {
	Count(ctx context.Context) (int64, error)
}

type Stats struct {
	Participants     int64                        `json:"participants"`
	Organizers       int64                        `json:"organizers"`
	ActiveOrganizers int64                        `json:"active_organizers"`
	Events           int64                        `json:"events"`
	EventsByStatus   map[domain.EventStatus]int64 `json:"events_by_status"`
	Registrations    int64                        `json:"registrations"`
}

type AdminService struct {
	users         AdminUserRepository
	organizers    AdminOrganizerRepository
	events        AdminEventRepository
	registrations AdminRegistrationRepository
}

func NewAdminService(
	users AdminUserRepository,
	organizers AdminOrganizerRepository,
	events AdminEventRepository,
	registrations AdminRegistrationRepository,
) *AdminService {
	return &AdminService{
		users:         users,
		organizers:    organizers,
		events:        events,
		registrations: registrations,
	}
}

// CreateOrganizer provisions an organizer and returns its login once in plaintext.
// The login email defaults to the contact email.
func (s *AdminService) CreateOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, domain.Credential, error) {
	password, err := randomPassword(8)
	if err != nil {
		return domain.Organizer{}, domain.Credential{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.Organizer{}, domain.Credential{}, err
	}

	if organizer.LoginEmail == "" {
		organizer.LoginEmail = organizer.ContactEmail
	}
	organizer.LoginEmail = strings.ToLower(strings.TrimSpace(organizer.LoginEmail))
	organizer.Password = hash
	organizer.Status = domain.OrganizerActive

	created, err := s.organizers.Create(ctx, organizer)
	if err != nil {
		return domain.Organizer{}, domain.Credential{}, fmt.Errorf("s.organizers.Create -> %w", err)
	}

	return created, domain.Credential{Email: created.LoginEmail, Password: password}, nil
}

func (s *AdminService) ListOrganizers(ctx context.Context, status domain.OrganizerStatus) ([]domain.Organizer, error) {
	organizers, err := s.organizers.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("s.organizers.List -> %w", err)
	}

	return organizers, nil
}

func (s *AdminService) SetOrganizerStatus(ctx context.Context, id uint, status domain.OrganizerStatus) (domain.Organizer, error) {
	switch status {
	case domain.OrganizerActive, domain.OrganizerDisabled, domain.OrganizerArchived:
	default:
		return domain.Organizer{}, invalidInput("unknown organizer status %q", status)
	}

	if err := s.organizers.SetStatus(ctx, id, status); err != nil {
		return domain.Organizer{}, fmt.Errorf("s.organizers.SetStatus -> %w", err)
	}

	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
	}

	return organizer, nil
}

func (s *AdminService) DeleteOrganizer(ctx context.Context, id uint) error {
	if err := s.organizers.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.organizers.Delete -> %w", err)
	}

	return nil
}

// SearchUsers matches participants by name or email.
func (s *AdminService) SearchUsers(ctx context.Context, term string, limit, offset int) ([]domain.User, int64, error) {
	users, total, err := s.users.Search(ctx, term, domain.RoleParticipant, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("s.users.Search -> %w", err)
	}

	return users, total, nil
}

func (s *AdminService) SetUserActive(ctx context.Context, id uint, active bool) (domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}
	if user.Role == domain.RoleAdmin {
		return domain.User{}, ErrForbidden
	}

	if err = s.users.SetActive(ctx, id, active); err != nil {
		return domain.User{}, fmt.Errorf("s.users.SetActive -> %w", err)
	}
	user.IsActive = active

	return user, nil
}

func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.users.CountByRole(gctx, domain.RoleParticipant)
		if err != nil {
			return fmt.Errorf("s.users.CountByRole -> %w", err)
		}
		stats.Participants = count
		return nil
	})
	g.Go(func() error {
		count, err := s.organizers.Count(gctx, "")
		if err != nil {
			return fmt.Errorf("s.organizers.Count -> %w", err)
		}
		stats.Organizers = count
		return nil
	})
	g.Go(func() error {
		count, err := s.organizers.Count(gctx, domain.OrganizerActive)
		if err != nil {
			return fmt.Errorf("s.organizers.Count -> %w", err)
		}
		stats.ActiveOrganizers = count
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.events.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("s.events.CountByStatus -> %w", err)
		}
		stats.EventsByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		count, err := s.registrations.Count(gctx)
		if err != nil {
			return fmt.Errorf("s.registrations.Count -> %w", err)
		}
		stats.Registrations = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	for _, count := range stats.EventsByStatus {
		stats.Events += count
	}

	return stats, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrUserEmailExists   = repository.ErrUserEmailExists
	ErrWrongCredentials  = errors.New("wrong email or password")
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrOrganizerNotFound = repository.ErrOrganizerNotFound
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
}

type AuthOrganizerRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
	FindByLoginEmail(ctx context.Context, email string) (domain.Organizer, error)
}

// Account is the profile behind a principal. Exactly one of User and Organizer is set.
type Account struct {
	Role      domain.Role       `json:"role"`
	User      *domain.User      `json:"user,omitempty"`
	Organizer *domain.Organizer `json:"organizer,omitempty"`
}

type AuthService struct {
	users         AuthUserRepository
	organizers    AuthOrganizerRepository
	campusDomains []string
}

func NewAuthService(users AuthUserRepository, organizers AuthOrganizerRepository, campusDomains []string) *AuthService {
	return &AuthService{
		users:         users,
		organizers:    organizers,
		campusDomains: campusDomains,
	}
}

// RegisterParticipant creates a participant account. The participant type is
// derived from the email domain.
func (s *AuthService) RegisterParticipant(ctx context.Context, user domain.User) (domain.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Password = hash
	user.Role = domain.RoleParticipant
	user.Type = domain.ParticipantTypeForEmail(user.Email, s.campusDomains)
	user.IsActive = true

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.Create -> %w", err)
	}

	return created, nil
}

// Login authenticates participants and admins.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongCredentials
		}

		return domain.User{}, fmt.Errorf("s.users.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongCredentials
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountDisabled
	}

	return user, nil
}

func (s *AuthService) OrganizerLogin(ctx context.Context, email, password string) (domain.Organizer, error) {
	organizer, err := s.organizers.FindByLoginEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return domain.Organizer{}, ErrWrongCredentials
		}

		return domain.Organizer{}, fmt.Errorf("s.organizers.FindByLoginEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(organizer.Password), []byte(password)); err != nil {
		return domain.Organizer{}, ErrWrongCredentials
	}
	if !organizer.IsActive() {
		return domain.Organizer{}, ErrAccountDisabled
	}

	return organizer, nil
}

func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (Account, error) {
	if principal.Is(domain.RoleOrganizer) {
		organizer, err := s.organizers.FindByID(ctx, principal.ID)
		if err != nil {
			return Account{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
		}

		return Account{Role: principal.Role, Organizer: &organizer}, nil
	}

	user, err := s.users.FindByID(ctx, principal.ID)
	if err != nil {
		return Account{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	return Account{Role: user.Role, User: &user}, nil
}

// EnsureAdmin seeds the admin account when none exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	exists, err := s.users.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("s.users.ExistsByRole -> %w", err)
	}
	if exists {
		return nil
	}
	if email == "" || password == "" {
		zap.L().Warn("no admin account exists and no admin credentials are configured")
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	admin, err := s.users.Create(ctx, domain.User{
		FirstName: "Admin",
		Email:     strings.ToLower(email),
		Password:  hash,
		Role:      domain.RoleAdmin,
		Type:      domain.ParticipantTypeForEmail(email, s.campusDomains),
		Onboarded: true,
		IsActive:  true,
	})
	if err != nil {
		return fmt.Errorf("s.users.Create -> %w", err)
	}

	zap.L().Info("admin account created", zap.Uint("id", admin.ID), zap.String("email", admin.Email))

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/felicity-events/felicity-api/internal/domain"
)

var ErrWrongPassword = errors.New("current password is wrong")

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
}

type OrganizerRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
	Update(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error)
	SetPassword(ctx context.Context, id uint, hash string) error
	List(ctx context.Context, status domain.OrganizerStatus) ([]domain.Organizer, error)
}

type OrganizerEventRepository interface {
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
}

type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	ContactNumber      *string
	CollegeOrg         *string
	Interests          *[]string
	FollowedOrganizers *[]uint
}

type OrganizerUpdate struct {
	Name           *string
	Category       *string
	Description    *string
	ContactEmail   *string
	DiscordWebhook *string
}

type OrganizerProfile struct {
	Organizer      domain.Organizer `json:"organizer"`
	UpcomingEvents []EventView      `json:"upcoming_events"`
}

type UserService struct {
	users      UserRepository
	organizers OrganizerRepository
	events     OrganizerEventRepository
	now        func() time.Time
}

func NewUserService(users UserRepository, organizers OrganizerRepository, events OrganizerEventRepository) *UserService {
	return &UserService{
		users:      users,
		organizers: organizers,
		events:     events,
		now:        utcNow,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	return user, nil
}

// Onboard stores the participant's interests and followed clubs.
func (s *UserService) Onboard(ctx context.Context, userID uint, interests []string, followed []uint) (domain.User, error) {
	if err := s.checkOrganizers(ctx, followed); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}
	user.Interests = interests
	user.FollowedOrganizers = followed
	user.Onboarded = true

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.Update -> %w", err)
	}

	return updated, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.ContactNumber != nil {
		user.ContactNumber = *update.ContactNumber
	}
	if update.CollegeOrg != nil {
		user.CollegeOrg = *update.CollegeOrg
	}
	if update.Interests != nil {
		user.Interests = *update.Interests
	}
	if update.FollowedOrganizers != nil {
		if err = s.checkOrganizers(ctx, *update.FollowedOrganizers); err != nil {
			return domain.User{}, err
		}
		user.FollowedOrganizers = *update.FollowedOrganizers
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.Update -> %w", err)
	}

	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("s.users.FindByID -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	user.Password = hash

	if _, err = s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("s.users.Update -> %w", err)
	}

	return nil
}

func (s *UserService) ListOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	organizers, err := s.organizers.List(ctx, domain.OrganizerActive)
	if err != nil {
		return nil, fmt.Errorf("s.organizers.List -> %w", err)
	}

	return organizers, nil
}

// OrganizerProfile returns an active organizer with its published events that
// have not ended yet, soonest first.
func (s *UserService) OrganizerProfile(ctx context.Context, id uint) (OrganizerProfile, error) {
	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return OrganizerProfile{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
	}
	if !organizer.IsActive() {
		return OrganizerProfile{}, ErrOrganizerNotFound
	}

	events, err := s.events.FindByOrganizer(ctx, id)
	if err != nil {
		return OrganizerProfile{}, fmt.Errorf("s.events.FindByOrganizer -> %w", err)
	}

	now := s.now()
	upcoming := make([]EventView, 0, len(events))
	for _, e := range events {
		if e.Status != domain.EventPublished && e.Status != domain.EventOngoing {
			continue
		}
		if e.EndDate.Before(now) {
			continue
		}
		upcoming = append(upcoming, newEventView(e, organizer.Name, now))
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate.Before(upcoming[j].StartDate)
	})

	return OrganizerProfile{Organizer: organizer, UpcomingEvents: upcoming}, nil
}

func (s *UserService) GetOrganizer(ctx context.Context, id uint) (domain.Organizer, error) {
	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
	}

	return organizer, nil
}

func (s *UserService) UpdateOrganizerProfile(ctx context.Context, id uint, update OrganizerUpdate) (domain.Organizer, error) {
	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
	}

	if update.Name != nil {
		organizer.Name = *update.Name
	}
	if update.Category != nil {
		organizer.Category = *update.Category
	}
	if update.Description != nil {
		organizer.Description = *update.Description
	}
	if update.ContactEmail != nil {
		organizer.ContactEmail = *update.ContactEmail
	}
	if update.DiscordWebhook != nil {
		organizer.DiscordWebhook = *update.DiscordWebhook
	}

	updated, err := s.organizers.Update(ctx, organizer)
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("s.organizers.Update -> %w", err)
	}

	return updated, nil
}

func (s *UserService) ChangeOrganizerPassword(ctx context.Context, id uint, current, next string) error {
	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.organizers.FindByID -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(organizer.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err = s.organizers.SetPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("s.organizers.SetPassword -> %w", err)
	}

	return nil
}

func (s *UserService) checkOrganizers(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		organizer, err := s.organizers.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrOrganizerNotFound) {
				return invalidInput("organizer %d does not exist", id)
			}
			return fmt.Errorf("s.organizers.FindByID -> %w", err)
		}
		if !organizer.IsActive() {
			return invalidInput("organizer %d is not active", id)
		}
	}

	return nil
}

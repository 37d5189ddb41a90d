package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/realtime"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var ErrMessageNotFound = repository.ErrMessageNotFound

const (
	maxMessageLength = 2000
	forumPageSize    = 200
)

type ForumRepository interface {
	Create(ctx context.Context, msg domain.ForumMessage) (domain.ForumMessage, error)
	FindByID(ctx context.Context, eventID, id uint) (domain.ForumMessage, error)
	FindByEvent(ctx context.Context, eventID uint, limit int) ([]domain.ForumMessage, error)
	UpdateFlags(ctx context.Context, msg domain.ForumMessage) error
	ToggleReaction(ctx context.Context, eventID, id uint, emoji string, by domain.SenderRef) (domain.ForumMessage, error)
}

type ForumRegistrationRepository interface {
	FindLive(ctx context.Context, participantID, eventID uint) (domain.Registration, error)
}

type ForumUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type ForumOrganizerRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
}

type ForumService struct {
	messages      ForumRepository
	events        EventFinder
	registrations ForumRegistrationRepository
	users         ForumUserRepository
	organizers    ForumOrganizerRepository
	broadcaster   Broadcaster
}

func NewForumService(
	messages ForumRepository,
	events EventFinder,
	registrations ForumRegistrationRepository,
	users ForumUserRepository,
	organizers ForumOrganizerRepository,
	broadcaster Broadcaster,
) *ForumService {
	return &ForumService{
		messages:      messages,
		events:        events,
		registrations: registrations,
		users:         users,
		organizers:    organizers,
		broadcaster:   broadcaster,
	}
}

// AuthorizeForum resolves who the principal speaks as in the event forum: the
// organizer running the event or a participant with a live registration.
func (s *ForumService) AuthorizeForum(ctx context.Context, principal domain.Principal, eventID uint) (domain.Sender, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Sender{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	switch principal.Role {
	case domain.RoleOrganizer:
		if event.OrganizerID != principal.ID {
			return domain.Sender{}, ErrForbidden
		}
		organizer, err := s.organizers.FindByID(ctx, principal.ID)
		if err != nil {
			return domain.Sender{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
		}

		return domain.Sender{SenderRef: domain.OrganizerRef(organizer.ID), Name: organizer.Name}, nil

	case domain.RoleParticipant:
		if _, err = s.registrations.FindLive(ctx, principal.ID, eventID); err != nil {
			if errors.Is(err, repository.ErrRegistrationNotFound) {
				return domain.Sender{}, ErrForbidden
			}
			return domain.Sender{}, fmt.Errorf("s.registrations.FindLive -> %w", err)
		}
		user, err := s.users.FindByID(ctx, principal.ID)
		if err != nil {
			return domain.Sender{}, fmt.Errorf("s.users.FindByID -> %w", err)
		}

		return domain.Sender{SenderRef: domain.ParticipantRef(user.ID), Name: user.FullName()}, nil

	default:
		return domain.Sender{}, ErrForbidden
	}
}

// Messages lists the visible messages of the forum, pinned ones first.
func (s *ForumService) Messages(ctx context.Context, principal domain.Principal, eventID uint) ([]domain.ForumMessage, error) {
	if _, err := s.AuthorizeForum(ctx, principal, eventID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindByEvent(ctx, eventID, forumPageSize)
	if err != nil {
		return nil, fmt.Errorf("s.messages.FindByEvent -> %w", err)
	}

	return msgs, nil
}

func (s *ForumService) PostMessage(ctx context.Context, principal domain.Principal, eventID uint, content string, parentID *uint) (domain.ForumMessage, error) {
	sender, err := s.AuthorizeForum(ctx, principal, eventID)
	if err != nil {
		return domain.ForumMessage{}, err
	}

	return s.post(ctx, domain.ForumMessage{EventID: eventID, Sender: sender, Content: content, ParentID: parentID})
}

// Announce posts an announcement. Only the organizer of the event may announce.
func (s *ForumService) Announce(ctx context.Context, principal domain.Principal, eventID uint, content string) (domain.ForumMessage, error) {
	sender, err := s.AuthorizeForum(ctx, principal, eventID)
	if err != nil {
		return domain.ForumMessage{}, err
	}
	if sender.Kind != domain.SenderOrganizer {
		return domain.ForumMessage{}, ErrForbidden
	}

	return s.post(ctx, domain.ForumMessage{EventID: eventID, Sender: sender, Content: content, IsAnnouncement: true})
}

func (s *ForumService) post(ctx context.Context, msg domain.ForumMessage) (domain.ForumMessage, error) {
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Content == "" {
		return domain.ForumMessage{}, invalidInput("message content is required")
	}
	if utf8.RuneCountInString(msg.Content) > maxMessageLength {
		return domain.ForumMessage{}, invalidInput("message is longer than %d characters", maxMessageLength)
	}

	if msg.ParentID != nil {
		parent, err := s.messages.FindByID(ctx, msg.EventID, *msg.ParentID)
		if err != nil {
			return domain.ForumMessage{}, fmt.Errorf("s.messages.FindByID -> %w", err)
		}
		if parent.IsDeleted {
			return domain.ForumMessage{}, ErrMessageNotFound
		}
	}

	created, err := s.messages.Create(ctx, msg)
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("s.messages.Create -> %w", err)
	}

	s.broadcaster.Broadcast(realtime.ForumRoom(msg.EventID), realtime.FrameNewMessage, created)

	return created, nil
}

// TogglePin pins or unpins a message of the organizer's event.
func (s *ForumService) TogglePin(ctx context.Context, principal domain.Principal, eventID, msgID uint) (domain.ForumMessage, error) {
	msg, err := s.moderate(ctx, principal, eventID, msgID)
	if err != nil {
		return domain.ForumMessage{}, err
	}
	msg.IsPinned = !msg.IsPinned

	return s.saveFlags(ctx, msg)
}

// Delete hides a message. The row is kept.
func (s *ForumService) Delete(ctx context.Context, principal domain.Principal, eventID, msgID uint) error {
	msg, err := s.moderate(ctx, principal, eventID, msgID)
	if err != nil {
		return err
	}
	msg.IsDeleted = true
	msg.IsPinned = false

	_, err = s.saveFlags(ctx, msg)
	return err
}

func (s *ForumService) moderate(ctx context.Context, principal domain.Principal, eventID, msgID uint) (domain.ForumMessage, error) {
	if !principal.Is(domain.RoleOrganizer) {
		return domain.ForumMessage{}, ErrForbidden
	}
	if _, err := ownedEvent(ctx, s.events, principal, eventID); err != nil {
		return domain.ForumMessage{}, err
	}

	msg, err := s.messages.FindByID(ctx, eventID, msgID)
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("s.messages.FindByID -> %w", err)
	}
	if msg.IsDeleted {
		return domain.ForumMessage{}, ErrMessageNotFound
	}

	return msg, nil
}

func (s *ForumService) saveFlags(ctx context.Context, msg domain.ForumMessage) (domain.ForumMessage, error) {
	if err := s.messages.UpdateFlags(ctx, msg); err != nil {
		return domain.ForumMessage{}, fmt.Errorf("s.messages.UpdateFlags -> %w", err)
	}

	s.broadcaster.Broadcast(realtime.ForumRoom(msg.EventID), realtime.FrameMessageUpdated, msg)

	return msg, nil
}

// React toggles the caller's reaction with the emoji on a message.
func (s *ForumService) React(ctx context.Context, principal domain.Principal, eventID, msgID uint, emoji string) (domain.ForumMessage, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return domain.ForumMessage{}, invalidInput("emoji is required")
	}

	sender, err := s.AuthorizeForum(ctx, principal, eventID)
	if err != nil {
		return domain.ForumMessage{}, err
	}

	msg, err := s.messages.ToggleReaction(ctx, eventID, msgID, emoji, sender.SenderRef)
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("s.messages.ToggleReaction -> %w", err)
	}

	s.broadcaster.Broadcast(realtime.ForumRoom(eventID), realtime.FrameMessageUpdated, msg)

	return msg, nil
}

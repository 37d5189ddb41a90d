package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrForbidden    = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")

	ErrEventNotFound = repository.ErrEventNotFound
)

// Broadcaster pushes a frame to every listener of a realtime room.
type Broadcaster interface {
	Broadcast(room, frameType string, data interface{})
}

type EventFinder interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

// ownedEvent loads the event and checks that the principal may manage it.
// Admins manage every event, organizers only their own.
func ownedEvent(ctx context.Context, events EventFinder, principal domain.Principal, eventID uint) (domain.Event, error) {
	event, err := events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("events.FindByID -> %w", err)
	}

	if !canManage(principal, event) {
		return domain.Event{}, ErrForbidden
	}

	return event, nil
}

func canManage(principal domain.Principal, event domain.Event) bool {
	switch principal.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleOrganizer:
		return event.OrganizerID == principal.ID
	default:
		return false
	}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// randomPassword returns 2n lower-case hex characters.
func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	return hex.EncodeToString(buf), nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

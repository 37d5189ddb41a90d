package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEventLocked       = errors.New("event can no longer be edited")
	ErrEditRestricted    = errors.New("edit is not allowed for a published event")
	ErrFormLocked        = errors.New("registration form is locked")
	ErrInvalidEvent      = errors.New("invalid event")

	ErrEventNotOpen   = errors.New("event is not open for registration")
	ErrDeadlinePassed = errors.New("registration deadline has passed")
	ErrEventFull      = errors.New("event is full")
	ErrNotEligible    = errors.New("participant is not eligible for this event")

	ErrTeamNotForming        = errors.New("team is not accepting members")
	ErrTeamFull              = errors.New("team is full")
	ErrAlreadyInTeam         = errors.New("participant already holds an entry in this team")
	ErrTeamLeader            = errors.New("participant is the team leader")
	ErrInviteNotFound        = errors.New("no pending entry found for this participant")
	ErrInviteAlreadyAnswered = errors.New("entry has already been answered")
	ErrNotAllowedToRespond   = errors.New("only the other party can answer this entry")
	ErrNotTeamMember         = errors.New("participant is not a member of this team")
)

// InvalidTransitionError names the current and requested event status.
type InvalidTransitionError struct {
	From EventStatus
	To   EventStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition event from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// EditRestrictedError carries the field that cannot be changed.
type EditRestrictedError struct {
	Field  string
	Reason string
}

func (e *EditRestrictedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *EditRestrictedError) Is(target error) bool {
	return target == ErrEditRestricted
}

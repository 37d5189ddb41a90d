package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newEvent(status EventStatus) Event {
	return Event{
		ID:                   1,
		Name:                 "Hack Night",
		Type:                 EventTypeNormal,
		Eligibility:          EligibilityAll,
		Status:               status,
		StartDate:            baseTime.Add(48 * time.Hour),
		EndDate:              baseTime.Add(72 * time.Hour),
		RegistrationDeadline: baseTime.Add(24 * time.Hour),
		RegistrationLimit:    10,
	}
}

func TestEventStatus_CanTransitionTo(t *testing.T) {
	all := []EventStatus{EventDraft, EventPublished, EventOngoing, EventCompleted, EventCancelled}
	allowed := map[EventStatus]map[EventStatus]bool{
		EventDraft:     {EventPublished: true, EventCancelled: true},
		EventPublished: {EventOngoing: true, EventCancelled: true},
		EventOngoing:   {EventCompleted: true, EventCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestEvent_TransitionTo(t *testing.T) {
	t.Run("allowed transition", func(t *testing.T) {
		e := newEvent(EventDraft)
		require.NoError(t, e.TransitionTo(EventPublished))
		assert.Equal(t, EventPublished, e.Status)
	})

	t.Run("rejected transition keeps status", func(t *testing.T) {
		e := newEvent(EventCompleted)
		err := e.TransitionTo(EventPublished)

		require.ErrorIs(t, err, ErrInvalidTransition)
		var transitionErr *InvalidTransitionError
		require.True(t, errors.As(err, &transitionErr))
		assert.Equal(t, EventCompleted, transitionErr.From)
		assert.Equal(t, EventPublished, transitionErr.To)
		assert.Contains(t, err.Error(), "completed")
		assert.Contains(t, err.Error(), "published")
		assert.Equal(t, EventCompleted, e.Status)
	})

	t.Run("draft cannot skip to ongoing", func(t *testing.T) {
		e := newEvent(EventDraft)
		assert.ErrorIs(t, e.TransitionTo(EventOngoing), ErrInvalidTransition)
		assert.Equal(t, EventDraft, e.Status)
	})
}

func TestEvent_EffectiveStatus(t *testing.T) {
	e := newEvent(EventPublished)

	tests := []struct {
		name   string
		stored EventStatus
		now    time.Time
		want   EventStatus
	}{
		{"before start", EventPublished, baseTime, EventPublished},
		{"at start", EventPublished, e.StartDate, EventOngoing},
		{"within window", EventPublished, e.StartDate.Add(time.Hour), EventOngoing},
		{"at end", EventPublished, e.EndDate, EventOngoing},
		{"after end", EventPublished, e.EndDate.Add(time.Second), EventCompleted},
		{"draft stays draft", EventDraft, e.EndDate.Add(time.Hour), EventDraft},
		{"cancelled stays cancelled", EventCancelled, e.StartDate.Add(time.Hour), EventCancelled},
		{"stale ongoing shows completed", EventOngoing, e.EndDate.Add(time.Hour), EventCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := e
			ev.Status = tt.stored
			assert.Equal(t, tt.want, ev.EffectiveStatus(tt.now))
			assert.Equal(t, tt.stored, ev.Status)
		})
	}
}

func TestEvent_CheckRegistration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Event)
		pType   ParticipantType
		now     time.Time
		wantErr error
	}{
		{"open event", func(e *Event) {}, ParticipantIIIT, baseTime, nil},
		{"draft is not open", func(e *Event) { e.Status = EventDraft }, ParticipantIIIT, baseTime, ErrEventNotOpen},
		{"deadline passed", func(e *Event) {}, ParticipantIIIT, baseTime.Add(25 * time.Hour), ErrDeadlinePassed},
		{"at deadline is allowed", func(e *Event) {}, ParticipantIIIT, baseTime.Add(24 * time.Hour), nil},
		{"full", func(e *Event) { e.RegistrationCount = 10 }, ParticipantIIIT, baseTime, ErrEventFull},
		{"iiit only", func(e *Event) { e.Eligibility = EligibilityIIITOnly }, ParticipantNonIIIT, baseTime, ErrNotEligible},
		{"non iiit only", func(e *Event) { e.Eligibility = EligibilityNonIIITOnly }, ParticipantIIIT, baseTime, ErrNotEligible},
		{
			"not open wins over full",
			func(e *Event) { e.Status = EventCompleted; e.RegistrationCount = 10 },
			ParticipantIIIT, baseTime, ErrEventNotOpen,
		},
		{
			"deadline wins over eligibility",
			func(e *Event) { e.Eligibility = EligibilityIIITOnly },
			ParticipantNonIIIT, baseTime.Add(30 * time.Hour), ErrDeadlinePassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEvent(EventPublished)
			tt.mutate(&e)
			err := e.CheckRegistration(tt.pType, tt.now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEvent_ApplyEdit(t *testing.T) {
	later := baseTime.Add(36 * time.Hour)
	earlier := baseTime.Add(12 * time.Hour)
	venue := "Felicity Ground"
	name := "Renamed"
	limit := 20
	lowLimit := 5

	t.Run("draft accepts any field", func(t *testing.T) {
		e := newEvent(EventDraft)
		require.NoError(t, e.ApplyEdit(EventEdit{Name: &name, RegistrationDeadline: &earlier}, baseTime))
		assert.Equal(t, name, e.Name)
		assert.Equal(t, earlier, e.RegistrationDeadline)
	})

	t.Run("draft edit is validated", func(t *testing.T) {
		e := newEvent(EventDraft)
		end := e.StartDate.Add(-time.Hour)
		err := e.ApplyEdit(EventEdit{EndDate: &end}, baseTime)
		assert.ErrorIs(t, err, ErrInvalidEvent)
		assert.Equal(t, baseTime.Add(72*time.Hour), e.EndDate)
	})

	t.Run("published extends deadline", func(t *testing.T) {
		e := newEvent(EventPublished)
		require.NoError(t, e.ApplyEdit(EventEdit{RegistrationDeadline: &later, Venue: &venue}, baseTime))
		assert.Equal(t, later, e.RegistrationDeadline)
		assert.Equal(t, venue, e.Venue)
	})

	t.Run("published rejects earlier deadline", func(t *testing.T) {
		e := newEvent(EventPublished)
		err := e.ApplyEdit(EventEdit{RegistrationDeadline: &earlier, Venue: &venue}, baseTime)
		assert.ErrorIs(t, err, ErrEditRestricted)
		assert.Equal(t, baseTime.Add(24*time.Hour), e.RegistrationDeadline)
		assert.Empty(t, e.Venue)
	})

	t.Run("published limit only grows", func(t *testing.T) {
		e := newEvent(EventPublished)
		assert.ErrorIs(t, e.ApplyEdit(EventEdit{RegistrationLimit: &lowLimit}, baseTime), ErrEditRestricted)
		require.NoError(t, e.ApplyEdit(EventEdit{RegistrationLimit: &limit}, baseTime))
		assert.Equal(t, limit, e.RegistrationLimit)
	})

	t.Run("published rejects frozen fields", func(t *testing.T) {
		e := newEvent(EventPublished)
		err := e.ApplyEdit(EventEdit{Name: &name}, baseTime)
		var restricted *EditRestrictedError
		require.True(t, errors.As(err, &restricted))
		assert.Equal(t, "name", restricted.Field)
	})

	t.Run("close registrations sets deadline to now", func(t *testing.T) {
		e := newEvent(EventPublished)
		require.NoError(t, e.ApplyEdit(EventEdit{CloseRegistrations: true}, baseTime))
		assert.Equal(t, baseTime, e.RegistrationDeadline)
	})

	for _, status := range []EventStatus{EventOngoing, EventCompleted, EventCancelled} {
		t.Run(string(status)+" is locked", func(t *testing.T) {
			e := newEvent(status)
			assert.ErrorIs(t, e.ApplyEdit(EventEdit{Venue: &venue}, baseTime), ErrEventLocked)
		})
	}
}

func TestEvent_ReplaceForm(t *testing.T) {
	form := []FormField{{Label: "T-shirt size", Kind: FieldDropdown, Options: []string{"S", "M"}, Required: true}}

	e := newEvent(EventPublished)
	require.NoError(t, e.ReplaceForm(form))
	assert.Equal(t, form, e.CustomForm)

	e.FormLocked = true
	assert.ErrorIs(t, e.ReplaceForm(nil), ErrFormLocked)

	merch := newEvent(EventDraft)
	merch.Type = EventTypeMerchandise
	assert.ErrorIs(t, merch.ReplaceForm(form), ErrFormLocked)
}

func TestEligibility_Allows(t *testing.T) {
	assert.True(t, EligibilityAll.Allows(ParticipantIIIT))
	assert.True(t, EligibilityAll.Allows(ParticipantNonIIIT))
	assert.True(t, EligibilityIIITOnly.Allows(ParticipantIIIT))
	assert.False(t, EligibilityIIITOnly.Allows(ParticipantNonIIIT))
	assert.True(t, EligibilityNonIIITOnly.Allows(ParticipantNonIIIT))
	assert.False(t, EligibilityNonIIITOnly.Allows(ParticipantIIIT))
}

func TestParticipantTypeForEmail(t *testing.T) {
	domains := []string{"students.iiit.ac.in", "research.iiit.ac.in"}

	assert.Equal(t, ParticipantIIIT, ParticipantTypeForEmail("a.b@students.iiit.ac.in", domains))
	assert.Equal(t, ParticipantIIIT, ParticipantTypeForEmail("x@Research.IIIT.ac.in", domains))
	assert.Equal(t, ParticipantNonIIIT, ParticipantTypeForEmail("x@gmail.com", domains))
	assert.Equal(t, ParticipantNonIIIT, ParticipantTypeForEmail("not-an-email", domains))
}

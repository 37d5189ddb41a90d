package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrFeedbackExists    = repository.ErrFeedbackExists
	ErrEventNotCompleted = errors.New("feedback opens once the event is completed")
	ErrNotAttendee       = errors.New("only registered participants can leave feedback")
)

const maxCommentLength = 1000

type FeedbackRepository interface {
	Create(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error)
	FindByEvent(ctx context.Context, eventID uint, rating int) ([]domain.Feedback, error)
	Exists(ctx context.Context, eventID uint, userHash string) (bool, error)
}

type FeedbackRegistrationRepository interface {
	FindLive(ctx context.Context, participantID, eventID uint) (domain.Registration, error)
}

type FeedbackService struct {
	feedback      FeedbackRepository
	events        EventFinder
	registrations FeedbackRegistrationRepository
	secret        string
	now           func() time.Time
}

func NewFeedbackService(
	feedback FeedbackRepository,
	events EventFinder,
	registrations FeedbackRegistrationRepository,
	secret string,
) *FeedbackService {
	return &FeedbackService{
		feedback:      feedback,
		events:        events,
		registrations: registrations,
		secret:        secret,
		now:           utcNow,
	}
}

// Submit stores anonymous feedback for a completed event. Each participant may
// submit once per event.
func (s *FeedbackService) Submit(ctx context.Context, participantID, eventID uint, rating int, comment string) (domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return domain.Feedback{}, invalidInput("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return domain.Feedback{}, invalidInput("comment is longer than %d characters", maxCommentLength)
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !isCompleted(event, s.now()) {
		return domain.Feedback{}, ErrEventNotCompleted
	}

	reg, err := s.registrations.FindLive(ctx, participantID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.Feedback{}, ErrNotAttendee
		}
		return domain.Feedback{}, fmt.Errorf("s.registrations.FindLive -> %w", err)
	}
	if !reg.HoldsSlot() {
		return domain.Feedback{}, ErrNotAttendee
	}

	created, err := s.feedback.Create(ctx, domain.Feedback{
		EventID:  eventID,
		UserHash: domain.FeedbackUserHash(participantID, s.secret),
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("s.feedback.Create -> %w", err)
	}

	return created, nil
}

func isCompleted(event domain.Event, now time.Time) bool {
	if event.Status == domain.EventCompleted {
		return true
	}

	return event.EffectiveStatus(now) == domain.EventCompleted
}

// Summary aggregates every rating of the event. When rating is set only the
// matching comments are listed.
func (s *FeedbackService) Summary(ctx context.Context, principal domain.Principal, eventID uint, rating int) (domain.FeedbackSummary, error) {
	if _, err := ownedEvent(ctx, s.events, principal, eventID); err != nil {
		return domain.FeedbackSummary{}, err
	}

	all, err := s.feedback.FindByEvent(ctx, eventID, 0)
	if err != nil {
		return domain.FeedbackSummary{}, fmt.Errorf("s.feedback.FindByEvent -> %w", err)
	}

	summary := domain.SummarizeFeedback(eventID, all)
	if rating > 0 {
		filtered, err := s.feedback.FindByEvent(ctx, eventID, rating)
		if err != nil {
			return domain.FeedbackSummary{}, fmt.Errorf("s.feedback.FindByEvent -> %w", err)
		}
		summary.Feedback = filtered
	}

	return summary, nil
}

func (s *FeedbackService) Submitted(ctx context.Context, participantID, eventID uint) (bool, error) {
	exists, err := s.feedback.Exists(ctx, eventID, domain.FeedbackUserHash(participantID, s.secret))
	if err != nil {
		return false, fmt.Errorf("s.feedback.Exists -> %w", err)
	}

	return exists, nil
}

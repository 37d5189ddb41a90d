package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/felicity-events/felicity-api/internal/domain"
)

type FeedbackServiceTestSuite struct {
	suite.Suite

	f         *fixture
	service   *FeedbackService
	organizer domain.Organizer
	event     domain.Event
}

func (s *FeedbackServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.service = s.f.feedbackService()
	s.organizer = s.f.organizer()
	s.event = s.f.event(s.organizer.ID, nil)
}

func (s *FeedbackServiceTestSuite) TestSubmitOncePerCompletedEvent() {
	user := s.f.participant(domain.ParticipantIIIT)
	s.f.register(user, s.event.ID)

	_, err := s.service.Submit(s.f.ctx, user.ID, s.event.ID, 5, "great")
	s.ErrorIs(err, ErrEventNotCompleted)

	s.f.advance(96 * time.Hour)

	feedback, err := s.service.Submit(s.f.ctx, user.ID, s.event.ID, 5, "  great  ")
	s.Require().NoError(err)
	s.Equal("great", feedback.Comment)
	s.NotEmpty(feedback.UserHash)

	_, err = s.service.Submit(s.f.ctx, user.ID, s.event.ID, 3, "changed my mind")
	s.ErrorIs(err, ErrFeedbackExists)

	submitted, err := s.service.Submitted(s.f.ctx, user.ID, s.event.ID)
	s.Require().NoError(err)
	s.True(submitted)

	other := s.f.participant(domain.ParticipantIIIT)
	submitted, err = s.service.Submitted(s.f.ctx, other.ID, s.event.ID)
	s.Require().NoError(err)
	s.False(submitted)
}

func (s *FeedbackServiceTestSuite) TestSubmitValidation() {
	user := s.f.participant(domain.ParticipantIIIT)
	s.f.advance(96 * time.Hour)

	_, err := s.service.Submit(s.f.ctx, user.ID, s.event.ID, 0, "")
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.service.Submit(s.f.ctx, user.ID, s.event.ID, 6, "")
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.service.Submit(s.f.ctx, user.ID, s.event.ID, 4, "")
	s.ErrorIs(err, ErrNotAttendee)
}

func (s *FeedbackServiceTestSuite) TestStoredCompletedStatusOpensFeedback() {
	user := s.f.participant(domain.ParticipantIIIT)
	s.f.register(user, s.event.ID)

	owner := organizerPrincipal(s.organizer)
	events := s.f.eventService()
	_, err := events.ChangeStatus(s.f.ctx, owner, s.event.ID, domain.EventOngoing)
	s.Require().NoError(err)
	_, err = events.ChangeStatus(s.f.ctx, owner, s.event.ID, domain.EventCompleted)
	s.Require().NoError(err)

	_, err = s.service.Submit(s.f.ctx, user.ID, s.event.ID, 4, "")
	s.NoError(err)
}

func (s *FeedbackServiceTestSuite) TestSummary() {
	ratings := []int{5, 4, 4, 1}
	var users []domain.User
	for range ratings {
		user := s.f.participant(domain.ParticipantIIIT)
		s.f.register(user, s.event.ID)
		users = append(users, user)
	}
	s.f.advance(96 * time.Hour)
	for i, rating := range ratings {
		_, err := s.service.Submit(s.f.ctx, users[i].ID, s.event.ID, rating, "comment")
		s.Require().NoError(err)
	}

	owner := organizerPrincipal(s.organizer)
	summary, err := s.service.Summary(s.f.ctx, owner, s.event.ID, 0)
	s.Require().NoError(err)
	s.Equal(4, summary.Count)
	s.InDelta(3.5, summary.Average, 0.001)
	s.Len(summary.Feedback, 4)

	filtered, err := s.service.Summary(s.f.ctx, owner, s.event.ID, 4)
	s.Require().NoError(err)
	s.Equal(4, filtered.Count)
	s.Len(filtered.Feedback, 2)

	_, err = s.service.Summary(s.f.ctx, participantPrincipal(users[0]), s.event.ID, 0)
	s.ErrorIs(err, ErrForbidden)
}

func TestFeedbackServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeedbackServiceTestSuite))
}

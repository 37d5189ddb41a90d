package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/realtime"
)

type ForumServiceTestSuite struct {
	suite.Suite

	f         *fixture
	service   *ForumService
	organizer domain.Organizer
	owner     domain.Principal
	event     domain.Event
	member    domain.User
}

func (s *ForumServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.service = s.f.forumService()
	s.organizer = s.f.organizer()
	s.owner = organizerPrincipal(s.organizer)
	s.event = s.f.event(s.organizer.ID, nil)
	s.member = s.f.participant(domain.ParticipantIIIT)
	s.f.register(s.member, s.event.ID)
}

func (s *ForumServiceTestSuite) TestAuthorizeForum() {
	sender, err := s.service.AuthorizeForum(s.f.ctx, participantPrincipal(s.member), s.event.ID)
	s.Require().NoError(err)
	s.Equal(domain.ParticipantRef(s.member.ID), sender.SenderRef)
	s.Equal(s.member.FullName(), sender.Name)

	sender, err = s.service.AuthorizeForum(s.f.ctx, s.owner, s.event.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrganizerRef(s.organizer.ID), sender.SenderRef)
	s.Equal(s.organizer.Name, sender.Name)

	outsider := s.f.participant(domain.ParticipantIIIT)
	_, err = s.service.AuthorizeForum(s.f.ctx, participantPrincipal(outsider), s.event.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.AuthorizeForum(s.f.ctx, organizerPrincipal(s.f.organizer()), s.event.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.AuthorizeForum(s.f.ctx, domain.Principal{ID: 1, Role: domain.RoleAdmin}, s.event.ID)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ForumServiceTestSuite) TestPostAndReply() {
	msg, err := s.service.PostMessage(s.f.ctx, participantPrincipal(s.member), s.event.ID, "  When do doors open?  ", nil)
	s.Require().NoError(err)
	s.Equal("When do doors open?", msg.Content)
	s.Equal(domain.SenderParticipant, msg.Sender.Kind)

	reply, err := s.service.PostMessage(s.f.ctx, s.owner, s.event.ID, "6 pm", &msg.ID)
	s.Require().NoError(err)
	s.Require().NotNil(reply.ParentID)
	s.Equal(msg.ID, *reply.ParentID)
	s.Equal(domain.SenderOrganizer, reply.Sender.Kind)

	missing := uint(9999)
	_, err = s.service.PostMessage(s.f.ctx, s.owner, s.event.ID, "lost", &missing)
	s.ErrorIs(err, ErrMessageNotFound)

	_, err = s.service.PostMessage(s.f.ctx, s.owner, s.event.ID, "   ", nil)
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.service.PostMessage(s.f.ctx, s.owner, s.event.ID, strings.Repeat("a", maxMessageLength+1), nil)
	s.ErrorIs(err, ErrInvalidInput)

	sent := s.f.broadcaster.Sent()
	s.Require().Len(sent, 2)
	for _, b := range sent {
		s.Equal(realtime.ForumRoom(s.event.ID), b.Room)
		s.Equal(realtime.FrameNewMessage, b.Type)
	}
}

func (s *ForumServiceTestSuite) TestAnnounce() {
	_, err := s.service.Announce(s.f.ctx, participantPrincipal(s.member), s.event.ID, "free pizza")
	s.ErrorIs(err, ErrForbidden)

	msg, err := s.service.Announce(s.f.ctx, s.owner, s.event.ID, "Venue moved to H105")
	s.Require().NoError(err)
	s.True(msg.IsAnnouncement)
}

func (s *ForumServiceTestSuite) TestModeration() {
	first, err := s.service.PostMessage(s.f.ctx, participantPrincipal(s.member), s.event.ID, "first", nil)
	s.Require().NoError(err)
	second, err := s.service.PostMessage(s.f.ctx, participantPrincipal(s.member), s.event.ID, "second", nil)
	s.Require().NoError(err)

	_, err = s.service.TogglePin(s.f.ctx, participantPrincipal(s.member), s.event.ID, second.ID)
	s.ErrorIs(err, ErrForbidden)

	pinned, err := s.service.TogglePin(s.f.ctx, s.owner, s.event.ID, second.ID)
	s.Require().NoError(err)
	s.True(pinned.IsPinned)

	msgs, err := s.service.Messages(s.f.ctx, participantPrincipal(s.member), s.event.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 2)
	s.Equal(second.ID, msgs[0].ID)
	s.Equal(first.ID, msgs[1].ID)

	s.Require().NoError(s.service.Delete(s.f.ctx, s.owner, s.event.ID, second.ID))
	msgs, err = s.service.Messages(s.f.ctx, s.owner, s.event.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal(first.ID, msgs[0].ID)

	_, err = s.service.PostMessage(s.f.ctx, s.owner, s.event.ID, "reply to removed", &second.ID)
	s.ErrorIs(err, ErrMessageNotFound)

	last := s.f.broadcaster.Sent()
	s.Equal(realtime.FrameMessageUpdated, last[len(last)-1].Type)
	deleted, ok := last[len(last)-1].Data.(domain.ForumMessage)
	s.Require().True(ok)
	s.True(deleted.IsDeleted)
	s.False(deleted.IsPinned)
}

func (s *ForumServiceTestSuite) TestReactToggles() {
	msg, err := s.service.Announce(s.f.ctx, s.owner, s.event.ID, "Welcome")
	s.Require().NoError(err)

	reacted, err := s.service.React(s.f.ctx, participantPrincipal(s.member), s.event.ID, msg.ID, "🎉")
	s.Require().NoError(err)
	s.Require().Len(reacted.Reactions, 1)
	s.Equal([]domain.SenderRef{domain.ParticipantRef(s.member.ID)}, reacted.Reactions[0].Reactors)

	reacted, err = s.service.React(s.f.ctx, s.owner, s.event.ID, msg.ID, "🎉")
	s.Require().NoError(err)
	s.Len(reacted.Reactions[0].Reactors, 2)

	reacted, err = s.service.React(s.f.ctx, participantPrincipal(s.member), s.event.ID, msg.ID, "🎉")
	s.Require().NoError(err)
	s.Equal([]domain.SenderRef{domain.OrganizerRef(s.organizer.ID)}, reacted.Reactions[0].Reactors)

	_, err = s.service.React(s.f.ctx, s.owner, s.event.ID, msg.ID, " ")
	s.ErrorIs(err, ErrInvalidInput)
}

func TestForumServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ForumServiceTestSuite))
}

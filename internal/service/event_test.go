package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/notify"
)

type EventServiceTestSuite struct {
	suite.Suite

	f         *fixture
	service   *EventService
	organizer domain.Organizer
}

func (s *EventServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.service = s.f.eventService()
	s.organizer = s.f.organizer()
}

func (s *EventServiceTestSuite) newDraft() domain.Event {
	return domain.Event{
		Name:                 "Robotics Workshop",
		Description:          "Build a line follower",
		Type:                 domain.EventTypeNormal,
		StartDate:            s.f.now.Add(48 * time.Hour),
		EndDate:              s.f.now.Add(50 * time.Hour),
		RegistrationDeadline: s.f.now.Add(24 * time.Hour),
		RegistrationLimit:    30,
	}
}

func (s *EventServiceTestSuite) TestCreate() {
	draft := s.newDraft()
	draft.RegistrationCount = 12
	draft.Revenue = 900

	created, err := s.service.Create(s.f.ctx, s.organizer.ID, draft)
	s.Require().NoError(err)
	s.Equal(domain.EventDraft, created.Status)
	s.Equal(domain.EligibilityAll, created.Eligibility)
	s.Equal(s.organizer.ID, created.OrganizerID)
	s.Zero(created.RegistrationCount)
	s.Zero(created.Revenue)
	s.Empty(s.f.dispatcher.Jobs())

	published := s.newDraft()
	published.Status = domain.EventPublished
	created, err = s.service.Create(s.f.ctx, s.organizer.ID, published)
	s.Require().NoError(err)
	jobs := s.f.dispatcher.Jobs()
	s.Require().Len(jobs, 1)
	s.Equal(notify.KindEventPublished, jobs[0].Kind)
	s.Equal(created.ID, jobs[0].EventID)

	ongoing := s.newDraft()
	ongoing.Status = domain.EventOngoing
	_, err = s.service.Create(s.f.ctx, s.organizer.ID, ongoing)
	s.ErrorIs(err, ErrInvalidTransition)

	invalid := s.newDraft()
	invalid.RegistrationLimit = 0
	_, err = s.service.Create(s.f.ctx, s.organizer.ID, invalid)
	s.ErrorIs(err, ErrInvalidEvent)
}

func (s *EventServiceTestSuite) TestChangeStatus() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, func(e *domain.Event) { e.Status = domain.EventDraft })

	_, err := s.service.ChangeStatus(s.f.ctx, owner, event.ID, domain.EventCompleted)
	s.ErrorIs(err, ErrInvalidTransition)
	s.Equal(domain.EventDraft, s.f.reload(event.ID).Status)

	other := s.f.organizer()
	_, err = s.service.ChangeStatus(s.f.ctx, organizerPrincipal(other), event.ID, domain.EventPublished)
	s.ErrorIs(err, ErrForbidden)

	changed, err := s.service.ChangeStatus(s.f.ctx, owner, event.ID, domain.EventPublished)
	s.Require().NoError(err)
	s.Equal(domain.EventPublished, changed.Status)
	s.Equal(domain.EventPublished, s.f.reload(event.ID).Status)
	s.Len(s.f.dispatcher.Jobs(), 1)

	admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}
	_, err = s.service.ChangeStatus(s.f.ctx, admin, event.ID, domain.EventCancelled)
	s.Require().NoError(err)

	_, err = s.service.ChangeStatus(s.f.ctx, owner, event.ID, domain.EventPublished)
	s.ErrorIs(err, ErrInvalidTransition)
	s.Equal(domain.EventCancelled, s.f.reload(event.ID).Status)
}

func (s *EventServiceTestSuite) TestUpdatePublishedDeadline() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, nil)

	earlier := event.RegistrationDeadline.Add(-time.Hour)
	_, err := s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{RegistrationDeadline: &earlier})
	s.ErrorIs(err, ErrEditRestricted)
	s.True(s.f.reload(event.ID).RegistrationDeadline.Equal(event.RegistrationDeadline))

	later := event.RegistrationDeadline.Add(12 * time.Hour)
	updated, err := s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{RegistrationDeadline: &later})
	s.Require().NoError(err)
	s.True(updated.RegistrationDeadline.Equal(later))
	s.True(s.f.reload(event.ID).RegistrationDeadline.Equal(later))

	name := "Renamed"
	_, err = s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{Name: &name})
	s.ErrorIs(err, ErrEditRestricted)

	limit := 50
	description := "Now with snacks"
	updated, err = s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{RegistrationLimit: &limit, Description: &description})
	s.Require().NoError(err)
	s.Equal(50, updated.RegistrationLimit)
	s.Equal(description, updated.Description)
}

func (s *EventServiceTestSuite) TestUpdateLockedAfterPublishing() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, func(e *domain.Event) { e.Status = domain.EventOngoing })

	description := "too late"
	_, err := s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{Description: &description})
	s.ErrorIs(err, ErrEventLocked)
}

func (s *EventServiceTestSuite) TestUpdateDraftReplacesItems() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.Status = domain.EventDraft
		e.Type = domain.EventTypeMerchandise
		e.MerchandiseItems = []domain.MerchandiseItem{{VariantName: "Mug", Stock: 10, Price: 150}}
	})

	items := []domain.MerchandiseItem{
		{VariantName: "Cap", Stock: 4, Price: 200},
		{VariantName: "Badge", Stock: 40, Price: 20},
	}
	updated, err := s.service.Update(s.f.ctx, owner, event.ID, domain.EventEdit{MerchandiseItems: &items})
	s.Require().NoError(err)
	s.Require().Len(updated.MerchandiseItems, 2)
	s.Equal("Cap", updated.MerchandiseItems[0].VariantName)
	s.Equal("Badge", updated.MerchandiseItems[1].VariantName)
}

func (s *EventServiceTestSuite) TestReplaceFormLockedAfterRegistration() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.CustomForm = []domain.FormField{{Label: "Roll number", Kind: domain.FieldText}}
	})

	form := []domain.FormField{{Label: "Year", Kind: domain.FieldNumber}}
	updated, err := s.service.ReplaceForm(s.f.ctx, owner, event.ID, form)
	s.Require().NoError(err)
	s.Equal(form, updated.CustomForm)

	s.f.register(s.f.participant(domain.ParticipantIIIT), event.ID)

	_, err = s.service.ReplaceForm(s.f.ctx, owner, event.ID, []domain.FormField{{Label: "Other", Kind: domain.FieldText}})
	s.ErrorIs(err, ErrFormLocked)
	s.Equal(form, s.f.reload(event.ID).CustomForm)
}

func (s *EventServiceTestSuite) TestGetHidesDrafts() {
	draft := s.f.event(s.organizer.ID, func(e *domain.Event) { e.Status = domain.EventDraft })
	user := s.f.participant(domain.ParticipantIIIT)

	_, err := s.service.Get(s.f.ctx, participantPrincipal(user), draft.ID)
	s.ErrorIs(err, ErrEventNotFound)

	view, err := s.service.Get(s.f.ctx, organizerPrincipal(s.organizer), draft.ID)
	s.Require().NoError(err)
	s.Equal(s.organizer.Name, view.OrganizerName)
	s.Equal(domain.EventDraft, view.EffectiveStatus)
}

func (s *EventServiceTestSuite) TestListForParticipant() {
	followed := s.f.organizer()
	s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Secret"; e.Status = domain.EventDraft })
	s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Called Off"; e.Status = domain.EventCancelled })
	s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Chess Open"; e.Description = "Rapid games"; e.Tags = []string{"games"} })
	s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Jazz Night"; e.Description = "Live band"; e.Tags = []string{"Music"} })
	s.f.event(followed.ID, func(e *domain.Event) { e.Name = "Robotics Expo"; e.Description = "Bots on show"; e.Tags = []string{"tech"} })

	user := s.f.participant(domain.ParticipantIIIT)
	user.Interests = []string{"music"}
	user.FollowedOrganizers = []uint{followed.ID}
	_, err := s.f.users.Update(s.f.ctx, user)
	s.Require().NoError(err)

	page, err := s.service.List(s.f.ctx, participantPrincipal(user), EventQuery{})
	s.Require().NoError(err)
	s.Equal(int64(3), page.Total)
	s.Equal([]string{"Robotics Expo", "Jazz Night", "Chess Open"}, names(page))

	page, err = s.service.List(s.f.ctx, participantPrincipal(user), EventQuery{FollowedOnly: true})
	s.Require().NoError(err)
	s.Equal([]string{"Robotics Expo"}, names(page))

	page, err = s.service.List(s.f.ctx, domain.Principal{}, EventQuery{Search: "jazz"})
	s.Require().NoError(err)
	s.Equal([]string{"Jazz Night"}, names(page))

	page, err = s.service.List(s.f.ctx, domain.Principal{}, EventQuery{Status: domain.EventDraft})
	s.Require().NoError(err)
	s.Empty(page.Events)

	page, err = s.service.List(s.f.ctx, domain.Principal{}, EventQuery{Limit: 2, Page: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), page.Total)
	s.Len(page.Events, 1)

	page, err = s.service.List(s.f.ctx, domain.Principal{ID: 1, Role: domain.RoleAdmin}, EventQuery{})
	s.Require().NoError(err)
	s.Equal(int64(5), page.Total)
}

func names(page EventPage) []string {
	out := make([]string, 0, len(page.Events))
	for _, e := range page.Events {
		out = append(out, e.Name)
	}
	return out
}

func (s *EventServiceTestSuite) TestTrending() {
	busy := s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Busy" })
	quiet := s.f.event(s.organizer.ID, func(e *domain.Event) { e.Name = "Quiet" })
	for i := 0; i < 3; i++ {
		s.f.register(s.f.participant(domain.ParticipantIIIT), busy.ID)
	}
	s.f.register(s.f.participant(domain.ParticipantIIIT), quiet.ID)

	views, err := s.service.Trending(s.f.ctx)
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal("Busy", views[0].Name)
	s.Equal("Quiet", views[1].Name)
}

func (s *EventServiceTestSuite) TestParticipantsExport() {
	owner := organizerPrincipal(s.organizer)
	event := s.f.event(s.organizer.ID, nil)
	user := s.f.participant(domain.ParticipantNonIIIT)
	reg := s.f.register(user, event.ID)

	details, err := s.service.Participants(s.f.ctx, owner, event.ID)
	s.Require().NoError(err)
	s.Require().Len(details, 1)
	s.False(details[0].CheckedIn)

	_, err = s.f.attendanceService().Manual(s.f.ctx, owner, event.ID, reg.ID, "lost phone")
	s.Require().NoError(err)

	details, err = s.service.Participants(s.f.ctx, owner, event.ID)
	s.Require().NoError(err)
	s.True(details[0].CheckedIn)

	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportParticipants(s.f.ctx, owner, event.ID, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(participantColumns, rows[0])
	s.Equal(reg.TicketID, rows[1][0])
	s.Equal(user.Email, rows[1][3])
	s.Equal("Non-IIIT", rows[1][6])

	stranger := s.f.participant(domain.ParticipantIIIT)
	_, err = s.service.Participants(s.f.ctx, participantPrincipal(stranger), event.ID)
	s.ErrorIs(err, ErrForbidden)
}

func (s *EventServiceTestSuite) TestAnalytics() {
	first := s.f.event(s.organizer.ID, nil)
	second := s.f.event(s.organizer.ID, nil)
	s.f.register(s.f.participant(domain.ParticipantIIIT), first.ID)
	s.f.register(s.f.participant(domain.ParticipantIIIT), second.ID)
	s.Require().NoError(s.service.RecordView(s.f.ctx, first.ID))
	s.Require().NoError(s.service.RecordView(s.f.ctx, first.ID))

	analytics, err := s.service.Analytics(s.f.ctx, s.organizer.ID)
	s.Require().NoError(err)
	s.Len(analytics.Events, 2)
	s.Equal(2, analytics.TotalRegistrations)
	s.Equal(2, analytics.TotalViews)
	s.Zero(analytics.TotalAttendance)
}

func (s *EventServiceTestSuite) TestReconciler() {
	started := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.StartDate = s.f.now.Add(-time.Hour)
		e.EndDate = s.f.now.Add(time.Hour)
		e.RegistrationDeadline = s.f.now.Add(-2 * time.Hour)
	})
	finished := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.StartDate = s.f.now.Add(-3 * time.Hour)
		e.EndDate = s.f.now.Add(-time.Hour)
		e.RegistrationDeadline = s.f.now.Add(-4 * time.Hour)
	})
	draft := s.f.event(s.organizer.ID, func(e *domain.Event) {
		e.Status = domain.EventDraft
		e.StartDate = s.f.now.Add(-3 * time.Hour)
		e.EndDate = s.f.now.Add(-time.Hour)
		e.RegistrationDeadline = s.f.now.Add(-4 * time.Hour)
	})
	upcoming := s.f.event(s.organizer.ID, nil)

	reconciler := NewStatusReconciler(s.f.events, time.Minute)
	reconciler.now = s.f.clock

	applied, err := reconciler.Reconcile(s.f.ctx)
	s.Require().NoError(err)
	s.Equal(3, applied)

	s.Equal(domain.EventOngoing, s.f.reload(started.ID).Status)
	s.Equal(domain.EventCompleted, s.f.reload(finished.ID).Status)
	s.Equal(domain.EventDraft, s.f.reload(draft.ID).Status)
	s.Equal(domain.EventPublished, s.f.reload(upcoming.ID).Status)

	applied, err = reconciler.Reconcile(s.f.ctx)
	s.Require().NoError(err)
	s.Zero(applied)
}

func TestEventServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EventServiceTestSuite))
}

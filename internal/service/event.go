package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/metrics"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/pkg/csvexport"
	"github.com/felicity-events/felicity-api/internal/pkg/search"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrStatusChanged     = repository.ErrStatusChanged
	ErrFormLocked        = domain.ErrFormLocked
	ErrEventLocked       = domain.ErrEventLocked
	ErrEditRestricted    = domain.ErrEditRestricted
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrInvalidEvent      = domain.ErrInvalidEvent
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	trendingWindow  = 24 * time.Hour
	trendingSize    = 5

	followedOrganizerBoost = 10
	interestTagBoost       = 3
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.Event, error)
	Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error
	UpdateForm(ctx context.Context, id uint, form []domain.FormField) error
	Delete(ctx context.Context, id uint) error
	IncrementView(ctx context.Context, id uint) error
	List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int64, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
}

type EventRegistrationRepository interface {
	FindByEvent(ctx context.Context, eventID uint, statuses ...domain.RegistrationStatus) ([]domain.Registration, error)
	CountByEvent(ctx context.Context, eventID uint, status domain.RegistrationStatus) (int64, error)
	TopEventsSince(ctx context.Context, since time.Time, limit int) ([]uint, error)
}

type EventUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error)
}

type EventOrganizerRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
}

type EventAttendanceRepository interface {
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Attendance, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
}

// EventView is an event as shown to readers, with its date derived status.
type EventView struct {
	domain.Event
	EffectiveStatus domain.EventStatus `json:"effective_status"`
	OrganizerName   string             `json:"organizer_name,omitempty"`
}

func newEventView(e domain.Event, organizerName string, now time.Time) EventView {
	return EventView{Event: e, EffectiveStatus: e.EffectiveStatus(now), OrganizerName: organizerName}
}

type EventQuery struct {
	Search       string
	Type         domain.EventType
	Eligibility  domain.Eligibility
	Status       domain.EventStatus
	StartFrom    *time.Time
	StartTo      *time.Time
	FollowedOnly bool
	Page         int
	Limit        int
}

type EventPage struct {
	Events []EventView `json:"events"`
	Total  int64       `json:"total"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}

type EventAnalytics struct {
	EventID       uint               `json:"event_id"`
	Name          string             `json:"name"`
	Status        domain.EventStatus `json:"status"`
	Registrations int                `json:"registrations"`
	Revenue       float64            `json:"revenue"`
	Attendance    int64              `json:"attendance"`
	Views         int                `json:"views"`
}

type OrganizerAnalytics struct {
	Events             []EventAnalytics `json:"events"`
	TotalRegistrations int              `json:"total_registrations"`
	TotalRevenue       float64          `json:"total_revenue"`
	TotalAttendance    int64            `json:"total_attendance"`
	TotalViews         int              `json:"total_views"`
}

type EventService struct {
	events        EventRepository
	registrations EventRegistrationRepository
	users         EventUserRepository
	organizers    EventOrganizerRepository
	attendance    EventAttendanceRepository
	dispatcher    notify.Dispatcher
	now           func() time.Time
}

func NewEventService(
	events EventRepository,
	registrations EventRegistrationRepository,
	users EventUserRepository,
	organizers EventOrganizerRepository,
	attendance EventAttendanceRepository,
	dispatcher notify.Dispatcher,
) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		users:         users,
		organizers:    organizers,
		attendance:    attendance,
		dispatcher:    dispatcher,
		now:           utcNow,
	}
}

// Create stores a new event owned by the organizer. Events may only start as
// draft or published; publishing announces the event.
func (s *EventService) Create(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error) {
	if event.Status == "" {
		event.Status = domain.EventDraft
	}
	if event.Status != domain.EventDraft && event.Status != domain.EventPublished {
		return domain.Event{}, &domain.InvalidTransitionError{From: domain.EventDraft, To: event.Status}
	}
	if event.Eligibility == "" {
		event.Eligibility = domain.EligibilityAll
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	event.ID = 0
	event.OrganizerID = organizerID
	event.RegistrationCount = 0
	event.Revenue = 0
	event.ViewCount = 0
	event.FormLocked = false

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Create -> %w", err)
	}

	if created.Status == domain.EventPublished {
		s.dispatcher.Dispatch(ctx, notify.EventPublished(created.ID))
	}

	return created, nil
}

// Get returns an event. Drafts are only visible to the people who manage them.
func (s *EventService) Get(ctx context.Context, principal domain.Principal, id uint) (EventView, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return EventView{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.Status == domain.EventDraft && !canManage(principal, event) {
		return EventView{}, ErrEventNotFound
	}

	return newEventView(event, s.organizerName(ctx, event.OrganizerID), s.now()), nil
}

func (s *EventService) organizerName(ctx context.Context, id uint) string {
	organizer, err := s.organizers.FindByID(ctx, id)
	if err != nil {
		return ""
	}

	return organizer.Name
}

// List filters, searches and pages events. Participants only see events that
// left draft and were not cancelled, ordered by their preferences.
func (s *EventService) List(ctx context.Context, principal domain.Principal, query EventQuery) (EventPage, error) {
	page, limit := normalizePage(query.Page, query.Limit)

	filter := repository.EventFilter{
		Type:        query.Type,
		Eligibility: query.Eligibility,
		StartFrom:   query.StartFrom,
		StartTo:     query.StartTo,
	}

	var user *domain.User
	if principal.Is(domain.RoleParticipant) {
		found, err := s.users.FindByID(ctx, principal.ID)
		if err != nil {
			return EventPage{}, fmt.Errorf("s.users.FindByID -> %w", err)
		}
		user = &found
	}

	switch {
	case principal.Is(domain.RoleAdmin) || principal.Is(domain.RoleOrganizer):
		if query.Status != "" {
			filter.Statuses = []domain.EventStatus{query.Status}
		}
	default:
		filter.Statuses = []domain.EventStatus{domain.EventPublished, domain.EventOngoing, domain.EventCompleted}
		if query.Status != "" {
			if !containsStatus(filter.Statuses, query.Status) {
				return EventPage{Events: []EventView{}, Page: page, Limit: limit}, nil
			}
			filter.Statuses = []domain.EventStatus{query.Status}
		}
	}

	if query.FollowedOnly {
		if user == nil {
			return EventPage{}, ErrForbidden
		}
		filter.OrganizerIDs = append([]uint{}, user.FollowedOrganizers...)
	}

	ranked := strings.TrimSpace(query.Search) != "" || user != nil
	if !ranked {
		filter.Limit = limit
		filter.Offset = (page - 1) * limit
	}

	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return EventPage{}, fmt.Errorf("s.events.List -> %w", err)
	}

	if ranked {
		events = rankEvents(events, query.Search, user)
		total = int64(len(events))
		events = paginate(events, page, limit)
	}

	now := s.now()
	names := map[uint]string{}
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		name, ok := names[e.OrganizerID]
		if !ok {
			name = s.organizerName(ctx, e.OrganizerID)
			names[e.OrganizerID] = name
		}
		views = append(views, newEventView(e, name, now))
	}

	return EventPage{Events: views, Total: total, Page: page, Limit: limit}, nil
}

// rankEvents applies the search ranking, then the participant's preference
// boosts. Ties keep the previous order.
func rankEvents(events []domain.Event, query string, user *domain.User) []domain.Event {
	if strings.TrimSpace(query) != "" {
		docs := make([]search.Document, len(events))
		for i, e := range events {
			docs[i] = search.Document{Index: i, Fields: []string{e.Name, e.Description, strings.Join(e.Tags, " ")}}
		}

		matches := search.Rank(query, docs)
		ranked := make([]domain.Event, 0, len(matches))
		for _, m := range matches {
			ranked = append(ranked, events[m.Index])
		}
		events = ranked
	}

	if user == nil {
		return events
	}

	scores := make(map[uint]int, len(events))
	for _, e := range events {
		scores[e.ID] = preferenceScore(e, *user)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return scores[events[i].ID] > scores[events[j].ID]
	})

	return events
}

func preferenceScore(e domain.Event, user domain.User) int {
	score := 0
	if user.Follows(e.OrganizerID) {
		score += followedOrganizerBoost
	}
	for _, interest := range user.Interests {
		for _, tag := range e.Tags {
			if strings.EqualFold(tag, interest) {
				score += interestTagBoost
			}
		}
	}

	return score
}

// Trending returns the open events with the most registrations in the last day.
func (s *EventService) Trending(ctx context.Context) ([]EventView, error) {
	now := s.now()

	ids, err := s.registrations.TopEventsSince(ctx, now.Add(-trendingWindow), trendingSize)
	if err != nil {
		return nil, fmt.Errorf("s.registrations.TopEventsSince -> %w", err)
	}

	events, err := s.events.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByIDs -> %w", err)
	}

	views := make([]EventView, 0, len(ids))
	for _, id := range ids {
		e, ok := events[id]
		if !ok || (e.Status != domain.EventPublished && e.Status != domain.EventOngoing) {
			continue
		}
		views = append(views, newEventView(e, s.organizerName(ctx, e.OrganizerID), now))
	}

	return views, nil
}

func (s *EventService) Update(ctx context.Context, principal domain.Principal, id uint, edit domain.EventEdit) (domain.Event, error) {
	event, err := ownedEvent(ctx, s.events, principal, id)
	if err != nil {
		return domain.Event{}, err
	}

	if err = event.ApplyEdit(edit, s.now()); err != nil {
		return domain.Event{}, err
	}

	updated, err := s.events.Update(ctx, event, edit.MerchandiseItems != nil)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.Update -> %w", err)
	}

	return updated, nil
}

// ReplaceForm swaps the custom registration form until the first registration locks it.
func (s *EventService) ReplaceForm(ctx context.Context, principal domain.Principal, id uint, form []domain.FormField) (domain.Event, error) {
	event, err := ownedEvent(ctx, s.events, principal, id)
	if err != nil {
		return domain.Event{}, err
	}

	if err = event.ReplaceForm(form); err != nil {
		return domain.Event{}, err
	}

	if err = s.events.UpdateForm(ctx, id, form); err != nil {
		if errors.Is(err, repository.ErrFormLocked) {
			return domain.Event{}, ErrFormLocked
		}
		return domain.Event{}, fmt.Errorf("s.events.UpdateForm -> %w", err)
	}

	return event, nil
}

// ChangeStatus moves the event along the lifecycle. The stored status is only
// replaced when it still matches the status the transition was checked against.
func (s *EventService) ChangeStatus(ctx context.Context, principal domain.Principal, id uint, target domain.EventStatus) (domain.Event, error) {
	event, err := ownedEvent(ctx, s.events, principal, id)
	if err != nil {
		return domain.Event{}, err
	}

	from := event.Status
	if err = event.TransitionTo(target); err != nil {
		return domain.Event{}, err
	}

	if err = s.events.UpdateStatus(ctx, id, from, target); err != nil {
		return domain.Event{}, fmt.Errorf("s.events.UpdateStatus -> %w", err)
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()

	if target == domain.EventPublished {
		s.dispatcher.Dispatch(ctx, notify.EventPublished(id))
	}

	return event, nil
}

func (s *EventService) Delete(ctx context.Context, principal domain.Principal, id uint) error {
	if _, err := ownedEvent(ctx, s.events, principal, id); err != nil {
		return err
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.events.Delete -> %w", err)
	}

	return nil
}

func (s *EventService) RecordView(ctx context.Context, id uint) error {
	if err := s.events.IncrementView(ctx, id); err != nil {
		return fmt.Errorf("s.events.IncrementView -> %w", err)
	}

	return nil
}

// Participants lists every registration of the event with the participant and
// whether they have checked in.
func (s *EventService) Participants(ctx context.Context, principal domain.Principal, id uint) ([]domain.RegistrationDetail, error) {
	event, err := ownedEvent(ctx, s.events, principal, id)
	if err != nil {
		return nil, err
	}

	regs, err := s.registrations.FindByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("s.registrations.FindByEvent -> %w", err)
	}

	ids := make([]uint, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ParticipantID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	records, err := s.attendance.FindByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("s.attendance.FindByEvent -> %w", err)
	}
	checkedIn := make(map[uint]bool, len(records))
	for _, a := range records {
		checkedIn[a.RegistrationID] = true
	}

	details := make([]domain.RegistrationDetail, 0, len(regs))
	for _, r := range regs {
		details = append(details, domain.RegistrationDetail{
			Registration: r,
			Participant:  users[r.ParticipantID],
			EventName:    event.Name,
			CheckedIn:    checkedIn[r.ID],
		})
	}

	return details, nil
}

var participantColumns = []string{
	"Ticket ID", "First Name", "Last Name", "Email", "Contact", "College/Org", "Type", "Status", "Registered At",
}

func (s *EventService) ExportParticipants(ctx context.Context, principal domain.Principal, id uint, w io.Writer) error {
	details, err := s.Participants(ctx, principal, id)
	if err != nil {
		return err
	}

	table := csvexport.Table{Header: participantColumns}
	for _, d := range details {
		table.Append(
			d.TicketID,
			d.Participant.FirstName,
			d.Participant.LastName,
			d.Participant.Email,
			d.Participant.ContactNumber,
			d.Participant.CollegeOrg,
			string(d.Participant.Type),
			string(d.Status),
			d.CreatedAt.Format(time.RFC3339),
		)
	}

	if err = csvexport.Write(w, table); err != nil {
		return fmt.Errorf("csvexport.Write -> %w", err)
	}

	return nil
}

func (s *EventService) OrganizerEvents(ctx context.Context, organizerID uint) ([]EventView, error) {
	events, err := s.events.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByOrganizer -> %w", err)
	}

	now := s.now()
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e, "", now))
	}

	return views, nil
}

func (s *EventService) Analytics(ctx context.Context, organizerID uint) (OrganizerAnalytics, error) {
	events, err := s.events.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return OrganizerAnalytics{}, fmt.Errorf("s.events.FindByOrganizer -> %w", err)
	}

	analytics := OrganizerAnalytics{Events: make([]EventAnalytics, 0, len(events))}
	for _, e := range events {
		attended, err := s.attendance.CountByEvent(ctx, e.ID)
		if err != nil {
			return OrganizerAnalytics{}, fmt.Errorf("s.attendance.CountByEvent -> %w", err)
		}

		analytics.Events = append(analytics.Events, EventAnalytics{
			EventID:       e.ID,
			Name:          e.Name,
			Status:        e.Status,
			Registrations: e.RegistrationCount,
			Revenue:       e.Revenue,
			Attendance:    attended,
			Views:         e.ViewCount,
		})
		analytics.TotalRegistrations += e.RegistrationCount
		analytics.TotalRevenue += e.Revenue
		analytics.TotalAttendance += attended
		analytics.TotalViews += e.ViewCount
	}

	return analytics, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return page, limit
}

func paginate(events []domain.Event, page, limit int) []domain.Event {
	start := (page - 1) * limit
	if start >= len(events) {
		return []domain.Event{}
	}
	end := start + limit
	if end > len(events) {
		end = len(events)
	}

	return events[start:end]
}

func containsStatus(statuses []domain.EventStatus, status domain.EventStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

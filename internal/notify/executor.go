package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/ticket"
)

type RegistrationStore interface {
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	MarkEmailSent(ctx context.Context, id uint) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type EventStore interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type OrganizerStore interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
}

// JobExecutor resolves a job against the stores and performs it.
type JobExecutor struct {
	registrations RegistrationStore
	users         UserStore
	events        EventStore
	organizers    OrganizerStore
	mailer        Mailer
	webhook       Poster
}

func NewJobExecutor(
	registrations RegistrationStore,
	users UserStore,
	events EventStore,
	organizers OrganizerStore,
	mailer Mailer,
	webhook Poster,
) *JobExecutor {
	return &JobExecutor{
		registrations: registrations,
		users:         users,
		events:        events,
		organizers:    organizers,
		mailer:        mailer,
		webhook:       webhook,
	}
}

func (e *JobExecutor) Execute(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindTicketEmail:
		return e.sendTicket(ctx, job.RegistrationID)
	case KindEventPublished:
		return e.announceEvent(ctx, job.EventID)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (e *JobExecutor) sendTicket(ctx context.Context, registrationID uint) error {
	reg, err := e.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("e.registrations.FindByID -> %w", err)
	}
	if reg.EmailSent {
		return nil
	}
	if reg.QRCode == "" {
		return fmt.Errorf("registration %d has no ticket yet", reg.ID)
	}

	user, err := e.users.FindByID(ctx, reg.ParticipantID)
	if err != nil {
		return fmt.Errorf("e.users.FindByID -> %w", err)
	}
	event, err := e.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return fmt.Errorf("e.events.FindByID -> %w", err)
	}

	png, err := ticket.DecodeQR(reg.QRCode)
	if err != nil {
		return fmt.Errorf("ticket.DecodeQR -> %w", err)
	}

	err = e.mailer.Send(ctx, Email{
		To:      user.Email,
		Subject: fmt.Sprintf("Your ticket for %s", event.Name),
		HTML:    ticketEmailBody(user, event, reg),
		Inline:  []Attachment{{Name: "ticket.png", Data: png}},
	})
	if err != nil {
		return fmt.Errorf("e.mailer.Send -> %w", err)
	}

	if err = e.registrations.MarkEmailSent(ctx, reg.ID); err != nil {
		return fmt.Errorf("e.registrations.MarkEmailSent -> %w", err)
	}

	return nil
}

func ticketEmailBody(user domain.User, event domain.Event, reg domain.Registration) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>You are registered for <strong>%s</strong>.</p>
<p>Ticket ID: <code>%s</code><br>Starts: %s<br>Venue: %s</p>
<p><img src="cid:ticket.png" alt="ticket QR code"></p>`,
		html.EscapeString(user.FullName()),
		html.EscapeString(event.Name),
		html.EscapeString(reg.TicketID),
		event.StartDate.Format(time.RFC1123),
		html.EscapeString(event.Venue),
	)
}

func (e *JobExecutor) announceEvent(ctx context.Context, eventID uint) error {
	event, err := e.events.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("e.events.FindByID -> %w", err)
	}

	organizer, err := e.organizers.FindByID(ctx, event.OrganizerID)
	if err != nil {
		return fmt.Errorf("e.organizers.FindByID -> %w", err)
	}
	if organizer.DiscordWebhook == "" {
		zap.L().Debug("organizer has no webhook", zap.Uint("organizer_id", organizer.ID))
		return nil
	}

	if err = e.webhook.Post(ctx, organizer.DiscordWebhook, publishedMessage(event)); err != nil {
		return fmt.Errorf("e.webhook.Post -> %w", err)
	}

	return nil
}

func publishedMessage(event domain.Event) WebhookMessage {
	venue := event.Venue
	if venue == "" {
		venue = "TBA"
	}

	return WebhookMessage{
		Embeds: []WebhookEmbed{{
			Title:       "New event: " + event.Name,
			Description: event.Description,
			Fields: []WebhookField{
				{Name: "Starts", Value: event.StartDate.Format(time.RFC1123), Inline: true},
				{Name: "Venue", Value: venue, Inline: true},
				{Name: "Type", Value: string(event.Type), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// Package notify runs side effects that must not block or fail the request
// that triggered them: ticket emails and organizer webhooks.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/metrics"
)

type Kind string

const (
	KindTicketEmail    Kind = "ticket_email"
	KindEventPublished Kind = "event_published_webhook"
)

type Job struct {
	Kind           Kind      `json:"kind"`
	RegistrationID uint      `json:"registration_id,omitempty"`
	EventID        uint      `json:"event_id,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

func TicketEmail(registrationID uint) Job {
	return Job{Kind: KindTicketEmail, RegistrationID: registrationID, EnqueuedAt: time.Now().UTC()}
}

func EventPublished(eventID uint) Job {
	return Job{Kind: KindEventPublished, EventID: eventID, EnqueuedAt: time.Now().UTC()}
}

// Dispatcher hands a job to the background. It never reports delivery errors
// to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job)
}

type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// run executes one job and records a failure without returning it.
func run(ctx context.Context, exec Executor, job Job) {
	if err := exec.Execute(ctx, job); err != nil {
		metrics.SideEffectFailures.WithLabelValues(string(job.Kind)).Inc()
		zap.L().Error("side effect failed",
			zap.String("kind", string(job.Kind)),
			zap.Uint("registration_id", job.RegistrationID),
			zap.Uint("event_id", job.EventID),
			zap.Error(err),
		)
	}
}

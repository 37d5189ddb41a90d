package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/metrics"
)

type ReconcilerEventRepository interface {
	FindDueForTransition(ctx context.Context, now time.Time) ([]domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error
}

// StatusReconciler persists the date driven transitions published -> ongoing
// and ongoing -> completed, so stored status catches up with effective status.
type StatusReconciler struct {
	events   ReconcilerEventRepository
	interval time.Duration
	now      func() time.Time
}

func NewStatusReconciler(events ReconcilerEventRepository, interval time.Duration) *StatusReconciler {
	if interval <= 0 {
		interval = time.Minute
	}

	return &StatusReconciler{
		events:   events,
		interval: interval,
		now:      utcNow,
	}
}

// Run reconciles once immediately and then on every tick until ctx is done.
func (r *StatusReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.Reconcile(ctx); err != nil {
			zap.L().Error("event status reconciliation failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("event statuses reconciled", zap.Int("transitions", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Reconcile applies every due transition and reports how many were persisted.
// Events changed concurrently are left for the next pass.
func (r *StatusReconciler) Reconcile(ctx context.Context) (int, error) {
	now := r.now()

	due, err := r.events.FindDueForTransition(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("r.events.FindDueForTransition -> %w", err)
	}

	applied := 0
	for _, event := range due {
		for _, target := range dueTransitions(event, now) {
			from := event.Status
			if err = event.TransitionTo(target); err != nil {
				break
			}

			err = r.events.UpdateStatus(ctx, event.ID, from, target)
			if errors.Is(err, ErrStatusChanged) {
				break
			}
			if err != nil {
				return applied, fmt.Errorf("r.events.UpdateStatus -> %w", err)
			}

			metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()
			applied++
		}
	}

	return applied, nil
}

func dueTransitions(event domain.Event, now time.Time) []domain.EventStatus {
	var targets []domain.EventStatus

	if event.Status == domain.EventPublished && !now.Before(event.StartDate) {
		targets = append(targets, domain.EventOngoing)
	}
	if (event.Status == domain.EventPublished || event.Status == domain.EventOngoing) && now.After(event.EndDate) {
		targets = append(targets, domain.EventCompleted)
	}

	return targets
}

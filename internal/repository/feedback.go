package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var ErrFeedbackExists = dao.ErrFeedbackExists

type FeedbackDAO interface {
	Insert(ctx context.Context, feedback dao.Feedback) (dao.Feedback, error)
	FindByEvent(ctx context.Context, eventID uint, rating int) ([]dao.Feedback, error)
	Exists(ctx context.Context, eventID uint, userHash string) (bool, error)
}

type FeedbackRepository struct {
	dao FeedbackDAO
}

func NewFeedbackRepository(dao FeedbackDAO) *FeedbackRepository {
	return &FeedbackRepository{
		dao: dao,
	}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	created, err := r.dao.Insert(ctx, dao.Feedback{
		EventID:  feedback.EventID,
		UserHash: feedback.UserHash,
		Rating:   feedback.Rating,
		Comment:  feedback.Comment,
	})
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return feedbackToDomain(created), nil
}

// FindByEvent lists feedback for the event. A rating of zero matches all ratings.
func (r *FeedbackRepository) FindByEvent(ctx context.Context, eventID uint, rating int) ([]domain.Feedback, error) {
	found, err := r.dao.FindByEvent(ctx, eventID, rating)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	feedback := make([]domain.Feedback, 0, len(found))
	for _, f := range found {
		feedback = append(feedback, feedbackToDomain(f))
	}

	return feedback, nil
}

func (r *FeedbackRepository) Exists(ctx context.Context, eventID uint, userHash string) (bool, error) {
	exists, err := r.dao.Exists(ctx, eventID, userHash)
	if err != nil {
		return false, fmt.Errorf("r.dao.Exists -> %w", err)
	}

	return exists, nil
}

func feedbackToDomain(f dao.Feedback) domain.Feedback {
	return domain.Feedback{
		ID:        f.ID,
		EventID:   f.EventID,
		UserHash:  f.UserHash,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}

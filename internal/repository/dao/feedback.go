package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Feedback struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   uint   `gorm:"not null;uniqueIndex:idx_feedbacks_event_user"`
	UserHash  string `gorm:"not null;uniqueIndex:idx_feedbacks_event_user"`
	Rating    int    `gorm:"not null"`
	Comment   string
	CreatedAt time.Time `gorm:"not null"`
}

type FeedbackDAO struct {
	db *gorm.DB
}

func NewFeedbackDAO(db *gorm.DB) *FeedbackDAO {
	return &FeedbackDAO{
		db: db,
	}
}

func (d *FeedbackDAO) Insert(ctx context.Context, feedback Feedback) (Feedback, error) {
	if err := d.db.WithContext(ctx).Create(&feedback).Error; err != nil {
		if isUniqueViolation(err) {
			return Feedback{}, ErrFeedbackExists
		}
		return Feedback{}, err
	}

	return feedback, nil
}

func (d *FeedbackDAO) FindByEvent(ctx context.Context, eventID uint, rating int) ([]Feedback, error) {
	var feedback []Feedback

	query := d.db.WithContext(ctx).Where("event_id = ?", eventID)
	if rating > 0 {
		query = query.Where("rating = ?", rating)
	}
	err := query.Order("created_at DESC").Find(&feedback).Error

	return feedback, err
}

func (d *FeedbackDAO) Exists(ctx context.Context, eventID uint, userHash string) (bool, error) {
	var count int64

	err := d.db.WithContext(ctx).Model(&Feedback{}).
		Where("event_id = ? AND user_hash = ?", eventID, userHash).
		Count(&count).Error

	return count > 0, err
}

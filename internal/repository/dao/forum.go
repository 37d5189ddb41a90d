package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type SenderRef struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

type Reaction struct {
	Emoji    string      `json:"emoji"`
	Reactors []SenderRef `json:"reactors"`
}

type ForumMessage struct {
	ID             uint   `gorm:"primaryKey"`
	EventID        uint   `gorm:"not null;index"`
	SenderKind     string `gorm:"not null"` // "participant" or "organizer"
	SenderID       uint   `gorm:"not null"`
	SenderName     string `gorm:"not null"`
	Content        string `gorm:"not null"`
	ParentID       *uint
	IsAnnouncement bool       `gorm:"not null"`
	IsPinned       bool       `gorm:"not null"`
	IsDeleted      bool       `gorm:"not null"`
	Reactions      []Reaction `gorm:"serializer:json"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

type ForumDAO struct {
	db *gorm.DB
}

func NewForumDAO(db *gorm.DB) *ForumDAO {
	return &ForumDAO{
		db: db,
	}
}

func (d *ForumDAO) Insert(ctx context.Context, msg ForumMessage) (ForumMessage, error) {
	if err := d.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return ForumMessage{}, err
	}

	return msg, nil
}

func (d *ForumDAO) FindByID(ctx context.Context, eventID, id uint) (ForumMessage, error) {
	var msg ForumMessage

	err := d.db.WithContext(ctx).Where("id = ? AND event_id = ?", id, eventID).First(&msg).Error
	if err != nil {
		return ForumMessage{}, notFound(err, ErrMessageNotFound)
	}

	return msg, nil
}

// FindByEvent lists visible messages, pinned ones first.
func (d *ForumDAO) FindByEvent(ctx context.Context, eventID uint, limit int) ([]ForumMessage, error) {
	var msgs []ForumMessage

	query := d.db.WithContext(ctx).
		Where("event_id = ? AND is_deleted = ?", eventID, false).
		Order("is_pinned DESC").
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&msgs).Error

	return msgs, err
}

func (d *ForumDAO) UpdateFlags(ctx context.Context, msg ForumMessage) error {
	return d.db.WithContext(ctx).Model(&ForumMessage{ID: msg.ID}).
		Select("is_pinned", "is_deleted").
		Updates(&ForumMessage{IsPinned: msg.IsPinned, IsDeleted: msg.IsDeleted}).Error
}

// UpdateReactions applies fn to the stored reactions while holding the row.
func (d *ForumDAO) UpdateReactions(ctx context.Context, eventID, id uint, fn func([]Reaction) []Reaction) (ForumMessage, error) {
	var msg ForumMessage

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ? AND event_id = ?", id, eventID).First(&msg).Error; err != nil {
			return notFound(err, ErrMessageNotFound)
		}
		msg.Reactions = fn(msg.Reactions)

		return tx.Model(&ForumMessage{ID: msg.ID}).
			Select("reactions").
			Updates(&ForumMessage{Reactions: msg.Reactions}).Error
	})
	if err != nil {
		return ForumMessage{}, err
	}

	return msg, nil
}

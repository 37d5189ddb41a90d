package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var ErrMessageNotFound = dao.ErrMessageNotFound

type ForumDAO interface {
	Insert(ctx context.Context, msg dao.ForumMessage) (dao.ForumMessage, error)
	FindByID(ctx context.Context, eventID, id uint) (dao.ForumMessage, error)
	FindByEvent(ctx context.Context, eventID uint, limit int) ([]dao.ForumMessage, error)
	UpdateFlags(ctx context.Context, msg dao.ForumMessage) error
	UpdateReactions(ctx context.Context, eventID, id uint, fn func([]dao.Reaction) []dao.Reaction) (dao.ForumMessage, error)
}

type ForumRepository struct {
	dao ForumDAO
}

func NewForumRepository(dao ForumDAO) *ForumRepository {
	return &ForumRepository{
		dao: dao,
	}
}

func (r *ForumRepository) Create(ctx context.Context, msg domain.ForumMessage) (domain.ForumMessage, error) {
	created, err := r.dao.Insert(ctx, messageToDAO(msg))
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return messageToDomain(created), nil
}

func (r *ForumRepository) FindByID(ctx context.Context, eventID, id uint) (domain.ForumMessage, error) {
	found, err := r.dao.FindByID(ctx, eventID, id)
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return messageToDomain(found), nil
}

func (r *ForumRepository) FindByEvent(ctx context.Context, eventID uint, limit int) ([]domain.ForumMessage, error) {
	found, err := r.dao.FindByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	msgs := make([]domain.ForumMessage, 0, len(found))
	for _, m := range found {
		msgs = append(msgs, messageToDomain(m))
	}

	return msgs, nil
}

func (r *ForumRepository) UpdateFlags(ctx context.Context, msg domain.ForumMessage) error {
	if err := r.dao.UpdateFlags(ctx, messageToDAO(msg)); err != nil {
		return fmt.Errorf("r.dao.UpdateFlags -> %w", err)
	}

	return nil
}

// ToggleReaction adds or removes the reaction of by on the message.
func (r *ForumRepository) ToggleReaction(ctx context.Context, eventID, id uint, emoji string, by domain.SenderRef) (domain.ForumMessage, error) {
	updated, err := r.dao.UpdateReactions(ctx, eventID, id, func(stored []dao.Reaction) []dao.Reaction {
		msg := domain.ForumMessage{Reactions: reactionsToDomain(stored)}
		msg.ToggleReaction(emoji, by)
		return reactionsToDAO(msg.Reactions)
	})
	if err != nil {
		return domain.ForumMessage{}, fmt.Errorf("r.dao.UpdateReactions -> %w", err)
	}

	return messageToDomain(updated), nil
}

func messageToDomain(m dao.ForumMessage) domain.ForumMessage {
	return domain.ForumMessage{
		ID:      m.ID,
		EventID: m.EventID,
		Sender: domain.Sender{
			SenderRef: domain.SenderRef{Kind: domain.SenderKind(m.SenderKind), ID: m.SenderID},
			Name:      m.SenderName,
		},
		Content:        m.Content,
		ParentID:       m.ParentID,
		IsAnnouncement: m.IsAnnouncement,
		IsPinned:       m.IsPinned,
		IsDeleted:      m.IsDeleted,
		Reactions:      reactionsToDomain(m.Reactions),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func messageToDAO(m domain.ForumMessage) dao.ForumMessage {
	return dao.ForumMessage{
		ID:             m.ID,
		EventID:        m.EventID,
		SenderKind:     string(m.Sender.Kind),
		SenderID:       m.Sender.ID,
		SenderName:     m.Sender.Name,
		Content:        m.Content,
		ParentID:       m.ParentID,
		IsAnnouncement: m.IsAnnouncement,
		IsPinned:       m.IsPinned,
		IsDeleted:      m.IsDeleted,
		Reactions:      reactionsToDAO(m.Reactions),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func reactionsToDomain(stored []dao.Reaction) []domain.Reaction {
	reactions := make([]domain.Reaction, 0, len(stored))
	for _, r := range stored {
		reaction := domain.Reaction{Emoji: r.Emoji}
		for _, who := range r.Reactors {
			reaction.Reactors = append(reaction.Reactors, domain.SenderRef{Kind: domain.SenderKind(who.Kind), ID: who.ID})
		}
		reactions = append(reactions, reaction)
	}

	return reactions
}

func reactionsToDAO(reactions []domain.Reaction) []dao.Reaction {
	stored := make([]dao.Reaction, 0, len(reactions))
	for _, r := range reactions {
		reaction := dao.Reaction{Emoji: r.Emoji}
		for _, who := range r.Reactors {
			reaction.Reactors = append(reaction.Reactors, dao.SenderRef{Kind: string(who.Kind), ID: who.ID})
		}
		stored = append(stored, reaction)
	}

	return stored
}

package repository

import (
	"context"
	"fmt"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrResetRequestNotFound = dao.ErrResetRequestNotFound
	ErrResetAlreadyPending  = dao.ErrResetAlreadyPending
	ErrResetNotPending      = dao.ErrResetNotPending
)

type PasswordResetDAO interface {
	Insert(ctx context.Context, req dao.PasswordResetRequest) (dao.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (dao.PasswordResetRequest, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]dao.PasswordResetRequest, error)
	List(ctx context.Context, status string) ([]dao.PasswordResetRequest, error)
	Resolve(ctx context.Context, req dao.PasswordResetRequest, passwordHash string) (dao.PasswordResetRequest, error)
	ClearPassword(ctx context.Context, id uint) error
}

type PasswordResetRepository struct {
	dao PasswordResetDAO
}

func NewPasswordResetRepository(dao PasswordResetDAO) *PasswordResetRepository {
	return &PasswordResetRepository{
		dao: dao,
	}
}

func (r *PasswordResetRepository) Create(ctx context.Context, req domain.PasswordResetRequest) (domain.PasswordResetRequest, error) {
	created, err := r.dao.Insert(ctx, resetToDAO(req))
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return resetToDomain(created), nil
}

func (r *PasswordResetRepository) FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return resetToDomain(found), nil
}

func (r *PasswordResetRepository) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.PasswordResetRequest, error) {
	found, err := r.dao.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizer -> %w", err)
	}

	return resetsToDomain(found), nil
}

func (r *PasswordResetRepository) List(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error) {
	found, err := r.dao.List(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	return resetsToDomain(found), nil
}

// Resolve stores the review of a pending request. A non-empty passwordHash
// replaces the organizer's password in the same write.
func (r *PasswordResetRepository) Resolve(ctx context.Context, req domain.PasswordResetRequest, passwordHash string) (domain.PasswordResetRequest, error) {
	resolved, err := r.dao.Resolve(ctx, resetToDAO(req), passwordHash)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.Resolve -> %w", err)
	}

	return resetToDomain(resolved), nil
}

func (r *PasswordResetRepository) ClearPassword(ctx context.Context, id uint) error {
	if err := r.dao.ClearPassword(ctx, id); err != nil {
		return fmt.Errorf("r.dao.ClearPassword -> %w", err)
	}

	return nil
}

func resetsToDomain(found []dao.PasswordResetRequest) []domain.PasswordResetRequest {
	reqs := make([]domain.PasswordResetRequest, 0, len(found))
	for _, req := range found {
		reqs = append(reqs, resetToDomain(req))
	}

	return reqs
}

func resetToDomain(r dao.PasswordResetRequest) domain.PasswordResetRequest {
	return domain.PasswordResetRequest{
		ID:           r.ID,
		OrganizerID:  r.OrganizerID,
		Reason:       r.Reason,
		Status:       domain.ResetStatus(r.Status),
		AdminComment: r.AdminComment,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		NewPassword:  r.NewPassword,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func resetToDAO(r domain.PasswordResetRequest) dao.PasswordResetRequest {
	return dao.PasswordResetRequest{
		ID:           r.ID,
		OrganizerID:  r.OrganizerID,
		Reason:       r.Reason,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		NewPassword:  r.NewPassword,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

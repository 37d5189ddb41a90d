package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrResetRequestNotFound = repository.ErrResetRequestNotFound
	ErrResetAlreadyPending  = repository.ErrResetAlreadyPending
	ErrResetNotPending      = repository.ErrResetNotPending
)

type PasswordResetRepository interface {
	Create(ctx context.Context, req domain.PasswordResetRequest) (domain.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.PasswordResetRequest, error)
	List(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error)
	Resolve(ctx context.Context, req domain.PasswordResetRequest, passwordHash string) (domain.PasswordResetRequest, error)
	ClearPassword(ctx context.Context, id uint) error
}

type ResetOrganizerRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Organizer, error)
}

type PasswordResetService struct {
	resets     PasswordResetRepository
	organizers ResetOrganizerRepository
	now        func() time.Time
}

func NewPasswordResetService(resets PasswordResetRepository, organizers ResetOrganizerRepository) *PasswordResetService {
	return &PasswordResetService{
		resets:     resets,
		organizers: organizers,
		now:        utcNow,
	}
}

// Request files a reset for the organizer. Only one request may be pending at a time.
func (s *PasswordResetService) Request(ctx context.Context, organizerID uint, reason string) (domain.PasswordResetRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.PasswordResetRequest{}, invalidInput("reason is required")
	}

	created, err := s.resets.Create(ctx, domain.PasswordResetRequest{
		OrganizerID: organizerID,
		Reason:      reason,
		Status:      domain.ResetPending,
	})
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resets.Create -> %w", err)
	}

	return created, nil
}

func (s *PasswordResetService) Mine(ctx context.Context, organizerID uint) ([]domain.PasswordResetRequest, error) {
	reqs, err := s.resets.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.resets.FindByOrganizer -> %w", err)
	}

	// the generated password is only shown to admins
	for i := range reqs {
		reqs[i].NewPassword = ""
	}

	return reqs, nil
}

func (s *PasswordResetService) List(ctx context.Context, status domain.ResetStatus) ([]domain.PasswordResetRequest, error) {
	reqs, err := s.resets.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("s.resets.List -> %w", err)
	}

	return reqs, nil
}

// Approve replaces the organizer password with a generated one and returns it.
func (s *PasswordResetService) Approve(ctx context.Context, adminID, id uint, comment string) (domain.PasswordResetRequest, domain.Credential, error) {
	req, err := s.resets.FindByID(ctx, id)
	if err != nil {
		return domain.PasswordResetRequest{}, domain.Credential{}, fmt.Errorf("s.resets.FindByID -> %w", err)
	}
	if req.Status != domain.ResetPending {
		return domain.PasswordResetRequest{}, domain.Credential{}, ErrResetNotPending
	}

	organizer, err := s.organizers.FindByID(ctx, req.OrganizerID)
	if err != nil {
		return domain.PasswordResetRequest{}, domain.Credential{}, fmt.Errorf("s.organizers.FindByID -> %w", err)
	}

	password, err := randomPassword(8)
	if err != nil {
		return domain.PasswordResetRequest{}, domain.Credential{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.PasswordResetRequest{}, domain.Credential{}, err
	}

	now := s.now()
	req.Status = domain.ResetApproved
	req.AdminComment = comment
	req.ReviewedBy = &adminID
	req.ReviewedAt = &now
	req.NewPassword = password

	resolved, err := s.resets.Resolve(ctx, req, hash)
	if err != nil {
		return domain.PasswordResetRequest{}, domain.Credential{}, fmt.Errorf("s.resets.Resolve -> %w", err)
	}

	return resolved, domain.Credential{Email: organizer.LoginEmail, Password: password}, nil
}

func (s *PasswordResetService) Reject(ctx context.Context, adminID, id uint, comment string) (domain.PasswordResetRequest, error) {
	req, err := s.resets.FindByID(ctx, id)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resets.FindByID -> %w", err)
	}
	if req.Status != domain.ResetPending {
		return domain.PasswordResetRequest{}, ErrResetNotPending
	}

	now := s.now()
	req.Status = domain.ResetRejected
	req.AdminComment = comment
	req.ReviewedBy = &adminID
	req.ReviewedAt = &now

	resolved, err := s.resets.Resolve(ctx, req, "")
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resets.Resolve -> %w", err)
	}

	return resolved, nil
}

// Acknowledge drops the stored plaintext once the admin has handed it over.
func (s *PasswordResetService) Acknowledge(ctx context.Context, id uint) error {
	if err := s.resets.ClearPassword(ctx, id); err != nil {
		return fmt.Errorf("s.resets.ClearPassword -> %w", err)
	}

	return nil
}

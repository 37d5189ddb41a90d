package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound  = dao.ErrRegistrationNotFound
	ErrDuplicateRegistration = dao.ErrDuplicateRegistration
	ErrEventFull             = domain.ErrEventFull
	ErrInsufficientStock     = dao.ErrInsufficientStock
	ErrAlreadyReviewed       = dao.ErrAlreadyReviewed
	ErrAlreadyCancelled      = dao.ErrAlreadyCancelled
)

type (
	Reservation     = dao.Reservation
	StockDelta      = dao.StockDelta
	PaymentApproval = dao.PaymentApproval
)

// StockDeltas turns per-item quantities into deltas ordered by item id, so
// concurrent writers touch rows in the same order.
func StockDeltas(quantities map[uint]int) []StockDelta {
	deltas := make([]StockDelta, 0, len(quantities))
	for id, q := range quantities {
		deltas = append(deltas, StockDelta{ItemID: id, Quantity: q})
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].ItemID < deltas[j].ItemID })

	return deltas
}

// capacityErr reports a lost capacity race with the same error the event
// precondition check uses.
func capacityErr(err error) error {
	if errors.Is(err, dao.ErrEventFull) {
		return ErrEventFull
	}

	return err
}

type RegistrationDAO interface {
	InsertWithReservation(ctx context.Context, reg dao.Registration, res dao.Reservation) (dao.Registration, error)
	ApprovePayment(ctx context.Context, id uint, approval dao.PaymentApproval) (dao.Registration, error)
	RejectPayment(ctx context.Context, id uint, reviewerID uint, at time.Time) (dao.Registration, error)
	Cancel(ctx context.Context, id uint, releaseSlot bool) error
	MarkEmailSent(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (dao.Registration, error)
	FindLive(ctx context.Context, participantID, eventID uint) (dao.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]dao.Registration, error)
	FindByEvent(ctx context.Context, eventID uint, statuses []string) ([]dao.Registration, error)
	FindPendingPayments(ctx context.Context, eventID uint) ([]dao.Registration, error)
	CountByEvent(ctx context.Context, eventID uint, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
	TopEventsSince(ctx context.Context, since time.Time, limit int) ([]dao.EventCount, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

// CreateWithReservation stores the registration and moves the event counters
// described by res atomically.
func (r *RegistrationRepository) CreateWithReservation(ctx context.Context, reg domain.Registration, res Reservation) (domain.Registration, error) {
	created, err := r.dao.InsertWithReservation(ctx, registrationToDAO(reg), res)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertWithReservation -> %w", capacityErr(err))
	}

	return registrationToDomain(created), nil
}

func (r *RegistrationRepository) ApprovePayment(ctx context.Context, id uint, approval PaymentApproval) (domain.Registration, error) {
	approved, err := r.dao.ApprovePayment(ctx, id, approval)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.ApprovePayment -> %w", capacityErr(err))
	}

	return registrationToDomain(approved), nil
}

func (r *RegistrationRepository) RejectPayment(ctx context.Context, id uint, reviewerID uint, at time.Time) (domain.Registration, error) {
	rejected, err := r.dao.RejectPayment(ctx, id, reviewerID, at)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.RejectPayment -> %w", err)
	}

	return registrationToDomain(rejected), nil
}

func (r *RegistrationRepository) Cancel(ctx context.Context, id uint, releaseSlot bool) error {
	if err := r.dao.Cancel(ctx, id, releaseSlot); err != nil {
		return fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkEmailSent(ctx context.Context, id uint) error {
	if err := r.dao.MarkEmailSent(ctx, id); err != nil {
		return fmt.Errorf("r.dao.MarkEmailSent -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return registrationToDomain(found), nil
}

func (r *RegistrationRepository) FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error) {
	found, err := r.dao.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByTicketID -> %w", err)
	}

	return registrationToDomain(found), nil
}

func (r *RegistrationRepository) FindLive(ctx context.Context, participantID, eventID uint) (domain.Registration, error) {
	found, err := r.dao.FindLive(ctx, participantID, eventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindLive -> %w", err)
	}

	return registrationToDomain(found), nil
}

func (r *RegistrationRepository) FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParticipant -> %w", err)
	}

	return registrationsToDomain(found), nil
}

func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID uint, statuses ...domain.RegistrationStatus) ([]domain.Registration, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}

	found, err := r.dao.FindByEvent(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	return registrationsToDomain(found), nil
}

func (r *RegistrationRepository) FindPendingPayments(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindPendingPayments(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPendingPayments -> %w", err)
	}

	return registrationsToDomain(found), nil
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID uint, status domain.RegistrationStatus) (int64, error) {
	count, err := r.dao.CountByEvent(ctx, eventID, string(status))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByEvent -> %w", err)
	}

	return count, nil
}

func (r *RegistrationRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.dao.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return count, nil
}

// TopEventsSince returns event ids ordered by registrations created since the
// given time, most registered first.
func (r *RegistrationRepository) TopEventsSince(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	rows, err := r.dao.TopEventsSince(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.TopEventsSince -> %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EventID)
	}

	return ids, nil
}

func registrationsToDomain(found []dao.Registration) []domain.Registration {
	regs := make([]domain.Registration, 0, len(found))
	for _, reg := range found {
		regs = append(regs, registrationToDomain(reg))
	}

	return regs
}

func registrationToDomain(r dao.Registration) domain.Registration {
	reg := domain.Registration{
		ID:                r.ID,
		TicketID:          r.TicketID,
		ParticipantID:     r.ParticipantID,
		EventID:           r.EventID,
		Type:              domain.EventType(r.Type),
		Status:            domain.RegistrationStatus(r.Status),
		TotalAmount:       r.TotalAmount,
		PaymentProofURL:   r.PaymentProofURL,
		PaymentStatus:     domain.PaymentStatus(r.PaymentStatus),
		PaymentReviewedBy: r.PaymentReviewedBy,
		PaymentReviewedAt: r.PaymentReviewedAt,
		TeamID:            r.TeamID,
		QRCode:            r.QRCode,
		EmailSent:         r.EmailSent,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}

	for _, fr := range r.FormResponses {
		reg.FormResponses = append(reg.FormResponses, domain.FormResponse{Label: fr.Label, Value: fr.Value})
	}
	for _, p := range r.MerchandisePurchases {
		reg.MerchandisePurchases = append(reg.MerchandisePurchases, domain.MerchandisePurchase{
			ItemID:      p.ItemID,
			VariantName: p.VariantName,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		})
	}

	return reg
}

func registrationToDAO(r domain.Registration) dao.Registration {
	reg := dao.Registration{
		ID:                r.ID,
		TicketID:          r.TicketID,
		ParticipantID:     r.ParticipantID,
		EventID:           r.EventID,
		Type:              string(r.Type),
		Status:            string(r.Status),
		TotalAmount:       r.TotalAmount,
		PaymentProofURL:   r.PaymentProofURL,
		PaymentStatus:     string(r.PaymentStatus),
		PaymentReviewedBy: r.PaymentReviewedBy,
		PaymentReviewedAt: r.PaymentReviewedAt,
		TeamID:            r.TeamID,
		QRCode:            r.QRCode,
		EmailSent:         r.EmailSent,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}

	for _, fr := range r.FormResponses {
		reg.FormResponses = append(reg.FormResponses, dao.FormResponse{Label: fr.Label, Value: fr.Value})
	}
	for _, p := range r.MerchandisePurchases {
		reg.MerchandisePurchases = append(reg.MerchandisePurchases, dao.MerchandisePurchase{
			ItemID:      p.ItemID,
			VariantName: p.VariantName,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		})
	}

	return reg
}

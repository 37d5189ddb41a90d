package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/metrics"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/pkg/ticket"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrEventNotOpen          = domain.ErrEventNotOpen
	ErrDeadlinePassed        = domain.ErrDeadlinePassed
	ErrEventFull             = domain.ErrEventFull
	ErrNotEligible           = domain.ErrNotEligible
	ErrDuplicateRegistration = repository.ErrDuplicateRegistration
	ErrInsufficientStock     = repository.ErrInsufficientStock
	ErrAlreadyReviewed       = repository.ErrAlreadyReviewed
	ErrAlreadyCancelled      = repository.ErrAlreadyCancelled
	ErrRegistrationNotFound  = repository.ErrRegistrationNotFound

	ErrPaymentProofRequired = errors.New("payment proof is required")
	ErrPurchaseLimit        = errors.New("purchase limit exceeded")
	ErrTeamRegistration     = errors.New("hackathon registrations are created through teams")
	ErrNoPaymentToReview    = errors.New("registration has no payment to review")
)

type RegistrationRepository interface {
	CreateWithReservation(ctx context.Context, reg domain.Registration, res repository.Reservation) (domain.Registration, error)
	ApprovePayment(ctx context.Context, id uint, approval repository.PaymentApproval) (domain.Registration, error)
	RejectPayment(ctx context.Context, id uint, reviewerID uint, at time.Time) (domain.Registration, error)
	Cancel(ctx context.Context, id uint, releaseSlot bool) error
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error)
	FindLive(ctx context.Context, participantID, eventID uint) (domain.Registration, error)
	FindByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error)
	FindPendingPayments(ctx context.Context, eventID uint) ([]domain.Registration, error)
}

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.Event, error)
}

type RegistrationUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.User, error)
}

type PurchaseRequest struct {
	ItemID   uint
	Quantity int
}

type RegistrationRequest struct {
	EventID         uint
	FormResponses   []domain.FormResponse
	Purchases       []PurchaseRequest
	PaymentProofURL string
}

type RegistrationService struct {
	registrations RegistrationRepository
	events        RegistrationEventRepository
	users         RegistrationUserRepository
	dispatcher    notify.Dispatcher
	now           func() time.Time
}

func NewRegistrationService(
	registrations RegistrationRepository,
	events RegistrationEventRepository,
	users RegistrationUserRepository,
	dispatcher notify.Dispatcher,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		users:         users,
		dispatcher:    dispatcher,
		now:           utcNow,
	}
}

// Register validates the attempt against the event rules and stores it
// together with the capacity, stock and form lock changes it implies.
func (s *RegistrationService) Register(ctx context.Context, participantID uint, req RegistrationRequest) (domain.Registration, error) {
	user, err := s.users.FindByID(ctx, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	now := s.now()
	if err = event.CheckRegistration(user.Type, now); err != nil {
		return domain.Registration{}, err
	}
	if _, err = s.registrations.FindLive(ctx, participantID, event.ID); err == nil {
		return domain.Registration{}, ErrDuplicateRegistration
	} else if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return domain.Registration{}, fmt.Errorf("s.registrations.FindLive -> %w", err)
	}

	reg := domain.Registration{
		TicketID:        ticket.NewTicketID(),
		ParticipantID:   participantID,
		EventID:         event.ID,
		Type:            event.Type,
		Status:          domain.RegistrationActive,
		PaymentProofURL: req.PaymentProofURL,
	}

	var res repository.Reservation
	switch event.Type {
	case domain.EventTypeMerchandise:
		res, err = s.prepareMerchandise(event, req, &reg)
	case domain.EventTypeNormal:
		res, err = s.prepareNormal(event, req, &reg)
	default:
		err = ErrTeamRegistration
	}
	if err != nil {
		return domain.Registration{}, err
	}

	if reg.PaymentStatus != domain.PaymentPending {
		if reg.QRCode, err = issueQR(reg); err != nil {
			return domain.Registration{}, err
		}
	}

	created, err := s.registrations.CreateWithReservation(ctx, reg, res)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.registrations.CreateWithReservation -> %w", err)
	}
	metrics.RegistrationsCreated.WithLabelValues(string(created.Type), string(created.PaymentStatus)).Inc()

	if created.QRCode != "" {
		s.dispatcher.Dispatch(ctx, notify.TicketEmail(created.ID))
	}

	return created, nil
}

func (s *RegistrationService) prepareMerchandise(event domain.Event, req RegistrationRequest, reg *domain.Registration) (repository.Reservation, error) {
	if len(req.Purchases) == 0 {
		return repository.Reservation{}, invalidInput("at least one merchandise item is required")
	}

	quantity := 0
	for _, p := range req.Purchases {
		item, ok := event.Item(p.ItemID)
		if !ok {
			return repository.Reservation{}, invalidInput("merchandise item %d does not exist", p.ItemID)
		}
		if p.Quantity < 1 {
			return repository.Reservation{}, invalidInput("quantity for %s must be positive", item.VariantName)
		}
		if item.Stock < p.Quantity {
			return repository.Reservation{}, ErrInsufficientStock
		}

		purchase := domain.MerchandisePurchase{
			ItemID:      item.ID,
			VariantName: item.VariantName,
			Quantity:    p.Quantity,
			UnitPrice:   item.Price,
		}
		reg.MerchandisePurchases = append(reg.MerchandisePurchases, purchase)
		reg.TotalAmount += purchase.Subtotal()
		quantity += p.Quantity
	}
	if event.PurchaseLimit > 0 && quantity > event.PurchaseLimit {
		return repository.Reservation{}, ErrPurchaseLimit
	}

	if event.RequiresPaymentApproval {
		if reg.PaymentProofURL == "" {
			return repository.Reservation{}, ErrPaymentProofRequired
		}
		reg.PaymentStatus = domain.PaymentPending

		return repository.Reservation{}, nil
	}

	reg.PaymentStatus = domain.PaymentNotRequired

	return repository.Reservation{
		ReserveSlot: true,
		Revenue:     reg.TotalAmount,
		Stock:       repository.StockDeltas(reg.StockDeltas()),
	}, nil
}

func (s *RegistrationService) prepareNormal(event domain.Event, req RegistrationRequest, reg *domain.Registration) (repository.Reservation, error) {
	responses, err := collectResponses(event.CustomForm, req.FormResponses)
	if err != nil {
		return repository.Reservation{}, err
	}
	reg.FormResponses = responses
	lockForm := len(event.CustomForm) > 0

	if event.RegistrationFee > 0 {
		if reg.PaymentProofURL == "" {
			return repository.Reservation{}, ErrPaymentProofRequired
		}
		reg.TotalAmount = event.RegistrationFee
		reg.PaymentStatus = domain.PaymentPending

		return repository.Reservation{LockForm: lockForm}, nil
	}

	reg.PaymentStatus = domain.PaymentNotRequired

	return repository.Reservation{ReserveSlot: true, LockForm: lockForm}, nil
}

// collectResponses keeps the answers to known fields and checks that every
// required field was answered.
func collectResponses(form []domain.FormField, answers []domain.FormResponse) ([]domain.FormResponse, error) {
	byLabel := make(map[string]string, len(answers))
	for _, a := range answers {
		byLabel[a.Label] = strings.TrimSpace(a.Value)
	}

	responses := make([]domain.FormResponse, 0, len(form))
	for _, field := range form {
		value := byLabel[field.Label]
		if field.Required && value == "" {
			return nil, invalidInput("%s is required", field.Label)
		}
		if value != "" && len(field.Options) > 0 && (field.Kind == domain.FieldDropdown || field.Kind == domain.FieldRadio) {
			if !containsString(field.Options, value) {
				return nil, invalidInput("%s must be one of %s", field.Label, strings.Join(field.Options, ", "))
			}
		}
		if value != "" {
			responses = append(responses, domain.FormResponse{Label: field.Label, Value: value})
		}
	}

	return responses, nil
}

func issueQR(reg domain.Registration) (string, error) {
	qr, err := ticket.EncodeQR(ticket.Payload{TicketID: reg.TicketID, EventID: reg.EventID, UserID: reg.ParticipantID})
	if err != nil {
		return "", fmt.Errorf("ticket.EncodeQR -> %w", err)
	}

	return qr, nil
}

// Cancel withdraws the participant's registration. The capacity slot is only
// given back when the registration held one.
func (s *RegistrationService) Cancel(ctx context.Context, participantID, id uint) error {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.registrations.FindByID -> %w", err)
	}
	if reg.ParticipantID != participantID {
		return ErrForbidden
	}
	if reg.Status == domain.RegistrationCancelled {
		return ErrAlreadyCancelled
	}

	if err = s.registrations.Cancel(ctx, id, reg.HoldsSlot()); err != nil {
		return fmt.Errorf("s.registrations.Cancel -> %w", err)
	}

	return nil
}

func (s *RegistrationService) Mine(ctx context.Context, participantID uint) ([]domain.RegistrationDetail, error) {
	regs, err := s.registrations.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.registrations.FindByParticipant -> %w", err)
	}

	ids := make([]uint, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.EventID)
	}
	events, err := s.events.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByIDs -> %w", err)
	}

	details := make([]domain.RegistrationDetail, 0, len(regs))
	for _, r := range regs {
		details = append(details, domain.RegistrationDetail{Registration: r, EventName: events[r.EventID].Name})
	}

	return details, nil
}

// Ticket looks a ticket up for its owner, the event's organizer or an admin.
func (s *RegistrationService) Ticket(ctx context.Context, principal domain.Principal, ticketID string) (domain.RegistrationDetail, error) {
	reg, err := s.registrations.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.RegistrationDetail{}, fmt.Errorf("s.registrations.FindByTicketID -> %w", err)
	}
	event, err := s.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.RegistrationDetail{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	owner := principal.Is(domain.RoleParticipant) && reg.ParticipantID == principal.ID
	if !owner && !canManage(principal, event) {
		return domain.RegistrationDetail{}, ErrForbidden
	}

	user, err := s.users.FindByID(ctx, reg.ParticipantID)
	if err != nil {
		return domain.RegistrationDetail{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	return domain.RegistrationDetail{Registration: reg, Participant: user, EventName: event.Name}, nil
}

func (s *RegistrationService) PendingPayments(ctx context.Context, principal domain.Principal, eventID uint) ([]domain.RegistrationDetail, error) {
	event, err := ownedEvent(ctx, s.events, principal, eventID)
	if err != nil {
		return nil, err
	}

	regs, err := s.registrations.FindPendingPayments(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.registrations.FindPendingPayments -> %w", err)
	}

	ids := make([]uint, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ParticipantID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	details := make([]domain.RegistrationDetail, 0, len(regs))
	for _, r := range regs {
		details = append(details, domain.RegistrationDetail{Registration: r, Participant: users[r.ParticipantID], EventName: event.Name})
	}

	return details, nil
}

// ReviewPayment approves or rejects a pending payment. Approval takes stock and
// a capacity slot and issues the ticket; if either is gone the registration
// stays pending.
func (s *RegistrationService) ReviewPayment(ctx context.Context, principal domain.Principal, id uint, approve bool) (domain.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.registrations.FindByID -> %w", err)
	}
	if _, err = ownedEvent(ctx, s.events, principal, reg.EventID); err != nil {
		return domain.Registration{}, err
	}
	if reg.PaymentStatus == domain.PaymentNotRequired {
		return domain.Registration{}, ErrNoPaymentToReview
	}
	if reg.PaymentStatus != domain.PaymentPending {
		return domain.Registration{}, ErrAlreadyReviewed
	}
	if reg.Status == domain.RegistrationCancelled {
		return domain.Registration{}, ErrAlreadyCancelled
	}

	action := "reject"
	if approve {
		action = "approve"
	}

	reviewed, err := s.review(ctx, principal.ID, reg, approve)
	if err != nil {
		metrics.PaymentReviews.WithLabelValues(action, reviewResult(err)).Inc()
		return domain.Registration{}, err
	}
	metrics.PaymentReviews.WithLabelValues(action, "ok").Inc()

	if approve {
		s.dispatcher.Dispatch(ctx, notify.TicketEmail(reviewed.ID))
	}

	return reviewed, nil
}

func (s *RegistrationService) review(ctx context.Context, reviewerID uint, reg domain.Registration, approve bool) (domain.Registration, error) {
	now := s.now()

	if !approve {
		rejected, err := s.registrations.RejectPayment(ctx, reg.ID, reviewerID, now)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.registrations.RejectPayment -> %w", err)
		}

		return rejected, nil
	}

	qr, err := issueQR(reg)
	if err != nil {
		return domain.Registration{}, err
	}

	approved, err := s.registrations.ApprovePayment(ctx, reg.ID, repository.PaymentApproval{
		ReviewerID: reviewerID,
		ReviewedAt: now,
		QRCode:     qr,
		Revenue:    reg.TotalAmount,
		Stock:      repository.StockDeltas(reg.StockDeltas()),
	})
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.registrations.ApprovePayment -> %w", err)
	}

	return approved, nil
}

func reviewResult(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrEventFull):
		return "event_full"
	case errors.Is(err, ErrAlreadyReviewed):
		return "already_reviewed"
	default:
		return "error"
	}
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}

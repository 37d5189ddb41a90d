package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrStatusChanged = dao.ErrStatusChanged
	ErrFormLocked    = dao.ErrFormLocked
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event, replaceItems bool) (dao.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) error
	UpdateForm(ctx context.Context, id uint, form []dao.FormField) error
	Delete(ctx context.Context, id uint) error
	IncrementView(ctx context.Context, id uint) error
	List(ctx context.Context, filter dao.EventFilter) ([]dao.Event, int64, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]dao.Event, error)
	FindDueForTransition(ctx context.Context, now time.Time) ([]dao.Event, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type EventFilter struct {
	Statuses     []domain.EventStatus
	Type         domain.EventType
	Eligibility  domain.Eligibility
	StartFrom    *time.Time
	StartTo      *time.Time
	OrganizerIDs []uint
	Limit        int
	Offset       int
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, eventToDAO(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return eventToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventToDomain(found), nil
}

// FindByIDs returns the events keyed by id, without merchandise items.
func (r *EventRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.Event, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	events := make(map[uint]domain.Event, len(found))
	for _, e := range found {
		events[e.ID] = eventToDomain(e)
	}

	return events, nil
}

// Update stores the edited event. It fails with ErrStatusChanged if the stored
// status differs from event.Status.
func (r *EventRepository) Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, eventToDAO(event), replaceItems)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return eventToDomain(updated), nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error {
	if err := r.dao.UpdateStatus(ctx, id, string(from), string(to)); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *EventRepository) UpdateForm(ctx context.Context, id uint, form []domain.FormField) error {
	if err := r.dao.UpdateForm(ctx, id, formToDAO(form)); err != nil {
		return fmt.Errorf("r.dao.UpdateForm -> %w", err)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) IncrementView(ctx context.Context, id uint) error {
	if err := r.dao.IncrementView(ctx, id); err != nil {
		return fmt.Errorf("r.dao.IncrementView -> %w", err)
	}

	return nil
}

func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, int64, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	found, total, err := r.dao.List(ctx, dao.EventFilter{
		Statuses:     statuses,
		Type:         string(filter.Type),
		Eligibility:  string(filter.Eligibility),
		StartFrom:    filter.StartFrom,
		StartTo:      filter.StartTo,
		OrganizerIDs: filter.OrganizerIDs,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.List -> %w", err)
	}

	return eventsToDomain(found), total, nil
}

func (r *EventRepository) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	found, err := r.dao.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizer -> %w", err)
	}

	return eventsToDomain(found), nil
}

func (r *EventRepository) FindDueForTransition(ctx context.Context, now time.Time) ([]domain.Event, error) {
	found, err := r.dao.FindDueForTransition(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindDueForTransition -> %w", err)
	}

	return eventsToDomain(found), nil
}

func (r *EventRepository) CountByStatus(ctx context.Context) (map[domain.EventStatus]int64, error) {
	counts, err := r.dao.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	byStatus := make(map[domain.EventStatus]int64, len(counts))
	for status, count := range counts {
		byStatus[domain.EventStatus(status)] = count
	}

	return byStatus, nil
}

func eventsToDomain(found []dao.Event) []domain.Event {
	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, eventToDomain(e))
	}

	return events
}

func eventToDomain(e dao.Event) domain.Event {
	event := domain.Event{
		ID:                      e.ID,
		OrganizerID:             e.OrganizerID,
		Name:                    e.Name,
		Description:             e.Description,
		Type:                    domain.EventType(e.Type),
		Eligibility:             domain.Eligibility(e.Eligibility),
		StartDate:               e.StartDate,
		EndDate:                 e.EndDate,
		RegistrationDeadline:    e.RegistrationDeadline,
		RegistrationLimit:       e.RegistrationLimit,
		RegistrationCount:       e.RegistrationCount,
		RegistrationFee:         e.RegistrationFee,
		Status:                  domain.EventStatus(e.Status),
		Revenue:                 e.Revenue,
		ViewCount:               e.ViewCount,
		Venue:                   e.Venue,
		ImageURL:                e.ImageURL,
		Tags:                    e.Tags,
		FormLocked:              e.FormLocked,
		PurchaseLimit:           e.PurchaseLimit,
		RequiresPaymentApproval: e.RequiresPaymentApproval,
		TeamSize:                e.TeamSize,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}

	for _, f := range e.CustomForm {
		event.CustomForm = append(event.CustomForm, domain.FormField{
			Label:    f.Label,
			Kind:     domain.FieldKind(f.Kind),
			Options:  f.Options,
			Required: f.Required,
		})
	}
	for _, item := range e.MerchandiseItems {
		event.MerchandiseItems = append(event.MerchandiseItems, domain.MerchandiseItem{
			ID:          item.ID,
			EventID:     item.EventID,
			VariantName: item.VariantName,
			Size:        item.Size,
			Color:       item.Color,
			SKU:         item.SKU,
			Stock:       item.Stock,
			Price:       item.Price,
		})
	}

	return event
}

func eventToDAO(e domain.Event) dao.Event {
	event := dao.Event{
		ID:                      e.ID,
		OrganizerID:             e.OrganizerID,
		Name:                    e.Name,
		Description:             e.Description,
		Type:                    string(e.Type),
		Eligibility:             string(e.Eligibility),
		StartDate:               e.StartDate,
		EndDate:                 e.EndDate,
		RegistrationDeadline:    e.RegistrationDeadline,
		RegistrationLimit:       e.RegistrationLimit,
		RegistrationCount:       e.RegistrationCount,
		RegistrationFee:         e.RegistrationFee,
		Revenue:                 e.Revenue,
		ViewCount:               e.ViewCount,
		Status:                  string(e.Status),
		Venue:                   e.Venue,
		ImageURL:                e.ImageURL,
		Tags:                    e.Tags,
		CustomForm:              formToDAO(e.CustomForm),
		FormLocked:              e.FormLocked,
		PurchaseLimit:           e.PurchaseLimit,
		RequiresPaymentApproval: e.RequiresPaymentApproval,
		TeamSize:                e.TeamSize,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}

	for _, item := range e.MerchandiseItems {
		event.MerchandiseItems = append(event.MerchandiseItems, dao.MerchandiseItem{
			ID:          item.ID,
			EventID:     item.EventID,
			VariantName: item.VariantName,
			Size:        item.Size,
			Color:       item.Color,
			SKU:         item.SKU,
			Stock:       item.Stock,
			Price:       item.Price,
		})
	}

	return event
}

func formToDAO(form []domain.FormField) []dao.FormField {
	fields := make([]dao.FormField, 0, len(form))
	for _, f := range form {
		fields = append(fields, dao.FormField{
			Label:    f.Label,
			Kind:     string(f.Kind),
			Options:  f.Options,
			Required: f.Required,
		})
	}

	return fields
}

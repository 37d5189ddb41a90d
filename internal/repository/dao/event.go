package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFormLocked = errors.New("registration form is locked")

type FormField struct {
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type Event struct {
	ID          uint   `gorm:"primaryKey"`
	OrganizerID uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null;index"` // "normal", "merchandise" or "hackathon"
	Eligibility string `gorm:"not null"`

	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null"`
	RegistrationDeadline time.Time `gorm:"not null"`

	RegistrationLimit int     `gorm:"not null"`
	RegistrationCount int     `gorm:"not null"`
	RegistrationFee   float64 `gorm:"not null"`
	Revenue           float64 `gorm:"not null"`
	ViewCount         int     `gorm:"not null"`
	Status            string  `gorm:"not null;index"`

	Venue    string
	ImageURL string
	Tags     []string `gorm:"serializer:json"`

	CustomForm []FormField `gorm:"serializer:json"`
	FormLocked bool        `gorm:"not null"`

	MerchandiseItems        []MerchandiseItem `gorm:"foreignKey:EventID"`
	PurchaseLimit           int               `gorm:"not null"`
	RequiresPaymentApproval bool              `gorm:"not null"`

	TeamSize int `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MerchandiseItem struct {
	ID          uint   `gorm:"primaryKey"`
	EventID     uint   `gorm:"not null;index"`
	VariantName string `gorm:"not null"`
	Size        string
	Color       string
	SKU         string
	Stock       int     `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// editableColumns are written by Update. Counters and the form lock are only
// changed through conditional updates.
var editableColumns = []string{
	"name", "description", "type", "eligibility", "start_date", "end_date", "registration_deadline",
	"registration_limit", "registration_fee", "venue", "image_url", "tags", "custom_form",
	"purchase_limit", "requires_payment_approval", "team_size",
}

type EventFilter struct {
	Statuses     []string
	Type         string
	Eligibility  string
	StartFrom    *time.Time
	StartTo      *time.Time
	OrganizerIDs []uint
	Limit        int
	Offset       int
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	if err := d.db.WithContext(ctx).Create(&event).Error; err != nil {
		return Event{}, err
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Preload("MerchandiseItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&event, id)
	if result.Error != nil {
		return Event{}, notFound(result.Error, ErrEventNotFound)
	}

	return event, nil
}

func (d *EventDAO) FindByIDs(ctx context.Context, ids []uint) ([]Event, error) {
	var events []Event
	if len(ids) == 0 {
		return events, nil
	}

	err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&events).Error

	return events, err
}

// Update writes the editable columns as long as the stored status still matches.
// Items are replaced when replaceItems is set.
func (d *EventDAO) Update(ctx context.Context, event Event, replaceItems bool) (Event, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{ID: event.ID}).
			Where("status = ?", event.Status).
			Select(editableColumns).
			Omit(clause.Associations).
			Updates(&event)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		if !replaceItems {
			return nil
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&MerchandiseItem{}).Error; err != nil {
			return err
		}
		for i := range event.MerchandiseItems {
			event.MerchandiseItems[i].ID = 0
			event.MerchandiseItems[i].EventID = event.ID
		}
		if len(event.MerchandiseItems) > 0 {
			return tx.Create(&event.MerchandiseItems).Error
		}

		return nil
	})
	if err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

// UpdateStatus moves the event from one status to another. It fails with
// ErrStatusChanged when the stored status is no longer from.
func (d *EventDAO) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := d.db.WithContext(ctx).Model(&Event{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

func (d *EventDAO) UpdateForm(ctx context.Context, id uint, form []FormField) error {
	result := d.db.WithContext(ctx).Model(&Event{ID: id}).
		Where("form_locked = ?", false).
		Select("custom_form").
		Updates(&Event{CustomForm: form})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFormLocked
	}

	return nil
}

func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&MerchandiseItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}

func (d *EventDAO) IncrementView(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (d *EventDAO) List(ctx context.Context, filter EventFilter) ([]Event, int64, error) {
	var (
		events []Event
		total  int64
	)

	query := d.db.WithContext(ctx).Model(&Event{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Eligibility != "" {
		query = query.Where("eligibility IN ?", []string{filter.Eligibility, "all"})
	}
	if filter.StartFrom != nil {
		query = query.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_date <= ?", *filter.StartTo)
	}
	if filter.OrganizerIDs != nil {
		query = query.Where("organizer_id IN ?", filter.OrganizerIDs)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (d *EventDAO) FindByOrganizer(ctx context.Context, organizerID uint) ([]Event, error) {
	var events []Event

	err := d.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("start_date DESC").
		Find(&events).Error

	return events, err
}

// FindDueForTransition lists published events that have started and ongoing
// events that have ended.
func (d *EventDAO) FindDueForTransition(ctx context.Context, now time.Time) ([]Event, error) {
	var events []Event

	err := d.db.WithContext(ctx).
		Where("(status = ? AND start_date <= ?) OR (status = ? AND end_date < ?)", "published", now, "ongoing", now).
		Find(&events).Error

	return events, err
}

func (d *EventDAO) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	err := d.db.WithContext(ctx).Model(&Event{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	return counts, nil
}

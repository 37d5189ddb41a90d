package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type FormResponse struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type MerchandisePurchase struct {
	ItemID      uint    `json:"item_id"`
	VariantName string  `json:"variant_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type Registration struct {
	ID       uint   `gorm:"primaryKey"`
	TicketID string `gorm:"uniqueIndex;not null"`

	// At most one non-cancelled registration per participant and event.
	ParticipantID uint `gorm:"not null;uniqueIndex:idx_registrations_live_participant_event,where:status <> 'cancelled'"`
	EventID       uint `gorm:"not null;index;uniqueIndex:idx_registrations_live_participant_event,where:status <> 'cancelled'"`

	Type                 string                `gorm:"not null"`
	Status               string                `gorm:"not null;index"`
	FormResponses        []FormResponse        `gorm:"serializer:json"`
	MerchandisePurchases []MerchandisePurchase `gorm:"serializer:json"`
	TotalAmount          float64               `gorm:"not null"`
	PaymentProofURL      string
	PaymentStatus        string `gorm:"not null;index"`
	PaymentReviewedBy    *uint
	PaymentReviewedAt    *time.Time
	TeamID               *uint `gorm:"index"`
	QRCode               string
	EmailSent            bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// StockDelta is a quantity taken from one merchandise item.
type StockDelta struct {
	ItemID   uint
	Quantity int
}

// Reservation describes the counters that move together with a registration write.
type Reservation struct {
	ReserveSlot bool
	Revenue     float64
	Stock       []StockDelta
	LockForm    bool
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// takeStock decrements every item only if enough stock is left.
func takeStock(tx *gorm.DB, eventID uint, deltas []StockDelta) error {
	for _, delta := range deltas {
		result := tx.Model(&MerchandiseItem{}).
			Where("id = ? AND event_id = ? AND stock >= ?", delta.ItemID, eventID, delta.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", delta.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientStock
		}
	}

	return nil
}

// reserveSlot increments the registration counter only while it is below the limit.
func reserveSlot(tx *gorm.DB, eventID uint, revenue float64) error {
	result := tx.Model(&Event{}).
		Where("id = ? AND registration_count < registration_limit", eventID).
		UpdateColumns(map[string]interface{}{
			"registration_count": gorm.Expr("registration_count + ?", 1),
			"revenue":            gorm.Expr("revenue + ?", revenue),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventFull
	}

	return nil
}

func hasLiveRegistration(tx *gorm.DB, participantID, eventID uint) (bool, error) {
	var count int64

	err := tx.Model(&Registration{}).
		Where("participant_id = ? AND event_id = ? AND status <> ?", participantID, eventID, "cancelled").
		Count(&count).Error

	return count > 0, err
}

// InsertWithReservation creates the registration and applies the reservation in
// one transaction. Nothing is written when any step fails.
func (d *RegistrationDAO) InsertWithReservation(ctx context.Context, reg Registration, res Reservation) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := hasLiveRegistration(tx, reg.ParticipantID, reg.EventID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRegistration
		}

		if res.ReserveSlot {
			if err = reserveSlot(tx, reg.EventID, res.Revenue); err != nil {
				return err
			}
		}
		if err = takeStock(tx, reg.EventID, res.Stock); err != nil {
			return err
		}
		if res.LockForm {
			if err = tx.Model(&Event{}).Where("id = ?", reg.EventID).UpdateColumn("form_locked", true).Error; err != nil {
				return err
			}
		}

		if err = tx.Create(&reg).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRegistration
			}
			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

type PaymentApproval struct {
	ReviewerID uint
	ReviewedAt time.Time
	QRCode     string
	Revenue    float64
	Stock      []StockDelta
}

// ApprovePayment resolves a pending registration, taking stock and a capacity slot.
// On ErrInsufficientStock or ErrEventFull the registration stays pending.
func (d *RegistrationDAO) ApprovePayment(ctx context.Context, id uint, approval PaymentApproval) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, id).Error; err != nil {
			return notFound(err, ErrRegistrationNotFound)
		}

		result := tx.Model(&Registration{}).
			Where("id = ? AND payment_status = ?", id, "pending").
			Updates(map[string]interface{}{
				"payment_status":      "approved",
				"payment_reviewed_by": approval.ReviewerID,
				"payment_reviewed_at": approval.ReviewedAt,
				"qr_code":             approval.QRCode,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}

		if err := takeStock(tx, reg.EventID, approval.Stock); err != nil {
			return err
		}
		if err := reserveSlot(tx, reg.EventID, approval.Revenue); err != nil {
			return err
		}

		return tx.First(&reg, id).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func (d *RegistrationDAO) RejectPayment(ctx context.Context, id uint, reviewerID uint, at time.Time) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, id).Error; err != nil {
			return notFound(err, ErrRegistrationNotFound)
		}

		result := tx.Model(&Registration{}).
			Where("id = ? AND payment_status = ?", id, "pending").
			Updates(map[string]interface{}{
				"payment_status":      "rejected",
				"payment_reviewed_by": reviewerID,
				"payment_reviewed_at": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}

		return tx.First(&reg, id).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// Cancel marks the registration cancelled and gives its capacity slot back when
// it held one. Revenue is left as recorded.
func (d *RegistrationDAO) Cancel(ctx context.Context, id uint, releaseSlot bool) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if err := tx.First(&reg, id).Error; err != nil {
			return notFound(err, ErrRegistrationNotFound)
		}

		result := tx.Model(&Registration{}).
			Where("id = ? AND status <> ?", id, "cancelled").
			Update("status", "cancelled")
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyCancelled
		}

		if !releaseSlot {
			return nil
		}

		return tx.Model(&Event{}).
			Where("id = ? AND registration_count > 0", reg.EventID).
			UpdateColumn("registration_count", gorm.Expr("registration_count - ?", 1)).Error
	})
}

func (d *RegistrationDAO) MarkEmailSent(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Model(&Registration{}).Where("id = ?", id).Update("email_sent", true).Error
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	if err := d.db.WithContext(ctx).First(&reg, id).Error; err != nil {
		return Registration{}, notFound(err, ErrRegistrationNotFound)
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByTicketID(ctx context.Context, ticketID string) (Registration, error) {
	var reg Registration

	if err := d.db.WithContext(ctx).First(&reg, "ticket_id = ?", ticketID).Error; err != nil {
		return Registration{}, notFound(err, ErrRegistrationNotFound)
	}

	return reg, nil
}

// FindLive returns the non-cancelled registration of a participant for an event.
func (d *RegistrationDAO) FindLive(ctx context.Context, participantID, eventID uint) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).
		Where("participant_id = ? AND event_id = ? AND status <> ?", participantID, eventID, "cancelled").
		First(&reg).Error
	if err != nil {
		return Registration{}, notFound(err, ErrRegistrationNotFound)
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByParticipant(ctx context.Context, participantID uint) ([]Registration, error) {
	var regs []Registration

	err := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Find(&regs).Error

	return regs, err
}

func (d *RegistrationDAO) FindByEvent(ctx context.Context, eventID uint, statuses []string) ([]Registration, error) {
	var regs []Registration

	query := d.db.WithContext(ctx).Where("event_id = ?", eventID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at ASC").Find(&regs).Error

	return regs, err
}

func (d *RegistrationDAO) FindPendingPayments(ctx context.Context, eventID uint) ([]Registration, error) {
	var regs []Registration

	err := d.db.WithContext(ctx).
		Where("event_id = ? AND payment_status = ? AND status <> ?", eventID, "pending", "cancelled").
		Order("created_at ASC").
		Find(&regs).Error

	return regs, err
}

func (d *RegistrationDAO) CountByEvent(ctx context.Context, eventID uint, status string) (int64, error) {
	var count int64

	err := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error

	return count, err
}

func (d *RegistrationDAO) Count(ctx context.Context) (int64, error) {
	var count int64

	err := d.db.WithContext(ctx).Model(&Registration{}).Where("status <> ?", "cancelled").Count(&count).Error

	return count, err
}

type EventCount struct {
	EventID uint
	Count   int64
}

// TopEventsSince ranks events by active registrations created since the given time.
func (d *RegistrationDAO) TopEventsSince(ctx context.Context, since time.Time, limit int) ([]EventCount, error) {
	var rows []EventCount

	err := d.db.WithContext(ctx).Model(&Registration{}).
		Select("event_id, COUNT(*) AS count").
		Where("created_at >= ? AND status = ?", since, "active").
		Group("event_id").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error

	return rows, err
}

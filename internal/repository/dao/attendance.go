package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type OverrideAudit struct {
	By     uint      `json:"by"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
	Action string    `json:"action"`
}

type Attendance struct {
	ID               uint      `gorm:"primaryKey"`
	EventID          uint      `gorm:"not null;uniqueIndex:idx_attendances_event_registration"`
	RegistrationID   uint      `gorm:"not null;uniqueIndex:idx_attendances_event_registration"`
	ParticipantID    uint      `gorm:"not null"`
	CheckedInAt      time.Time `gorm:"not null"`
	Method           string    `gorm:"not null"`
	MarkedBy         uint      `gorm:"not null"`
	IsManualOverride bool      `gorm:"not null"`
	OverrideReason   string
	Audit            []OverrideAudit `gorm:"serializer:json"`
}

type AttendanceDAO struct {
	db *gorm.DB
}

func NewAttendanceDAO(db *gorm.DB) *AttendanceDAO {
	return &AttendanceDAO{
		db: db,
	}
}

// Insert creates the check-in. When the registration is already checked in the
// existing record is returned together with ErrAlreadyCheckedIn.
func (d *AttendanceDAO) Insert(ctx context.Context, attendance Attendance) (Attendance, error) {
	err := d.db.WithContext(ctx).Create(&attendance).Error
	if err == nil {
		return attendance, nil
	}
	if !isUniqueViolation(err) {
		return Attendance{}, err
	}

	existing, findErr := d.FindByRegistration(ctx, attendance.EventID, attendance.RegistrationID)
	if findErr != nil {
		return Attendance{}, findErr
	}

	return existing, ErrAlreadyCheckedIn
}

func (d *AttendanceDAO) FindByRegistration(ctx context.Context, eventID, registrationID uint) (Attendance, error) {
	var attendance Attendance

	err := d.db.WithContext(ctx).
		Where("event_id = ? AND registration_id = ?", eventID, registrationID).
		First(&attendance).Error
	if err != nil {
		return Attendance{}, notFound(err, ErrAttendanceNotFound)
	}

	return attendance, nil
}

func (d *AttendanceDAO) FindByID(ctx context.Context, id uint) (Attendance, error) {
	var attendance Attendance

	if err := d.db.WithContext(ctx).First(&attendance, id).Error; err != nil {
		return Attendance{}, notFound(err, ErrAttendanceNotFound)
	}

	return attendance, nil
}

func (d *AttendanceDAO) FindByEvent(ctx context.Context, eventID uint) ([]Attendance, error) {
	var records []Attendance

	err := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("checked_in_at DESC").
		Find(&records).Error

	return records, err
}

func (d *AttendanceDAO) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64

	err := d.db.WithContext(ctx).Model(&Attendance{}).Where("event_id = ?", eventID).Count(&count).Error

	return count, err
}

func (d *AttendanceDAO) Delete(ctx context.Context, eventID, id uint) (Attendance, error) {
	var attendance Attendance

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND event_id = ?", id, eventID).First(&attendance).Error; err != nil {
			return notFound(err, ErrAttendanceNotFound)
		}

		return tx.Delete(&Attendance{}, id).Error
	})
	if err != nil {
		return Attendance{}, err
	}

	return attendance, nil
}

package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type PasswordResetRequest struct {
	ID           uint   `gorm:"primaryKey"`
	OrganizerID  uint   `gorm:"not null;index"`
	Reason       string `gorm:"not null"`
	Status       string `gorm:"not null;index"`
	AdminComment string
	ReviewedBy   *uint
	ReviewedAt   *time.Time
	NewPassword  string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PasswordResetDAO struct {
	db *gorm.DB
}

func NewPasswordResetDAO(db *gorm.DB) *PasswordResetDAO {
	return &PasswordResetDAO{
		db: db,
	}
}

// Insert creates the request unless the organizer already has a pending one.
func (d *PasswordResetDAO) Insert(ctx context.Context, req PasswordResetRequest) (PasswordResetRequest, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&PasswordResetRequest{}).
			Where("organizer_id = ? AND status = ?", req.OrganizerID, "pending").
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrResetAlreadyPending
		}

		return tx.Create(&req).Error
	})
	if err != nil {
		return PasswordResetRequest{}, err
	}

	return req, nil
}

func (d *PasswordResetDAO) FindByID(ctx context.Context, id uint) (PasswordResetRequest, error) {
	var req PasswordResetRequest

	if err := d.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return PasswordResetRequest{}, notFound(err, ErrResetRequestNotFound)
	}

	return req, nil
}

func (d *PasswordResetDAO) FindByOrganizer(ctx context.Context, organizerID uint) ([]PasswordResetRequest, error) {
	var reqs []PasswordResetRequest

	err := d.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&reqs).Error

	return reqs, err
}

func (d *PasswordResetDAO) List(ctx context.Context, status string) ([]PasswordResetRequest, error) {
	var reqs []PasswordResetRequest

	query := d.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&reqs).Error

	return reqs, err
}

// Resolve moves a pending request to approved or rejected. When passwordHash is
// set the organizer password is replaced in the same transaction.
func (d *PasswordResetDAO) Resolve(ctx context.Context, req PasswordResetRequest, passwordHash string) (PasswordResetRequest, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&PasswordResetRequest{ID: req.ID}).
			Where("status = ?", "pending").
			Select("status", "admin_comment", "reviewed_by", "reviewed_at", "new_password").
			Updates(&req)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResetNotPending
		}

		if passwordHash == "" {
			return nil
		}

		result = tx.Model(&Organizer{}).Where("id = ?", req.OrganizerID).Update("password", passwordHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrganizerNotFound
		}

		return nil
	})
	if err != nil {
		return PasswordResetRequest{}, err
	}

	return d.FindByID(ctx, req.ID)
}

func (d *PasswordResetDAO) ClearPassword(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Model(&PasswordResetRequest{ID: id}).
		Select("new_password").
		Updates(&PasswordResetRequest{NewPassword: ""})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetRequestNotFound
	}

	return nil
}

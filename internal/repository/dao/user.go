package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	FirstName          string `gorm:"not null"`
	LastName           string `gorm:"not null"`
	Type               string `gorm:"not null"` // "IIIT" or "Non-IIIT"
	Role               string `gorm:"not null;index"`
	ContactNumber      string
	CollegeOrg         string
	Interests          []string `gorm:"serializer:json"`
	FollowedOrganizers []uint   `gorm:"serializer:json"`
	Onboarded          bool     `gorm:"not null"`
	IsActive           bool     `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Organizer struct {
	ID uint `gorm:"primaryKey"`

	LoginEmail string `gorm:"unique;not null"`
	Password   string `gorm:"not null"`

	Name           string `gorm:"not null"`
	Category       string
	Description    string
	ContactEmail   string
	DiscordWebhook string
	Status         string `gorm:"not null;index"` // "active", "disabled" or "archived"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) Update(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Save(&user)
	if result.Error != nil {
		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) UpdateActive(ctx context.Context, id uint, active bool) error {
	result := d.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		return User{}, notFound(result.Error, ErrUserNotFound)
	}

	return user, nil
}

func (d *UserDAO) FindByIDs(ctx context.Context, ids []uint) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}

	result := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		return User{}, notFound(result.Error, ErrUserNotFound)
	}

	return user, nil
}

func (d *UserDAO) ExistsByRole(ctx context.Context, role string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&User{}).Where("role = ?", role).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// Search lists users whose name or email contains the term, newest first.
func (d *UserDAO) Search(ctx context.Context, term string, role string, limit, offset int) ([]User, int64, error) {
	var (
		users []User
		total int64
	)

	query := d.db.WithContext(ctx).Model(&User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (d *UserDAO) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64

	err := d.db.WithContext(ctx).Model(&User{}).Where("role = ?", role).Count(&count).Error

	return count, err
}

type OrganizerDAO struct {
	db *gorm.DB
}

func NewOrganizerDAO(db *gorm.DB) *OrganizerDAO {
	return &OrganizerDAO{
		db: db,
	}
}

func (d *OrganizerDAO) Insert(ctx context.Context, organizer Organizer) (Organizer, error) {
	result := d.db.WithContext(ctx).Create(&organizer)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Organizer{}, ErrOrganizerEmailExists
		}

		return Organizer{}, result.Error
	}

	return organizer, nil
}

func (d *OrganizerDAO) Update(ctx context.Context, organizer Organizer) (Organizer, error) {
	result := d.db.WithContext(ctx).Save(&organizer)
	if result.Error != nil {
		return Organizer{}, result.Error
	}

	return organizer, nil
}

func (d *OrganizerDAO) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).Model(&Organizer{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizerNotFound
	}

	return nil
}

func (d *OrganizerDAO) UpdatePassword(ctx context.Context, id uint, hash string) error {
	result := d.db.WithContext(ctx).Model(&Organizer{}).Where("id = ?", id).Update("password", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizerNotFound
	}

	return nil
}

func (d *OrganizerDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Organizer{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizerNotFound
	}

	return nil
}

func (d *OrganizerDAO) FindByID(ctx context.Context, id uint) (Organizer, error) {
	var organizer Organizer

	result := d.db.WithContext(ctx).First(&organizer, id)
	if result.Error != nil {
		return Organizer{}, notFound(result.Error, ErrOrganizerNotFound)
	}

	return organizer, nil
}

func (d *OrganizerDAO) FindByLoginEmail(ctx context.Context, email string) (Organizer, error) {
	var organizer Organizer

	result := d.db.WithContext(ctx).First(&organizer, "login_email = ?", email)
	if result.Error != nil {
		return Organizer{}, notFound(result.Error, ErrOrganizerNotFound)
	}

	return organizer, nil
}

func (d *OrganizerDAO) List(ctx context.Context, status string) ([]Organizer, error) {
	var organizers []Organizer

	query := d.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&organizers).Error; err != nil {
		return nil, err
	}

	return organizers, nil
}

func (d *OrganizerDAO) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64

	query := d.db.WithContext(ctx).Model(&Organizer{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error

	return count, err
}

package dao

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Organizer{},
		&Event{},
		&MerchandiseItem{},
		&Registration{},
		&Team{},
		&TeamMember{},
		&Attendance{},
		&ForumMessage{},
		&Feedback{},
		&PasswordResetRequest{},
	)
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support row locks.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	return tx
}

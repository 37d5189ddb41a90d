package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberOutcome struct {
	ParticipantID  uint      `json:"participant_id"`
	Status         string    `json:"status"`
	RegistrationID *uint     `json:"registration_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	At             time.Time `json:"at"`
}

type Team struct {
	ID         uint         `gorm:"primaryKey"`
	Name       string       `gorm:"not null"`
	EventID    uint         `gorm:"not null;index"`
	LeaderID   uint         `gorm:"not null;index"`
	Members    []TeamMember `gorm:"foreignKey:TeamID"`
	MaxSize    int          `gorm:"not null"`
	InviteCode string       `gorm:"uniqueIndex;not null"`
	Status     string       `gorm:"not null"`

	Outcomes []MemberOutcome `gorm:"serializer:json"`
	Version  int             `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TeamMember struct {
	ID            uint   `gorm:"primaryKey"`
	TeamID        uint   `gorm:"not null;uniqueIndex:idx_team_members_team_participant"`
	ParticipantID uint   `gorm:"not null;uniqueIndex:idx_team_members_team_participant;index"`
	Position      int    `gorm:"not null"`
	Status        string `gorm:"not null"`
	Origin        string `gorm:"not null"`
	RespondedAt   *time.Time
}

type TeamDAO struct {
	db *gorm.DB
}

func NewTeamDAO(db *gorm.DB) *TeamDAO {
	return &TeamDAO{
		db: db,
	}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (d *TeamDAO) Insert(ctx context.Context, team Team) (Team, error) {
	team.Version = 1
	if err := d.db.WithContext(ctx).Create(&team).Error; err != nil {
		return Team{}, err
	}

	return team, nil
}

// Save writes the team when its version still matches and replaces its member list.
func (d *TeamDAO) Save(ctx context.Context, team Team) (Team, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Team{ID: team.ID}).
			Where("version = ?", team.Version).
			Select("name", "status", "outcomes", "version").
			Omit(clause.Associations).
			Updates(&Team{Name: team.Name, Status: team.Status, Outcomes: team.Outcomes, Version: team.Version + 1})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTeamVersionChanged
		}

		if err := tx.Where("team_id = ?", team.ID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		for i := range team.Members {
			team.Members[i].ID = 0
			team.Members[i].TeamID = team.ID
			team.Members[i].Position = i
		}
		if len(team.Members) > 0 {
			return tx.Create(&team.Members).Error
		}

		return nil
	})
	if err != nil {
		return Team{}, err
	}

	return d.FindByID(ctx, team.ID)
}

func (d *TeamDAO) FindByID(ctx context.Context, id uint) (Team, error) {
	var team Team

	if err := preloadMembers(d.db.WithContext(ctx)).First(&team, id).Error; err != nil {
		return Team{}, notFound(err, ErrTeamNotFound)
	}

	return team, nil
}

func (d *TeamDAO) FindByInviteCode(ctx context.Context, code string) (Team, error) {
	var team Team

	if err := preloadMembers(d.db.WithContext(ctx)).First(&team, "invite_code = ?", code).Error; err != nil {
		return Team{}, notFound(err, ErrTeamNotFound)
	}

	return team, nil
}

func (d *TeamDAO) FindByEvent(ctx context.Context, eventID uint) ([]Team, error) {
	var teams []Team

	err := preloadMembers(d.db.WithContext(ctx)).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&teams).Error

	return teams, err
}

// FindByParticipant lists teams the participant leads or holds an entry in.
func (d *TeamDAO) FindByParticipant(ctx context.Context, participantID uint) ([]Team, error) {
	var teams []Team

	memberOf := d.db.Model(&TeamMember{}).Select("team_id").Where("participant_id = ?", participantID)
	err := preloadMembers(d.db.WithContext(ctx)).
		Where("leader_id = ? OR id IN (?)", participantID, memberOf).
		Order("created_at DESC").
		Find(&teams).Error

	return teams, err
}

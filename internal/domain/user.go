package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "Non-IIIT"
)

// ParticipantTypeForEmail classifies an email address against the campus domains.
func ParticipantTypeForEmail(email string, campusDomains []string) ParticipantType {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ParticipantNonIIIT
	}

	domain := strings.ToLower(email[at+1:])
	for _, d := range campusDomains {
		if domain == strings.ToLower(d) {
			return ParticipantIIIT
		}
	}

	return ParticipantNonIIIT
}

// User is a participant or an admin account.
type User struct {
	ID                 uint            `json:"id"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	Password           string          `json:"-"`
	Type               ParticipantType `json:"type"`
	Role               Role            `json:"role"`
	ContactNumber      string          `json:"contact_number"`
	CollegeOrg         string          `json:"college_org"`
	Interests          []string        `json:"interests"`
	FollowedOrganizers []uint          `json:"followed_organizers"`
	Onboarded          bool            `json:"onboarded"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) Follows(organizerID uint) bool {
	for _, id := range u.FollowedOrganizers {
		if id == organizerID {
			return true
		}
	}

	return false
}

type OrganizerStatus string

const (
	OrganizerActive   OrganizerStatus = "active"
	OrganizerDisabled OrganizerStatus = "disabled"
	OrganizerArchived OrganizerStatus = "archived"
)

// Organizer is a club or council account provisioned by an admin.
type Organizer struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	ContactEmail   string          `json:"contact_email"`
	LoginEmail     string          `json:"login_email"`
	Password       string          `json:"-"`
	DiscordWebhook string          `json:"discord_webhook,omitempty"`
	Status         OrganizerStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o Organizer) IsActive() bool {
	return o.Status == OrganizerActive
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

func (p Principal) Is(role Role) bool {
	return p.Role == role
}

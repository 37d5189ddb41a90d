package domain

import "time"

type ResetStatus string

const (
	ResetPending  ResetStatus = "pending"
	ResetApproved ResetStatus = "approved"
	ResetRejected ResetStatus = "rejected"
)

type PasswordResetRequest struct {
	ID           uint        `json:"id"`
	OrganizerID  uint        `json:"organizer_id"`
	Reason       string      `json:"reason"`
	Status       ResetStatus `json:"status"`
	AdminComment string      `json:"admin_comment,omitempty"`
	ReviewedBy   *uint       `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time  `json:"reviewed_at,omitempty"`
	// NewPassword holds the generated plaintext until an admin acknowledges it.
	NewPassword  string      `json:"new_password,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Credential is a one-time plaintext login handed back to an admin.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

package response

import (
	"github.com/felicity-events/felicity-api/internal/domain"
)

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`

	Organizer *domain.Organizer `json:"organizer,omitempty"`
}

type Message struct {
	Message string `json:"message"`
}

// CredentialResponse hands out a generated login once. The password cannot be
// retrieved again.
type CredentialResponse struct {
	Organizer   domain.Organizer  `json:"organizer"`
	Credentials domain.Credential `json:"credentials"`
}

type ResetApprovalResponse struct {
	Request     domain.PasswordResetRequest `json:"request"`
	Credentials domain.Credential           `json:"credentials"`
}

type UserPage struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
}

package request

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/felicity-events/felicity-api/internal/domain"
)

type CreateOrganizerRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
	LoginEmail   string `json:"login_email"`
}

func (req *CreateOrganizerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.Category, validation.Required, validation.Length(2, 40)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.ContactEmail, validation.Required, is.Email),
		validation.Field(&req.LoginEmail, is.Email),
	)
}

func (req *CreateOrganizerRequest) ToOrganizer() domain.Organizer {
	return domain.Organizer{
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
		LoginEmail:   req.LoginEmail,
	}
}

type OrganizerStatusRequest struct {
	Status domain.OrganizerStatus `json:"status"`
}

func (req *OrganizerStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In(domain.OrganizerActive, domain.OrganizerDisabled, domain.OrganizerArchived)),
	)
}

type UserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

func (req *UserStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.IsActive, validation.NotNil),
	)
}

type ResetRequest struct {
	Reason string `json:"reason"`
}

func (req *ResetRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Required, validation.Length(5, 1000)),
	)
}

type ReviewResetRequest struct {
	Comment string `json:"comment"`
}

func (req *ReviewResetRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Comment, validation.Length(0, 1000)),
	)
}

package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/felicity-events/felicity-api/internal/service"
)

type OnboardingRequest struct {
	Interests          []string `json:"interests"`
	FollowedOrganizers []uint   `json:"followed_organizers"`
}

func (req *OnboardingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Interests, validation.Length(0, 30), validation.By(nonBlankStrings)),
		validation.Field(&req.FollowedOrganizers, validation.By(nonZeroIDs)),
	)
}

type UpdateProfileRequest struct {
	FirstName          *string   `json:"first_name"`
	LastName           *string   `json:"last_name"`
	ContactNumber      *string   `json:"contact_number"`
	CollegeOrg         *string   `json:"college_org"`
	Interests          *[]string `json:"interests"`
	FollowedOrganizers *[]uint   `json:"followed_organizers"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FirstName, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&req.LastName, validation.Length(0, 50)),
		validation.Field(&req.ContactNumber, validation.Match(phoneExp)),
		validation.Field(&req.CollegeOrg, validation.Length(0, 100)),
		validation.Field(&req.Interests, validation.By(nonBlankStrings)),
		validation.Field(&req.FollowedOrganizers, validation.By(nonZeroIDs)),
	)
}

func (req *UpdateProfileRequest) ToUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		ContactNumber:      req.ContactNumber,
		CollegeOrg:         req.CollegeOrg,
		Interests:          req.Interests,
		FollowedOrganizers: req.FollowedOrganizers,
	}
}

type UpdateOrganizerRequest struct {
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	Description    *string `json:"description"`
	ContactEmail   *string `json:"contact_email"`
	DiscordWebhook *string `json:"discord_webhook"`
}

func (req *UpdateOrganizerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(2, 80)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.ContactEmail, validation.NilOrNotEmpty, is.Email),
		validation.Field(&req.DiscordWebhook, is.URL),
	)
}

func (req *UpdateOrganizerRequest) ToUpdate() service.OrganizerUpdate {
	return service.OrganizerUpdate{
		Name:           req.Name,
		Category:       req.Category,
		Description:    req.Description,
		ContactEmail:   req.ContactEmail,
		DiscordWebhook: req.DiscordWebhook,
	}
}

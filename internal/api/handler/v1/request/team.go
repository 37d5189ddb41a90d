package request

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type CreateTeamRequest struct {
	EventID uint   `json:"event_id"`
	Name    string `json:"name"`
}

func (req *CreateTeamRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)

	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 60)),
	)
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code"`
}

func (req *JoinTeamRequest) Validate() error {
	req.InviteCode = strings.ToUpper(strings.TrimSpace(req.InviteCode))

	return validation.ValidateStruct(
		req,
		validation.Field(&req.InviteCode, validation.Required, validation.Length(4, 16)),
	)
}

type InviteRequest struct {
	Email string `json:"email"`
}

func (req *InviteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type RespondInviteRequest struct {
	Action   string `json:"action"`
	MemberID uint   `json:"member_id"`
}

func (req *RespondInviteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Action, validation.Required, validation.In("accept", "decline")),
	)
}

func (req *RespondInviteRequest) Accept() bool {
	return req.Action == "accept"
}

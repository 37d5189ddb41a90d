package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type MessageRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

func (req *MessageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, 2000)),
		validation.Field(&req.ParentID, validation.NilOrNotEmpty),
	)
}

type AnnouncementRequest struct {
	Content string `json:"content"`
}

func (req *AnnouncementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, 2000)),
	)
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

func (req *ReactionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Emoji, validation.Required, validation.Length(1, 16)),
	)
}

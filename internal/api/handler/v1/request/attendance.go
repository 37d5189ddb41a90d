package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type ScanRequest struct {
	EventID uint   `json:"event_id"`
	Payload string `json:"payload"`
}

func (req *ScanRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.Payload, validation.Required, validation.Length(1, 4096)),
	)
}

type ManualAttendanceRequest struct {
	EventID        uint   `json:"event_id"`
	RegistrationID uint   `json:"registration_id"`
	Reason         string `json:"reason"`
}

func (req *ManualAttendanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.RegistrationID, validation.Required),
		validation.Field(&req.Reason, validation.Required, validation.Length(3, 500)),
	)
}

type RevertAttendanceRequest struct {
	Reason string `json:"reason"`
}

func (req *RevertAttendanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Required, validation.Length(3, 500)),
	)
}

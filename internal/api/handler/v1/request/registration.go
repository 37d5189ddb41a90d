package request

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

// RegistrationForm arrives as multipart form data so the payment proof can ride along.
// The structured parts are JSON encoded strings.
type RegistrationForm struct {
	EventID              uint   `form:"eventId"`
	FormResponses        string `form:"formResponses"`
	MerchandisePurchases string `form:"merchandisePurchases"`
}

type PurchaseItem struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

func (p PurchaseItem) Validate() error {
	return validation.ValidateStruct(
		&p,
		validation.Field(&p.ItemID, validation.Required),
		validation.Field(&p.Quantity, validation.Required, validation.Min(1)),
	)
}

func (req *RegistrationForm) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
	)
}

// ToRequest decodes the JSON parts of the form.
func (req *RegistrationForm) ToRequest() (service.RegistrationRequest, error) {
	out := service.RegistrationRequest{EventID: req.EventID}

	if req.FormResponses != "" {
		if err := json.Unmarshal([]byte(req.FormResponses), &out.FormResponses); err != nil {
			return service.RegistrationRequest{}, fmt.Errorf("formResponses: %w", err)
		}
	}

	if req.MerchandisePurchases != "" {
		var items []PurchaseItem
		if err := json.Unmarshal([]byte(req.MerchandisePurchases), &items); err != nil {
			return service.RegistrationRequest{}, fmt.Errorf("merchandisePurchases: %w", err)
		}
		if err := validation.Validate(items); err != nil {
			return service.RegistrationRequest{}, fmt.Errorf("merchandisePurchases: %w", err)
		}
		for _, item := range items {
			out.Purchases = append(out.Purchases, service.PurchaseRequest{ItemID: item.ItemID, Quantity: item.Quantity})
		}
	}

	if out.FormResponses == nil {
		out.FormResponses = []domain.FormResponse{}
	}

	return out, nil
}

type PaymentReviewRequest struct {
	Action string `json:"action"`
}

func (req *PaymentReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Action, validation.Required, validation.In("approve", "reject")),
	)
}

func (req *PaymentReviewRequest) Approve() bool {
	return req.Action == "approve"
}

package domain

import (
	"errors"
	"time"
)

var ErrNotPending = errors.New("payment is not pending")

type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "active"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationCompleted RegistrationStatus = "completed"
)

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentApproved    PaymentStatus = "approved"
	PaymentRejected    PaymentStatus = "rejected"
)

type FormResponse struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type MerchandisePurchase struct {
	ItemID      uint    `json:"item_id"`
	VariantName string  `json:"variant_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (p MerchandisePurchase) Subtotal() float64 {
	return p.UnitPrice * float64(p.Quantity)
}

type Registration struct {
	ID                   uint                  `json:"id"`
	TicketID             string                `json:"ticket_id"`
	ParticipantID        uint                  `json:"participant_id"`
	EventID              uint                  `json:"event_id"`
	Type                 EventType             `json:"registration_type"`
	Status               RegistrationStatus    `json:"status"`
	FormResponses        []FormResponse        `json:"form_responses,omitempty"`
	MerchandisePurchases []MerchandisePurchase `json:"merchandise_purchases,omitempty"`
	TotalAmount          float64               `json:"total_amount"`
	PaymentProofURL      string                `json:"payment_proof_url,omitempty"`
	PaymentStatus        PaymentStatus         `json:"payment_status"`
	PaymentReviewedBy    *uint                 `json:"payment_reviewed_by,omitempty"`
	PaymentReviewedAt    *time.Time            `json:"payment_reviewed_at,omitempty"`
	TeamID               *uint                 `json:"team_id,omitempty"`
	QRCode               string                `json:"qr_code,omitempty"`
	EmailSent            bool                  `json:"email_sent"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// HoldsSlot reports whether the registration counts against the event capacity.
func (r Registration) HoldsSlot() bool {
	return r.PaymentStatus == PaymentNotRequired || r.PaymentStatus == PaymentApproved
}

func (r Registration) IsActive() bool {
	return r.Status == RegistrationActive
}

func (r Registration) StockDeltas() map[uint]int {
	deltas := make(map[uint]int, len(r.MerchandisePurchases))
	for _, p := range r.MerchandisePurchases {
		deltas[p.ItemID] += p.Quantity
	}

	return deltas
}

func (r *Registration) Approve(reviewerID uint, at time.Time, qrCode string) error {
	if r.PaymentStatus != PaymentPending {
		return ErrNotPending
	}
	r.PaymentStatus = PaymentApproved
	r.PaymentReviewedBy = &reviewerID
	r.PaymentReviewedAt = &at
	r.QRCode = qrCode

	return nil
}

func (r *Registration) Reject(reviewerID uint, at time.Time) error {
	if r.PaymentStatus != PaymentPending {
		return ErrNotPending
	}
	r.PaymentStatus = PaymentRejected
	r.PaymentReviewedBy = &reviewerID
	r.PaymentReviewedAt = &at

	return nil
}

// RegistrationDetail joins a registration with the data shown on tickets and exports.
type RegistrationDetail struct {
	Registration
	Participant User   `json:"participant"`
	EventName   string `json:"event_name"`
	CheckedIn   bool   `json:"checked_in"`
}

package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
	EventTypeHackathon   EventType = "hackathon"
)

type Eligibility string

const (
	EligibilityAll         Eligibility = "all"
	EligibilityIIITOnly    Eligibility = "iiit-only"
	EligibilityNonIIITOnly Eligibility = "non-iiit-only"
)

func (e Eligibility) Allows(t ParticipantType) bool {
	switch e {
	case EligibilityIIITOnly:
		return t == ParticipantIIIT
	case EligibilityNonIIITOnly:
		return t == ParticipantNonIIIT
	default:
		return true
	}
}

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventOngoing, EventCancelled},
	EventOngoing:   {EventCompleted, EventCancelled},
}

func (s EventStatus) IsValid() bool {
	switch s {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventCancelled:
		return true
	}

	return false
}

func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldDropdown FieldKind = "dropdown"
	FieldCheckbox FieldKind = "checkbox"
	FieldRadio    FieldKind = "radio"
	FieldNumber   FieldKind = "number"
	FieldEmail    FieldKind = "email"
	FieldDate     FieldKind = "date"
)

type FormField struct {
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

type MerchandiseItem struct {
	ID          uint    `json:"id"`
	EventID     uint    `json:"event_id"`
	VariantName string  `json:"variant_name"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"price"`
}

type Event struct {
	ID                   uint        `json:"id"`
	OrganizerID          uint        `json:"organizer_id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 EventType   `json:"event_type"`
	Eligibility          Eligibility `json:"eligibility"`
	StartDate            time.Time   `json:"start_date"`
	EndDate              time.Time   `json:"end_date"`
	RegistrationDeadline time.Time   `json:"registration_deadline"`
	RegistrationLimit    int         `json:"registration_limit"`
	RegistrationCount    int         `json:"registration_count"`
	RegistrationFee      float64     `json:"registration_fee"`
	Status               EventStatus `json:"status"`
	Revenue              float64     `json:"revenue"`
	ViewCount            int         `json:"view_count"`
	Venue                string      `json:"venue"`
	ImageURL             string      `json:"image_url"`
	Tags                 []string    `json:"tags"`

	CustomForm []FormField `json:"custom_form,omitempty"`
	FormLocked bool        `json:"form_locked"`

	MerchandiseItems        []MerchandiseItem `json:"merchandise_items,omitempty"`
	PurchaseLimit           int               `json:"purchase_limit,omitempty"`
	RequiresPaymentApproval bool              `json:"requires_payment_approval"`

	TeamSize int `json:"team_size,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStatus derives the display status from the event dates.
// Draft and cancelled events keep their stored status.
func (e Event) EffectiveStatus(now time.Time) EventStatus {
	if e.Status == EventCancelled || e.Status == EventDraft {
		return e.Status
	}
	if !now.Before(e.StartDate) && !now.After(e.EndDate) {
		return EventOngoing
	}
	if now.After(e.EndDate) {
		return EventCompleted
	}

	return EventPublished
}

func (e *Event) TransitionTo(target EventStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: e.Status, To: target}
	}
	e.Status = target

	return nil
}

// CheckRegistration applies the event level registration preconditions in order.
func (e Event) CheckRegistration(participant ParticipantType, now time.Time) error {
	if e.Status != EventPublished && e.Status != EventOngoing {
		return ErrEventNotOpen
	}
	if now.After(e.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	if e.RegistrationCount >= e.RegistrationLimit {
		return ErrEventFull
	}
	if !e.Eligibility.Allows(participant) {
		return ErrNotEligible
	}

	return nil
}

func (e Event) Item(id uint) (MerchandiseItem, bool) {
	for _, item := range e.MerchandiseItems {
		if item.ID == id {
			return item, true
		}
	}

	return MerchandiseItem{}, false
}

func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

func (e Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidEvent)
	}
	if e.RegistrationDeadline.After(e.EndDate) {
		return fmt.Errorf("%w: registration deadline is after end date", ErrInvalidEvent)
	}
	if e.RegistrationLimit < 1 {
		return fmt.Errorf("%w: registration limit must be positive", ErrInvalidEvent)
	}

	switch e.Type {
	case EventTypeNormal:
		if e.RegistrationFee < 0 {
			return fmt.Errorf("%w: registration fee cannot be negative", ErrInvalidEvent)
		}
	case EventTypeMerchandise:
		if len(e.MerchandiseItems) == 0 {
			return fmt.Errorf("%w: merchandise events need at least one item", ErrInvalidEvent)
		}
	case EventTypeHackathon:
		if e.TeamSize < 2 {
			return fmt.Errorf("%w: team size must be at least 2", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}

	return nil
}

package domain

import "time"

// EventEdit is a partial update of an event. Nil fields are left untouched.
type EventEdit struct {
	Name                    *string
	Description             *string
	Type                    *EventType
	Eligibility             *Eligibility
	StartDate               *time.Time
	EndDate                 *time.Time
	RegistrationDeadline    *time.Time
	RegistrationLimit       *int
	RegistrationFee         *float64
	Venue                   *string
	ImageURL                *string
	Tags                    *[]string
	CustomForm              *[]FormField
	MerchandiseItems        *[]MerchandiseItem
	PurchaseLimit           *int
	RequiresPaymentApproval *bool
	TeamSize                *int
	CloseRegistrations      bool
}

// restrictedFields lists the fields that are frozen once an event is published.
func (e EventEdit) restrictedFields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(e.Name != nil, "name")
	add(e.Type != nil, "event_type")
	add(e.Eligibility != nil, "eligibility")
	add(e.StartDate != nil, "start_date")
	add(e.EndDate != nil, "end_date")
	add(e.RegistrationFee != nil, "registration_fee")
	add(e.CustomForm != nil, "custom_form")
	add(e.MerchandiseItems != nil, "merchandise_items")
	add(e.PurchaseLimit != nil, "purchase_limit")
	add(e.RequiresPaymentApproval != nil, "requires_payment_approval")
	add(e.TeamSize != nil, "team_size")

	return fields
}

// ApplyEdit mutates the event according to the edit policy of its stored status.
// The event is left untouched when an error is returned.
func (e *Event) ApplyEdit(edit EventEdit, now time.Time) error {
	switch e.Status {
	case EventDraft:
		next := *e
		next.applyAll(edit, now)
		if err := next.Validate(); err != nil {
			return err
		}
		*e = next

		return nil
	case EventPublished:
		return e.applyPublished(edit, now)
	default:
		return ErrEventLocked
	}
}

func (e *Event) applyAll(edit EventEdit, now time.Time) {
	if edit.Name != nil {
		e.Name = *edit.Name
	}
	if edit.Description != nil {
		e.Description = *edit.Description
	}
	if edit.Type != nil {
		e.Type = *edit.Type
	}
	if edit.Eligibility != nil {
		e.Eligibility = *edit.Eligibility
	}
	if edit.StartDate != nil {
		e.StartDate = *edit.StartDate
	}
	if edit.EndDate != nil {
		e.EndDate = *edit.EndDate
	}
	if edit.RegistrationDeadline != nil {
		e.RegistrationDeadline = *edit.RegistrationDeadline
	}
	if edit.RegistrationLimit != nil {
		e.RegistrationLimit = *edit.RegistrationLimit
	}
	if edit.RegistrationFee != nil {
		e.RegistrationFee = *edit.RegistrationFee
	}
	if edit.Venue != nil {
		e.Venue = *edit.Venue
	}
	if edit.ImageURL != nil {
		e.ImageURL = *edit.ImageURL
	}
	if edit.Tags != nil {
		e.Tags = *edit.Tags
	}
	if edit.CustomForm != nil && !e.FormLocked {
		e.CustomForm = *edit.CustomForm
	}
	if edit.MerchandiseItems != nil {
		e.MerchandiseItems = *edit.MerchandiseItems
	}
	if edit.PurchaseLimit != nil {
		e.PurchaseLimit = *edit.PurchaseLimit
	}
	if edit.RequiresPaymentApproval != nil {
		e.RequiresPaymentApproval = *edit.RequiresPaymentApproval
	}
	if edit.TeamSize != nil {
		e.TeamSize = *edit.TeamSize
	}
	if edit.CloseRegistrations {
		e.RegistrationDeadline = now
	}
}

func (e *Event) applyPublished(edit EventEdit, now time.Time) error {
	if fields := edit.restrictedFields(); len(fields) > 0 {
		return &EditRestrictedError{Field: fields[0], Reason: "cannot be changed after publishing"}
	}

	next := *e
	if edit.Description != nil {
		next.Description = *edit.Description
	}
	if edit.Venue != nil {
		next.Venue = *edit.Venue
	}
	if edit.ImageURL != nil {
		next.ImageURL = *edit.ImageURL
	}
	if edit.Tags != nil {
		next.Tags = *edit.Tags
	}

	if edit.RegistrationDeadline != nil {
		if !edit.RegistrationDeadline.After(e.RegistrationDeadline) {
			return &EditRestrictedError{Field: "registration_deadline", Reason: "may only be extended"}
		}
		next.RegistrationDeadline = *edit.RegistrationDeadline
	}
	if edit.RegistrationLimit != nil {
		if *edit.RegistrationLimit <= e.RegistrationLimit {
			return &EditRestrictedError{Field: "registration_limit", Reason: "may only be increased"}
		}
		next.RegistrationLimit = *edit.RegistrationLimit
	}
	if edit.CloseRegistrations {
		next.RegistrationDeadline = now
	}

	*e = next

	return nil
}

// ReplaceForm swaps the custom form of a normal event that has not been locked yet.
func (e *Event) ReplaceForm(fields []FormField) error {
	if e.Type != EventTypeNormal {
		return ErrFormLocked
	}
	if e.FormLocked {
		return ErrFormLocked
	}
	switch e.Status {
	case EventOngoing, EventCompleted, EventCancelled:
		return ErrEventLocked
	}
	e.CustomForm = fields

	return nil
}

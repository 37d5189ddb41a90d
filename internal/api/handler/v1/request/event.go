package request

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

var (
	eventTypes   = []interface{}{domain.EventTypeNormal, domain.EventTypeMerchandise, domain.EventTypeHackathon}
	eligibility  = []interface{}{domain.EligibilityAll, domain.EligibilityIIITOnly, domain.EligibilityNonIIITOnly}
	eventStatus  = []interface{}{domain.EventDraft, domain.EventPublished, domain.EventOngoing, domain.EventCompleted, domain.EventCancelled}
	fieldKinds   = []interface{}{domain.FieldText, domain.FieldTextarea, domain.FieldDropdown, domain.FieldCheckbox, domain.FieldRadio, domain.FieldNumber, domain.FieldEmail, domain.FieldDate}
	errNoOptions = errors.New("choice fields need at least one option")
)

type FormFieldRequest struct {
	Label    string           `json:"label"`
	Kind     domain.FieldKind `json:"kind"`
	Options  []string         `json:"options"`
	Required bool             `json:"required"`
}

func (f FormFieldRequest) Validate() error {
	err := validation.ValidateStruct(
		&f,
		validation.Field(&f.Label, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Kind, validation.Required, validation.In(fieldKinds...)),
	)
	if err != nil {
		return err
	}

	switch f.Kind {
	case domain.FieldDropdown, domain.FieldRadio, domain.FieldCheckbox:
		if len(f.Options) == 0 {
			return errNoOptions
		}
	}

	return nil
}

type MerchandiseItemRequest struct {
	VariantName string  `json:"variant_name"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	SKU         string  `json:"sku"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"price"`
}

func (m MerchandiseItemRequest) Validate() error {
	return validation.ValidateStruct(
		&m,
		validation.Field(&m.VariantName, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Stock, validation.Min(0)),
		validation.Field(&m.Price, validation.Min(float64(0))),
	)
}

func formFields(fields []FormFieldRequest) []domain.FormField {
	out := make([]domain.FormField, 0, len(fields))
	for _, f := range fields {
		out = append(out, domain.FormField{Label: f.Label, Kind: f.Kind, Options: f.Options, Required: f.Required})
	}

	return out
}

func merchandiseItems(items []MerchandiseItemRequest) []domain.MerchandiseItem {
	out := make([]domain.MerchandiseItem, 0, len(items))
	for _, m := range items {
		out = append(out, domain.MerchandiseItem{
			VariantName: m.VariantName,
			Size:        m.Size,
			Color:       m.Color,
			SKU:         m.SKU,
			Stock:       m.Stock,
			Price:       m.Price,
		})
	}

	return out
}

type CreateEventRequest struct {
	Name                    string                   `json:"name"`
	Description             string                   `json:"description"`
	EventType               domain.EventType         `json:"event_type"`
	Eligibility             domain.Eligibility       `json:"eligibility"`
	StartDate               time.Time                `json:"start_date"`
	EndDate                 time.Time                `json:"end_date"`
	RegistrationDeadline    time.Time                `json:"registration_deadline"`
	RegistrationLimit       int                      `json:"registration_limit"`
	RegistrationFee         float64                  `json:"registration_fee"`
	Venue                   string                   `json:"venue"`
	ImageURL                string                   `json:"image_url"`
	Tags                    []string                 `json:"tags"`
	Status                  domain.EventStatus       `json:"status"`
	CustomForm              []FormFieldRequest       `json:"custom_form"`
	MerchandiseItems        []MerchandiseItemRequest `json:"merchandise_items"`
	PurchaseLimit           int                      `json:"purchase_limit"`
	RequiresPaymentApproval bool                     `json:"requires_payment_approval"`
	TeamSize                int                      `json:"team_size"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.EventType, validation.Required, validation.In(eventTypes...)),
		validation.Field(&req.Eligibility, validation.In(eligibility...)),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.RegistrationDeadline, validation.Required),
		validation.Field(&req.RegistrationLimit, validation.Required, validation.Min(1)),
		validation.Field(&req.RegistrationFee, validation.Min(float64(0))),
		validation.Field(&req.Status, validation.In(domain.EventDraft, domain.EventPublished)),
		validation.Field(&req.Tags, validation.Length(0, 20), validation.By(nonBlankStrings)),
		validation.Field(&req.CustomForm),
		validation.Field(&req.MerchandiseItems),
		validation.Field(&req.PurchaseLimit, validation.Min(0)),
		validation.Field(&req.TeamSize, validation.Min(0)),
	)
}

func (req *CreateEventRequest) ToEvent() domain.Event {
	eligible := req.Eligibility
	if eligible == "" {
		eligible = domain.EligibilityAll
	}

	return domain.Event{
		Name:                    req.Name,
		Description:             req.Description,
		Type:                    req.EventType,
		Eligibility:             eligible,
		StartDate:               req.StartDate.UTC(),
		EndDate:                 req.EndDate.UTC(),
		RegistrationDeadline:    req.RegistrationDeadline.UTC(),
		RegistrationLimit:       req.RegistrationLimit,
		RegistrationFee:         req.RegistrationFee,
		Venue:                   req.Venue,
		ImageURL:                req.ImageURL,
		Tags:                    req.Tags,
		Status:                  req.Status,
		CustomForm:              formFields(req.CustomForm),
		MerchandiseItems:        merchandiseItems(req.MerchandiseItems),
		PurchaseLimit:           req.PurchaseLimit,
		RequiresPaymentApproval: req.RequiresPaymentApproval,
		TeamSize:                req.TeamSize,
	}
}

// UpdateEventRequest is a partial update; absent fields are left untouched.
type UpdateEventRequest struct {
	Name                    *string                   `json:"name"`
	Description             *string                   `json:"description"`
	EventType               *domain.EventType         `json:"event_type"`
	Eligibility             *domain.Eligibility       `json:"eligibility"`
	StartDate               *time.Time                `json:"start_date"`
	EndDate                 *time.Time                `json:"end_date"`
	RegistrationDeadline    *time.Time                `json:"registration_deadline"`
	RegistrationLimit       *int                      `json:"registration_limit"`
	RegistrationFee         *float64                  `json:"registration_fee"`
	Venue                   *string                   `json:"venue"`
	ImageURL                *string                   `json:"image_url"`
	Tags                    *[]string                 `json:"tags"`
	CustomForm              *[]FormFieldRequest       `json:"custom_form"`
	MerchandiseItems        *[]MerchandiseItemRequest `json:"merchandise_items"`
	PurchaseLimit           *int                      `json:"purchase_limit"`
	RequiresPaymentApproval *bool                     `json:"requires_payment_approval"`
	TeamSize                *int                      `json:"team_size"`
	CloseRegistrations      bool                      `json:"close_registrations"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.EventType, validation.In(eventTypes...)),
		validation.Field(&req.Eligibility, validation.In(eligibility...)),
		validation.Field(&req.RegistrationLimit, validation.Min(1)),
		validation.Field(&req.RegistrationFee, validation.Min(float64(0))),
		validation.Field(&req.Tags, validation.By(nonBlankStrings)),
		validation.Field(&req.PurchaseLimit, validation.Min(0)),
		validation.Field(&req.TeamSize, validation.Min(0)),
	)
}

func (req *UpdateEventRequest) ToEdit() (domain.EventEdit, error) {
	edit := domain.EventEdit{
		Name:                    req.Name,
		Description:             req.Description,
		Type:                    req.EventType,
		Eligibility:             req.Eligibility,
		StartDate:               utcPtr(req.StartDate),
		EndDate:                 utcPtr(req.EndDate),
		RegistrationDeadline:    utcPtr(req.RegistrationDeadline),
		RegistrationLimit:       req.RegistrationLimit,
		RegistrationFee:         req.RegistrationFee,
		Venue:                   req.Venue,
		ImageURL:                req.ImageURL,
		Tags:                    req.Tags,
		PurchaseLimit:           req.PurchaseLimit,
		RequiresPaymentApproval: req.RequiresPaymentApproval,
		TeamSize:                req.TeamSize,
		CloseRegistrations:      req.CloseRegistrations,
	}

	if req.CustomForm != nil {
		for _, f := range *req.CustomForm {
			if err := f.Validate(); err != nil {
				return domain.EventEdit{}, err
			}
		}
		form := formFields(*req.CustomForm)
		edit.CustomForm = &form
	}
	if req.MerchandiseItems != nil {
		for _, m := range *req.MerchandiseItems {
			if err := m.Validate(); err != nil {
				return domain.EventEdit{}, err
			}
		}
		items := merchandiseItems(*req.MerchandiseItems)
		edit.MerchandiseItems = &items
	}

	return edit, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()

	return &u
}

type StatusRequest struct {
	Status domain.EventStatus `json:"status"`
}

func (req *StatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(eventStatus...)),
	)
}

type FormRequest struct {
	Fields []FormFieldRequest `json:"custom_form"`
}

func (req *FormRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Fields),
	)
}

func (req *FormRequest) ToForm() []domain.FormField {
	return formFields(req.Fields)
}

type EventListQuery struct {
	Search       string     `form:"search"`
	EventType    string     `form:"eventType"`
	Eligibility  string     `form:"eligibility"`
	Status       string     `form:"status"`
	StartFrom    *time.Time `form:"startFrom" time_format:"2006-01-02"`
	StartTo      *time.Time `form:"startTo" time_format:"2006-01-02"`
	FollowedOnly bool       `form:"followed"`
	Page         int        `form:"page"`
	Limit        int        `form:"limit"`
}

func (q *EventListQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Search, validation.Length(0, 100)),
		validation.Field(&q.EventType, validation.In(stringsOf(eventTypes)...)),
		validation.Field(&q.Eligibility, validation.In(stringsOf(eligibility)...)),
		validation.Field(&q.Status, validation.In(stringsOf(eventStatus)...)),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
	)
}

func (q *EventListQuery) ToQuery() service.EventQuery {
	query := service.EventQuery{
		Search:       q.Search,
		Type:         domain.EventType(q.EventType),
		Eligibility:  domain.Eligibility(q.Eligibility),
		Status:       domain.EventStatus(q.Status),
		StartFrom:    utcPtr(q.StartFrom),
		FollowedOnly: q.FollowedOnly,
		Page:         q.Page,
		Limit:        q.Limit,
	}
	if q.StartTo != nil {
		// the upper bound is inclusive of the whole day
		end := q.StartTo.UTC().Add(24*time.Hour - time.Nanosecond)
		query.StartTo = &end
	}

	return query
}

// stringsOf turns typed string constants into plain strings for In rules on
// query values.
func stringsOf(values []interface{}) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}

	return out
}

package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
)

func TestRegisterRequestPassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"abcdefg1", true},
		{"Sup3rSecret", true},
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			req := RegisterRequest{FirstName: "Asha", Email: "asha@example.com", Password: tt.password}
			err := req.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	req := RegisterRequest{FirstName: "Asha", Email: "asha@example.com", Password: "abcdefg1", ConfirmPassword: "abcdefg2"}
	assert.ErrorIs(t, req.Validate(), errConfirmPasswordMismatch)
}

func TestFormFieldRequest(t *testing.T) {
	assert.NoError(t, FormFieldRequest{Label: "T-shirt size", Kind: domain.FieldText}.Validate())
	assert.ErrorIs(t, FormFieldRequest{Label: "Track", Kind: domain.FieldDropdown}.Validate(), errNoOptions)
	assert.NoError(t, FormFieldRequest{Label: "Track", Kind: domain.FieldRadio, Options: []string{"AI", "Web"}}.Validate())
	assert.Error(t, FormFieldRequest{Label: "Track", Kind: "slider"}.Validate())
	assert.Error(t, FormFieldRequest{Kind: domain.FieldText}.Validate())
}

func TestRegistrationFormToRequest(t *testing.T) {
	form := RegistrationForm{
		EventID:              3,
		FormResponses:        `[{"label":"Team name","value":"Null Pointers"}]`,
		MerchandisePurchases: `[{"item_id":7,"quantity":2}]`,
	}
	require.NoError(t, form.Validate())

	req, err := form.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, uint(3), req.EventID)
	assert.Equal(t, []domain.FormResponse{{Label: "Team name", Value: "Null Pointers"}}, req.FormResponses)
	require.Len(t, req.Purchases, 1)
	assert.Equal(t, uint(7), req.Purchases[0].ItemID)
	assert.Equal(t, 2, req.Purchases[0].Quantity)

	empty := RegistrationForm{EventID: 3}
	req, err = empty.ToRequest()
	require.NoError(t, err)
	assert.NotNil(t, req.FormResponses)
	assert.Empty(t, req.Purchases)

	bad := RegistrationForm{EventID: 3, MerchandisePurchases: `[{"item_id":7,"quantity":0}]`}
	_, err = bad.ToRequest()
	assert.Error(t, err)

	malformed := RegistrationForm{EventID: 3, FormResponses: `{not json`}
	_, err = malformed.ToRequest()
	assert.Error(t, err)

	assert.Error(t, (&RegistrationForm{}).Validate())
}

func TestJoinTeamRequestNormalizesCode(t *testing.T) {
	req := JoinTeamRequest{InviteCode: "  ab12cd  "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "AB12CD", req.InviteCode)

	short := JoinTeamRequest{InviteCode: "ab"}
	assert.Error(t, short.Validate())
}

func TestEventListQuery(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	q := EventListQuery{EventType: "hackathon", Status: "published", StartFrom: &from, StartTo: &to, Limit: 20}
	require.NoError(t, q.Validate())

	query := q.ToQuery()
	assert.Equal(t, domain.EventType("hackathon"), query.Type)
	assert.Equal(t, from, *query.StartFrom)
	assert.Equal(t, time.Date(2026, 3, 5, 23, 59, 59, 999999999, time.UTC), *query.StartTo)

	assert.Error(t, (&EventListQuery{EventType: "concert"}).Validate())
	assert.Error(t, (&EventListQuery{Limit: 500}).Validate())
}

func TestFeedbackRequest(t *testing.T) {
	assert.NoError(t, (&FeedbackRequest{Rating: 5}).Validate())
	assert.Error(t, (&FeedbackRequest{Rating: 0}).Validate())
	assert.Error(t, (&FeedbackRequest{Rating: 6}).Validate())
}

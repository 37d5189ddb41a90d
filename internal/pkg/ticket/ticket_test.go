package ticket

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketID(t *testing.T) {
	pattern := regexp.MustCompile(`^TKT-[0-9A-F]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewTicketID()
		require.Regexp(t, pattern, id)
		require.False(t, seen[id], "duplicate ticket id %s", id)
		seen[id] = true
	}
}

func TestNewInviteCode(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{10}$`), NewInviteCode())
}

func TestEncodeQR(t *testing.T) {
	url, err := EncodeQR(Payload{TicketID: "TKT-ABCDEF123456", EventID: 1, UserID: 2})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	png, err := DecodeQR(url)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = DecodeQR("data:text/plain;base64,aGk=")
	assert.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Payload
		wantErr bool
	}{
		{
			name: "json payload",
			raw:  `{"ticketId":"TKT-ABCDEF123456","eventId":3,"userId":9}`,
			want: Payload{TicketID: "TKT-ABCDEF123456", EventID: 3, UserID: 9},
		},
		{
			name: "bare ticket id",
			raw:  "  TKT-ABCDEF123456 ",
			want: Payload{TicketID: "TKT-ABCDEF123456"},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "json without ticket", raw: `{"eventId":3}`, wantErr: true},
		{name: "broken json", raw: `{"ticketId":`, wantErr: true},
		{name: "unknown format", raw: "hello", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Package ticket generates ticket identifiers, team invite codes and the QR
// images embedded in tickets.
package ticket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	Prefix = "TKT-"

	qrSize        = 256
	dataURLPrefix = "data:image/png;base64,"
)

var ErrInvalidPayload = errors.New("invalid ticket payload")

// NewTicketID returns "TKT-" followed by 12 upper-case hex characters.
func NewTicketID() string {
	return Prefix + randomHex(12)
}

// NewInviteCode returns a 10 character upper-case hex code.
func NewInviteCode() string {
	return randomHex(10)
}

func randomHex(n int) string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:n]
}

type Payload struct {
	TicketID string `json:"ticketId"`
	EventID  uint   `json:"eventId"`
	UserID   uint   `json:"userId"`
}

// EncodeQR renders the payload as a PNG QR code and returns it as a data URL.
func EncodeQR(p Payload) (string, error) {
	content, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	png, err := qrcode.Encode(string(content), qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeQR returns the PNG bytes of a data URL produced by EncodeQR.
func DecodeQR(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, errors.New("not a png data url")
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("base64.DecodeString -> %w", err)
	}

	return png, nil
}

// ParsePayload reads scanned QR content. Both the JSON payload and a bare
// ticket id are accepted.
func ParsePayload(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrInvalidPayload
	}

	if strings.HasPrefix(raw, "{") {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.TicketID == "" {
			return Payload{}, ErrInvalidPayload
		}
		return p, nil
	}

	if !strings.HasPrefix(raw, Prefix) {
		return Payload{}, ErrInvalidPayload
	}

	return Payload{TicketID: raw}, nil
}

package jwthelper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	key := []byte("secret")
	principal := domain.Principal{ID: 42, Role: domain.RoleOrganizer}

	token, err := GenerateToken(key, principal, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, principal, parsed)
}

func TestParseToken(t *testing.T) {
	key := []byte("secret")

	expired, err := GenerateToken(key, domain.Principal{ID: 1, Role: domain.RoleParticipant}, -time.Minute)
	require.NoError(t, err)
	otherKey, err := GenerateToken([]byte("other"), domain.Principal{ID: 1, Role: domain.RoleParticipant}, time.Hour)
	require.NoError(t, err)
	badRole, err := GenerateToken(key, domain.Principal{ID: 1, Role: "root"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong key", token: otherKey},
		{name: "unknown role", token: badRole},
		{name: "garbage", token: "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(key, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

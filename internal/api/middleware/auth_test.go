package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/jwthelper"
)

const signingKey = "test-signing-key"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(ctx *gin.Context) {
		principal, ok := Principal(ctx)
		ctx.JSON(http.StatusOK, gin.H{"authenticated": ok, "id": principal.ID, "role": principal.Role})
	})
	r.GET("/", handlers...)

	return r
}

func token(t *testing.T, principal domain.Principal) string {
	t.Helper()

	signed, err := jwthelper.GenerateToken([]byte(signingKey), principal, time.Hour)
	require.NoError(t, err)

	return signed
}

func serve(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestVerifyJWT(t *testing.T) {
	auth := NewAuthenticator(signingKey)
	r := newRouter(auth.VerifyJWT())

	w := serve(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := NewAuthenticator("another-key")
	forged, err := jwthelper.GenerateToken(other.signingKey, domain.Principal{ID: 7, Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	w = serve(r, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "bearer "+token(t, domain.Principal{ID: 42, Role: domain.RoleParticipant}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"id":42,"role":"participant"}`, w.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	auth := NewAuthenticator(signingKey)
	r := newRouter(auth.OptionalJWT())

	w := serve(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"id":0,"role":""}`, w.Body.String())

	w = serve(r, "Bearer garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	w = serve(r, "Bearer "+token(t, domain.Principal{ID: 3, Role: domain.RoleOrganizer}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"id":3,"role":"organizer"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	auth := NewAuthenticator(signingKey)
	r := newRouter(auth.VerifyJWT(), RequireRoles(domain.RoleOrganizer, domain.RoleAdmin))

	tests := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleParticipant, http.StatusForbidden},
		{domain.RoleOrganizer, http.StatusOK},
		{domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			w := serve(r, "Bearer "+token(t, domain.Principal{ID: 1, Role: tt.role}))
			assert.Equal(t, tt.want, w.Code)
		})
	}

	// without VerifyJWT in front there is no principal
	bare := newRouter(RequireRoles(domain.RoleAdmin))
	w := serve(bare, "Bearer "+token(t, domain.Principal{ID: 1, Role: domain.RoleAdmin}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

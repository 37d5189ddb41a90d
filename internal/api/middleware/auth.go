package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/jwthelper"
)

const principalKey = "principal"

var (
	errMissingToken = errors.New("missing bearer token")
	errRoleDenied   = errors.New("your role cannot access this resource")
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT authenticates the bearer token and stores the principal on the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		principal, err := a.Parse(token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(principalKey, principal)
		ctx.Next()
	}
}

// OptionalJWT stores the principal when a valid bearer token is present and
// lets anonymous requests through.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, ok := bearerToken(ctx.GetHeader("Authorization")); ok {
			if principal, err := a.Parse(token); err == nil {
				ctx.Set(principalKey, principal)
			}
		}
		ctx.Next()
	}
}

func (a *Authenticator) Parse(token string) (domain.Principal, error) {
	principal, err := jwthelper.ParseToken(a.signingKey, token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("jwthelper.ParseToken -> %w", err)
	}

	return principal, nil
}

// RequireRoles lets the request through only for the given roles. It must run
// after VerifyJWT.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := Principal(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(nil))
			return
		}

		for _, role := range roles {
			if principal.Is(role) {
				ctx.Next()
				return
			}
		}

		response.RenderErr(ctx, response.ErrPermissionDenied(errRoleDenied))
	}
}

func Principal(ctx *gin.Context) (domain.Principal, bool) {
	value, ok := ctx.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)

	return principal, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)

	return token, token != ""
}

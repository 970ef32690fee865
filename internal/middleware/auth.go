package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/pkg/jwt"
	"localguide/internal/pkg/response"
)

const (
	ctxUserID    = "user_id"
	ctxPrincipal = "principal"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrBadCredential   = errors.New("invalid credential")
	ErrTokenExpired    = errors.New("token expired")
	ErrAccountDisabled = errors.New("account disabled")
)

// UserReader loads the account a token points at.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Authenticator turns a bearer token into a Principal. The role is taken
// from the stored user, not from the token, so role changes and
// deactivation apply to tokens already issued.
type Authenticator struct {
	tokens *jwt.Service
	users  UserReader
}

func NewAuthenticator(tokens *jwt.Service, users UserReader) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Principal{}, ErrMissingToken
	}

	claims, err := a.tokens.ValidateToken(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return domain.Principal{}, ErrTokenExpired
		}
		return domain.Principal{}, ErrBadCredential
	}

	u, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Principal{}, ErrBadCredential
		}
		return domain.Principal{}, err
	}
	if !u.IsActive {
		return domain.Principal{}, ErrAccountDisabled
	}

	return domain.Principal{UserID: u.ID, Role: u.Role}, nil
}

// JWTAuth requires "Authorization: Bearer <token>" and stores the resolved
// Principal in the gin context.
func JWTAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authorization header with Bearer token is required")
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortAuth(c, err)
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if p, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token)); err == nil {
				SetPrincipal(c, p)
			}
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingToken):
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
	case errors.Is(err, ErrTokenExpired):
		response.Abort(c, http.StatusUnauthorized, response.CodeTokenExpired, "Token expired, log in again")
	case errors.Is(err, ErrBadCredential):
		response.Abort(c, http.StatusUnauthorized, response.CodeInvalidCredential, "Invalid token")
	case errors.Is(err, ErrAccountDisabled):
		response.Abort(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is deactivated")
	default:
		_ = c.Error(err)
		response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Could not verify credentials")
	}
}

func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(ctxPrincipal, p)
	c.Set(ctxUserID, p.UserID)
}

// PrincipalFrom returns the caller set by JWTAuth.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

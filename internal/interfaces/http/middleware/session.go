package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Session context keys
const (
	PrincipalKey  = "principal"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a session token into the calling principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identityapp.Principal, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Auth Authenticator
	// CookieName is the session cookie, JSESSIONID by default
	CookieName string
	// SkipPaths are exact paths served without a session
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without a session
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// SessionAuth rejects requests without a valid session. The token is read
// from the session cookie first, then from a Bearer Authorization header.
func SessionAuth(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "JSESSIONID"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token := SessionToken(c, cfg.CookieName)
		if token == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		principal, err := cfg.Auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				cfg.Logger.Error("Session lookup failed", zap.Error(err), zap.String("path", path))
			} else {
				cfg.Logger.Debug("Session rejected", zap.String("path", path))
			}
			abortUnauthorized(c, "Session is invalid or has expired")
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SessionToken extracts the raw session token from the cookie or the
// Authorization header
func SessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	header := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	return ""
}

// SetPrincipal stores the principal on both the gin and request contexts
func SetPrincipal(c *gin.Context, p *identityapp.Principal) {
	c.Set(PrincipalKey, p)
	c.Set(UserIDKey, p.UserID.String())

	ctx := logger.WithUserID(c.Request.Context(), p.UserID.String())
	c.Request = c.Request.WithContext(ctx)
}

// GetPrincipal returns the authenticated principal, or nil
func GetPrincipal(c *gin.Context) *identityapp.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identityapp.Principal); ok {
			return p
		}
	}
	return nil
}

// RequireAdmin allows only principals with the ADMIN role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ACCESS_DENIED",
					"message":    "Administrator role is required",
					"request_id": c.GetString(RequestIDKey),
				},
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": c.GetString(RequestIDKey),
		},
	})
}

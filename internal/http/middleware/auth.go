package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/cookie"
	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/service"
	"github.com/jackson0tr/lerko-backend/internal/token"
)

const principalKey = "principal"

// Gate authenticates cookie-carried requests. A valid access token still
// requires a live session record; an expired access token is silently
// exchanged through the refresh flow, with fresh cookies set on success.
type Gate struct {
	issuer   *token.Issuer
	sessions *cache.SessionStore
	auth     *service.AuthService
	cfg      *config.Config
}

func NewGate(issuer *token.Issuer, sessions *cache.SessionStore, auth *service.AuthService, cfg *config.Config) *Gate {
	return &Gate{issuer: issuer, sessions: sessions, auth: auth, cfg: cfg}
}

// Authenticate resolves the request principal or rejects with 401.
func (g *Gate) Authenticate(c *gin.Context) {
	raw, err := c.Cookie(cookie.AccessName)
	if err != nil || raw == "" {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	claims, err := g.issuer.Verify(token.KindAccess, raw)
	switch {
	case err == nil:
		user, ok, getErr := g.sessions.Get(c.Request.Context(), claims.UserID)
		if getErr != nil {
			httperr.Abort(c, getErr)
			return
		}
		if !ok {
			httperr.Abort(c, fmt.Errorf("%w: user %d", domain.ErrSessionExpired, claims.UserID))
			return
		}
		c.Set(principalKey, user)
		c.Next()

	case errors.Is(err, domain.ErrTokenExpired):
		g.renew(c)

	default:
		httperr.Abort(c, err)
	}
}

// renew exchanges the refresh cookie for a fresh pair mid-request.
func (g *Gate) renew(c *gin.Context) {
	refresh, err := c.Cookie(cookie.RefreshName)
	if err != nil || refresh == "" {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	user, pair, err := g.auth.Renew(c.Request.Context(), refresh)
	if err != nil {
		httperr.Abort(c, err)
		return
	}

	cookie.SetPair(c, g.cfg, pair)
	c.Set(principalKey, user)
	c.Next()
}

// RequireRole rejects principals outside the allowed roles with 403. It must
// run after Authenticate.
func (g *Gate) RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := Principal(c)
		if !ok {
			httperr.Abort(c, domain.ErrUnauthenticated)
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		httperr.Abort(c, fmt.Errorf("%w: role %s", domain.ErrForbidden, user.Role))
	}
}

// Principal returns the authenticated user attached by Authenticate.
func Principal(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}

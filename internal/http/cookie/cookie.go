// Package cookie manages the access/refresh token cookie pair.
package cookie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

const (
	AccessName  = "access_token"
	RefreshName = "refresh_token"
)

// SetPair writes both auth cookies with lifetimes matching the tokens.
func SetPair(c *gin.Context, cfg *config.Config, pair service.TokenPair) {
	set(c, cfg, AccessName, pair.Access, int(pair.AccessTTL.Seconds()))
	set(c, cfg, RefreshName, pair.Refresh, int(pair.RefreshTTL.Seconds()))
}

// Clear expires both auth cookies.
func Clear(c *gin.Context, cfg *config.Config) {
	set(c, cfg, AccessName, "", -1)
	set(c, cfg, RefreshName, "", -1)
}

func set(c *gin.Context, cfg *config.Config, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   maxAge,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

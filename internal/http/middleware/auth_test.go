package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/service"
	"github.com/jackson0tr/lerko-backend/internal/token"
)

type gateHarness struct {
	engine   *gin.Engine
	issuer   *token.Issuer
	expired  *token.Issuer
	sessions *cache.SessionStore
	redis    *miniredis.Miniredis
	cfg      *config.Config
}

func newGateHarness(t *testing.T) *gateHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		AccessTokenSecret:  "access-secret-access-secret-1234",
		RefreshTokenSecret: "refresh-secret-refresh-secret-12",
		ActivationSecret:   "activation-secret-activation-123",
		ResetSecret:        "reset-secret-reset-secret-123456",
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    3 * 24 * time.Hour,
		SessionTTL:         7 * 24 * time.Hour,
		ActivationTokenTTL: 5 * time.Minute,
		ResetTokenTTL:      24 * time.Hour,
	}

	sessions := cache.NewSessionStore(client, cfg.SessionTTL)
	issuer := token.NewIssuer(*cfg)

	// Same secrets, negative access TTL: issues access tokens that are
	// already past the validation leeway.
	expiredCfg := *cfg
	expiredCfg.AccessTokenTTL = -5 * time.Minute
	expired := token.NewIssuer(expiredCfg)

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)
	auth := service.NewAuthService(nil, sessions, issuer, nil, nil, node, cfg, zap.NewNop())
	gate := NewGate(issuer, sessions, auth, cfg)

	engine := gin.New()
	engine.GET("/protected", gate.Authenticate, func(c *gin.Context) {
		user, ok := Principal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
	})
	engine.GET("/admin", gate.Authenticate, gate.RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return &gateHarness{engine: engine, issuer: issuer, expired: expired, sessions: sessions, redis: mr, cfg: cfg}
}

func (h *gateHarness) seedSession(t *testing.T, user domain.User) {
	t.Helper()
	require.NoError(t, h.sessions.Put(context.Background(), user))
}

func (h *gateHarness) request(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func accessCookie(value string) *http.Cookie {
	return &http.Cookie{Name: "access_token", Value: value}
}

func refreshCookie(value string) *http.Cookie {
	return &http.Cookie{Name: "refresh_token", Value: value}
}

func TestGateNoCookie(t *testing.T) {
	h := newGateHarness(t)
	rec := h.request(t, "/protected")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateValidTokenLiveSession(t *testing.T) {
	h := newGateHarness(t)
	h.seedSession(t, domain.User{ID: 42, Role: domain.RoleUser})

	access, err := h.issuer.Issue(token.KindAccess, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)

	rec := h.request(t, "/protected", accessCookie(access))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "42")
}

func TestGateValidTokenDeadSession(t *testing.T) {
	h := newGateHarness(t)

	// Cryptographically fine, but nothing in the session store backs it.
	access, err := h.issuer.Issue(token.KindAccess, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)

	rec := h.request(t, "/protected", accessCookie(access))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "session expired")
}

func TestGateGarbageToken(t *testing.T) {
	h := newGateHarness(t)
	rec := h.request(t, "/protected", accessCookie("not-a-jwt"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateExpiredAccessRenewsFromRefresh(t *testing.T) {
	h := newGateHarness(t)
	h.seedSession(t, domain.User{ID: 42, Name: "Mara", Role: domain.RoleUser})

	stale, err := h.expired.Issue(token.KindAccess, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)
	refresh, err := h.issuer.Issue(token.KindRefresh, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)

	rec := h.request(t, "/protected", accessCookie(stale), refreshCookie(refresh))
	require.Equal(t, http.StatusOK, rec.Code)

	// The silent renewal set a fresh cookie pair.
	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	require.Contains(t, names, "access_token")
	require.Contains(t, names, "refresh_token")
}

func TestGateExpiredAccessNoRefreshCookie(t *testing.T) {
	h := newGateHarness(t)
	h.seedSession(t, domain.User{ID: 42, Role: domain.RoleUser})

	stale, err := h.expired.Issue(token.KindAccess, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)

	rec := h.request(t, "/protected", accessCookie(stale))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateExpiredAccessDeadSession(t *testing.T) {
	h := newGateHarness(t)

	stale, err := h.expired.Issue(token.KindAccess, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)
	refresh, err := h.issuer.Issue(token.KindRefresh, token.Claims{UserID: 42, Role: domain.RoleUser})
	require.NoError(t, err)

	rec := h.request(t, "/protected", accessCookie(stale), refreshCookie(refresh))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "session expired")
	require.Empty(t, rec.Result().Cookies())
}

func TestGateRoleEnforcement(t *testing.T) {
	h := newGateHarness(t)
	h.seedSession(t, domain.User{ID: 1, Role: domain.RoleAdmin})
	h.seedSession(t, domain.User{ID: 2, Role: domain.RoleUser})

	adminToken, err := h.issuer.Issue(token.KindAccess, token.Claims{UserID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)
	userToken, err := h.issuer.Issue(token.KindAccess, token.Claims{UserID: 2, Role: domain.RoleUser})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, h.request(t, "/admin", accessCookie(adminToken)).Code)

	rec := h.request(t, "/admin", accessCookie(userToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "insufficient role"))
}

// The gate authorizes from the session snapshot, not from token claims: a
// token minted with a stale role does not outrank the stored principal.
func TestGateRoleComesFromSnapshot(t *testing.T) {
	h := newGateHarness(t)
	h.seedSession(t, domain.User{ID: 3, Role: domain.RoleUser})

	forged, err := h.issuer.Issue(token.KindAccess, token.Claims{UserID: 3, Role: domain.RoleAdmin})
	require.NoError(t, err)

	rec := h.request(t, "/admin", accessCookie(forged))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/cookie"
	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/http/middleware"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// AuthHandler exposes account and session endpoints.
type AuthHandler struct {
	Auth *service.AuthService
	Cfg  *config.Config
}

func NewAuthHandler(auth *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, Cfg: cfg}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		badRequest(c, "name, email, and password are required")
		return
	}

	activation, err := h.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":          true,
		"message":          "check your email for the activation code",
		"activation_token": activation,
	})
}

func (h *AuthHandler) Activate(c *gin.Context) {
	var req struct {
		Token string `json:"activation_token"`
		Code  string `json:"activation_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Token == "" || req.Code == "" {
		badRequest(c, "activation token and code are required")
		return
	}

	user, err := h.Auth.Activate(c.Request.Context(), req.Token, req.Code)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		badRequest(c, "email and password are required")
		return
	}

	user, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	cookie.SetPair(c, h.Cfg, pair)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "access_token": pair.Access})
}

func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		badRequest(c, "email is required")
		return
	}

	user, pair, err := h.Auth.SocialLogin(c.Request.Context(), req.Name, req.Email, req.Avatar)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	cookie.SetPair(c, h.Cfg, pair)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "access_token": pair.Access})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), user.ID); err != nil {
		httperr.Abort(c, err)
		return
	}
	cookie.Clear(c, h.Cfg)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// Refresh is the explicit token renewal endpoint. The gate performs the same
// exchange implicitly when an access token expires mid-session.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(cookie.RefreshName)
	if err != nil || refresh == "" {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	user, pair, err := h.Auth.Renew(c.Request.Context(), refresh)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	cookie.SetPair(c, h.Cfg, pair)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "access_token": pair.Access})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}
	fresh, err := h.Auth.Me(c.Request.Context(), user.ID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": fresh})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(c, "name is required")
		return
	}

	updated, err := h.Auth.UpdateProfile(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		badRequest(c, "old and new passwords are required")
		return
	}

	if err := h.Auth.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password updated"})
}

func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		badRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	updated, err := h.Auth.UpdateAvatar(c.Request.Context(), user.ID, header.Filename, file)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		badRequest(c, "email is required")
		return
	}

	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "reset link sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Password == "" {
		badRequest(c, "password is required")
		return
	}

	if err := h.Auth.ResetPassword(c.Request.Context(), userID, c.Param("token"), req.Password); err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password reset"})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.Auth.ListUsers(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (h *AuthHandler) UpdateRole(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.Auth.UpdateRole(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), role)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}
	if err := h.Auth.DeleteAccount(c.Request.Context(), userID); err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

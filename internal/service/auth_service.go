package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/auth"
	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/mail"
	"github.com/jackson0tr/lerko-backend/internal/media"
	"github.com/jackson0tr/lerko-backend/internal/repository"
	"github.com/jackson0tr/lerko-backend/internal/token"
)

// TokenPair is a freshly issued access/refresh credential pair with the
// lifetimes the transport layer needs for cookie expiry.
type TokenPair struct {
	Access     string
	Refresh    string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService owns registration, credential exchange, session liveness, and
// profile mutations. All session writes go through the session store with the
// full TTL, so every write doubles as a sliding-window extension.
type AuthService struct {
	users    repository.UserRepository
	sessions *cache.SessionStore
	issuer   *token.Issuer
	mailer   mail.Mailer
	uploader media.Uploader
	node     *snowflake.Node
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions *cache.SessionStore,
	issuer *token.Issuer,
	mailer mail.Mailer,
	uploader media.Uploader,
	node *snowflake.Node,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		mailer:   mailer,
		uploader: uploader,
		node:     node,
		cfg:      cfg,
		log:      log,
	}
}

// Register validates the email is free, then issues a short-lived activation
// token carrying the pending registration and a one-time code, and mails the
// code. No user row exists until Activate succeeds.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	code, err := activationCode()
	if err != nil {
		return "", err
	}

	activation, err := s.issuer.Issue(token.KindActivation, token.Claims{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Code:         code,
	})
	if err != nil {
		return "", err
	}

	err = s.mailer.Send(ctx, email, "Activate your account", "activation.html", map[string]any{
		"Name":      name,
		"Code":      code,
		"ExpiresIn": s.issuer.TTL(token.KindActivation).String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: activation mail: %v", domain.ErrUpstream, err)
	}

	s.log.Info("registration pending activation", zap.String("email", email))
	return activation, nil
}

// Activate verifies the activation token and one-time code and creates the
// user. A token that survives in the client can be replayed within its
// five-minute window; the duplicate-email check turns a replay into a 409.
func (s *AuthService) Activate(ctx context.Context, activation, code string) (domain.User, error) {
	claims, err := s.issuer.Verify(token.KindActivation, activation)
	if err != nil {
		return domain.User{}, err
	}
	if subtle.ConstantTimeCompare([]byte(claims.Code), []byte(code)) != 1 {
		return domain.User{}, fmt.Errorf("%w: activation code mismatch", domain.ErrTokenInvalid)
	}

	if _, err := s.users.GetByEmail(ctx, claims.Email); err == nil {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrEmailTaken, claims.Email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.node.Generate().Int64(),
		Name:         claims.Name,
		Email:        claims.Email,
		PasswordHash: claims.PasswordHash,
		Role:         domain.RoleUser,
		Verified:     true,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.log.Info("user activated", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login exchanges credentials for a token pair and writes the session
// snapshot with the full session TTL.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return domain.User{}, TokenPair{}, domain.ErrInvalidCredentials
	}

	return s.establishSession(ctx, user)
}

// SocialLogin trusts the already-verified profile from the frontend's OAuth
// exchange: find the user by email or create one without a usable password,
// then follow the login path.
func (s *AuthService) SocialLogin(ctx context.Context, name, email, avatarURL string) (domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.Create(ctx, domain.User{
			ID:       s.node.Generate().Int64(),
			Name:     name,
			Email:    email,
			Role:     domain.RoleUser,
			Verified: true,
			Avatar:   domain.Asset{URL: avatarURL},
		})
	}
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	return s.establishSession(ctx, user)
}

// Logout deletes the session record. Deleting an absent session is success.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, userID)
}

// Renew exchanges a live refresh token for a fresh pair. The session store is
// the source of truth: a cryptographically valid refresh token whose session
// is gone yields ErrSessionExpired. New tokens are minted from the stored
// snapshot, not from the old token's claims, and the session TTL restarts.
func (s *AuthService) Renew(ctx context.Context, refreshToken string) (domain.User, TokenPair, error) {
	claims, err := s.issuer.Verify(token.KindRefresh, refreshToken)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user, ok, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	if !ok {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: user %d", domain.ErrSessionExpired, claims.UserID)
	}

	return s.establishSession(ctx, user)
}

func (s *AuthService) establishSession(ctx context.Context, user domain.User) (domain.User, TokenPair, error) {
	pair, err := s.issuePair(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	if err := s.sessions.Put(ctx, user); err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

func (s *AuthService) issuePair(user domain.User) (TokenPair, error) {
	access, err := s.issuer.Issue(token.KindAccess, token.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issuer.Issue(token.KindRefresh, token.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		Access:     access,
		Refresh:    refresh,
		AccessTTL:  s.issuer.TTL(token.KindAccess),
		RefreshTTL: s.issuer.TTL(token.KindRefresh),
	}, nil
}

// Me returns the principal snapshot, preferring the session store and falling
// back to the database when the session has lapsed.
func (s *AuthService) Me(ctx context.Context, userID int64) (domain.User, error) {
	user, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if ok {
		return user, nil
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile persists the new display name and re-puts the session
// snapshot.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.Name = name

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.sessions.Put(ctx, updated); err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// ChangePassword verifies the old password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: social account has no password", domain.ErrInvalidCredentials)
	}

	ok, err := auth.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return domain.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	user.PasswordHash = hash
	return s.sessions.Put(ctx, user)
}

// UpdateAvatar uploads the new image, removes the previous one, persists the
// asset reference, and re-puts the session snapshot.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID int64, name string, data io.Reader) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	asset, err := s.uploader.Upload(ctx, "avatars", name, data)
	if err != nil {
		return domain.User{}, err
	}

	if user.Avatar.ID != "" {
		if err := s.uploader.Remove(ctx, user.Avatar.ID); err != nil {
			s.log.Warn("remove old avatar", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	user.Avatar = asset
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.sessions.Put(ctx, updated); err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// ForgotPassword mails a signed reset link good for one day.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	reset, err := s.issuer.Issue(token.KindReset, token.Claims{UserID: user.ID})
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%d/%s", s.cfg.FrontendURL, user.ID, reset)
	err = s.mailer.Send(ctx, user.Email, "Reset your password", "reset_password.html", map[string]any{
		"Name":      user.Name,
		"ResetURL":  resetURL,
		"ExpiresIn": s.issuer.TTL(token.KindReset).String(),
	})
	if err != nil {
		return fmt.Errorf("%w: reset mail: %v", domain.ErrUpstream, err)
	}
	return nil
}

// ResetPassword is the linear sequence verify, hash, update. The token must
// name the same user the URL does.
func (s *AuthService) ResetPassword(ctx context.Context, userID int64, resetToken, newPassword string) error {
	claims, err := s.issuer.Verify(token.KindReset, resetToken)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return fmt.Errorf("%w: reset token user mismatch", domain.ErrTokenInvalid)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// ListUsers returns all users, admin only at the transport layer.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// UpdateRole changes a user's role in the database. An existing session
// snapshot keeps the old role until it is rewritten or expires.
func (s *AuthService) UpdateRole(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return domain.User{}, err
	}
	user.Role = role
	return user, nil
}

// DeleteAccount removes the user row and its session, ending liveness
// immediately.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, userID)
}

func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate activation code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

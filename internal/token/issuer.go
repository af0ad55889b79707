package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
)

// Kind selects the claim shape, expiry, and signing secret of a credential.
// Each kind signs with its own secret, so kinds are never mutually
// substitutable.
type Kind string

const (
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
	KindActivation Kind = "activation"
	KindReset      Kind = "reset"
)

// Claims is the custom payload carried alongside the registered JWT claims.
// Access/refresh/reset tokens carry UserID and Role; activation tokens carry
// the pending registration plus a one-time code instead, because the user row
// does not exist yet.
type Claims struct {
	UserID       int64       `json:"uid,omitempty"`
	Role         domain.Role `json:"role,omitempty"`
	Name         string      `json:"name,omitempty"`
	Email        string      `json:"email,omitempty"`
	PasswordHash string      `json:"phash,omitempty"`
	Code         string      `json:"code,omitempty"`
}

type kindKey struct {
	secret []byte
	ttl    time.Duration
}

// Issuer signs and verifies time-bounded credentials. Verification is pure:
// no store lookups, no side effects.
type Issuer struct {
	keys map[Kind]kindKey
	now  func() time.Time
}

// NewIssuer builds an issuer from the configured secrets and TTLs.
func NewIssuer(cfg config.Config) *Issuer {
	return &Issuer{
		keys: map[Kind]kindKey{
			KindAccess:     {secret: []byte(cfg.AccessTokenSecret), ttl: cfg.AccessTokenTTL},
			KindRefresh:    {secret: []byte(cfg.RefreshTokenSecret), ttl: cfg.RefreshTokenTTL},
			KindActivation: {secret: []byte(cfg.ActivationSecret), ttl: cfg.ActivationTokenTTL},
			KindReset:      {secret: []byte(cfg.ResetSecret), ttl: cfg.ResetTokenTTL},
		},
		now: time.Now,
	}
}

// TTL reports the configured lifetime of the given kind.
func (i *Issuer) TTL(kind Kind) time.Duration {
	return i.keys[kind].ttl
}

// Issue produces a signed, time-bounded credential of the given kind.
func (i *Issuer) Issue(kind Kind, cl Claims) (string, error) {
	key, ok := i.keys[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: key.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := i.now().UTC()
	std := gojwt.Claims{
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(key.ttl)),
	}
	if cl.UserID != 0 {
		std.Subject = strconv.FormatInt(cl.UserID, 10)
	}

	raw, err := gojwt.Signed(signer).Claims(std).Claims(cl).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return raw, nil
}

// Verify checks signature, shape, and expiry. It fails with
// domain.ErrTokenExpired past expiry and domain.ErrTokenInvalid on any
// signature or shape problem.
func (i *Issuer) Verify(kind Kind, raw string) (Claims, error) {
	key, ok := i.keys[kind]
	if !ok {
		return Claims{}, fmt.Errorf("%w: unknown token kind %q", domain.ErrTokenInvalid, kind)
	}

	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: parse: %v", domain.ErrTokenInvalid, err)
	}

	var std gojwt.Claims
	var cl Claims
	if err := parsed.Claims(key.secret, &std, &cl); err != nil {
		return Claims{}, fmt.Errorf("%w: verify: %v", domain.ErrTokenInvalid, err)
	}

	if err := std.Validate(gojwt.Expected{Time: i.now()}); err != nil {
		if errors.Is(err, gojwt.ErrExpired) {
			return Claims{}, fmt.Errorf("%w: %s token", domain.ErrTokenExpired, kind)
		}
		return Claims{}, fmt.Errorf("%w: claims: %v", domain.ErrTokenInvalid, err)
	}

	if cl.UserID == 0 && std.Subject != "" {
		if id, convErr := strconv.ParseInt(std.Subject, 10, 64); convErr == nil {
			cl.UserID = id
		}
	}

	return cl, nil
}

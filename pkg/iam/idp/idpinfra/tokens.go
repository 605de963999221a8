package idpinfra

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Action link modes.
const (
	ModeVerifyEmail   = "verifyEmail"
	ModeResetPassword = "resetPassword"

	actionAudience = "flavormind-action"
)

// sessionClaims are the claims of a bearer token. IssuedAtMs gives the
// revocation check millisecond resolution.
type sessionClaims struct {
	UID        string `json:"uid"`
	Email      string `json:"email,omitempty"`
	IssuedAtMs int64  `json:"iat_ms"`
	jwt.RegisteredClaims
}

// actionClaims back email verification and password reset links.
type actionClaims struct {
	Email string `json:"email"`
	Mode  string `json:"mode"`
	jwt.RegisteredClaims
}

// tokenSigner signs and parses HS256 tokens.
type tokenSigner struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	linkTTL  time.Duration
	clock    kernel.Clock
}

func (s *tokenSigner) mint(uid kernel.AccountID, email string) (string, error) {
	now := s.clock.Now()

	claims := sessionClaims{
		UID:        uid.String(),
		Email:      email,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   uid.String(),
			Audience:  []string{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", idp.Fail(idp.CodeInternal, "mint_token", err)
	}
	return signed, nil
}

func (s *tokenSigner) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, idp.Fail(idp.CodeTokenExpired, "verify_token", err)
		}
		return nil, idp.Fail(idp.CodeTokenMalformed, "verify_token", err)
	}
	if claims.UID == "" {
		return nil, idp.Fail(idp.CodeTokenMalformed, "verify_token", errors.New("missing uid claim"))
	}
	return claims, nil
}

func (s *tokenSigner) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

// actionLink builds base?mode=...&oobCode=... with a signed, short-lived code.
func (s *tokenSigner) actionLink(base, mode string, uid kernel.AccountID, email string) (string, error) {
	now := s.clock.Now()

	claims := actionClaims{
		Email: email,
		Mode:  mode,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   uid.String(),
			Audience:  []string{actionAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.linkTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	code, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", idp.Fail(idp.CodeInternal, "action_link", err)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", idp.Fail(idp.CodeInternal, "action_link", err)
	}
	q := u.Query()
	q.Set("mode", mode)
	q.Set("oobCode", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

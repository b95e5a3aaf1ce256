// Package token implements the signed session token codec.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/insa-apps/studygate/internal/domain"
)

// Claims binds a session snapshot to the standard time claims.
type Claims struct {
	User          domain.Snapshot `json:"user"`
	Version       string          `json:"version"`
	LastRefreshed int64           `json:"lastRefreshed"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact HS256 session tokens. Pure apart from
// wall-clock time; the clock is injectable for tests.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Sign encodes the session into a signed token expiring ttl from now.
func (c *Codec) Sign(session domain.Session, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		User:          session.User,
		Version:       session.Version,
		LastRefreshed: session.LastRefreshed.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

// Verify decodes a token back into a session. Every failure collapses into
// domain.ErrExpired or domain.ErrInvalidSignature; callers treat both as
// unauthenticated and must not distinguish them to the end user.
func (c *Codec) Verify(tokenStr string) (domain.Session, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Session{}, domain.ErrExpired
		}
		return domain.Session{}, domain.ErrInvalidSignature
	}
	if !parsed.Valid {
		return domain.Session{}, domain.ErrInvalidSignature
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return domain.Session{
		User:          claims.User,
		Version:       claims.Version,
		Expires:       expires,
		LastRefreshed: time.UnixMilli(claims.LastRefreshed),
	}, nil
}

package usecase

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/token"
)

// SessionUsecase builds signed session credentials and their cookie
// transport.
type SessionUsecase struct {
	codec     *token.Codec
	version   string
	ttl       time.Duration
	secure    bool
	emailHint bool
	now       func() time.Time
}

func NewSessionUsecase(codec *token.Codec, version string, ttl time.Duration, secure, emailHint bool) *SessionUsecase {
	return &SessionUsecase{
		codec:     codec,
		version:   version,
		ttl:       ttl,
		secure:    secure,
		emailHint: emailHint,
		now:       time.Now,
	}
}

// Issue signs a fresh session snapshot for the identity and returns the
// token plus the cookies carrying it. The session cookie is HTTP-only; the
// optional email-hint cookie is deliberately not, so the settling page can
// read it back for its retry path.
func (u *SessionUsecase) Issue(user domain.User) (string, []*http.Cookie, error) {
	now := u.now()
	session := domain.Session{
		User:          domain.SnapshotOf(user),
		Version:       u.version,
		Expires:       now.Add(u.ttl),
		LastRefreshed: now,
	}

	signed, err := u.codec.Sign(session, u.ttl)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to sign session")
	}

	maxAge := int(u.ttl / time.Second)
	cookies := []*http.Cookie{{
		Name:     domain.SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   u.secure,
		SameSite: http.SameSiteLaxMode,
	}}
	if u.emailHint {
		cookies = append(cookies, &http.Cookie{
			Name:     domain.EmailHintCookie,
			Value:    user.Email,
			Path:     "/",
			MaxAge:   maxAge,
			Secure:   u.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return signed, cookies, nil
}

// Clear returns cookies that expire the session transport on the client.
func (u *SessionUsecase) Clear() []*http.Cookie {
	expired := func(name string) *http.Cookie {
		return &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == domain.SessionCookie,
			Secure:   u.secure,
			SameSite: http.SameSiteLaxMode,
		}
	}
	return []*http.Cookie{expired(domain.SessionCookie), expired(domain.EmailHintCookie)}
}

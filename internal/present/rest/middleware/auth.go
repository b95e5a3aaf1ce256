package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifySession attaches the verified session to the request context when
// the session cookie carries a valid token. Verification failures of any
// kind leave the request unauthenticated; handlers decide whether that is
// fatal.
func (m *AuthMiddleware) IdentifySession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifySession")
		defer span.End()

		cookie, err := c.Cookie(domain.SessionCookie)
		if err == nil && cookie.Value != "" {
			session, err := m.auth.AuthToken(ctx, cookie.Value)
			if err != nil {
				span.RecordError(pkgerrors.Wrap(err, "AuthMiddleware.IdentifySession: token rejected"))
			} else {
				ctx = context.WithValue(ctx, domain.SessionCtxKey, session)
				span.SetAttributes(attribute.String("UserId", session.User.ID))
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

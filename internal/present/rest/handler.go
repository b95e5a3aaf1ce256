package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/present/rest/presenter"
	"github.com/insa-apps/studygate/internal/service"
	"github.com/insa-apps/studygate/internal/usecase"
)

type Handler struct {
	identity  *usecase.IdentityUsecase
	profile   *usecase.ProfileUsecase
	sessions  *usecase.SessionUsecase
	signal    *service.SignalService
	emailHint bool
}

func NewHandler(
	identity *usecase.IdentityUsecase,
	profile *usecase.ProfileUsecase,
	sessions *usecase.SessionUsecase,
	signal *service.SignalService,
	emailHint bool,
) *Handler {
	return &Handler{
		identity:  identity,
		profile:   profile,
		sessions:  sessions,
		signal:    signal,
		emailHint: emailHint,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/login-with-headers", h.handleLoginWithHeaders)
	e.GET("/auth-status", h.handleAuthStatus)
	e.POST("/update-profile", h.handleUpdateProfile)
	e.POST("/logout", h.handleLogout)
	e.GET("/realtime", h.handleRealtime)
}

type userSummary struct {
	ID                  string          `json:"id"`
	Email               string          `json:"email"`
	Name                string          `json:"name"`
	Username            string          `json:"username"`
	Type                domain.UserType `json:"type"`
	Banned              bool            `json:"banned"`
	Flags               int             `json:"flags"`
	CompletedOnboarding bool            `json:"completedOnboarding"`
	OrganizationID      *string         `json:"organizationId"`
	IsOrgEligible       bool            `json:"isOrgEligible"`
}

func summarize(u domain.User) userSummary {
	return userSummary{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Username:            u.Username,
		Type:                u.Type,
		Banned:              u.Banned(),
		Flags:               u.Flags,
		CompletedOnboarding: u.CompletedOnboarding,
		OrganizationID:      u.OrganizationID,
		IsOrgEligible:       u.IsOrgEligible,
	}
}

type loginResponse struct {
	Success bool        `json:"success"`
	User    userSummary `json:"user"`
}

// handleLoginWithHeaders resolves the identity asserted by the SSO proxy
// headers and answers with a fresh session cookie. The trust boundary
// middleware has already stripped the headers from untrusted peers, so an
// empty header here means no trusted hop vouched for the request.
func (h *Handler) handleLoginWithHeaders(c echo.Context) error {
	ctx := c.Request().Context()

	email := c.Request().Header.Get(domain.AuthEmailHeader)
	uidHint := c.Request().Header.Get(domain.AuthUIDHeader)

	var user domain.User
	var err error
	if email != "" {
		user, err = h.identity.Resolve(ctx, email, uidHint)
	} else if hint := h.emailHintCookie(c); hint != "" {
		// Degraded path: the client self-reports its email from the hint
		// cookie. Only an existing identity is ever reused here.
		user, err = h.identity.Lookup(ctx, hint)
	} else {
		return presenter.BadRequestMessage(c, "missing x-insa-auth-email header")
	}
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredentialSource) || errors.Is(err, domain.ErrNotFound) {
			return presenter.BadRequestMessage(c, "missing x-insa-auth-email header")
		}
		return presenter.InternalError(c, errors.Wrap(err, "failed to resolve identity"))
	}

	_, cookies, err := h.sessions.Issue(user)
	if err != nil {
		return presenter.InternalError(c, errors.Wrap(err, "failed to issue session"))
	}
	for _, cookie := range cookies {
		c.SetCookie(cookie)
	}

	h.publish(c, user, domain.EventLogin)

	return presenter.OK(c, loginResponse{Success: true, User: summarize(user)})
}

// emailHintCookie returns the legacy fallback email, or "" when the
// degraded path is disabled or the cookie is absent.
func (h *Handler) emailHintCookie(c echo.Context) string {
	if !h.emailHint {
		return ""
	}
	cookie, err := c.Cookie(domain.EmailHintCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type cookieDiagnostics struct {
	HasSessionCookie bool `json:"hasSessionCookie"`
	HasEmailCookie   bool `json:"hasEmailCookie"`
}

type headerDiagnostics struct {
	Cookie        string `json:"cookie"`
	Authorization string `json:"authorization"`
}

type authStatusResponse struct {
	Authenticated bool              `json:"authenticated"`
	Session       *domain.Session   `json:"session"`
	Cookies       cookieDiagnostics `json:"cookies"`
	Headers       headerDiagnostics `json:"headers"`
}

// handleAuthStatus is the probe the settling page polls while session cookie
// propagation catches up with the header-trust login.
func (h *Handler) handleAuthStatus(c echo.Context) error {
	ctx := c.Request().Context()

	session, authenticated := domain.SessionFromContext(ctx)

	hasSession := false
	if cookie, err := c.Cookie(domain.SessionCookie); err == nil && cookie.Value != "" {
		hasSession = true
	}
	hasHint := false
	if cookie, err := c.Cookie(domain.EmailHintCookie); err == nil && cookie.Value != "" {
		hasHint = true
	}

	return presenter.OK(c, authStatusResponse{
		Authenticated: authenticated,
		Session:       session,
		Cookies: cookieDiagnostics{
			HasSessionCookie: hasSession,
			HasEmailCookie:   hasHint,
		},
		Headers: headerDiagnostics{
			Cookie:        c.Request().Header.Get("Cookie"),
			Authorization: c.Request().Header.Get("Authorization"),
		},
	})
}

type updateProfileRequest struct {
	Username string `json:"username"`
}

func (h *Handler) handleUpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	session, ok := domain.SessionFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Username == "" {
		return presenter.BadRequestMessage(c, "username is required")
	}

	user, err := h.profile.UpdateUsername(ctx, session.User.ID, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return presenter.BadRequestMessage(c, "username already taken")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.Unauthorized(c)
		}
		return presenter.InternalError(c, errors.Wrap(err, "failed to update profile"))
	}

	h.publish(c, user, domain.EventProfileUpdate)

	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleLogout(c echo.Context) error {
	for _, cookie := range h.sessions.Clear() {
		c.SetCookie(cookie)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) publish(c echo.Context, user domain.User, eventType string) {
	if h.signal == nil {
		return
	}
	event := domain.SessionEvent{
		Type:      eventType,
		User:      domain.SnapshotOf(user),
		Timestamp: time.Now(),
	}
	if err := h.signal.Publish(c.Request().Context(), user.ID, event); err != nil {
		zap.L().Debug("failed to publish session event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime streams session events for the authenticated user, letting
// the settling page react to login and profile changes without polling.
func (h *Handler) handleRealtime(c echo.Context) error {
	ctx := c.Request().Context()

	session, ok := domain.SessionFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime unavailable"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		zap.L().Error("failed to upgrade websocket",
			zap.String("module", "socket"),
			zap.Error(err),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	events, cancel := h.signal.Subscribe(ctx, session.User.ID)
	defer cancel()

	quit := make(chan struct{})

	go func() {
		for {
			var req struct {
				Type string `json:"type"`
			}
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						zap.L().Debug("websocket closed",
							zap.String("module", "socket"),
							zap.Error(wsErr),
						)
					}
				} else {
					zap.L().Error("error reading message",
						zap.String("module", "socket"),
						zap.Error(err),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				zap.L().Info("unknown request type",
					zap.String("module", "socket"),
					zap.String("type", req.Type),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			err := ws.WriteJSON(event)
			if err != nil {
				zap.L().Error("error writing message",
					zap.String("module", "socket"),
					zap.Error(err),
				)
				return nil
			}
		}
	}
}

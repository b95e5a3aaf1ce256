package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/token"
	"github.com/insa-apps/studygate/internal/usecase"
)

var tracer = otel.Tracer("auth")

// AuthService verifies session tokens and keeps their embedded identity
// snapshot fresh.
type AuthService struct {
	codec     *token.Codec
	users     usecase.UserRepository
	snapshots usecase.SnapshotCache
	window    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(
	codec *token.Codec,
	users usecase.UserRepository,
	snapshots usecase.SnapshotCache,
	window time.Duration,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		codec:     codec,
		users:     users,
		snapshots: snapshots,
		window:    window,
		logger:    logger,
		now:       time.Now,
	}
}

// AuthToken verifies a session token and revalidates its snapshot. Any
// verification failure means unauthenticated; callers must not distinguish
// an expired token from a forged one.
func (s *AuthService) AuthToken(ctx context.Context, tokenStr string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthToken")
	defer span.End()

	session, err := s.codec.Verify(tokenStr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.revalidate(ctx, &session)
	return &session, nil
}

// revalidate refreshes the mutable snapshot fields once the freshness window
// has passed. This is a read-through cache with a fixed TTL: staleness up to
// the window is accepted, and a refresh failure keeps the stale snapshot
// rather than downgrading the request to unauthenticated.
func (s *AuthService) revalidate(ctx context.Context, session *domain.Session) {
	if s.now().Sub(session.LastRefreshed) < s.window {
		return
	}

	id := session.User.ID
	if snap, ok := s.snapshots.Get(ctx, id); ok {
		session.User = snap
		session.LastRefreshed = s.now()
		return
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("session revalidation failed, serving stale snapshot",
			zap.String("userId", id),
			zap.Error(err),
		)
		return
	}

	snap := domain.SnapshotOf(user)
	if err := s.snapshots.Set(ctx, id, snap, s.window); err != nil {
		s.logger.Debug("failed to cache refreshed snapshot", zap.Error(err))
	}
	session.User = snap
	session.LastRefreshed = s.now()
}

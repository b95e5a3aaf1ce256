package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/domain"
)

// SignalService fans session events out over redis pub/sub so settling pages
// can react to login and profile changes without polling.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func sessionChannel(userID string) string {
	return "session:" + userID
}

func (s *SignalService) Publish(ctx context.Context, userID string, event domain.SessionEvent) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, sessionChannel(userID), jsonstr).Err()
}

// Subscribe relays session events for the user until ctx is done or the
// returned cancel func is called.
func (s *SignalService) Subscribe(ctx context.Context, userID string) (<-chan domain.SessionEvent, func()) {
	pubsub := s.rdb.Subscribe(ctx, sessionChannel(userID))
	out := make(chan domain.SessionEvent)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					zap.L().Warn("failed to decode session event",
						zap.String("channel", sessionChannel(userID)),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }
}

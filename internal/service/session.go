package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/tubesage/internal/domain"
)

const sessionKeyPrefix = "chat:session:"

// SessionService binds opaque cookie tokens to chat rooms.
type SessionService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{rdb: redisClient, ttl: ttl}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Bind creates a new session token for roomID.
func (s *SessionService) Bind(ctx context.Context, roomID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Session.Service.Bind")
	defer span.End()

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate session token")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	err := s.rdb.Set(ctx, sessionKeyPrefix+token, roomID, s.ttl).Err()
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to store session")
	}
	return token, nil
}

// Room returns the room bound to token. Unknown or expired tokens yield
// domain.ErrNotFound.
func (s *SessionService) Room(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "Session.Service.Room")
	defer span.End()

	if token == "" {
		return "", domain.NotFoundError{Resource: "session"}
	}
	roomID, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.NotFoundError{Resource: "session"}
		}
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to load session")
	}
	return roomID, nil
}

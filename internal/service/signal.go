package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/logger"
)

const roomChannelPrefix = "chat:room:"

type SignalService struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewSignalService(redisClient *redis.Client, log *logger.Logger) *SignalService {
	return &SignalService{
		rdb: redisClient,
		log: log.With("module", "signal"),
	}
}

func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

func (s *SignalService) PublishMessage(ctx context.Context, msg domain.ChatMessage) error {

	jsonstr, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, RoomChannel(msg.RoomID), jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime forwards messages published on the room's channel to output until
// ctx is done. output is closed on return.
func (s *SignalService) Realtime(ctx context.Context, roomID string, output chan<- domain.ChatMessage) {
	defer close(output)

	pubsub := s.rdb.Subscribe(ctx, RoomChannel(roomID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var msg domain.ChatMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				s.log.Error("Failed to decode realtime message", "room", roomID, "error", err)
				continue
			}
			select {
			case output <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

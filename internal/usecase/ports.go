package usecase

import (
	"context"
	"time"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/platform"
)

// ContentRepository stores generated content. Get returns domain.ErrNotFound
// on a miss; Create returns domain.ErrAlreadyExists when a concurrent writer
// stored the same (key, kind) first.
type ContentRepository interface {
	Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error)
	Create(ctx context.Context, key tubesage.ResourceKey, content tubesage.Content) (tubesage.Content, error)
}

// ChatRepository stores rooms and their append-only message log.
type ChatRepository interface {
	FindRoom(ctx context.Context, lookup domain.RoomLookup) (domain.ChatRoom, error)
	GetRoom(ctx context.Context, id string) (domain.ChatRoom, error)
	CreateRoom(ctx context.Context, room domain.ChatRoom) (domain.ChatRoom, error)
	ListRooms(ctx context.Context, owner string) ([]domain.ChatRoom, error)
	SetPinned(ctx context.Context, id string, pinned bool) (domain.ChatRoom, error)
	AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)
	History(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
}

// QuizResultRepository stores quiz attempts.
type QuizResultRepository interface {
	Create(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error)
	ListByVideo(ctx context.Context, key tubesage.ResourceKey, since time.Time) ([]domain.QuizResult, error)
}

// Generator encapsulates the external generation service.
type Generator interface {
	Transcript(ctx context.Context, key tubesage.ResourceKey) (tubesage.Transcript, error)
	Summarize(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) (string, error)
	Quiz(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) ([]tubesage.QuizQuestion, error)
	Answer(ctx context.Context, key tubesage.ResourceKey, question string, history []tubesage.Turn) (string, error)
}

// Resolver turns user input into a canonical key.
type Resolver interface {
	Resolve(ctx context.Context, q platform.Query) (tubesage.ResourceKey, error)
}

// Publisher fans out chat messages to realtime subscribers.
type Publisher interface {
	PublishMessage(ctx context.Context, msg domain.ChatMessage) error
}

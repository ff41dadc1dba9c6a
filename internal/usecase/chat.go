package usecase

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

const defaultHistoryTurns = 20

// ChatUsecase resolves chat rooms and answers questions inside them.
type ChatUsecase struct {
	repo      ChatRepository
	generator Generator
	publisher Publisher
	scope     domain.ChatScope
	history   int
}

func NewChatUsecase(repo ChatRepository, generator Generator, publisher Publisher, scope domain.ChatScope, history int) *ChatUsecase {
	if !scope.Valid() {
		scope = domain.ChatScopeOwner
	}
	if history <= 0 {
		history = defaultHistoryTurns
	}
	return &ChatUsecase{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		scope:     scope,
		history:   history,
	}
}

func (uc *ChatUsecase) lookup(key tubesage.ResourceKey, owner string) domain.RoomLookup {
	if uc.scope == domain.ChatScopeVideo {
		return domain.RoomLookup{Key: key}
	}
	return domain.RoomLookup{Key: key, Owner: owner}
}

// ResolveRoom returns the room for key under the deployment's scope together
// with its full history, creating an empty room on first use. Lookup failures
// other than not-found fail closed.
func (uc *ChatUsecase) ResolveRoom(ctx context.Context, key tubesage.ResourceKey, owner string) (domain.ChatRoom, []domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.ResolveRoom")
	defer span.End()
	span.SetAttributes(attribute.String("key", key.String()))

	if uc.scope == domain.ChatScopeOwner && owner == "" {
		return domain.ChatRoom{}, nil, domain.NewInputError(domain.CodeUnauthorized, "a signed in user is required to open a chat room")
	}

	lookup := uc.lookup(key, owner)
	room, err := uc.repo.FindRoom(ctx, lookup)
	if err == nil {
		history, err := uc.repo.History(ctx, room.ID)
		if err != nil {
			span.RecordError(err)
			return domain.ChatRoom{}, nil, &domain.StorageError{Op: "history", Err: err}
		}
		return room, history, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return domain.ChatRoom{}, nil, &domain.StorageError{Op: "lookup", Err: err}
	}

	room, err = uc.repo.CreateRoom(ctx, domain.ChatRoom{Key: key, Owner: lookup.Owner})
	if err == nil {
		return room, []domain.ChatMessage{}, nil
	}
	if errors.Is(err, domain.ErrAlreadyExists) {
		// lost the creation race; the winner's room is the one to use
		room, rerr := uc.repo.FindRoom(ctx, lookup)
		if rerr == nil {
			history, herr := uc.repo.History(ctx, room.ID)
			if herr == nil {
				return room, history, nil
			}
			rerr = herr
		}
		err = rerr
	}
	span.RecordError(err)
	return domain.ChatRoom{}, nil, &domain.StorageError{Op: "create room", Err: err}
}

// Room returns a room the requester may access.
func (uc *ChatUsecase) Room(ctx context.Context, roomID, requester string) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.Room")
	defer span.End()

	room, err := uc.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ChatRoom{}, err
		}
		span.RecordError(err)
		return domain.ChatRoom{}, &domain.StorageError{Op: "lookup", Err: err}
	}
	if room.Owner != "" && room.Owner != requester {
		return domain.ChatRoom{}, domain.NewInputError(domain.CodeForbidden, "this chat room belongs to another user")
	}
	return room, nil
}

// SessionRoom loads a room for a caller holding a session bound to it. The
// session stands in for the owner check.
func (uc *ChatUsecase) SessionRoom(ctx context.Context, roomID string) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.SessionRoom")
	defer span.End()

	room, err := uc.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ChatRoom{}, err
		}
		span.RecordError(err)
		return domain.ChatRoom{}, &domain.StorageError{Op: "lookup", Err: err}
	}
	return room, nil
}

// AppendMessage stores one message and returns it with its server assigned
// id and timestamp.
func (uc *ChatUsecase) AppendMessage(ctx context.Context, roomID string, sender tubesage.Sender, text string) (domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.AppendMessage")
	defer span.End()

	msg, err := uc.repo.AppendMessage(ctx, domain.ChatMessage{RoomID: roomID, Sender: sender, Text: text})
	if err != nil {
		span.RecordError(err)
		return domain.ChatMessage{}, &domain.StorageError{Op: "append message", Err: err}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishMessage(ctx, msg); err != nil {
			// realtime delivery is best effort
			span.RecordError(err)
		}
	}
	return msg, nil
}

// Ask stores the question, asks the generator with the room's recent
// history and stores the reply. The question stays stored when generation
// fails.
func (uc *ChatUsecase) Ask(ctx context.Context, room domain.ChatRoom, question string) (domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.Ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatMessage{}, domain.NewInputError(domain.CodeInvalidBody, "message must not be empty")
	}

	history, err := uc.repo.History(ctx, room.ID)
	if err != nil {
		span.RecordError(err)
		return domain.ChatMessage{}, &domain.StorageError{Op: "history", Err: err}
	}

	if _, err := uc.AppendMessage(ctx, room.ID, tubesage.SenderUser, question); err != nil {
		return domain.ChatMessage{}, err
	}

	if len(history) > uc.history {
		history = history[len(history)-uc.history:]
	}
	turns := make([]tubesage.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, tubesage.Turn{Sender: msg.Sender, Text: msg.Text})
	}

	answer, err := uc.generator.Answer(ctx, room.Key, question, turns)
	if err != nil {
		span.RecordError(err)
		return domain.ChatMessage{}, &domain.GenerationError{Kind: "chat", Err: err}
	}

	return uc.AppendMessage(ctx, room.ID, tubesage.SenderAssistant, answer)
}

func (uc *ChatUsecase) ListRooms(ctx context.Context, owner string) ([]domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.ListRooms")
	defer span.End()

	rooms, err := uc.repo.ListRooms(ctx, owner)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.StorageError{Op: "list rooms", Err: err}
	}
	return rooms, nil
}

// SetPinned pins or unpins a room. Only the owner may change it.
func (uc *ChatUsecase) SetPinned(ctx context.Context, roomID, requester string, pinned bool) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Chat.SetPinned")
	defer span.End()

	room, err := uc.Room(ctx, roomID, requester)
	if err != nil {
		return domain.ChatRoom{}, err
	}
	if room.Owner == "" {
		return domain.ChatRoom{}, domain.NewInputError(domain.CodeForbidden, "shared chat rooms cannot be pinned")
	}

	updated, err := uc.repo.SetPinned(ctx, room.ID, pinned)
	if err != nil {
		span.RecordError(err)
		return domain.ChatRoom{}, &domain.StorageError{Op: "pin room", Err: err}
	}
	return updated, nil
}

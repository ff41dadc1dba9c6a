package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/infra/database/models"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) FindRoom(ctx context.Context, lookup domain.RoomLookup) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.FindRoom")
	defer span.End()

	var row models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("platform = ? AND video_id = ? AND owner = ?", lookup.Key.Platform, lookup.Key.VideoID, lookup.Owner).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoom{}, domain.NotFoundError{Resource: "chat room"}
		}
		span.RecordError(err)
		return domain.ChatRoom{}, errors.Wrap(err, "failed to query chat room")
	}
	return roomFromModel(row), nil
}

func (r *ChatRepository) GetRoom(ctx context.Context, id string) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.GetRoom")
	defer span.End()

	var row models.ChatRoom
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoom{}, domain.NotFoundError{Resource: "chat room"}
		}
		span.RecordError(err)
		return domain.ChatRoom{}, errors.Wrap(err, "failed to query chat room")
	}
	return roomFromModel(row), nil
}

// CreateRoom inserts a new room. The scope columns are unique, so a racing
// creator gets domain.ErrAlreadyExists and should re-read.
func (r *ChatRepository) CreateRoom(ctx context.Context, room domain.ChatRoom) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.CreateRoom")
	defer span.End()

	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	row := models.ChatRoom{
		ID:       room.ID,
		Platform: room.Key.Platform,
		VideoID:  room.Key.VideoID,
		Owner:    room.Owner,
		Title:    room.Title,
		Pinned:   room.Pinned,
	}

	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ChatRoom{}, domain.ErrAlreadyExists
		}
		span.RecordError(err)
		return domain.ChatRoom{}, errors.Wrap(err, "failed to insert chat room")
	}
	return roomFromModel(row), nil
}

// ListRooms returns the owner's rooms, pinned first, newest first.
func (r *ChatRepository) ListRooms(ctx context.Context, owner string) ([]domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.ListRooms")
	defer span.End()

	var rows []models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("pinned DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to list chat rooms")
	}

	rooms := make([]domain.ChatRoom, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, roomFromModel(row))
	}
	return rooms, nil
}

func (r *ChatRepository) SetPinned(ctx context.Context, id string, pinned bool) (domain.ChatRoom, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.SetPinned")
	defer span.End()

	result := r.db.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", id).
		Update("pinned", pinned)
	if result.Error != nil {
		span.RecordError(result.Error)
		return domain.ChatRoom{}, errors.Wrap(result.Error, "failed to update chat room")
	}
	if result.RowsAffected == 0 {
		return domain.ChatRoom{}, domain.NotFoundError{Resource: "chat room"}
	}
	return r.GetRoom(ctx, id)
}

func (r *ChatRepository) AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.AppendMessage")
	defer span.End()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	row := models.ChatMessage{
		ID:     msg.ID,
		RoomID: msg.RoomID,
		Sender: string(msg.Sender),
		Text:   msg.Text,
	}

	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		return domain.ChatMessage{}, errors.Wrap(err, "failed to insert chat message")
	}
	return messageFromModel(row), nil
}

// History returns every message of the room in conversation order.
func (r *ChatRepository) History(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Repository.Chat.History")
	defer span.End()

	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to query chat history")
	}

	messages := make([]domain.ChatMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageFromModel(row))
	}
	return messages, nil
}

func roomFromModel(row models.ChatRoom) domain.ChatRoom {
	return domain.ChatRoom{
		ID:        row.ID,
		Key:       tubesage.ResourceKey{Platform: row.Platform, VideoID: row.VideoID},
		Owner:     row.Owner,
		Title:     row.Title,
		Pinned:    row.Pinned,
		CreatedAt: row.CreatedAt,
	}
}

func messageFromModel(row models.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        row.ID,
		RoomID:    row.RoomID,
		Sender:    tubesage.Sender(row.Sender),
		Text:      row.Text,
		Seq:       row.Seq,
		CreatedAt: row.CreatedAt,
	}
}

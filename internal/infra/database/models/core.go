package models

import (
	"time"
)

// Content is one generated summary or quiz. The unique index makes the
// cache-aside write idempotent per (platform, video_id, kind).
type Content struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Platform  string    `json:"platform" gorm:"type:text;not null;uniqueIndex:idx_content_key"`
	VideoID   string    `json:"videoId" gorm:"type:text;not null;uniqueIndex:idx_content_key"`
	Kind      string    `json:"kind" gorm:"type:text;not null;uniqueIndex:idx_content_key"`
	Body      string    `json:"body" gorm:"type:text"`
	Questions string    `json:"questions" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null"`
}

// ChatRoom is keyed by (platform, video_id, owner). Owner is empty when rooms
// are shared per video.
type ChatRoom struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Platform  string    `json:"platform" gorm:"type:text;not null;uniqueIndex:idx_chat_room_scope"`
	VideoID   string    `json:"videoId" gorm:"type:text;not null;uniqueIndex:idx_chat_room_scope"`
	Owner     string    `json:"owner" gorm:"type:text;not null;default:'';uniqueIndex:idx_chat_room_scope;index"`
	Title     string    `json:"title" gorm:"type:text"`
	Pinned    bool      `json:"pinned" gorm:"type:boolean;not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null"`
}

type ChatMessage struct {
	Seq       int64     `json:"seq" gorm:"primaryKey;autoIncrement"`
	ID        string    `json:"id" gorm:"type:text;not null;uniqueIndex"`
	RoomID    string    `json:"roomId" gorm:"type:text;not null;index:idx_chat_message_room"`
	Room      ChatRoom  `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnDelete:CASCADE;"`
	Sender    string    `json:"sender" gorm:"type:text;not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null;index:idx_chat_message_room"`
}

type QuizResult struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	User      string    `json:"user" gorm:"type:text;not null;index"`
	Platform  string    `json:"platform" gorm:"type:text;not null;index:idx_quiz_result_key"`
	VideoID   string    `json:"videoId" gorm:"type:text;not null;index:idx_quiz_result_key"`
	Score     int       `json:"score" gorm:"not null"`
	Total     int       `json:"total" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null;index:idx_quiz_result_key"`
}

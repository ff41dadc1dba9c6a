package domain

import (
	"time"

	"github.com/totegamma/tubesage"
)

// ChatRoom is a per-video conversation. Rooms are never deleted implicitly.
type ChatRoom struct {
	ID        string               `json:"id"`
	Key       tubesage.ResourceKey `json:"key"`
	Owner     string               `json:"owner,omitempty"`
	Title     string               `json:"title,omitempty"`
	Pinned    bool                 `json:"pinned"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ChatMessage is append-only. Order is CreatedAt, then Seq.
type ChatMessage struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room"`
	Sender    tubesage.Sender `json:"sender"`
	Text      string          `json:"text"`
	Seq       int64           `json:"seq"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RoomLookup selects a room under the deployment's scoping policy. Owner is
// empty when rooms are shared per video.
type RoomLookup struct {
	Key   tubesage.ResourceKey
	Owner string
}

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

var testKey = tubesage.ResourceKey{Platform: "youtube", VideoID: "dQw4w9WgXcQ"}

type mockContentRepo struct {
	mu        sync.Mutex
	stored    map[string]tubesage.Content
	getErr    error
	createErr error
	gets      int
	creates   int
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{stored: map[string]tubesage.Content{}}
}

func (m *mockContentRepo) Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return tubesage.Content{}, m.getErr
	}
	c, ok := m.stored[key.String()+"#"+string(kind)]
	if !ok {
		return tubesage.Content{}, domain.NotFoundError{Resource: string(kind)}
	}
	return c, nil
}

func (m *mockContentRepo) Create(ctx context.Context, key tubesage.ResourceKey, content tubesage.Content) (tubesage.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return tubesage.Content{}, m.createErr
	}
	k := key.String() + "#" + string(content.Kind)
	if _, ok := m.stored[k]; ok {
		return tubesage.Content{}, domain.ErrAlreadyExists
	}
	content.CreatedAt = time.Now()
	m.stored[k] = content
	return content, nil
}

type mockGenerator struct {
	mu          sync.Mutex
	transcripts int
	summaries   int
	quizzes     int
	answers     int
	err         error
	summary     string
	questions   []tubesage.QuizQuestion
	answer      string
	lastHistory []tubesage.Turn
}

func (m *mockGenerator) Transcript(ctx context.Context, key tubesage.ResourceKey) (tubesage.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts++
	return tubesage.Transcript{Title: "title", Text: "transcript of " + key.VideoID}, nil
}

func (m *mockGenerator) Summarize(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

func (m *mockGenerator) Quiz(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) ([]tubesage.QuizQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes++
	if m.err != nil {
		return nil, m.err
	}
	return m.questions, nil
}

func (m *mockGenerator) Answer(ctx context.Context, key tubesage.ResourceKey, question string, history []tubesage.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers++
	m.lastHistory = history
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

type mockChatRepo struct {
	mu       sync.Mutex
	rooms    map[string]domain.ChatRoom
	messages map[string][]domain.ChatMessage
	findErr  error
	creates  int
	seq      int64
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{rooms: map[string]domain.ChatRoom{}, messages: map[string][]domain.ChatMessage{}}
}

func (m *mockChatRepo) FindRoom(ctx context.Context, lookup domain.RoomLookup) (domain.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.ChatRoom{}, m.findErr
	}
	for _, r := range m.rooms {
		if r.Key == lookup.Key && r.Owner == lookup.Owner {
			return r, nil
		}
	}
	return domain.ChatRoom{}, domain.ErrNotFound
}

func (m *mockChatRepo) GetRoom(ctx context.Context, id string) (domain.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return domain.ChatRoom{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *mockChatRepo) CreateRoom(ctx context.Context, room domain.ChatRoom) (domain.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	for _, r := range m.rooms {
		if r.Key == room.Key && r.Owner == room.Owner {
			return domain.ChatRoom{}, domain.ErrAlreadyExists
		}
	}
	room.ID = "room-" + room.Key.VideoID + "-" + room.Owner
	room.CreatedAt = time.Now()
	m.rooms[room.ID] = room
	return room, nil
}

func (m *mockChatRepo) ListRooms(ctx context.Context, owner string) ([]domain.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rooms []domain.ChatRoom
	for _, r := range m.rooms {
		if r.Owner == owner {
			rooms = append(rooms, r)
		}
	}
	return rooms, nil
}

func (m *mockChatRepo) SetPinned(ctx context.Context, id string, pinned bool) (domain.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return domain.ChatRoom{}, domain.ErrNotFound
	}
	r.Pinned = pinned
	m.rooms[id] = r
	return r, nil
}

func (m *mockChatRepo) AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg.Seq = m.seq
	msg.ID = "msg-" + msg.Text
	msg.CreatedAt = time.Now()
	m.messages[msg.RoomID] = append(m.messages[msg.RoomID], msg)
	return msg, nil
}

func (m *mockChatRepo) History(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatMessage, len(m.messages[roomID]))
	copy(out, m.messages[roomID])
	return out, nil
}

type mockPublisher struct {
	published []domain.ChatMessage
}

func (m *mockPublisher) PublishMessage(ctx context.Context, msg domain.ChatMessage) error {
	m.published = append(m.published, msg)
	return nil
}

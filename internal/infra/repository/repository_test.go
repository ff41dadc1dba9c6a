package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/infra/database"
	"github.com/totegamma/tubesage/internal/infra/database/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var testKey = tubesage.ResourceKey{Platform: "youtube", VideoID: "dQw4w9WgXcQ"}

func TestContentMissIsNotFound(t *testing.T) {
	repo := NewContentRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), testKey, tubesage.KindSummary)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestContentCreateAndGet(t *testing.T) {
	repo := NewContentRepository(newTestDB(t))
	ctx := context.Background()

	quiz := tubesage.Content{
		Kind: tubesage.KindQuiz,
		Questions: []tubesage.QuizQuestion{
			{Question: "q1", Options: []string{"a", "b", "c", "d"}, Answer: "b"},
		},
	}
	if _, err := repo.Create(ctx, testKey, quiz); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.Get(ctx, testKey, tubesage.KindQuiz)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].Answer != "b" {
		t.Fatalf("unexpected questions %+v", got.Questions)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created at to be set")
	}

	// the other kind for the same key is still a miss
	if _, err := repo.Get(ctx, testKey, tubesage.KindSummary); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected summary miss got %v", err)
	}
}

func TestContentDuplicateIsAlreadyExists(t *testing.T) {
	repo := NewContentRepository(newTestDB(t))
	ctx := context.Background()

	summary := tubesage.Content{Kind: tubesage.KindSummary, Body: "first"}
	if _, err := repo.Create(ctx, testKey, summary); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := repo.Create(ctx, testKey, tubesage.Content{Kind: tubesage.KindSummary, Body: "second"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists got %v", err)
	}

	got, err := repo.Get(ctx, testKey, tubesage.KindSummary)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Body != "first" {
		t.Fatalf("stored record was overwritten: %q", got.Body)
	}
}

func TestContentConcurrentCreateStoresOne(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)

	var g errgroup.Group
	var duplicates int32
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := repo.Create(context.Background(), testKey, tubesage.Content{Kind: tubesage.KindSummary, Body: "s"})
			results <- err
			return nil
		})
	}
	g.Wait()
	close(results)

	for err := range results {
		if errors.Is(err, domain.ErrAlreadyExists) {
			duplicates++
		} else if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if duplicates != 1 {
		t.Fatalf("expected exactly one duplicate rejection got %d", duplicates)
	}

	var count int64
	db.Model(&models.Content{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one stored record got %d", count)
	}
}

func TestChatRoomLifecycle(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	ctx := context.Background()
	lookup := domain.RoomLookup{Key: testKey, Owner: "alice"}

	if _, err := repo.FindRoom(ctx, lookup); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}

	room, err := repo.CreateRoom(ctx, domain.ChatRoom{Key: testKey, Owner: "alice"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	if room.ID == "" || room.Pinned {
		t.Fatalf("unexpected room %+v", room)
	}

	if _, err := repo.CreateRoom(ctx, domain.ChatRoom{Key: testKey, Owner: "alice"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists got %v", err)
	}

	// another owner gets a separate room for the same video
	if _, err := repo.CreateRoom(ctx, domain.ChatRoom{Key: testKey, Owner: "bob"}); err != nil {
		t.Fatalf("create room for second owner failed: %v", err)
	}

	found, err := repo.FindRoom(ctx, lookup)
	if err != nil {
		t.Fatalf("find room failed: %v", err)
	}
	if found.ID != room.ID {
		t.Fatalf("expected %s got %s", room.ID, found.ID)
	}

	pinned, err := repo.SetPinned(ctx, room.ID, true)
	if err != nil {
		t.Fatalf("pin failed: %v", err)
	}
	if !pinned.Pinned {
		t.Fatalf("expected room to be pinned")
	}

	if _, err := repo.SetPinned(ctx, "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestChatListRoomsPinnedFirst(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.CreateRoom(ctx, domain.ChatRoom{Key: tubesage.ResourceKey{Platform: "youtube", VideoID: "aaaaaaaaaaa"}, Owner: "alice"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	_, err = repo.CreateRoom(ctx, domain.ChatRoom{Key: tubesage.ResourceKey{Platform: "youtube", VideoID: "bbbbbbbbbbb"}, Owner: "alice"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	if _, err := repo.SetPinned(ctx, first.ID, true); err != nil {
		t.Fatalf("pin failed: %v", err)
	}

	rooms, err := repo.ListRooms(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms got %d", len(rooms))
	}
	if rooms[0].ID != first.ID {
		t.Fatalf("expected pinned room first")
	}

	others, err := repo.ListRooms(ctx, "bob")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("expected no rooms for bob got %d", len(others))
	}
}

func TestChatHistoryOrder(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, domain.ChatRoom{Key: testKey})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		sender := tubesage.SenderUser
		if i%2 == 1 {
			sender = tubesage.SenderAssistant
		}
		msg, err := repo.AppendMessage(ctx, domain.ChatMessage{RoomID: room.ID, Sender: sender, Text: text})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if msg.ID == "" || msg.CreatedAt.IsZero() {
			t.Fatalf("expected server assigned id and timestamp got %+v", msg)
		}
	}

	history, err := repo.History(ctx, room.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != len(texts) {
		t.Fatalf("expected %d messages got %d", len(texts), len(history))
	}
	for i, msg := range history {
		if msg.Text != texts[i] {
			t.Fatalf("message %d: expected %q got %q", i, texts[i], msg.Text)
		}
	}
}

func TestQuizResultsWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizResultRepository(db)
	ctx := context.Background()

	old := models.QuizResult{
		ID:        uuid.NewString(),
		User:      "carol@example.com",
		Platform:  testKey.Platform,
		VideoID:   testKey.VideoID,
		Score:     1,
		Total:     5,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for _, score := range []int{3, 5} {
		_, err := repo.Create(ctx, domain.QuizResult{User: "alice@example.com", Key: testKey, Score: score, Total: 5})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	results, err := repo.ListByVideo(ctx, testKey, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results in window got %d", len(results))
	}
	for _, r := range results {
		if r.User != "alice@example.com" {
			t.Fatalf("unexpected result outside window %+v", r)
		}
	}
}

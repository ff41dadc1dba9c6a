package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

type mockQuizResultRepo struct {
	created []domain.QuizResult
	since   time.Time
}

func (m *mockQuizResultRepo) Create(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	result.ID = "r"
	result.CreatedAt = time.Now()
	m.created = append(m.created, result)
	return result, nil
}

func (m *mockQuizResultRepo) ListByVideo(ctx context.Context, key tubesage.ResourceKey, since time.Time) ([]domain.QuizResult, error) {
	m.since = since
	return m.created, nil
}

func TestQuizResultRecordValidates(t *testing.T) {
	uc := NewQuizResultUsecase(&mockQuizResultRepo{})
	ctx := context.Background()

	cases := []struct {
		user         string
		score, total int
		code         domain.ErrorCode
	}{
		{user: "", score: 1, total: 5, code: domain.CodeUnauthorized},
		{user: "a", score: 6, total: 5, code: domain.CodeInvalidBody},
		{user: "a", score: -1, total: 5, code: domain.CodeInvalidBody},
		{user: "a", score: 0, total: 0, code: domain.CodeInvalidBody},
	}
	for _, c := range cases {
		_, err := uc.Record(ctx, c.user, testKey, c.score, c.total)
		var inputErr *domain.InputError
		if !errors.As(err, &inputErr) || inputErr.Code != c.code {
			t.Fatalf("%+v: expected %s got %v", c, c.code, err)
		}
	}
}

func TestQuizResultReport(t *testing.T) {
	repo := &mockQuizResultRepo{}
	uc := NewQuizResultUsecase(repo)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }
	ctx := context.Background()

	for _, r := range []struct {
		user  string
		score int
	}{{"alice", 2}, {"bob", 5}, {"alice", 4}} {
		if _, err := uc.Record(ctx, r.user, testKey, r.score, 5); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	report, err := uc.Report(ctx, testKey, time.Time{})
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !repo.since.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("expected default window got %v", repo.since)
	}
	stats := report.Stats
	if stats.Attempts != 3 || stats.Participants != 2 || stats.Highest != 5 || stats.Lowest != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Average < 3.66 || stats.Average > 3.67 {
		t.Fatalf("unexpected average %f", stats.Average)
	}
}

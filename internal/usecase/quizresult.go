package usecase

import (
	"context"
	"time"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

// DefaultReportWindow is how far back a teacher report looks by default.
const DefaultReportWindow = 24 * time.Hour

type QuizResultUsecase struct {
	repo QuizResultRepository
	now  func() time.Time
}

func NewQuizResultUsecase(repo QuizResultRepository) *QuizResultUsecase {
	return &QuizResultUsecase{repo: repo, now: time.Now}
}

func (uc *QuizResultUsecase) Record(ctx context.Context, user string, key tubesage.ResourceKey, score, total int) (domain.QuizResult, error) {
	ctx, span := tracer.Start(ctx, "Usecase.QuizResult.Record")
	defer span.End()

	if user == "" {
		return domain.QuizResult{}, domain.NewInputError(domain.CodeUnauthorized, "a signed in user is required to record a result")
	}
	if total <= 0 || score < 0 || score > total {
		return domain.QuizResult{}, domain.NewInputError(domain.CodeInvalidBody, "score must be between 0 and total")
	}

	result, err := uc.repo.Create(ctx, domain.QuizResult{User: user, Key: key, Score: score, Total: total})
	if err != nil {
		span.RecordError(err)
		return domain.QuizResult{}, &domain.StorageError{Op: "record result", Err: err}
	}
	return result, nil
}

type QuizReport struct {
	Key     tubesage.ResourceKey `json:"key"`
	Since   time.Time            `json:"since"`
	Stats   domain.QuizStats     `json:"stats"`
	Results []domain.QuizResult  `json:"results"`
}

// Report aggregates attempts for key since the given time. A zero since
// means the default window.
func (uc *QuizResultUsecase) Report(ctx context.Context, key tubesage.ResourceKey, since time.Time) (QuizReport, error) {
	ctx, span := tracer.Start(ctx, "Usecase.QuizResult.Report")
	defer span.End()

	if since.IsZero() {
		since = uc.now().Add(-DefaultReportWindow)
	}

	results, err := uc.repo.ListByVideo(ctx, key, since)
	if err != nil {
		span.RecordError(err)
		return QuizReport{}, &domain.StorageError{Op: "list results", Err: err}
	}
	return QuizReport{
		Key:     key,
		Since:   since,
		Stats:   domain.Summarize(results),
		Results: results,
	}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

const defaultGenerationTimeout = 2 * time.Minute

var errMalformedQuiz = errors.New("generated quiz is malformed")

// ContentUsecase serves summaries and quizzes from the store, generating and
// persisting them on first request.
type ContentUsecase struct {
	repo      ContentRepository
	generator Generator
	timeout   time.Duration
}

func NewContentUsecase(repo ContentRepository, generator Generator, timeout time.Duration) *ContentUsecase {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &ContentUsecase{repo: repo, generator: generator, timeout: timeout}
}

func (uc *ContentUsecase) Summary(ctx context.Context, key tubesage.ResourceKey) (tubesage.Content, error) {
	return uc.Get(ctx, key, tubesage.KindSummary)
}

func (uc *ContentUsecase) Quiz(ctx context.Context, key tubesage.ResourceKey) (tubesage.Content, error) {
	return uc.Get(ctx, key, tubesage.KindQuiz)
}

// Get returns the stored content for (key, kind), generating it on a miss.
//
// When generation succeeds but persisting fails, the content is returned
// together with a *domain.StorageError so callers can still serve it.
func (uc *ContentUsecase) Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error) {
	switch kind {
	case tubesage.KindSummary:
		return uc.getOrGenerate(ctx, key, kind, func(ctx context.Context, transcript tubesage.Transcript) (tubesage.Content, error) {
			body, err := uc.generator.Summarize(ctx, key, transcript)
			if err != nil {
				return tubesage.Content{}, err
			}
			return tubesage.Content{Kind: tubesage.KindSummary, Body: body}, nil
		})
	case tubesage.KindQuiz:
		return uc.getOrGenerate(ctx, key, kind, func(ctx context.Context, transcript tubesage.Transcript) (tubesage.Content, error) {
			questions, err := uc.generator.Quiz(ctx, key, transcript)
			if err != nil {
				return tubesage.Content{}, err
			}
			if !tubesage.QuizValid(questions) {
				return tubesage.Content{}, errMalformedQuiz
			}
			return tubesage.Content{Kind: tubesage.KindQuiz, Questions: questions}, nil
		})
	default:
		return tubesage.Content{}, domain.NewInputError(domain.CodeInvalidParams, "unknown content kind")
	}
}

type generateFunc func(ctx context.Context, transcript tubesage.Transcript) (tubesage.Content, error)

func (uc *ContentUsecase) getOrGenerate(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind, generate generateFunc) (tubesage.Content, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Content.GetOrGenerate")
	defer span.End()
	span.SetAttributes(attribute.String("key", key.String()), attribute.String("kind", string(kind)))

	stored, err := uc.repo.Get(ctx, key, kind)
	if err == nil {
		span.SetAttributes(attribute.Bool("hit", true))
		return stored, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return tubesage.Content{}, &domain.StorageError{Op: "lookup", Err: err}
	}
	span.SetAttributes(attribute.Bool("hit", false))

	content, err := uc.generate(ctx, key, kind, generate)
	if err != nil {
		span.RecordError(err)
		return tubesage.Content{}, domain.NewGenerationError(kind, err)
	}

	created, err := uc.repo.Create(ctx, key, content)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, domain.ErrAlreadyExists) {
		// a concurrent request stored first; serve its record
		winner, rerr := uc.repo.Get(ctx, key, kind)
		if rerr == nil {
			return winner, nil
		}
		err = rerr
	}
	span.RecordError(err)
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}
	return content, &domain.StorageError{Op: "persist", Err: err}
}

func (uc *ContentUsecase) generate(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind, generate generateFunc) (tubesage.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	transcript, err := uc.generator.Transcript(ctx, key)
	if err != nil {
		return tubesage.Content{}, errors.Wrap(err, "failed to fetch transcript")
	}
	content, err := generate(ctx, transcript)
	if err != nil {
		return tubesage.Content{}, err
	}
	content.Kind = kind
	return content, nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/infra/database/models"
)

type QuizResultRepository struct {
	db *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{db: db}
}

func (r *QuizResultRepository) Create(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	ctx, span := tracer.Start(ctx, "Repository.QuizResult.Create")
	defer span.End()

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	row := models.QuizResult{
		ID:       result.ID,
		User:     result.User,
		Platform: result.Key.Platform,
		VideoID:  result.Key.VideoID,
		Score:    result.Score,
		Total:    result.Total,
	}

	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		return domain.QuizResult{}, errors.Wrap(err, "failed to insert quiz result")
	}
	return resultFromModel(row), nil
}

// ListByVideo returns attempts for key recorded at or after since, newest first.
func (r *QuizResultRepository) ListByVideo(ctx context.Context, key tubesage.ResourceKey, since time.Time) ([]domain.QuizResult, error) {
	ctx, span := tracer.Start(ctx, "Repository.QuizResult.ListByVideo")
	defer span.End()

	var rows []models.QuizResult
	err := r.db.WithContext(ctx).
		Where("platform = ? AND video_id = ? AND created_at >= ?", key.Platform, key.VideoID, since).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to query quiz results")
	}

	results := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, resultFromModel(row))
	}
	return results, nil
}

func resultFromModel(row models.QuizResult) domain.QuizResult {
	return domain.QuizResult{
		ID:        row.ID,
		User:      row.User,
		Key:       tubesage.ResourceKey{Platform: row.Platform, VideoID: row.VideoID},
		Score:     row.Score,
		Total:     row.Total,
		CreatedAt: row.CreatedAt,
	}
}

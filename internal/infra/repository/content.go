package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/infra/database/models"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error) {
	ctx, span := tracer.Start(ctx, "Repository.Content.Get")
	defer span.End()

	var row models.Content
	err := r.db.WithContext(ctx).
		Where("platform = ? AND video_id = ? AND kind = ?", key.Platform, key.VideoID, string(kind)).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tubesage.Content{}, domain.NotFoundError{Resource: string(kind)}
		}
		span.RecordError(err)
		return tubesage.Content{}, errors.Wrap(err, "failed to query content")
	}

	return contentFromModel(row)
}

// Create stores a freshly generated content. A concurrent writer that got
// there first yields domain.ErrAlreadyExists.
func (r *ContentRepository) Create(ctx context.Context, key tubesage.ResourceKey, content tubesage.Content) (tubesage.Content, error) {
	ctx, span := tracer.Start(ctx, "Repository.Content.Create")
	defer span.End()

	row := models.Content{
		Platform: key.Platform,
		VideoID:  key.VideoID,
		Kind:     string(content.Kind),
		Body:     content.Body,
	}
	if content.Kind == tubesage.KindQuiz {
		questions, err := json.Marshal(content.Questions)
		if err != nil {
			return tubesage.Content{}, errors.Wrap(err, "failed to encode questions")
		}
		row.Questions = string(questions)
	}

	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return tubesage.Content{}, domain.ErrAlreadyExists
		}
		span.RecordError(err)
		return tubesage.Content{}, errors.Wrap(err, "failed to insert content")
	}

	return contentFromModel(row)
}

func contentFromModel(row models.Content) (tubesage.Content, error) {
	content := tubesage.Content{
		Kind:      tubesage.ContentKind(row.Kind),
		Body:      row.Body,
		CreatedAt: row.CreatedAt,
	}
	if row.Questions != "" {
		err := json.Unmarshal([]byte(row.Questions), &content.Questions)
		if err != nil {
			return tubesage.Content{}, errors.Wrap(err, "failed to decode stored questions")
		}
	}
	return content, nil
}

package repository

import (
	"context"

	"sskerp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StagingRepository owns the uploaded-but-unconfirmed batches and their
// staged lines.
type StagingRepository interface {
	CreateBatch(ctx context.Context, batch *model.UploadBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UploadBatch, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.UploadBatch, error)
	// DeleteUnconfirmedByUploader removes the operator's previous
	// unconfirmed batches and their lines; used to supersede on re-upload.
	DeleteUnconfirmedByUploader(ctx context.Context, uploadedBy uuid.UUID) (int64, error)
	DeleteBatch(ctx context.Context, id uuid.UUID) error
}

type stagingRepository struct {
	db *gorm.DB
}

func NewStagingRepository(db *gorm.DB) StagingRepository {
	return &stagingRepository{db: db}
}

func (r *stagingRepository) CreateBatch(ctx context.Context, batch *model.UploadBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *stagingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UploadBatch, error) {
	var batch model.UploadBatch
	if err := GetDB(ctx, r.db).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *stagingRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.UploadBatch, error) {
	var batch model.UploadBatch
	err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no asc") }).
		First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *stagingRepository) DeleteUnconfirmedByUploader(ctx context.Context, uploadedBy uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)

	var ids []uuid.UUID
	err := db.Model(&model.UploadBatch{}).
		Where("uploaded_by = ? AND status = ?", uploadedBy, model.BatchStatusUploaded).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := db.Where("batch_id IN ?", ids).Delete(&model.StagedLine{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id IN ?", ids).Delete(&model.UploadBatch{})
	return res.RowsAffected, res.Error
}

func (r *stagingRepository) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("batch_id = ?", id).Delete(&model.StagedLine{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.UploadBatch{}).Error
}

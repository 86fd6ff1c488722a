package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"like-bot/internal/model"
)

// JobRepository handles verification jobs.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *model.VerificationJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByCode(ctx context.Context, code string) (*model.VerificationJob, error) {
	var job model.VerificationJob
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkVerified flips verified false->true for the given code. The conditional
// update guarantees a code is consumed at most once; a second click reports
// false.
func (r *JobRepository) MarkVerified(ctx context.Context, code string, verifiedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.VerificationJob{}).
		Where("code = ? AND verified = ?", code, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": verifiedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark verified: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListVerifiedUnprocessed returns jobs ready for the processor, oldest first.
func (r *JobRepository) ListVerifiedUnprocessed(ctx context.Context) ([]model.VerificationJob, error) {
	var jobs []model.VerificationJob
	if err := r.db.WithContext(ctx).
		Where("verified = ? AND processed = ?", true, false).
		Order("id ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) MarkProcessed(ctx context.Context, jobID uint) error {
	if err := r.db.WithContext(ctx).
		Model(&model.VerificationJob{}).
		Where("id = ?", jobID).
		Update("processed", true).Error; err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

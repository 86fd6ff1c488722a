package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"like-bot/internal/model"
)

// QuotaRepository handles per-user request quotas.
type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) Find(ctx context.Context, telegramID int64) (*model.Quota, error) {
	var quota model.Quota
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&quota).Error; err != nil {
		return nil, err
	}
	return &quota, nil
}

// ResetAndConsume upserts the quota record with a fresh window already
// holding one consumed request. A single INSERT .. ON CONFLICT statement
// leaves no read-then-write gap on the unique telegram_id index.
func (r *QuotaRepository) ResetAndConsume(ctx context.Context, telegramID int64, now time.Time, remaining int) error {
	quota := model.Quota{TelegramID: telegramID, LastRequestAt: &now, Remaining: remaining}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_request_at": now,
				"remaining":       remaining,
				"updated_at":      now,
			}),
		}).
		Create(&quota).Error
	if err != nil {
		return fmt.Errorf("reset quota: %w", err)
	}
	return nil
}

// ConsumeOne decrements the remaining counter by one in a single conditional
// update, so two near-simultaneous requests cannot both pass the last slot.
// Returns false when nothing is left.
func (r *QuotaRepository) ConsumeOne(ctx context.Context, telegramID int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Quota{}).
		Where("telegram_id = ? AND remaining > 0", telegramID).
		Updates(map[string]interface{}{
			"remaining":       gorm.Expr("remaining - 1"),
			"last_request_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume quota: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

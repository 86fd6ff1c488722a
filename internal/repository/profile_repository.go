package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"like-bot/internal/model"
)

// ProfileRepository handles CRUD for user profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// UpsertFromTelegram finds or creates a profile by TelegramID and refreshes basic info.
func (r *ProfileRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, username string) (*model.Profile, error) {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&profile).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"username":   username,
		}
		if err := db.Model(&profile).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		return &profile, nil
	case err == gorm.ErrRecordNotFound:
		profile = model.Profile{
			TelegramID: telegramID,
			FirstName:  firstName,
			Username:   username,
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("find profile: %w", err)
	}
}

func (r *ProfileRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetVIPExpiry upserts the VIP expiry for a user, creating the profile if needed.
func (r *ProfileRepository) SetVIPExpiry(ctx context.Context, telegramID int64, expiresAt time.Time) error {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&profile).Error
	switch {
	case err == nil:
		if err := db.Model(&profile).Update("vip_expires_at", expiresAt).Error; err != nil {
			return fmt.Errorf("update vip expiry: %w", err)
		}
		return nil
	case err == gorm.ErrRecordNotFound:
		profile = model.Profile{TelegramID: telegramID, VIPExpiresAt: &expiresAt}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("create vip profile: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find profile: %w", err)
	}
}

// TouchLastUsed records the time of the user's last successful like.
func (r *ProfileRepository) TouchLastUsed(ctx context.Context, telegramID int64, usedAt time.Time) error {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&profile).Error
	switch {
	case err == nil:
		if err := db.Model(&profile).Update("last_used_at", usedAt).Error; err != nil {
			return fmt.Errorf("touch last used: %w", err)
		}
		return nil
	case err == gorm.ErrRecordNotFound:
		profile = model.Profile{TelegramID: telegramID, LastUsedAt: &usedAt}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find profile: %w", err)
	}
}

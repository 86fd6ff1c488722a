package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"like-bot/internal/config"
	"like-bot/internal/repository"
)

// AccessService resolves privilege and VIP status and enforces the daily
// request quota with its rolling reset window.
type AccessService struct {
	profiles *repository.ProfileRepository
	quotas   *repository.QuotaRepository
	config   *config.Config
	now      func() time.Time
}

func NewAccessService(profiles *repository.ProfileRepository, quotas *repository.QuotaRepository, cfg *config.Config) *AccessService {
	return &AccessService{
		profiles: profiles,
		quotas:   quotas,
		config:   cfg,
		now:      time.Now,
	}
}

// IsAdmin reports whether the user is in the static admin allow-list.
func (s *AccessService) IsAdmin(telegramID int64) bool {
	return s.config.IsAdmin(telegramID)
}

// IsVIP reports whether the user holds an unexpired VIP grant.
func (s *AccessService) IsVIP(ctx context.Context, telegramID int64) (bool, error) {
	profile, err := s.profiles.FindByTelegramID(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find profile: %w", err)
	}
	return profile.VIPExpiresAt != nil && s.now().Before(*profile.VIPExpiresAt), nil
}

// Remaining returns how many requests the user still has in the current
// window. Admins get an effectively unlimited value. A lapsed window is
// reported as the full limit without touching storage.
func (s *AccessService) Remaining(ctx context.Context, telegramID int64) (int, error) {
	if s.IsAdmin(telegramID) {
		return math.MaxInt, nil
	}

	quota, err := s.quotas.Find(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.config.DailyLimit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find quota: %w", err)
	}

	if quota.LastRequestAt == nil {
		return s.config.DailyLimit, nil
	}
	if s.now().Sub(*quota.LastRequestAt) > s.config.ResetWindow {
		return s.config.DailyLimit, nil
	}
	return quota.Remaining, nil
}

// Consume takes one request from the user's quota. Admins always succeed
// without state change. Returns false once nothing is left in the window.
func (s *AccessService) Consume(ctx context.Context, telegramID int64) (bool, error) {
	if s.IsAdmin(telegramID) {
		return true, nil
	}

	now := s.now()
	quota, err := s.quotas.Find(ctx, telegramID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.consumeFresh(ctx, telegramID, now)
	case err != nil:
		return false, fmt.Errorf("find quota: %w", err)
	}

	if quota.LastRequestAt == nil || now.Sub(*quota.LastRequestAt) > s.config.ResetWindow {
		return s.consumeFresh(ctx, telegramID, now)
	}

	// Atomic check-and-decrement; the counter never drops below zero.
	return s.quotas.ConsumeOne(ctx, telegramID, now)
}

func (s *AccessService) consumeFresh(ctx context.Context, telegramID int64, now time.Time) (bool, error) {
	if s.config.DailyLimit <= 0 {
		return false, nil
	}
	if err := s.quotas.ResetAndConsume(ctx, telegramID, now, s.config.DailyLimit-1); err != nil {
		return false, err
	}
	return true, nil
}

// GrantVIP sets the user's VIP expiry to now plus the given number of days.
func (s *AccessService) GrantVIP(ctx context.Context, telegramID int64, days int) (time.Time, error) {
	expiresAt := s.now().AddDate(0, 0, days)
	if err := s.profiles.SetVIPExpiry(ctx, telegramID, expiresAt); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"like-bot/internal/config"
	"like-bot/internal/model"
	"like-bot/internal/repository"
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 12
)

// VerificationService issues one-time verification codes bound to pending
// like jobs and consumes them when the link is clicked.
type VerificationService struct {
	jobs      *repository.JobRepository
	shortener *ShortenerService
	config    *config.Config
	now       func() time.Time
}

func NewVerificationService(jobs *repository.JobRepository, shortener *ShortenerService, cfg *config.Config) *VerificationService {
	return &VerificationService{
		jobs:      jobs,
		shortener: shortener,
		config:    cfg,
		now:       time.Now,
	}
}

// CreateJob persists an unverified job for the request and returns it with a
// shareable verification link. The link is shortened on a best-effort basis.
func (s *VerificationService) CreateJob(ctx context.Context, telegramID int64, accountID, region string, chatID int64, messageID int) (*model.VerificationJob, string, error) {
	code, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate code: %w", err)
	}

	longURL := fmt.Sprintf("%s/verify/%s", s.config.PublicBaseURL, code)
	link := s.shortener.Shorten(ctx, longURL)

	job := &model.VerificationJob{
		Code:       code,
		TelegramID: telegramID,
		AccountID:  accountID,
		Region:     region,
		ExpiresAt:  s.now().Add(s.config.VerifyTTL),
		ChatID:     chatID,
		MessageID:  messageID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, "", err
	}
	return job, link, nil
}

// Confirm consumes a verification code. It succeeds exactly once per code;
// unknown, already-used and (when enforcement is on) expired codes fail
// cleanly without touching the job.
func (s *VerificationService) Confirm(ctx context.Context, code string) (bool, error) {
	if s.config.EnforceVerifyTTL {
		job, err := s.jobs.FindByCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("find job: %w", err)
		}
		if s.now().After(job.ExpiresAt) {
			return false, nil
		}
	}
	return s.jobs.MarkVerified(ctx, code, s.now())
}

package service

import (
	"context"
	"log"

	"like-bot/internal/model"
	"like-bot/internal/repository"
)

// MsgLimitExceeded is sent when a user has no requests left in the window.
const MsgLimitExceeded = "🚫 You have exceeded your daily request limit. Try again tomorrow."

// Replier delivers a message as a reply to an earlier chat message.
type Replier interface {
	Reply(chatID int64, messageID int, text string) error
}

// ProcessorService sweeps verified-but-unprocessed jobs: it re-checks
// authorization, invokes the like action and delivers the outcome.
type ProcessorService struct {
	jobs    *repository.JobRepository
	access  *AccessService
	likes   *LikeService
	replier Replier
}

func NewProcessorService(jobs *repository.JobRepository, access *AccessService, likes *LikeService, replier Replier) *ProcessorService {
	return &ProcessorService{
		jobs:    jobs,
		access:  access,
		likes:   likes,
		replier: replier,
	}
}

// RunOnce handles every currently verified, unprocessed job. A single job's
// failure never aborts the sweep. Persistence failures leave the job
// untouched for the next cycle; everything else marks it processed so the
// reply is delivered at most once.
func (s *ProcessorService) RunOnce(ctx context.Context) {
	jobs, err := s.jobs.ListVerifiedUnprocessed(ctx)
	if err != nil {
		log.Printf("list verified jobs: %v", err)
		return
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.process(ctx, job)
	}
}

func (s *ProcessorService) process(ctx context.Context, job model.VerificationJob) {
	isVIP, err := s.access.IsVIP(ctx, job.TelegramID)
	if err != nil {
		log.Printf("resolve vip for job %d: %v", job.ID, err)
		return
	}

	var text string
	if !s.access.IsAdmin(job.TelegramID) && !isVIP {
		ok, err := s.access.Consume(ctx, job.TelegramID)
		if err != nil {
			log.Printf("consume quota for job %d: %v", job.ID, err)
			return
		}
		if !ok {
			text = MsgLimitExceeded
		}
	}

	if text == "" {
		result := s.likes.Invoke(ctx, job.TelegramID, job.Region, job.AccountID)
		text = result.Message()
	}

	if err := s.replier.Reply(job.ChatID, job.MessageID, text); err != nil {
		log.Printf("deliver result for job %d: %v", job.ID, err)
	}
	if err := s.jobs.MarkProcessed(ctx, job.ID); err != nil {
		log.Printf("mark job %d processed: %v", job.ID, err)
	}
}

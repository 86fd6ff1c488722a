package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"like-bot/internal/bot"
	"like-bot/internal/config"
	"like-bot/internal/repository"
	"like-bot/internal/service"
	"like-bot/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	profileRepo := repository.NewProfileRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	jobRepo := repository.NewJobRepository(db)

	accessSvc := service.NewAccessService(profileRepo, quotaRepo, &cfg)
	likeSvc := service.NewLikeService(cfg.LikeAPIURL, profileRepo)
	shortenerSvc := service.NewShortenerService(cfg.ShortenerAPIKey)
	verificationSvc := service.NewVerificationService(jobRepo, shortenerSvc, &cfg)

	telegramBot, err := bot.New(cfg.TelegramToken, profileRepo, accessSvc, likeSvc, verificationSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	processor := service.NewProcessorService(jobRepo, accessSvc, likeSvc, telegramBot)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.PollInterval, func() {
		processor.RunOnce(ctx)
	}); err != nil {
		log.Fatalf("schedule processor: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	verifySrv := web.New(cfg.HTTPAddr, verificationSvc)
	go func() {
		if err := verifySrv.Start(); err != nil {
			log.Printf("verify server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := verifySrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("verify server shutdown: %v", err)
		}
	}()

	log.Println("Like bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

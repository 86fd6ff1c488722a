package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"like-bot/internal/config"
	"like-bot/internal/model"
	"like-bot/internal/repository"
	"like-bot/internal/service"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatalf("expected at least one message to be sent")
	}
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable type %T", f.sent[len(f.sent)-1])
	}
	return msg.Text
}

type botFixture struct {
	bot      *Bot
	sender   *fakeSender
	db       *gorm.DB
	access   *service.AccessService
	apiCalls *int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	db := newTestDB(t)
	profiles := repository.NewProfileRepository(db)
	quotas := repository.NewQuotaRepository(db)
	jobs := repository.NewJobRepository(db)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"status":1,"PlayerNickname":"Ace","LikesbeforeCommand":10,"LikesafterCommand":110,"LikesGivenByAPI":100}`)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		AdminIDs:         []int64{1000},
		DailyLimit:       1,
		ResetWindow:      20 * time.Hour,
		VerifyTTL:        10 * time.Minute,
		EnforceVerifyTTL: true,
		PublicBaseURL:    "http://bot.example",
	}

	access := service.NewAccessService(profiles, quotas, cfg)
	likes := service.NewLikeService(server.URL+"/like?uid={uid}&region={region}", profiles)
	verification := service.NewVerificationService(jobs, service.NewShortenerService(""), cfg)

	fs := &fakeSender{}
	b := &Bot{
		sender:       fs,
		profiles:     profiles,
		access:       access,
		likes:        likes,
		verification: verification,
		config:       cfg,
	}
	return &botFixture{bot: b, sender: fs, db: db, access: access, apiCalls: &calls}
}

func commandMessage(userID int64, command, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 77,
		From:      &tgbotapi.User{ID: userID, FirstName: "Test"},
		Chat:      &tgbotapi.Chat{ID: 500},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}},
	}
}

func jobCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.VerificationJob{}).Count(&n).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	return n
}

func TestLikeAdminServedSynchronously(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	if err := f.bot.handleCommand(ctx, commandMessage(1000, "/like", "/like ind 12345")); err != nil {
		t.Fatalf("handle command: %v", err)
	}

	if *f.apiCalls != 1 {
		t.Fatalf("expected one like api call, got %d", *f.apiCalls)
	}
	if text := f.sender.lastText(t); !strings.Contains(text, "Request Processed Successfully") {
		t.Fatalf("expected success reply, got %q", text)
	}
	if n := jobCount(t, f.db); n != 0 {
		t.Fatalf("expected no verification jobs for admin, got %d", n)
	}
}

func TestLikeRejectedWhenQuotaExhausted(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	ok, err := f.access.Consume(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("seed consume: ok=%v err=%v", ok, err)
	}

	if err := f.bot.handleCommand(ctx, commandMessage(42, "/like", "/like ind 12345")); err != nil {
		t.Fatalf("handle command: %v", err)
	}

	if text := f.sender.lastText(t); text != service.MsgLimitExceeded {
		t.Fatalf("expected limit message, got %q", text)
	}
	if n := jobCount(t, f.db); n != 0 {
		t.Fatalf("expected no verification jobs, got %d", n)
	}
	if *f.apiCalls != 0 {
		t.Fatalf("expected no like api calls, got %d", *f.apiCalls)
	}
	remaining, err := f.access.Remaining(ctx, 42)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected quota untouched at 0, got %d", remaining)
	}
}

func TestLikeCreatesVerificationJob(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	if err := f.bot.handleCommand(ctx, commandMessage(42, "/like", "/like ind 12345")); err != nil {
		t.Fatalf("handle command: %v", err)
	}

	var job model.VerificationJob
	if err := f.db.First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Verified || job.Processed {
		t.Fatalf("expected a pending job, got verified=%v processed=%v", job.Verified, job.Processed)
	}
	if len(job.Code) != 12 {
		t.Fatalf("expected 12-char code, got %q", job.Code)
	}
	if job.TelegramID != 42 || job.Region != "ind" || job.AccountID != "12345" {
		t.Fatalf("unexpected job fields: %+v", job)
	}
	if job.ChatID != 500 || job.MessageID != 77 {
		t.Fatalf("expected originating chat recorded, got chat=%d message=%d", job.ChatID, job.MessageID)
	}

	if text := f.sender.lastText(t); !strings.Contains(text, "/verify/"+job.Code) {
		t.Fatalf("expected reply to carry the verification link, got %q", text)
	}
	if *f.apiCalls != 0 {
		t.Fatalf("expected no like api call before verification, got %d", *f.apiCalls)
	}

	// Quota is only consumed when the verified job is processed.
	remaining, err := f.access.Remaining(ctx, 42)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected full quota after job creation, got %d", remaining)
	}
}

func TestConsumeUpdatesStopsWithContextError(t *testing.T) {
	f := newBotFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: commandMessage(42, "/help", "/help")}
	cancel()
	close(updates)

	if err := f.bot.consumeUpdates(ctx, updates); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected the queued command to be handled, got %d sends", len(f.sender.sent))
	}
}

func TestParseLikeArgs(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		uid    string
		ok     bool
	}{
		{name: "basic", raw: "ind 12345", region: "ind", uid: "12345", ok: true},
		{name: "region lowercased", raw: "IND 12345", region: "ind", uid: "12345", ok: true},
		{name: "extra whitespace", raw: "  ind   12345  ", region: "ind", uid: "12345", ok: true},
		{name: "missing uid", raw: "ind", ok: false},
		{name: "empty", raw: "", ok: false},
		{name: "too many args", raw: "ind 12345 extra", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			region, uid, ok := parseLikeArgs(tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if region != tc.region || uid != tc.uid {
				t.Fatalf("expected (%q, %q), got (%q, %q)", tc.region, tc.uid, region, uid)
			}
		})
	}
}

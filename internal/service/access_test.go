package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"like-bot/internal/config"
	"like-bot/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AdminIDs:         []int64{1000},
		DailyLimit:       1,
		ResetWindow:      20 * time.Hour,
		VerifyTTL:        10 * time.Minute,
		EnforceVerifyTTL: true,
		PublicBaseURL:    "http://bot.example",
	}
}

func newAccessFixture(t *testing.T) (*AccessService, *time.Time) {
	t.Helper()
	db := newTestDB(t)
	profiles := repository.NewProfileRepository(db)
	quotas := repository.NewQuotaRepository(db)

	svc := NewAccessService(profiles, quotas, testConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestConsumeExhaustsDailyLimit(t *testing.T) {
	svc, _ := newAccessFixture(t)
	ctx := context.Background()

	ok, err := svc.Consume(ctx, 42)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatalf("expected first consume to succeed")
	}

	remaining, err := svc.Remaining(ctx, 42)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}

	ok, err = svc.Consume(ctx, 42)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Fatalf("expected second consume to fail within the window")
	}
}

func TestRemainingResetsAfterWindow(t *testing.T) {
	svc, now := newAccessFixture(t)
	ctx := context.Background()

	if ok, _ := svc.Consume(ctx, 42); !ok {
		t.Fatalf("expected consume to succeed")
	}

	*now = now.Add(21 * time.Hour)

	remaining, err := svc.Remaining(ctx, 42)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected full limit after window, got %d", remaining)
	}

	ok, err := svc.Consume(ctx, 42)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatalf("expected consume to succeed after window reset")
	}
}

func TestRemainingForNewUser(t *testing.T) {
	svc, _ := newAccessFixture(t)

	remaining, err := svc.Remaining(context.Background(), 7)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected full limit for new user, got %d", remaining)
	}
}

func TestAdminBypassesQuota(t *testing.T) {
	svc, _ := newAccessFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := svc.Consume(ctx, 1000)
		if err != nil {
			t.Fatalf("consume: %v", err)
		}
		if !ok {
			t.Fatalf("expected admin consume %d to succeed", i)
		}
	}

	remaining, err := svc.Remaining(ctx, 1000)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining <= 1 {
		t.Fatalf("expected unbounded remaining for admin, got %d", remaining)
	}
}

func TestGrantVIPRoundTrip(t *testing.T) {
	svc, now := newAccessFixture(t)
	ctx := context.Background()

	expiresAt, err := svc.GrantVIP(ctx, 42, 5)
	if err != nil {
		t.Fatalf("grant vip: %v", err)
	}
	if want := now.AddDate(0, 0, 5); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiresAt)
	}

	isVIP, err := svc.IsVIP(ctx, 42)
	if err != nil {
		t.Fatalf("is vip: %v", err)
	}
	if !isVIP {
		t.Fatalf("expected user to be VIP right after grant")
	}

	*now = now.AddDate(0, 0, 6)

	isVIP, err = svc.IsVIP(ctx, 42)
	if err != nil {
		t.Fatalf("is vip: %v", err)
	}
	if isVIP {
		t.Fatalf("expected VIP to expire after 5 days")
	}
}

func TestIsVIPUnknownUser(t *testing.T) {
	svc, _ := newAccessFixture(t)

	isVIP, err := svc.IsVIP(context.Background(), 9999)
	if err != nil {
		t.Fatalf("is vip: %v", err)
	}
	if isVIP {
		t.Fatalf("unknown user must not be VIP")
	}
}

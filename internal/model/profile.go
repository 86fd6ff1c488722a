package model

import "time"

// Profile stores Telegram user metadata together with VIP state.
type Profile struct {
	ID           uint  `gorm:"primaryKey"`
	TelegramID   int64 `gorm:"uniqueIndex"`
	FirstName    string
	Username     string
	VIPExpiresAt *time.Time
	LastUsedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

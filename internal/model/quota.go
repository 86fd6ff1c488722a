package model

import "time"

// Quota tracks how many like requests a user has left in the current window.
// The counter is reset lazily: a lapsed window is observed at read time and
// committed only on the next consumption.
type Quota struct {
	ID            uint  `gorm:"primaryKey"`
	TelegramID    int64 `gorm:"uniqueIndex"`
	LastRequestAt *time.Time
	Remaining     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

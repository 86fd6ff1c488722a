package model

import "time"

// VerificationJob is a pending like request awaiting link-click confirmation.
// Jobs are never deleted; they double as an audit trail.
type VerificationJob struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"uniqueIndex"`
	TelegramID int64  `gorm:"index"`
	AccountID  string
	Region     string
	Verified   bool `gorm:"default:false"`
	VerifiedAt *time.Time
	Processed  bool `gorm:"default:false"`
	ExpiresAt  time.Time
	ChatID     int64
	MessageID  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

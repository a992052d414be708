package models

import (
	"time"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
)

// User is the stored identity for a chat member, keyed by the
// transport-level id. ID is the storage-assigned identifier used by
// message and warning records.
type User struct {
	ID         string    `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageRecord is one classified message kept for analytics.
type MessageRecord struct {
	UserID     string        `json:"user_id"`
	Text       string        `json:"text"`
	Emotion    emotion.Label `json:"emotion"`
	Confidence float64       `json:"confidence"`
	CreatedAt  time.Time     `json:"created_at"`
}

// WarningRecord is one negative-emotion incident. The record stream is
// append-only; the count of records for a user is the authoritative
// warning count.
type WarningRecord struct {
	UserID    string        `json:"user_id"`
	Reason    string        `json:"reason"`
	Emotion   emotion.Label `json:"emotion"`
	CreatedAt time.Time     `json:"created_at"`
}

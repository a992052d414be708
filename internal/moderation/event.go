package moderation

import (
	"time"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
)

// Event is one classified message occurrence. Immutable input to the
// engine; produced once per inbound message after classification and
// label normalization.
type Event struct {
	// ChatID and UserID are transport-level identifiers, used for
	// replies and restrictions.
	ChatID int64
	UserID int64

	// StoreUserID is the storage-assigned identifier that message and
	// warning records are keyed by.
	StoreUserID string

	Text       string
	Label      emotion.Label
	Confidence float64
	OccurredAt time.Time
}

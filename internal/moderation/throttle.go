package moderation

import (
	"sync"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
)

// ResponseThrottle is the chat-wide cooldown gate for empathetic
// replies. One reply per chat per cooldown window, regardless of which
// member triggered it.
type ResponseThrottle struct {
	threshold float64
	cooldown  time.Duration

	mu   sync.Mutex
	last map[int64]time.Time

	now func() time.Time
}

// NewResponseThrottle creates a throttle with the given confidence
// threshold and per-chat cooldown.
func NewResponseThrottle(threshold float64, cooldown time.Duration) *ResponseThrottle {
	return &ResponseThrottle{
		threshold: threshold,
		cooldown:  cooldown,
		last:      make(map[int64]time.Time),
		now:       time.Now,
	}
}

// Allow reports whether an empathetic reply may be sent to the chat
// now. On acceptance the cooldown window is consumed immediately,
// before the caller sends anything, so concurrent events for the same
// chat get a single winner per window.
func (t *ResponseThrottle) Allow(chatID int64, label emotion.Label, confidence float64) bool {
	if confidence < t.threshold {
		return false
	}
	if !emotion.ReplyWorthy(label) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[chatID]; ok && now.Sub(last) < t.cooldown {
		return false
	}
	t.last[chatID] = now
	return true
}

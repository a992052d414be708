package moderation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/stretchr/testify/assert"
)

func TestThrottleConfidenceThreshold(t *testing.T) {
	assert := assert.New(t)

	throttle := NewResponseThrottle(0.75, time.Minute)

	assert.False(throttle.Allow(1, emotion.Sad, 0.6))
	assert.False(throttle.Allow(1, emotion.Angry, 0.74))
	// Low confidence must not consume the window either
	assert.True(throttle.Allow(1, emotion.Sad, 0.75))
}

func TestThrottleLabelSet(t *testing.T) {
	assert := assert.New(t)

	throttle := NewResponseThrottle(0.75, time.Minute)

	assert.False(throttle.Allow(1, emotion.Neutral, 0.99))
	assert.False(throttle.Allow(1, emotion.Other, 0.99))
	assert.False(throttle.Allow(1, emotion.Unknown, 0.99))
	assert.False(throttle.Allow(1, emotion.Fear, 0.99))
	assert.True(throttle.Allow(1, emotion.Positive, 0.99))
}

func TestThrottleCooldownWindow(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	throttle := NewResponseThrottle(0.75, time.Minute)
	throttle.now = func() time.Time { return now }

	assert.True(throttle.Allow(1, emotion.Sad, 0.9))
	assert.False(throttle.Allow(1, emotion.Sad, 0.9))

	// Different members of the same chat share the cooldown, but other
	// chats do not.
	assert.True(throttle.Allow(2, emotion.Angry, 0.9))

	now = now.Add(59 * time.Second)
	assert.False(throttle.Allow(1, emotion.Angry, 0.9))

	now = now.Add(2 * time.Second)
	assert.True(throttle.Allow(1, emotion.Angry, 0.9))
}

func TestThrottleSingleWinnerUnderConcurrency(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	throttle := NewResponseThrottle(0.75, time.Minute)
	throttle.now = func() time.Time { return now }

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if throttle.Allow(7, emotion.Sad, 0.9) {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(int32(1), allowed)
}

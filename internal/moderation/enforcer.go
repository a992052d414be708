package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/transport"
	"github.com/sirupsen/logrus"
)

// Notices are the chat-visible strings the enforcer sends around a
// restriction's lifecycle. The *Failed entries are fmt formats taking
// the underlying error.
type Notices struct {
	Restricted     string
	RestrictFailed string
	Lifted         string
	LiftFailed     string
}

// DefaultNotices returns the built-in English notices.
func DefaultNotices() Notices {
	return Notices{
		Restricted:     "You have been temporarily restricted for repeated aggression.",
		RestrictFailed: "Failed to apply restriction: %v",
		Lifted:         "The restriction has been lifted.",
		LiftFailed:     "Failed to lift restriction: %v",
	}
}

type pairKey struct {
	chatID int64
	userID int64
}

type liftJob struct {
	until time.Time
	timer *time.Timer
}

// RestrictionEnforcer owns the per-(chat,user) restriction state
// machine: Unrestricted -> Restricted -> (scheduled lift) ->
// Unrestricted. At most one restriction and one lift job exist per
// pair at any time.
type RestrictionEnforcer struct {
	transport transport.ChatTransport
	duration  time.Duration
	notices   Notices
	logger    *logrus.Logger

	mu     sync.Mutex
	active map[pairKey]*liftJob

	now         func() time.Time
	liftTimeout time.Duration
}

func NewRestrictionEnforcer(tr transport.ChatTransport, duration time.Duration, notices Notices, logger *logrus.Logger) *RestrictionEnforcer {
	return &RestrictionEnforcer{
		transport:   tr,
		duration:    duration,
		notices:     notices,
		logger:      logger,
		active:      make(map[pairKey]*liftJob),
		now:         time.Now,
		liftTimeout: 30 * time.Second,
	}
}

// Apply issues a timed restriction for the pair and schedules its
// lift. Idempotent: while a restriction is active for the pair,
// further calls are ignored and return false. On transport failure the
// pair stays unrestricted, a failure notice is sent to the chat, and
// no lift is scheduled.
func (e *RestrictionEnforcer) Apply(ctx context.Context, chatID, userID int64) (bool, error) {
	key := pairKey{chatID: chatID, userID: userID}

	e.mu.Lock()
	if _, ok := e.active[key]; ok {
		e.mu.Unlock()
		e.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"user_id": userID,
		}).Debug("Restriction already active, ignoring")
		return false, nil
	}
	until := e.now().Add(e.duration)
	job := &liftJob{until: until}
	// Reserve the slot before the transport call so a concurrent
	// qualifying event cannot issue a second restriction while this
	// one is in flight.
	e.active[key] = job
	e.mu.Unlock()

	if err := e.transport.Restrict(ctx, chatID, userID, transport.Muted(), until); err != nil {
		e.mu.Lock()
		delete(e.active, key)
		e.mu.Unlock()

		e.notify(ctx, chatID, fmt.Sprintf(e.notices.RestrictFailed, err))
		return false, err
	}

	e.notify(ctx, chatID, e.notices.Restricted)

	e.mu.Lock()
	job.timer = time.AfterFunc(e.duration, func() { e.lift(key) })
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"until":   until,
	}).Info("Restriction applied")

	return true, nil
}

// lift restores permissions when the scheduled job fires. State is
// cleared even when the transport call fails; the chat is told about
// the failure and may need a manual unmute.
func (e *RestrictionEnforcer) lift(key pairKey) {
	ctx, cancel := context.WithTimeout(context.Background(), e.liftTimeout)
	defer cancel()

	err := e.transport.Restrict(ctx, key.chatID, key.userID, transport.Member(), time.Time{})
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": key.chatID,
			"user_id": key.userID,
		}).Error("Failed to lift restriction")
		e.notify(ctx, key.chatID, fmt.Sprintf(e.notices.LiftFailed, err))
	} else {
		e.notify(ctx, key.chatID, e.notices.Lifted)
		e.logger.WithFields(logrus.Fields{
			"chat_id": key.chatID,
			"user_id": key.userID,
		}).Info("Restriction lifted")
	}

	e.mu.Lock()
	delete(e.active, key)
	e.mu.Unlock()
}

// CancelLift stops the scheduled lift job for the pair and clears its
// state without touching chat permissions. Intended for a manual early
// unmute path, where the caller restores permissions itself. Returns
// whether a job existed.
func (e *RestrictionEnforcer) CancelLift(chatID, userID int64) bool {
	key := pairKey{chatID: chatID, userID: userID}

	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.active[key]
	if !ok {
		return false
	}
	if job.timer != nil {
		job.timer.Stop()
	}
	delete(e.active, key)
	return true
}

// Restricted reports whether the pair currently has an active
// restriction.
func (e *RestrictionEnforcer) Restricted(chatID, userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[pairKey{chatID: chatID, userID: userID}]
	return ok
}

func (e *RestrictionEnforcer) notify(ctx context.Context, chatID int64, text string) {
	if err := e.transport.SendText(ctx, chatID, text); err != nil {
		e.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send moderation notice")
	}
}

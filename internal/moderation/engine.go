package moderation

import (
	"context"
	"fmt"
	"sync"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/emotion-mod-tgbot-go/internal/transport"
	"github.com/sirupsen/logrus"
)

// MessageStore is the slice of the record store the engine persists
// classified messages to.
type MessageStore interface {
	AppendMessage(ctx context.Context, rec *models.MessageRecord) error
}

// Texts resolves the user-visible strings the engine sends. Reply maps
// a label to its empathetic reply ("" sends nothing); Caution is the
// below-threshold warning notice.
type Texts struct {
	Reply   func(label emotion.Label) string
	Caution func(label emotion.Label) string
}

// DefaultTexts returns built-in English strings.
func DefaultTexts() Texts {
	return Texts{
		Reply: func(label emotion.Label) string {
			switch label {
			case emotion.Sad:
				return "You seem a little down... It will get better!"
			case emotion.Angry:
				return "I can see you are upset. Take a breath, I am here."
			case emotion.Positive:
				return "Great mood! Glad to see it."
			}
			return ""
		},
		Caution: func(label emotion.Label) string {
			return fmt.Sprintf("Please mind your tone. Detected emotion: %s.", label)
		},
	}
}

// Outcome reports what Handle did with an event, for logging and
// metrics at the ingestion layer.
type Outcome struct {
	Replied      bool
	WarningCount int
	Restricted   bool
}

// Engine orchestrates the moderation policy for one classified event:
// persist the message, accrue warnings and escalate on the negative
// track, and send a throttled empathetic reply on the independent
// reply track.
type Engine struct {
	store            MessageStore
	throttle         *ResponseThrottle
	ledger           *WarningLedger
	enforcer         *RestrictionEnforcer
	transport        transport.ChatTransport
	texts            Texts
	warningThreshold int
	logger           *logrus.Logger

	mu    sync.Mutex
	locks map[pairKey]*sync.Mutex
}

func NewEngine(
	store MessageStore,
	throttle *ResponseThrottle,
	ledger *WarningLedger,
	enforcer *RestrictionEnforcer,
	tr transport.ChatTransport,
	texts Texts,
	warningThreshold int,
	logger *logrus.Logger,
) *Engine {
	if texts.Reply == nil || texts.Caution == nil {
		texts = DefaultTexts()
	}
	return &Engine{
		store:            store,
		throttle:         throttle,
		ledger:           ledger,
		enforcer:         enforcer,
		transport:        tr,
		texts:            texts,
		warningThreshold: warningThreshold,
		logger:           logger,
	}
}

// Handle processes one emotion event. Analytics persistence is
// isolated from the moderation outcome, and the reply track is
// independent of the warning track, with one exception: a store
// failure on the warning track is fatal to the event, because
// escalation must never run on an unconfirmed count.
func (e *Engine) Handle(ctx context.Context, event Event) (Outcome, error) {
	var outcome Outcome

	// Analytics persistence is independent of the moderation outcome.
	rec := &models.MessageRecord{
		UserID:     event.StoreUserID,
		Text:       event.Text,
		Emotion:    event.Label,
		Confidence: event.Confidence,
	}
	if err := e.store.AppendMessage(ctx, rec); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": event.ChatID,
			"user_id": event.UserID,
		}).Error("Failed to persist message record")
	}

	// A store failure here is fatal to the event: the reply track is
	// skipped too, and the event stays unresolved for manual
	// follow-up.
	if err := e.handleWarningTrack(ctx, event, &outcome); err != nil {
		return outcome, fmt.Errorf("warning track: %w", err)
	}

	if e.throttle.Allow(event.ChatID, event.Label, event.Confidence) {
		if text := e.texts.Reply(event.Label); text != "" {
			if err := e.transport.SendText(ctx, event.ChatID, text); err != nil {
				e.logger.WithError(err).WithField("chat_id", event.ChatID).Error("Failed to send empathetic reply")
			} else {
				outcome.Replied = true
			}
		}
	}

	return outcome, nil
}

// handleWarningTrack accrues a warning for negative labels and
// escalates at the threshold. Serialized per (chat,user) so the count
// used for the escalation decision is never stale across concurrent
// events for the same pair.
func (e *Engine) handleWarningTrack(ctx context.Context, event Event, outcome *Outcome) error {
	if !emotion.Negative(event.Label) {
		return nil
	}

	unlock := e.lockPair(event.ChatID, event.UserID)
	defer unlock()

	count, err := e.ledger.RecordAndCount(ctx, event.StoreUserID, event.Label)
	if err != nil {
		return err
	}
	outcome.WarningCount = count

	if count < e.warningThreshold {
		if err := e.transport.SendText(ctx, event.ChatID, e.texts.Caution(event.Label)); err != nil {
			e.logger.WithError(err).WithField("chat_id", event.ChatID).Error("Failed to send caution notice")
		}
		return nil
	}

	applied, err := e.enforcer.Apply(ctx, event.ChatID, event.UserID)
	if err != nil {
		// The enforcer already reported the failure to the chat;
		// internal state stayed unrestricted.
		e.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": event.ChatID,
			"user_id": event.UserID,
		}).Error("Failed to apply restriction")
		return nil
	}
	outcome.Restricted = applied
	return nil
}

// lockPair serializes the mutating moderation steps for one
// (chat,user) pair while leaving unrelated pairs fully parallel.
func (e *Engine) lockPair(chatID, userID int64) func() {
	key := pairKey{chatID: chatID, userID: userID}

	e.mu.Lock()
	if e.locks == nil {
		e.locks = make(map[pairKey]*sync.Mutex)
	}
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

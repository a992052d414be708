package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/i18n"
	"github.com/emotion-mod-tgbot-go/internal/middleware"
	"github.com/emotion-mod-tgbot-go/internal/moderation"
	"github.com/emotion-mod-tgbot-go/internal/services/cache"
	"github.com/emotion-mod-tgbot-go/internal/services/classifier"
	"github.com/emotion-mod-tgbot-go/internal/services/storage"
	"github.com/emotion-mod-tgbot-go/internal/transport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MessageHandler ingests regular messages: classify, persist, and feed
// the moderation engine.
type MessageHandler struct {
	config      *config.Config
	botID       int64
	transport   transport.ChatTransport
	classifier  classifier.Service
	cache       cache.Service
	storage     *storage.Manager
	engine      *moderation.Engine
	rateLimiter middleware.RateLimiter
	localizer   *i18n.Localizer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	cfg *config.Config,
	botID int64,
	tr transport.ChatTransport,
	classifierService classifier.Service,
	cacheService cache.Service,
	storageManager *storage.Manager,
	engine *moderation.Engine,
	rateLimiter middleware.RateLimiter,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *MessageHandler {
	return &MessageHandler{
		config:      cfg,
		botID:       botID,
		transport:   tr,
		classifier:  classifierService,
		cache:       cacheService,
		storage:     storageManager,
		engine:      engine,
		rateLimiter: rateLimiter,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleMessage processes one inbound message
func (h *MessageHandler) HandleMessage(ctx context.Context, update *tgbotapi.Update) error {
	if update.Message == nil || update.Message.IsCommand() {
		return nil
	}

	// Ignore bot's own messages
	if update.Message.From.ID == h.botID {
		return nil
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	// Flood guard in front of the classification pipeline
	if !h.rateLimiter.Allow(userID) {
		h.metrics.RecordRateLimitExceeded(update.Message.From.UserName)
		if err := h.transport.SendText(ctx, chatID, h.localizer.Default(i18n.MsgRateLimitExceeded, nil)); err != nil {
			h.logger.WithError(err).Error("Failed to send rate limit message")
		}
		return nil
	}

	switch {
	case update.Message.Text != "":
		h.metrics.RecordMessageReceived("text")
		return h.handleText(ctx, update)
	case update.Message.Voice != nil:
		h.metrics.RecordMessageReceived("voice")
		return h.handleVoice(ctx, update)
	default:
		return h.transport.SendText(ctx, chatID, h.localizer.Default(i18n.MsgSendTextOrVoice, nil))
	}
}

func (h *MessageHandler) handleText(ctx context.Context, update *tgbotapi.Update) error {
	text := update.Message.Text

	result, found := h.cache.Get(ctx, text)
	if found {
		h.metrics.RecordCacheHit()
	} else {
		h.metrics.RecordCacheMiss()

		start := time.Now()
		var err error
		result, err = h.classifier.ClassifyText(ctx, text)
		if err != nil {
			h.metrics.RecordClassification("text", "", "error", time.Since(start))
			// Dropped from moderation; the failure stays in the logs.
			h.logger.WithError(err).WithField("chat_id", update.Message.Chat.ID).Error("Text classification failed")
			return err
		}
		h.metrics.RecordClassification("text", string(result.Label), "success", time.Since(start))
		h.cache.Set(ctx, text, result)
	}

	return h.moderate(ctx, update, text, result)
}

func (h *MessageHandler) handleVoice(ctx context.Context, update *tgbotapi.Update) error {
	audio, err := h.transport.DownloadVoice(ctx, update.Message.Voice.FileID)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", update.Message.Chat.ID).Error("Failed to download voice message")
		return err
	}

	start := time.Now()
	result, err := h.classifier.ClassifyAudio(ctx, audio)
	if err != nil {
		h.metrics.RecordClassification("audio", "", "error", time.Since(start))
		h.logger.WithError(err).WithField("chat_id", update.Message.Chat.ID).Error("Audio classification failed")
		return err
	}
	h.metrics.RecordClassification("audio", string(result.Label), "success", time.Since(start))

	// Echo the recognized emotion back to the chat, as for the voice
	// path the sender gets no other direct feedback.
	recognized := h.localizer.Default(i18n.MsgVoiceRecognized, map[string]interface{}{
		"Emotion": string(result.Label),
		"Score":   result.Confidence,
	})
	if err := h.transport.SendText(ctx, update.Message.Chat.ID, recognized); err != nil {
		h.logger.WithError(err).Error("Failed to send voice recognition reply")
	}

	return h.moderate(ctx, update, "[voice message]", result)
}

// moderate persists identity and hands the classified event to the
// engine.
func (h *MessageHandler) moderate(ctx context.Context, update *tgbotapi.Update, text string, result classifier.Result) error {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	storeUserID, err := h.storage.FindOrCreateUser(ctx, userID, update.Message.From.UserName)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": chatID,
			"user_id": userID,
		}).Error("Failed to resolve user record")
		return err
	}

	event := moderation.Event{
		ChatID:      chatID,
		UserID:      userID,
		StoreUserID: storeUserID,
		Text:        text,
		Label:       result.Label,
		Confidence:  result.Confidence,
		OccurredAt:  time.Now().UTC(),
	}

	outcome, err := h.engine.Handle(ctx, event)
	if outcome.Replied {
		h.metrics.RecordReplySent()
	}
	if outcome.WarningCount > 0 {
		h.metrics.RecordWarning(string(event.Label))
	}
	if outcome.Restricted {
		h.metrics.RecordRestrictionIssued()
	}

	if err != nil {
		if errors.Is(err, storage.ErrStoreUnavailable) {
			// Unresolved event, kept for manual follow-up. Never
			// escalate on an unconfirmed count.
			h.logger.WithError(err).WithFields(logrus.Fields{
				"chat_id": chatID,
				"user_id": userID,
				"label":   event.Label,
			}).Error("Moderation left unresolved, store unavailable")
		}
		return err
	}
	return nil
}

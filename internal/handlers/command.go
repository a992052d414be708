package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/i18n"
	"github.com/emotion-mod-tgbot-go/internal/services/storage"
	"github.com/emotion-mod-tgbot-go/internal/transport"
	"github.com/emotion-mod-tgbot-go/pkg/markdown"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// CommandHandler handles telegram commands
type CommandHandler struct {
	transport transport.ChatTransport
	storage   *storage.Manager
	localizer *i18n.Localizer
	logger    *logrus.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	tr transport.ChatTransport,
	storageManager *storage.Manager,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *CommandHandler {
	return &CommandHandler{
		transport: tr,
		storage:   storageManager,
		localizer: localizer,
		logger:    logger,
	}
}

// HandleCommand processes telegram commands
func (h *CommandHandler) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		return h.handleStart(ctx, message.Chat.ID)
	case "stats":
		return h.handleStats(ctx, message)
	default:
		h.logger.WithField("command", message.Command()).Debug("Unknown command ignored")
		return nil
	}
}

func (h *CommandHandler) handleStart(ctx context.Context, chatID int64) error {
	return h.transport.SendText(ctx, chatID, h.localizer.Default(i18n.MsgWelcome, nil))
}

// handleStats reports the member's message count, warning count, and a
// mood summary averaged over stored classifications.
func (h *CommandHandler) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	user, err := h.storage.GetUser(ctx, message.From.ID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return h.transport.SendText(ctx, chatID, h.localizer.Default(i18n.MsgUserNotFound, nil))
		}
		return err
	}

	messages, err := h.storage.ListMessages(ctx, user.ID)
	if err != nil {
		return err
	}

	warnings, err := h.storage.CountWarnings(ctx, user.ID)
	if err != nil {
		return err
	}

	var posSum, negSum float64
	var posCount, negCount int
	for _, msg := range messages {
		switch {
		case emotion.Pleasant(msg.Emotion):
			posSum += msg.Confidence
			posCount++
		case emotion.Unpleasant(msg.Emotion):
			negSum += msg.Confidence
			negCount++
		}
	}

	var avgPos, avgNeg float64
	if posCount > 0 {
		avgPos = posSum / float64(posCount)
	}
	if negCount > 0 {
		avgNeg = negSum / float64(negCount)
	}

	var mood string
	switch {
	case avgPos > avgNeg:
		mood = h.localizer.Default(i18n.MsgMoodPositive, map[string]interface{}{
			"Score": fmt.Sprintf("%.2f", avgPos),
		})
	case avgNeg > avgPos:
		mood = h.localizer.Default(i18n.MsgMoodNegative, map[string]interface{}{
			"Score": fmt.Sprintf("%.2f", avgNeg),
		})
	default:
		mood = h.localizer.Default(i18n.MsgMoodNeutral, nil)
	}

	name := user.Username
	if name == "" {
		name = message.From.FirstName
	}

	report := h.localizer.Default(i18n.MsgStats, map[string]interface{}{
		"Username": name,
		"Messages": len(messages),
		"Warnings": warnings,
		"Mood":     mood,
	})

	return h.transport.SendText(ctx, chatID, markdown.ToTelegramHTML(report))
}

package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Telegram implements ChatTransport over the Bot API.
type Telegram struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewTelegram(bot *tgbotapi.BotAPI, logger *logrus.Logger) *Telegram {
	return &Telegram{
		bot: bot,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return &TransportError{Op: "send message", Err: err}
	}
	return nil
}

func (t *Telegram) Restrict(ctx context.Context, chatID, userID int64, perms PermissionSet, until time.Time) error {
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       perms.SendMessages,
			CanSendMediaMessages:  perms.SendMedia,
			CanSendPolls:          perms.SendPolls,
			CanSendOtherMessages:  perms.SendOther,
			CanAddWebPagePreviews: perms.AddWebPreviews,
			CanChangeInfo:         perms.ChangeInfo,
			CanInviteUsers:        perms.InviteUsers,
			CanPinMessages:        perms.PinMessages,
		},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}

	if _, err := t.bot.Request(cfg); err != nil {
		return &TransportError{Op: "restrict member", Err: err}
	}

	t.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"muted":   !perms.SendMessages,
	}).Debug("Applied member permissions")

	return nil
}

// DownloadVoice fetches a voice file's bytes through the file API.
func (t *Telegram) DownloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, &TransportError{Op: "get file", Err: err}
	}

	url := file.Link(t.bot.Token)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &TransportError{Op: "download voice", Err: err}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "download voice", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "download voice", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "download voice", Err: err}
	}
	return data, nil
}

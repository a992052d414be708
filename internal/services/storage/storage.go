package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrStoreUnavailable marks failures of the backing store. Callers
// check it with errors.Is; the moderation engine refuses to escalate
// on an unconfirmed warning count when it sees this error.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrUserNotFound is returned by GetUser for unknown transport ids.
var ErrUserNotFound = errors.New("user not found")

// Storage interface defines record operations. Warning records are
// append-only; the record count is the authoritative warning count and
// is always recomputed from the store, never cached.
type Storage interface {
	FindOrCreateUser(ctx context.Context, telegramID int64, username string) (string, error)
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)

	AppendMessage(ctx context.Context, rec *models.MessageRecord) error
	ListMessages(ctx context.Context, userID string) ([]models.MessageRecord, error)

	AppendWarning(ctx context.Context, rec *models.WarningRecord) error
	CountWarnings(ctx context.Context, userID string) (int, error)
}

// Manager wraps the configured backend and owns its lifecycle.
type Manager struct {
	storage Storage
	logger  *logrus.Logger
}

// NewManager creates a new storage manager
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var storage Storage

	switch cfg.Storage.Type {
	case "redis":
		redisStorage, err := NewRedisStorage(cfg, logger)
		if err != nil {
			return nil, err
		}
		storage = redisStorage
	case "memory":
		storage = NewMemoryStorage(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return &Manager{
		storage: storage,
		logger:  logger,
	}, nil
}

// Delegate methods to underlying storage
func (m *Manager) FindOrCreateUser(ctx context.Context, telegramID int64, username string) (string, error) {
	return m.storage.FindOrCreateUser(ctx, telegramID, username)
}

func (m *Manager) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return m.storage.GetUser(ctx, telegramID)
}

func (m *Manager) AppendMessage(ctx context.Context, rec *models.MessageRecord) error {
	return m.storage.AppendMessage(ctx, rec)
}

func (m *Manager) ListMessages(ctx context.Context, userID string) ([]models.MessageRecord, error) {
	return m.storage.ListMessages(ctx, userID)
}

func (m *Manager) AppendWarning(ctx context.Context, rec *models.WarningRecord) error {
	return m.storage.AppendWarning(ctx, rec)
}

func (m *Manager) CountWarnings(ctx context.Context, userID string) (int, error) {
	return m.storage.CountWarnings(ctx, userID)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// stamp fills CreatedAt when the caller left it zero.
func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

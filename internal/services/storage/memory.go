package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// MemoryStorage implements Storage using in-memory caches. Used for
// development and tests; record semantics match the Redis backend so
// the moderation engine cannot tell them apart.
type MemoryStorage struct {
	users    *cache.Cache
	messages *cache.Cache
	warnings *cache.Cache
	logger   *logrus.Logger

	mu     sync.Mutex // serializes read-modify-write on list entries
	nextID int64
}

func NewMemoryStorage(cfg *config.Config, logger *logrus.Logger) *MemoryStorage {
	return &MemoryStorage{
		users:    cache.New(cache.NoExpiration, cache.NoExpiration),
		messages: cache.New(cache.NoExpiration, cache.NoExpiration),
		warnings: cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:   logger,
	}
}

func (m *MemoryStorage) FindOrCreateUser(ctx context.Context, telegramID int64, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userKey(telegramID)
	if val, found := m.users.Get(key); found {
		return val.(*models.User).ID, nil
	}

	m.nextID++
	user := &models.User{
		ID:         fmt.Sprintf("%d", m.nextID),
		TelegramID: telegramID,
		Username:   username,
	}
	m.users.Set(key, user, cache.NoExpiration)
	return user.ID, nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	if val, found := m.users.Get(userKey(telegramID)); found {
		return val.(*models.User), nil
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStorage) AppendMessage(ctx context.Context, rec *models.MessageRecord) error {
	stamp(&rec.CreatedAt)

	m.mu.Lock()
	defer m.mu.Unlock()

	key := messagesKey(rec.UserID)
	var records []models.MessageRecord
	if val, found := m.messages.Get(key); found {
		records = val.([]models.MessageRecord)
	}
	m.messages.Set(key, append(records, *rec), cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) ListMessages(ctx context.Context, userID string) ([]models.MessageRecord, error) {
	if val, found := m.messages.Get(messagesKey(userID)); found {
		records := val.([]models.MessageRecord)
		out := make([]models.MessageRecord, len(records))
		copy(out, records)
		return out, nil
	}
	return nil, nil
}

func (m *MemoryStorage) AppendWarning(ctx context.Context, rec *models.WarningRecord) error {
	stamp(&rec.CreatedAt)

	m.mu.Lock()
	defer m.mu.Unlock()

	key := warningsKey(rec.UserID)
	var records []models.WarningRecord
	if val, found := m.warnings.Get(key); found {
		records = val.([]models.WarningRecord)
	}
	m.warnings.Set(key, append(records, *rec), cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) CountWarnings(ctx context.Context, userID string) (int, error) {
	if val, found := m.warnings.Get(warningsKey(userID)); found {
		return len(val.([]models.WarningRecord)), nil
	}
	return 0, nil
}

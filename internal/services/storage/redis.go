package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisStorage implements Storage using Redis. Users are JSON values
// keyed by transport id, message and warning records are JSON entries
// in per-user lists so counts survive restarts and are recomputed by
// the store itself.
type RedisStorage struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStorage(cfg *config.Config, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		logger: logger,
	}, nil
}

func userKey(telegramID int64) string {
	return fmt.Sprintf("user:tg:%d", telegramID)
}

func messagesKey(userID string) string {
	return fmt.Sprintf("messages:%s", userID)
}

func warningsKey(userID string) string {
	return fmt.Sprintf("warnings:%s", userID)
}

func (r *RedisStorage) FindOrCreateUser(ctx context.Context, telegramID int64, username string) (string, error) {
	key := userKey(telegramID)
	data, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if err := json.Unmarshal([]byte(data), &user); err != nil {
			return "", fmt.Errorf("decode user %s: %w", key, err)
		}
		return user.ID, nil
	}
	if err != redis.Nil {
		return "", unavailable("find user", err)
	}

	seq, err := r.client.Incr(ctx, "user:seq").Result()
	if err != nil {
		return "", unavailable("allocate user id", err)
	}

	user := models.User{
		ID:         fmt.Sprintf("%d", seq),
		TelegramID: telegramID,
		Username:   username,
		CreatedAt:  time.Now().UTC(),
	}
	encoded, err := json.Marshal(&user)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	// SetNX keeps the first writer's record if two handlers race on the
	// same new user; re-read to return the winning id.
	created, err := r.client.SetNX(ctx, key, encoded, 0).Result()
	if err != nil {
		return "", unavailable("create user", err)
	}
	if !created {
		return r.FindOrCreateUser(ctx, telegramID, username)
	}

	r.logger.WithFields(logrus.Fields{
		"telegram_id": telegramID,
		"user_id":     user.ID,
	}).Debug("Created user record")

	return user.ID, nil
}

func (r *RedisStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	data, err := r.client.Get(ctx, userKey(telegramID)).Result()
	if err == redis.Nil {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (r *RedisStorage) AppendMessage(ctx context.Context, rec *models.MessageRecord) error {
	stamp(&rec.CreatedAt)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode message record: %w", err)
	}
	if err := r.client.RPush(ctx, messagesKey(rec.UserID), data).Err(); err != nil {
		return unavailable("append message", err)
	}
	return nil
}

func (r *RedisStorage) ListMessages(ctx context.Context, userID string) ([]models.MessageRecord, error) {
	entries, err := r.client.LRange(ctx, messagesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, unavailable("list messages", err)
	}

	records := make([]models.MessageRecord, 0, len(entries))
	for _, entry := range entries {
		var rec models.MessageRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("decode message record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *RedisStorage) AppendWarning(ctx context.Context, rec *models.WarningRecord) error {
	stamp(&rec.CreatedAt)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode warning record: %w", err)
	}
	if err := r.client.RPush(ctx, warningsKey(rec.UserID), data).Err(); err != nil {
		return unavailable("append warning", err)
	}
	return nil
}

func (r *RedisStorage) CountWarnings(ctx context.Context, userID string) (int, error) {
	count, err := r.client.LLen(ctx, warningsKey(userID)).Result()
	if err != nil {
		return 0, unavailable("count warnings", err)
	}
	return int(count), nil
}

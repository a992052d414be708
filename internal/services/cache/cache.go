package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/services/classifier"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service caches classification results so repeated identical messages
// (stickers-as-text, copy-pasted spam) skip the inference round trip.
type Service interface {
	Get(ctx context.Context, text string) (classifier.Result, bool)
	Set(ctx context.Context, text string, result classifier.Result) error
	Clear(ctx context.Context) error
}

type entry struct {
	result    classifier.Result
	createdAt time.Time
}

// Cache implements the classification cache over go-cache.
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewCache creates a new cache service
func NewCache(cfg *config.Config, logger *logrus.Logger) Service {
	if !cfg.Cache.Enabled {
		return &Cache{enabled: false}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

// Get retrieves a cached classification
func (c *Cache) Get(ctx context.Context, text string) (classifier.Result, bool) {
	if !c.enabled {
		return classifier.Result{}, false
	}

	key := c.generateKey(text)
	if val, found := c.cache.Get(key); found {
		e := val.(*entry)
		c.logger.WithFields(logrus.Fields{
			"label": e.result.Label,
			"age":   time.Since(e.createdAt),
		}).Debug("Classification cache hit")
		return e.result, true
	}

	return classifier.Result{}, false
}

// Set stores a classification in cache
func (c *Cache) Set(ctx context.Context, text string, result classifier.Result) error {
	if !c.enabled {
		return nil
	}

	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Classification cache size limit reached, clearing old entries")
		c.cache.DeleteExpired()
	}

	c.cache.SetDefault(c.generateKey(text), &entry{
		result:    result,
		createdAt: time.Now(),
	})
	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Classification cache cleared")
	return nil
}

// generateKey creates a unique cache key
func (c *Cache) generateKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

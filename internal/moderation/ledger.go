package moderation

import (
	"context"
	"fmt"

	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/sirupsen/logrus"
)

// WarningReason is the fixed reason recorded with every warning.
const WarningReason = "negative emotion detected"

// WarningStore is the slice of the record store the ledger needs.
type WarningStore interface {
	AppendWarning(ctx context.Context, rec *models.WarningRecord) error
	CountWarnings(ctx context.Context, userID string) (int, error)
}

// WarningLedger accumulates negative-emotion incidents per user. The
// persisted record count is the only escalation signal; it is
// recomputed on every call so restarts cannot reset it.
type WarningLedger struct {
	store  WarningStore
	logger *logrus.Logger
}

func NewWarningLedger(store WarningStore, logger *logrus.Logger) *WarningLedger {
	return &WarningLedger{
		store:  store,
		logger: logger,
	}
}

// RecordAndCount appends a warning for a negative-emotion label and
// returns the authoritative warning count including the new record.
// Non-negative labels append nothing and return the current count.
func (l *WarningLedger) RecordAndCount(ctx context.Context, userID string, label emotion.Label) (int, error) {
	if emotion.Negative(label) {
		rec := &models.WarningRecord{
			UserID:  userID,
			Reason:  WarningReason,
			Emotion: label,
		}
		if err := l.store.AppendWarning(ctx, rec); err != nil {
			return 0, fmt.Errorf("record warning: %w", err)
		}

		l.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"emotion": label,
		}).Info("Warning recorded")
	}

	count, err := l.store.CountWarnings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count warnings: %w", err)
	}
	return count, nil
}

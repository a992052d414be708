package moderation

import (
	"context"
	"testing"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/services/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordAndCount(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := newFakeStore()
	ledger := NewWarningLedger(store, testLogger())

	count, err := ledger.RecordAndCount(ctx, "u1", emotion.Angry)
	require.NoError(err)
	assert.Equal(1, count)

	count, err = ledger.RecordAndCount(ctx, "u1", emotion.Fear)
	require.NoError(err)
	assert.Equal(2, count)

	// Other users are unaffected.
	count, err = ledger.RecordAndCount(ctx, "u2", emotion.Sadness)
	require.NoError(err)
	assert.Equal(1, count)

	// Non-negative labels append nothing and report the current count.
	for _, label := range []emotion.Label{emotion.Sad, emotion.Positive, emotion.Neutral, emotion.Joy} {
		count, err = ledger.RecordAndCount(ctx, "u1", label)
		require.NoError(err)
		assert.Equal(2, count, "label %s", label)
	}
}

func TestLedgerCountSurvivesRestart(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	// The count lives in the store, not in the ledger: a new ledger
	// over the same store picks up where the old one stopped.
	backing := storage.NewMemoryStorage(&config.Config{}, testLogger())

	ledger := NewWarningLedger(backing, testLogger())
	count, err := ledger.RecordAndCount(ctx, "u1", emotion.Angry)
	require.NoError(err)
	require.Equal(1, count)

	replacement := NewWarningLedger(backing, testLogger())
	count, err = replacement.RecordAndCount(ctx, "u1", emotion.Angry)
	require.NoError(err)
	assert.Equal(2, count)
}

package storage

import (
	"context"
	"io"
	"testing"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage() *MemoryStorage {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewMemoryStorage(&config.Config{}, log)
}

func TestFindOrCreateUser(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := newTestStorage()

	id1, err := store.FindOrCreateUser(ctx, 42, "alice")
	require.NoError(err)
	require.NotEmpty(id1)

	// Same transport id resolves to the same record.
	id2, err := store.FindOrCreateUser(ctx, 42, "alice")
	require.NoError(err)
	assert.Equal(id1, id2)

	id3, err := store.FindOrCreateUser(ctx, 43, "bob")
	require.NoError(err)
	assert.NotEqual(id1, id3)

	user, err := store.GetUser(ctx, 42)
	require.NoError(err)
	assert.Equal("alice", user.Username)

	_, err = store.GetUser(ctx, 99)
	assert.ErrorIs(err, ErrUserNotFound)
}

func TestMessageRecords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := newTestStorage()

	records, err := store.ListMessages(ctx, "u1")
	require.NoError(err)
	assert.Empty(records)

	require.NoError(store.AppendMessage(ctx, &models.MessageRecord{
		UserID:     "u1",
		Text:       "hello",
		Emotion:    emotion.Neutral,
		Confidence: 0.8,
	}))
	require.NoError(store.AppendMessage(ctx, &models.MessageRecord{
		UserID:     "u1",
		Text:       "grr",
		Emotion:    emotion.Angry,
		Confidence: 0.9,
	}))

	records, err = store.ListMessages(ctx, "u1")
	require.NoError(err)
	require.Len(records, 2)
	assert.Equal("hello", records[0].Text)
	assert.Equal(emotion.Angry, records[1].Emotion)
	assert.False(records[0].CreatedAt.IsZero())
}

func TestWarningRecords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := newTestStorage()

	count, err := store.CountWarnings(ctx, "u1")
	require.NoError(err)
	assert.Zero(count)

	for i := 0; i < 3; i++ {
		require.NoError(store.AppendWarning(ctx, &models.WarningRecord{
			UserID:  "u1",
			Reason:  "negative emotion detected",
			Emotion: emotion.Angry,
		}))
	}

	count, err = store.CountWarnings(ctx, "u1")
	require.NoError(err)
	assert.Equal(3, count)

	// Counts are per user.
	count, err = store.CountWarnings(ctx, "u2")
	require.NoError(err)
	assert.Zero(count)
}

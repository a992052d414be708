package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcerApplyAndLift(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	tr := &fakeTransport{}
	enforcer := NewRestrictionEnforcer(tr, 30*time.Millisecond, DefaultNotices(), testLogger())

	before := time.Now()
	applied, err := enforcer.Apply(ctx, 1, 10)
	require.NoError(err)
	assert.True(applied)
	assert.True(enforcer.Restricted(1, 10))

	calls := tr.restrictCalls()
	require.Len(calls, 1)
	assert.False(calls[0].perms.SendMessages)
	assert.False(calls[0].perms.SendMedia)
	assert.False(calls[0].perms.SendPolls)
	assert.False(calls[0].perms.InviteUsers)
	assert.WithinDuration(before.Add(30*time.Millisecond), calls[0].until, 50*time.Millisecond)
	assert.Contains(tr.sentTexts(), DefaultNotices().Restricted)

	// The scheduled lift restores member permissions and clears state.
	require.True(waitFor(time.Second, func() bool {
		return !enforcer.Restricted(1, 10)
	}))
	require.True(waitFor(time.Second, func() bool {
		return len(tr.restrictCalls()) == 2
	}))

	calls = tr.restrictCalls()
	assert.True(calls[1].perms.SendMessages)
	assert.True(calls[1].perms.SendMedia)
	assert.True(calls[1].until.IsZero())

	lifted := 0
	for _, text := range tr.sentTexts() {
		if text == DefaultNotices().Lifted {
			lifted++
		}
	}
	assert.Equal(1, lifted)
}

func TestEnforcerIdempotentWhileActive(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	tr := &fakeTransport{}
	enforcer := NewRestrictionEnforcer(tr, 60*time.Millisecond, DefaultNotices(), testLogger())

	applied, err := enforcer.Apply(ctx, 1, 10)
	require.NoError(err)
	require.True(applied)

	// Further qualifying events must not re-issue or reschedule.
	for i := 0; i < 5; i++ {
		applied, err = enforcer.Apply(ctx, 1, 10)
		require.NoError(err)
		assert.False(applied)
	}
	assert.Len(tr.restrictCalls(), 1)

	// A different pair is unaffected.
	applied, err = enforcer.Apply(ctx, 2, 10)
	require.NoError(err)
	assert.True(applied)

	// Exactly one lift per pair fires.
	require.True(waitFor(time.Second, func() bool {
		return len(tr.restrictCalls()) == 4
	}))
	assert.False(enforcer.Restricted(1, 10))
	assert.False(enforcer.Restricted(2, 10))
}

func TestEnforcerApplyFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	tr := &fakeTransport{restrictErr: errors.New("not enough rights")}
	enforcer := NewRestrictionEnforcer(tr, 20*time.Millisecond, DefaultNotices(), testLogger())

	applied, err := enforcer.Apply(ctx, 1, 10)
	require.Error(err)
	assert.False(applied)

	// Nothing took effect: no state, a failure notice, no lift ever.
	assert.False(enforcer.Restricted(1, 10))
	texts := tr.sentTexts()
	require.Len(texts, 1)
	assert.Contains(texts[0], "not enough rights")

	time.Sleep(60 * time.Millisecond)
	assert.Empty(tr.restrictCalls())

	// The pair can be restricted again once the transport recovers.
	tr.restrictErr = nil
	applied, err = enforcer.Apply(ctx, 1, 10)
	require.NoError(err)
	assert.True(applied)
}

func TestEnforcerLiftFailureStillClearsState(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	tr := &fakeTransport{liftErr: errors.New("member left")}
	enforcer := NewRestrictionEnforcer(tr, 20*time.Millisecond, DefaultNotices(), testLogger())

	applied, err := enforcer.Apply(ctx, 1, 10)
	require.NoError(err)
	require.True(applied)

	require.True(waitFor(time.Second, func() bool {
		return !enforcer.Restricted(1, 10)
	}))

	var liftFailed bool
	for _, text := range tr.sentTexts() {
		if text != DefaultNotices().Restricted && text != DefaultNotices().Lifted {
			liftFailed = true
			assert.Contains(text, "member left")
		}
	}
	assert.True(liftFailed)
}

func TestEnforcerCancelLift(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	tr := &fakeTransport{}
	enforcer := NewRestrictionEnforcer(tr, 30*time.Millisecond, DefaultNotices(), testLogger())

	applied, err := enforcer.Apply(ctx, 1, 10)
	require.NoError(err)
	require.True(applied)

	assert.True(enforcer.CancelLift(1, 10))
	assert.False(enforcer.Restricted(1, 10))
	assert.False(enforcer.CancelLift(1, 10))

	// The cancelled job never fires.
	time.Sleep(80 * time.Millisecond)
	assert.Len(tr.restrictCalls(), 1)
}

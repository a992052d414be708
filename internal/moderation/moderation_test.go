package moderation

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/transport"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type restrictCall struct {
	chatID int64
	userID int64
	perms  transport.PermissionSet
	until  time.Time
}

// fakeTransport records calls and can be told to fail.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []string
	restricts []restrictCall

	restrictErr error // returned for muting calls
	liftErr     error // returned for permission-restoring calls
}

func (f *fakeTransport) SendText(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) Restrict(ctx context.Context, chatID, userID int64, perms transport.PermissionSet, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if perms.SendMessages {
		if f.liftErr != nil {
			return f.liftErr
		}
	} else if f.restrictErr != nil {
		return f.restrictErr
	}
	f.restricts = append(f.restricts, restrictCall{chatID: chatID, userID: userID, perms: perms, until: until})
	return nil
}

func (f *fakeTransport) DownloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	return nil, nil
}

func (f *fakeTransport) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) restrictCalls() []restrictCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]restrictCall, len(f.restricts))
	copy(out, f.restricts)
	return out
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

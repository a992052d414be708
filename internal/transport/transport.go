package transport

import (
	"context"
	"fmt"
	"time"
)

// TransportError wraps a failed chat API call with the operation name
// so moderation notices can report what exactly failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PermissionSet mirrors the chat permissions the bot can grant or
// revoke for a member.
type PermissionSet struct {
	SendMessages   bool
	SendMedia      bool
	SendPolls      bool
	SendOther      bool
	AddWebPreviews bool
	ChangeInfo     bool
	InviteUsers    bool
	PinMessages    bool
}

// Muted denies everything a regular member can do.
func Muted() PermissionSet {
	return PermissionSet{}
}

// Member restores the regular member permission set. Change-info and
// pin stay admin-only.
func Member() PermissionSet {
	return PermissionSet{
		SendMessages:   true,
		SendMedia:      true,
		SendPolls:      true,
		SendOther:      true,
		AddWebPreviews: true,
		InviteUsers:    true,
	}
}

// ChatTransport is the capability surface the moderation engine needs
// from the chat platform. Lifting a restriction is Restrict with the
// Member set and a zero until time.
type ChatTransport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	Restrict(ctx context.Context, chatID, userID int64, perms PermissionSet, until time.Time) error
	DownloadVoice(ctx context.Context, fileID string) ([]byte, error)
}

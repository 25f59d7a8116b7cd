// Package navigation implements the per-conversation session engine: the menu
// stack state machine, the TTL-bound application-message lifecycle with
// change-diffing, callback routing and the poll sub-protocol.
package navigation

import (
	"context"
	"errors"
	"time"

	"github.com/mevellea/telegram-menu/core/menu"
)

// ChatAction is a presence hint shown in the client while a send is prepared.
type ChatAction string

const (
	ActionTyping         ChatAction = "typing"
	ActionUploadingPhoto ChatAction = "upload_photo"
)

var (
	// ErrMessageGone is returned by Transport implementations when the
	// remote side reports the target message no longer exists.
	ErrMessageGone = errors.New("navigation: message gone")
	// ErrNotModified is returned by Transport implementations when an edit
	// carried no visible change.
	ErrNotModified = errors.New("navigation: message not modified")
)

// Transport performs the actual message delivery. Implementations map their
// SDK's failure modes onto ErrMessageGone / ErrNotModified where applicable;
// every other error is treated as a generic transport failure.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *menu.Markup, notify bool) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup *menu.Markup) error
	EditMessageCaption(ctx context.Context, chatID int64, messageID int, caption string, markup *menu.Markup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendPhoto(ctx context.Context, chatID int64, attachment, caption string, markup *menu.Markup, notify bool) (int, error)
	SendSticker(ctx context.Context, chatID int64, attachment string, notify bool) (int, error)
	SendPoll(ctx context.Context, chatID int64, question string, options []string, openPeriod time.Duration) (int, error)
	AnswerCallback(ctx context.Context, ackID, text string) error
	SendChatAction(ctx context.Context, chatID int64, action ChatAction) error
}

// Scheduler runs named background jobs. Sessions register an expiry-sweep
// interval job and at most one poll-deadline one-shot; job ids are
// session-scoped so sessions never collide.
type Scheduler interface {
	AddInterval(interval time.Duration, jobID string, fn func(), replace bool) error
	AddOneShot(delay time.Duration, jobID string, fn func(), replace bool) error
	Cancel(jobID string)
	HasJob(jobID string) bool
}

// Package menu holds the message and button model used by the navigation engine.
package menu

import (
	"context"
	"errors"
	"strings"
)

// Separator joins message and button labels inside callback tokens.
// It is reserved: no label may contain it.
const Separator = "##"

var (
	// ErrEmptyLabel is returned when a button or message label is blank.
	ErrEmptyLabel = errors.New("menu: empty label")
	// ErrSeparatorInLabel is returned when a label contains the reserved separator.
	ErrSeparatorInLabel = errors.New("menu: label contains reserved separator " + Separator)
	// ErrDuplicateLabel is returned when a keyboard already has a button with the same label.
	ErrDuplicateLabel = errors.New("menu: duplicate button label")
)

const (
	// LabelBack is the reserved label that navigates one menu level up.
	LabelBack = "Back"
	// LabelHome is the reserved label that collapses the stack to the root menu.
	LabelHome = "Home"
)

// Handler is the single action signature invoked when a button is selected.
// Synchronous application callbacks are wrapped into this shape at
// registration time, never probed at dispatch time.
type Handler func(ctx context.Context, args string) (string, error)

// ButtonKind selects the side effect performed after a button handler runs.
type ButtonKind int

const (
	// KindNotify shows the handler result as a popup acknowledgement.
	KindNotify ButtonKind = iota
	// KindSendText sends the handler result as a plain chat message.
	KindSendText
	// KindSendPicture sends the handler result as a photo attachment path.
	KindSendPicture
	// KindSendSticker sends the handler result as a sticker attachment path.
	KindSendSticker
	// KindPoll starts the poll sub-protocol bound to the button.
	KindPoll
	// KindLink opens an external URL or web app; no handler is invoked.
	KindLink
)

// String returns the kind name for logging.
func (k ButtonKind) String() string {
	switch k {
	case KindNotify:
		return "notify"
	case KindSendText:
		return "send_text"
	case KindSendPicture:
		return "send_picture"
	case KindSendSticker:
		return "send_sticker"
	case KindPoll:
		return "poll"
	case KindLink:
		return "link"
	}
	return "unknown"
}

// Action is a tagged union decided at button construction time:
// invoke a handler, navigate to a target message, or do nothing.
type Action struct {
	handler Handler
	target  *Message
}

// Invoke builds an action that runs the given handler.
func Invoke(h Handler) Action {
	return Action{handler: h}
}

// Navigate builds an action that opens the given message.
func Navigate(target *Message) Action {
	return Action{target: target}
}

// NoAction returns the empty action.
func NoAction() Action {
	return Action{}
}

// Handler returns the bound handler, or nil.
func (a Action) Handler() Handler { return a.handler }

// Target returns the navigation target, or nil.
func (a Action) Target() *Message { return a.target }

// IsNone reports whether the action does nothing.
func (a Action) IsNone() bool { return a.handler == nil && a.target == nil }

// PollDefinition carries the question and options attached to a poll button.
type PollDefinition struct {
	Question string
	Options  []string
}

// Button is one cell of a message keyboard.
type Button struct {
	Label  string
	Kind   ButtonKind
	Action Action
	// Args is passed verbatim to the handler.
	Args string
	// Notify controls whether side-effect sends ring the client.
	Notify bool
	// URL is the external link for KindLink buttons.
	URL string
	// WebApp is the web-app URL for KindLink buttons rendered as web-app openers.
	WebApp string
	// Poll is required for KindPoll buttons.
	Poll *PollDefinition
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	if strings.Contains(label, Separator) {
		return ErrSeparatorInLabel
	}
	return nil
}

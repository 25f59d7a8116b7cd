package navigation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mevellea/telegram-menu/core/logger"
	"github.com/mevellea/telegram-menu/core/menu"
)

// FailedSendID is returned by send operations when the transport rejected
// the message.
const FailedSendID = menu.UnsentID

const (
	// DefaultSweepInterval is how often the expiry sweep runs unless
	// configured otherwise.
	DefaultSweepInterval = 10 * time.Second
	// DefaultPollDeadline bounds how long a poll awaits an answer.
	DefaultPollDeadline = 60 * time.Second
)

// Options tunes per-session behavior. Zero values fall back to defaults.
type Options struct {
	// MessageTTL is the fallback lifetime for application messages that
	// carry no TTL of their own.
	MessageTTL time.Duration
	// SweepInterval is the expiry sweep period.
	SweepInterval time.Duration
	// PollDeadline is how long a poll stays open awaiting an answer.
	PollDeadline time.Duration
	// DefaultPicture substitutes a photo attachment the transport rejected.
	DefaultPicture string
	// ButtonsPerRow forces the keyboard grid width; 0 keeps per-mode defaults.
	ButtonsPerRow int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MessageTTL <= 0 {
		o.MessageTTL = menu.DefaultTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.PollDeadline <= 0 {
		o.PollDeadline = DefaultPollDeadline
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is the conversation-scoped navigation engine. One instance exists
// per chat; all mutating operations are serialized on an internal mutex, so
// inbound dispatch and the background sweep never observe half-applied state.
// Distinct sessions are fully independent.
type Session struct {
	chatID    int64
	transport Transport
	sched     Scheduler
	opts      Options

	// jobPrefix scopes scheduler job ids to this session.
	jobPrefix string

	mu                 sync.Mutex
	menuStack          []*menu.Message
	appMessages        map[string]*menu.Message
	poll               *pollState
	lastUserActivityAt time.Time
}

// NewSession builds a session for one conversation. Call Start to send the
// root menu and arm the expiry sweep.
func NewSession(chatID int64, transport Transport, sched Scheduler, opts Options) (*Session, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	opts = opts.withDefaults()
	return &Session{
		chatID:             chatID,
		transport:          transport,
		sched:              sched,
		opts:               opts,
		jobPrefix:          "session:" + uuid.NewString(),
		appMessages:        make(map[string]*menu.Message),
		lastUserActivityAt: opts.Now(),
	}, nil
}

// ChatID returns the conversation identity this session serves.
func (s *Session) ChatID() int64 { return s.chatID }

// Start sends the root menu and registers the periodic expiry sweep. The
// root must be a menu-mode message.
func (s *Session) Start(ctx context.Context, root *menu.Message) error {
	if root == nil || root.Inlined() {
		return ErrInvalidRoot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.gotoMenu(ctx, root); id == FailedSendID {
		return errors.New("navigation: root menu send failed")
	}
	if err := s.sched.AddInterval(s.opts.SweepInterval, s.sweepJobID(), func() {
		s.ExpirySweep(context.Background())
	}, true); err != nil {
		return err
	}
	logger.Info(ctx, "nav", "session.start",
		slog.Int64("chat_id", s.chatID),
		slog.String("label", root.Label()),
	)
	return nil
}

// Close cancels the session's scheduler jobs. Tracked messages stay visible
// in the chat.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.Cancel(s.sweepJobID())
	if s.poll != nil {
		s.sched.Cancel(s.poll.jobID)
		s.poll = nil
	}
}

func (s *Session) sweepJobID() string { return s.jobPrefix + ":sweep" }
func (s *Session) pollJobID() string  { return s.jobPrefix + ":poll" }

// StackDepth returns the current menu stack depth.
func (s *Session) StackDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.menuStack)
}

// GotoMenu renders and sends the given menu message and pushes it onto the
// stack. Returns the new message id, or FailedSendID.
func (s *Session) GotoMenu(ctx context.Context, m *menu.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotoMenu(ctx, m)
}

func (s *Session) gotoMenu(ctx context.Context, m *menu.Message) int {
	content := m.RenderContent()
	id, err := s.sendVisual(ctx, m, content, m.Markup(s.opts.ButtonsPerRow))
	if err != nil {
		logger.Error(ctx, "nav", "menu.send.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return FailedSendID
	}
	m.SetMessageID(id)
	m.MarkAlive(s.opts.Now())
	m.Snapshot(content)
	s.menuStack = append(s.menuStack, m)
	logger.Debug(ctx, "nav", "menu.goto",
		slog.Int64("chat_id", s.chatID),
		slog.String("label", m.Label()),
		slog.Int("msg_id", id),
		slog.Int("stack_depth", len(s.menuStack)),
	)
	return id
}

// GotoHome collapses the stack to the root. At depth 1 this is a no-op
// returning the root's current id; otherwise the root is re-rendered and
// re-sent, which refreshes both its content and its expiry clock.
func (s *Session) GotoHome(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotoHome(ctx)
}

func (s *Session) gotoHome(ctx context.Context) int {
	if len(s.menuStack) == 0 {
		return FailedSendID
	}
	if len(s.menuStack) == 1 {
		return s.menuStack[0].MessageID()
	}
	root := s.menuStack[0]
	s.menuStack = s.menuStack[:0]
	id := s.gotoMenu(ctx, root)
	if id == FailedSendID {
		// The stack must never end up empty.
		s.menuStack = append(s.menuStack, root)
	}
	return id
}

// SelectMenuButton resolves a tapped reply-keyboard label. "Back" and "Home"
// are reserved navigation labels; any other label is matched against the
// stacked keyboards from the most recent entry backwards, and an unmatched
// label falls through to free-text capture.
func (s *Session) SelectMenuButton(ctx context.Context, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectMenuButton(ctx, label)
}

func (s *Session) selectMenuButton(ctx context.Context, label string) int {
	s.lastUserActivityAt = s.opts.Now()
	switch label {
	case menu.LabelBack:
		if len(s.menuStack) <= 1 {
			return s.topMenuID()
		}
		target := s.menuStack[len(s.menuStack)-1]
		s.menuStack = s.menuStack[:len(s.menuStack)-1]
		if len(s.menuStack) > 0 {
			target = s.menuStack[len(s.menuStack)-1]
			s.menuStack = s.menuStack[:len(s.menuStack)-1]
		}
		id := s.gotoMenu(ctx, target)
		if id == FailedSendID && len(s.menuStack) == 0 {
			s.menuStack = append(s.menuStack, target)
		}
		return id
	case menu.LabelHome:
		return s.gotoHome(ctx)
	}

	for i := len(s.menuStack) - 1; i >= 0; i-- {
		b, ok := s.menuStack[i].Button(label)
		if !ok {
			continue
		}
		return s.runMenuButton(ctx, b)
	}

	s.captureUserInput(ctx, label)
	return s.topMenuID()
}

func (s *Session) runMenuButton(ctx context.Context, b menu.Button) int {
	switch {
	case b.Action.Target() != nil:
		target := b.Action.Target()
		if target.Inlined() {
			id := s.sendAppMessage(ctx, target, b.Label)
			if target.HomeAfter {
				return s.gotoHome(ctx)
			}
			return id
		}
		return s.gotoMenu(ctx, target)
	case b.Action.Handler() != nil:
		h, args := b.Action.Handler(), b.Args
		go func() {
			if _, err := h(ctx, args); err != nil {
				logger.Error(ctx, "nav", "button.handler.fail",
					slog.Int64("chat_id", s.chatID),
					slog.String("button", b.Label),
					slog.String("cause", logger.Sanitize(err.Error())),
				)
			}
		}()
		return s.topMenuID()
	default:
		return s.topMenuID()
	}
}

func (s *Session) topMenuID() int {
	if len(s.menuStack) == 0 {
		return FailedSendID
	}
	return s.menuStack[len(s.menuStack)-1].MessageID()
}

// CaptureUserInput forwards free text to the text-input hook of the most
// recently alive tracked message.
func (s *Session) CaptureUserInput(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captureUserInput(ctx, text)
}

func (s *Session) captureUserInput(ctx context.Context, text string) {
	var target *menu.Message
	if len(s.menuStack) > 0 {
		target = s.menuStack[len(s.menuStack)-1]
	}
	for _, m := range s.appMessages {
		if target == nil || m.LastAliveAt().After(target.LastAliveAt()) {
			target = m
		}
	}
	if target == nil || target.TextInput == nil {
		logger.Debug(ctx, "nav", "input.drop",
			slog.Int64("chat_id", s.chatID),
			slog.String("text", logger.SanitizeLimit(text, 64)),
		)
		return
	}
	target.TextInput(text)
}

// SendAppMessage sends an application message with an inline keyboard and
// tracks it for editing and expiry. The message label gains a
// "_<triggerLabel>" suffix on its first send; a tracked message with the same
// label is replaced. Returns the message id, or FailedSendID.
func (s *Session) SendAppMessage(ctx context.Context, m *menu.Message, triggerLabel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendAppMessage(ctx, m, triggerLabel)
}

func (s *Session) sendAppMessage(ctx context.Context, m *menu.Message, triggerLabel string) int {
	content := m.RenderContent()
	m.ApplySuffix(triggerLabel)
	// Replace semantics: an already-tracked entry under the same label is
	// deleted first, including the previous chat copy of this very message.
	if prev, ok := s.appMessages[m.Label()]; ok {
		s.deleteQueuedMessage(ctx, prev)
	}
	m.MarkAlive(s.opts.Now())
	id, err := s.sendVisual(ctx, m, content, m.Markup(s.opts.ButtonsPerRow))
	if err != nil {
		logger.Error(ctx, "nav", "app.send.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return FailedSendID
	}
	m.SetMessageID(id)
	m.Snapshot(content)
	s.appMessages[m.Label()] = m
	logger.Debug(ctx, "nav", "app.send",
		slog.Int64("chat_id", s.chatID),
		slog.String("label", m.Label()),
		slog.Int("msg_id", id),
		slog.Int("tracked", len(s.appMessages)),
	)
	return id
}

// sendVisual sends either a photo-backed or plain text message. A rejected
// photo attachment is retried once with the configured default picture.
func (s *Session) sendVisual(ctx context.Context, m *menu.Message, content string, mk *menu.Markup) (int, error) {
	if m.Picture == "" {
		return s.transport.SendMessage(ctx, s.chatID, content, mk, m.Notify)
	}
	_ = s.transport.SendChatAction(ctx, s.chatID, ActionUploadingPhoto)
	id, err := s.transport.SendPhoto(ctx, s.chatID, m.Picture, content, mk, m.Notify)
	if err != nil && s.opts.DefaultPicture != "" && s.opts.DefaultPicture != m.Picture {
		logger.Error(ctx, "nav", "photo.fallback",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		id, err = s.transport.SendPhoto(ctx, s.chatID, s.opts.DefaultPicture, content, mk, m.Notify)
	}
	return id, err
}

// EditMessage re-renders a tracked application message and edits it in place
// when the content or keyboard changed since the last transmit. Returns true
// iff a transport edit was issued; an unchanged render is suppressed
// entirely.
func (s *Session) EditMessage(ctx context.Context, m *menu.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMessage(ctx, m)
}

func (s *Session) editMessage(ctx context.Context, m *menu.Message) bool {
	tracked, ok := s.appMessages[m.Label()]
	if !ok || tracked != m {
		logger.Debug(ctx, "nav", "edit.untracked",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
		)
		return false
	}
	content := m.RenderContent()
	if !m.Changed(content) {
		return false
	}
	mk := m.Markup(s.opts.ButtonsPerRow)
	var err error
	if m.Picture != "" {
		err = s.transport.EditMessageCaption(ctx, s.chatID, m.MessageID(), content, mk)
	} else {
		err = s.transport.EditMessageText(ctx, s.chatID, m.MessageID(), content, mk)
	}
	switch {
	case err == nil, errors.Is(err, ErrNotModified):
	case errors.Is(err, ErrMessageGone):
		logger.Error(ctx, "nav", "edit.gone",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.Int("msg_id", m.MessageID()),
		)
	default:
		logger.Error(ctx, "nav", "edit.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return false
	}
	m.Snapshot(content)
	return true
}

// DeleteQueuedMessage runs the message's kill hook, stops tracking it and
// deletes it from the chat.
func (s *Session) DeleteQueuedMessage(ctx context.Context, m *menu.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteQueuedMessage(ctx, m)
}

func (s *Session) deleteQueuedMessage(ctx context.Context, m *menu.Message) {
	if m.OnKill != nil {
		m.OnKill()
	}
	delete(s.appMessages, m.Label())
	if m.MessageID() == menu.UnsentID {
		return
	}
	if err := s.transport.DeleteMessage(ctx, s.chatID, m.MessageID()); err != nil && !errors.Is(err, ErrMessageGone) {
		logger.Error(ctx, "nav", "delete.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
}

// ExpirySweep deletes application messages that outlived their TTL and
// collapses the stack to the root when the top sub-menu went stale.
func (s *Session) ExpirySweep(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	var expired []*menu.Message
	for _, m := range s.appMessages {
		if m.Expired(now, s.opts.MessageTTL) {
			expired = append(expired, m)
		}
	}
	for _, m := range expired {
		logger.Debug(ctx, "nav", "sweep.expire",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", m.Label()),
		)
		s.deleteQueuedMessage(ctx, m)
	}
	if len(s.menuStack) >= 2 && s.menuStack[len(s.menuStack)-1].Expired(now, s.opts.MessageTTL) {
		logger.Debug(ctx, "nav", "sweep.collapse",
			slog.Int64("chat_id", s.chatID),
			slog.Int("stack_depth", len(s.menuStack)),
		)
		s.gotoHome(ctx)
	}
}

// AppMessageButtonCallback routes an inline-button press. The token carries
// "<messageLabel>##<buttonLabel>"; an unknown label on either side is logged
// and dropped. Handlers run outside the session lock, so they may call back
// into the session.
func (s *Session) AppMessageButtonCallback(ctx context.Context, token, ackID string) {
	msgLabel, btnLabel, ok := menu.SplitToken(token)
	if !ok {
		logger.Warn(ctx, "nav", "callback.malformed",
			slog.Int64("chat_id", s.chatID),
			slog.String("token", logger.SanitizeLimit(token, 64)),
		)
		return
	}

	s.mu.Lock()
	m, tracked := s.appMessages[msgLabel]
	if !tracked {
		s.mu.Unlock()
		logger.Warn(ctx, "nav", "callback.unknown_message",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", msgLabel),
		)
		return
	}
	b, found := m.Button(btnLabel)
	if !found {
		s.mu.Unlock()
		logger.Warn(ctx, "nav", "callback.unknown_button",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", msgLabel),
			slog.String("button", btnLabel),
		)
		return
	}
	s.lastUserActivityAt = s.opts.Now()
	s.mu.Unlock()

	if b.Kind == menu.KindPoll {
		s.startPoll(ctx, b)
		s.answerCallback(ctx, ackID, "")
		return
	}
	if b.Action.Handler() == nil {
		s.answerCallback(ctx, ackID, "")
		return
	}

	switch b.Kind {
	case menu.KindSendPicture, menu.KindSendSticker:
		_ = s.transport.SendChatAction(ctx, s.chatID, ActionUploadingPhoto)
	case menu.KindSendText:
		_ = s.transport.SendChatAction(ctx, s.chatID, ActionTyping)
	}

	out, err := b.Action.Handler()(ctx, b.Args)
	if err != nil {
		logger.Error(ctx, "nav", "callback.handler.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("label", msgLabel),
			slog.String("button", btnLabel),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		s.answerCallback(ctx, ackID, "")
		return
	}

	switch b.Kind {
	case menu.KindSendPicture:
		if _, perr := s.sendPhotoWithFallback(ctx, out, b.Notify); perr != nil {
			logger.Error(ctx, "nav", "callback.photo.fail",
				slog.Int64("chat_id", s.chatID),
				slog.String("cause", logger.Sanitize(perr.Error())),
			)
		}
		s.answerCallback(ctx, ackID, "Picture sent!")
	case menu.KindSendSticker:
		if _, serr := s.transport.SendSticker(ctx, s.chatID, out, b.Notify); serr != nil {
			logger.Error(ctx, "nav", "callback.sticker.fail",
				slog.Int64("chat_id", s.chatID),
				slog.String("cause", logger.Sanitize(serr.Error())),
			)
		}
		s.answerCallback(ctx, ackID, "Sticker sent!")
	case menu.KindSendText:
		if _, terr := s.transport.SendMessage(ctx, s.chatID, out, nil, b.Notify); terr != nil {
			logger.Error(ctx, "nav", "callback.text.fail",
				slog.Int64("chat_id", s.chatID),
				slog.String("cause", logger.Sanitize(terr.Error())),
			)
		}
		s.answerCallback(ctx, ackID, "Message sent!")
	default:
		s.answerCallback(ctx, ackID, out)
		s.mu.Lock()
		m.MarkAlive(s.opts.Now())
		s.editMessage(ctx, m)
		s.mu.Unlock()
	}
}

func (s *Session) sendPhotoWithFallback(ctx context.Context, attachment string, notify bool) (int, error) {
	id, err := s.transport.SendPhoto(ctx, s.chatID, attachment, "", nil, notify)
	if err != nil && s.opts.DefaultPicture != "" && s.opts.DefaultPicture != attachment {
		logger.Error(ctx, "nav", "photo.fallback",
			slog.Int64("chat_id", s.chatID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		id, err = s.transport.SendPhoto(ctx, s.chatID, s.opts.DefaultPicture, "", nil, notify)
	}
	return id, err
}

func (s *Session) answerCallback(ctx context.Context, ackID, text string) {
	if ackID == "" {
		return
	}
	if err := s.transport.AnswerCallback(ctx, ackID, text); err != nil {
		logger.Error(ctx, "nav", "callback.answer.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
}

// OnTextCommand handles free text typed into the chat. Reply-keyboard taps
// arrive as plain text, so menu-button resolution runs first and unmatched
// text falls through to input capture.
func (s *Session) OnTextCommand(ctx context.Context, text string) int {
	return s.SelectMenuButton(ctx, text)
}

// OnInlineCallback handles an inline-button press.
func (s *Session) OnInlineCallback(ctx context.Context, token, ackID string) {
	s.AppMessageButtonCallback(ctx, token, ackID)
}

// OnWebAppPayload routes data posted by a web app opened from the button
// with the given label. The payload is handed to the button's handler.
func (s *Session) OnWebAppPayload(ctx context.Context, payload, buttonLabel string) {
	s.mu.Lock()
	var b menu.Button
	found := false
	for _, m := range s.appMessages {
		if candidate, ok := m.Button(buttonLabel); ok {
			b, found = candidate, true
			break
		}
	}
	if !found {
		for i := len(s.menuStack) - 1; i >= 0 && !found; i-- {
			if candidate, ok := s.menuStack[i].Button(buttonLabel); ok {
				b, found = candidate, true
			}
		}
	}
	s.mu.Unlock()
	if !found || b.Action.Handler() == nil {
		logger.Warn(ctx, "nav", "webapp.unknown_button",
			slog.Int64("chat_id", s.chatID),
			slog.String("button", buttonLabel),
		)
		return
	}
	if _, err := b.Action.Handler()(ctx, payload); err != nil {
		logger.Error(ctx, "nav", "webapp.handler.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("button", buttonLabel),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
}

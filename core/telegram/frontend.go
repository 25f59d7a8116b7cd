package telegram

import (
	"context"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/mevellea/telegram-menu/core/logger"
	"github.com/mevellea/telegram-menu/core/navigation"
	tghelpers "github.com/mevellea/telegram-menu/core/telegram/helpers"
)

// Frontend classifies inbound updates and forwards each to the right session
// method. A contact from an unknown chat creates the session and sends the
// root menu before the event is handled further.
type Frontend struct {
	registry *navigation.Registry
}

// NewFrontend builds the dispatch front-end over a session registry.
func NewFrontend(registry *navigation.Registry) *Frontend {
	return &Frontend{registry: registry}
}

// Routes returns the bot handler bindings for every update kind the engine
// consumes.
func (f *Frontend) Routes() []Route {
	return []Route{
		{Endpoint: "/start", Handler: f.onStart},
		{Endpoint: tele.OnText, Handler: f.onText},
		{Endpoint: tele.OnCallback, Handler: f.onCallback},
		{Endpoint: tele.OnPollAnswer, Handler: f.onPollAnswer},
		{Endpoint: tele.OnWebApp, Handler: f.onWebApp},
	}
}

// session resolves the chat's session, creating and starting one on first
// contact.
func (f *Frontend) session(ctx context.Context, c tele.Context) (*navigation.Session, error) {
	chat := c.Chat()
	if chat == nil {
		return nil, navigation.ErrNoSession
	}
	return f.registry.Session(ctx, chat.ID)
}

func (f *Frontend) onStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if s, err := f.registry.Lookup(chat.ID); err == nil {
		s.GotoHome(ctx)
		return nil
	}
	if _, err := f.registry.Session(ctx, chat.ID); err != nil {
		logger.Error(ctx, "tg", "start.fail",
			slog.Int64("chat_id", chat.ID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
	return nil
}

func (f *Frontend) onText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "text")
	s, err := f.session(ctx, c)
	if err != nil {
		logger.Error(ctx, "tg", "text.session.fail",
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return nil
	}
	s.OnTextCommand(ctx, c.Text())
	return nil
}

func (f *Frontend) onCallback(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "callback")
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	s, err := f.session(ctx, c)
	if err != nil {
		logger.Error(ctx, "tg", "callback.session.fail",
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return nil
	}
	// telebot keeps the \f prefix on raw callback payloads.
	token := strings.TrimPrefix(cb.Data, "\f")
	s.OnInlineCallback(ctx, token, cb.ID)
	return nil
}

func (f *Frontend) onPollAnswer(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "poll_answer")
	pa := c.PollAnswer()
	if pa == nil || pa.Sender == nil || len(pa.Options) == 0 {
		return nil
	}
	// Poll answers carry no chat; for private chats the sender id is the
	// chat id. An answer from a chat we never served is dropped.
	s, err := f.registry.Lookup(pa.Sender.ID)
	if err != nil {
		logger.Warn(ctx, "tg", "poll_answer.orphan",
			slog.Int64("user_id", pa.Sender.ID),
		)
		return nil
	}
	s.OnPollAnswer(ctx, pa.Options[0])
	return nil
}

func (f *Frontend) onWebApp(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "web_app")
	msg := c.Message()
	if msg == nil || msg.WebAppData == nil {
		return nil
	}
	s, err := f.session(ctx, c)
	if err != nil {
		logger.Error(ctx, "tg", "webapp.session.fail",
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return nil
	}
	s.OnWebAppPayload(ctx, msg.WebAppData.Data, msg.WebAppData.Text)
	return nil
}

// Package telegram adapts the navigation engine to the Telegram Bot API via
// telebot: outbound delivery, inbound update routing and the bot run loop.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mevellea/telegram-menu/core/menu"
	"github.com/mevellea/telegram-menu/core/navigation"
)

// Transport delivers messages through a telebot bot. All outbound text uses
// HTML parse mode. API failure modes relevant to the navigation engine are
// mapped onto its sentinel errors.
type Transport struct {
	bot *tele.Bot
}

// NewTransport wraps the given bot.
func NewTransport(bot *tele.Bot) *Transport {
	return &Transport{bot: bot}
}

func (t *Transport) SendMessage(_ context.Context, chatID int64, text string, mk *menu.Markup, notify bool) (int, error) {
	msg, err := t.bot.Send(tele.ChatID(chatID), text, sendOptions(mk, notify))
	if err != nil {
		return menu.UnsentID, classify(err)
	}
	return msg.ID, nil
}

func (t *Transport) EditMessageText(_ context.Context, chatID int64, messageID int, text string, mk *menu.Markup) error {
	_, err := t.bot.Edit(stored(chatID, messageID), text, sendOptions(mk, true))
	return classify(err)
}

func (t *Transport) EditMessageCaption(_ context.Context, chatID int64, messageID int, caption string, mk *menu.Markup) error {
	_, err := t.bot.EditCaption(stored(chatID, messageID), caption, sendOptions(mk, true))
	return classify(err)
}

func (t *Transport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	return classify(t.bot.Delete(stored(chatID, messageID)))
}

func (t *Transport) SendPhoto(_ context.Context, chatID int64, attachment, caption string, mk *menu.Markup, notify bool) (int, error) {
	photo := &tele.Photo{File: attachmentFile(attachment), Caption: caption}
	msg, err := t.bot.Send(tele.ChatID(chatID), photo, sendOptions(mk, notify))
	if err != nil {
		return menu.UnsentID, classify(err)
	}
	return msg.ID, nil
}

func (t *Transport) SendSticker(_ context.Context, chatID int64, attachment string, notify bool) (int, error) {
	sticker := &tele.Sticker{File: attachmentFile(attachment)}
	msg, err := t.bot.Send(tele.ChatID(chatID), sticker, sendOptions(nil, notify))
	if err != nil {
		return menu.UnsentID, classify(err)
	}
	return msg.ID, nil
}

func (t *Transport) SendPoll(_ context.Context, chatID int64, question string, options []string, openPeriod time.Duration) (int, error) {
	poll := &tele.Poll{
		Type:       tele.PollRegular,
		Question:   question,
		OpenPeriod: int(openPeriod.Seconds()),
	}
	poll.AddOptions(options...)
	msg, err := t.bot.Send(tele.ChatID(chatID), poll)
	if err != nil {
		return menu.UnsentID, classify(err)
	}
	return msg.ID, nil
}

func (t *Transport) AnswerCallback(_ context.Context, ackID, text string) error {
	return classify(t.bot.Respond(&tele.Callback{ID: ackID}, &tele.CallbackResponse{Text: text}))
}

func (t *Transport) SendChatAction(_ context.Context, chatID int64, action navigation.ChatAction) error {
	var act tele.ChatAction
	switch action {
	case navigation.ActionUploadingPhoto:
		act = tele.UploadingPhoto
	default:
		act = tele.Typing
	}
	return classify(t.bot.Notify(tele.ChatID(chatID), act))
}

func stored(chatID int64, messageID int) tele.Editable {
	return &tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

func sendOptions(mk *menu.Markup, notify bool) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:           tele.ModeHTML,
		DisableNotification: !notify,
		ReplyMarkup:         toReplyMarkup(mk),
	}
}

// toReplyMarkup converts the engine's keyboard snapshot into telebot markup.
func toReplyMarkup(mk *menu.Markup) *tele.ReplyMarkup {
	if mk == nil || len(mk.Rows) == 0 {
		return nil
	}
	out := &tele.ReplyMarkup{}
	if mk.Inline {
		rows := make([][]tele.InlineButton, 0, len(mk.Rows))
		for _, row := range mk.Rows {
			btns := make([]tele.InlineButton, 0, len(row))
			for _, b := range row {
				btn := tele.InlineButton{Text: b.Text, URL: b.URL, Data: b.Data}
				if b.WebApp != "" {
					btn.WebApp = &tele.WebApp{URL: b.WebApp}
				}
				btns = append(btns, btn)
			}
			rows = append(rows, btns)
		}
		out.InlineKeyboard = rows
		return out
	}

	out.ResizeKeyboard = true
	rows := make([][]tele.ReplyButton, 0, len(mk.Rows))
	for _, row := range mk.Rows {
		btns := make([]tele.ReplyButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tele.ReplyButton{Text: b.Text})
		}
		rows = append(rows, btns)
	}
	out.ReplyKeyboard = rows
	return out
}

func attachmentFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.FromDisk(ref)
}

// classify maps telebot API failures onto the navigation sentinels. Edits of
// vanished messages and no-op edits come back as API 400s distinguishable
// only by description.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tele.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Description)
	switch {
	case strings.Contains(desc, "not modified"):
		return navigation.ErrNotModified
	case strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message can't be deleted"),
		strings.Contains(desc, "message is not found"):
		return navigation.ErrMessageGone
	}
	return err
}

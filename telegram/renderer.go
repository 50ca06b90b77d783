// Package telegram provides Telegram Bot API adapters using package github.com/go-telegram-bot-api/telegram-bot-api/v5
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/timer"
)

// Callback data carried by inline buttons.
const (
	CallbackPause   = "pause"
	CallbackResume  = "resume"
	CallbackCancel  = "cancel"
	CallbackOutcome = "outcome:"
	CallbackReview  = "review:"
	CallbackAnswer  = "answer:"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ sender = (*tgbotapi.BotAPI)(nil)

// Renderer delivers timer progress into the user's private chat, editing one
// progress message per session.
type Renderer struct {
	bot sender
	l   *log.Logger

	mu       sync.Mutex
	messages map[int64]int
}

func NewRenderer(bot sender, logger *log.Logger) *Renderer {
	return &Renderer{
		bot:      bot,
		l:        logger,
		messages: make(map[int64]int),
	}
}

// ChatID maps a user id onto its private chat.
func ChatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram user id %q: %w", userID, err)
	}
	return id, nil
}

func SessionKeyboard(paused bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("Pause", CallbackPause)
	if paused {
		toggle = tgbotapi.NewInlineKeyboardButtonData("Resume", CallbackResume)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggle, tgbotapi.NewInlineKeyboardButtonData("Cancel", CallbackCancel)),
	)
}

func OutcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ok", CallbackOutcome+string(naparnik.FocusOK)),
			tgbotapi.NewInlineKeyboardButtonData("partial", CallbackOutcome+string(naparnik.FocusPartial)),
			tgbotapi.NewInlineKeyboardButtonData("lost", CallbackOutcome+string(naparnik.FocusLost)),
		),
	)
}

func ReviewKeyboard(id naparnik.ReviewItemID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remembered", CallbackAnswer+"ok:"+string(id)),
			tgbotapi.NewInlineKeyboardButtonData("Forgot", CallbackAnswer+"fail:"+string(id)),
		),
	)
}

func (r *Renderer) RenderProgress(ctx context.Context, userID string, elapsedSeconds, totalSeconds int, paused bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	text := naparnik.FocusMessage(timer.FormatProgress(elapsedSeconds, totalSeconds, paused))
	keyboard := SessionKeyboard(paused)

	r.mu.Lock()
	msgID, ok := r.messages[chatID]
	if elapsedSeconds == 0 && !paused {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, keyboard)
		if _, err := r.bot.Send(edit); err != nil {
			r.forget(chatID)
			return err
		}
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	sent, err := r.bot.Send(msg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messages[chatID] = sent.MessageID
	r.mu.Unlock()
	r.l.Debug("sent progress message", "uid", userID, "mid", sent.MessageID)
	return nil
}

func (r *Renderer) RenderCompletion(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	r.forget(chatID)

	msg := tgbotapi.NewMessage(chatID, naparnik.CompletionMessage)
	msg.ReplyMarkup = OutcomeKeyboard()
	_, err = r.bot.Send(msg)
	return err
}

func (r *Renderer) RenderReminder(ctx context.Context, userID string, dueWords, duePhrases int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, naparnik.ReminderMessage(dueWords, duePhrases))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Words", CallbackReview+"word"),
			tgbotapi.NewInlineKeyboardButtonData("Phrases", CallbackReview+"phrase"),
		),
	)
	_, err = r.bot.Send(msg)
	return err
}

func (r *Renderer) Notify(ctx context.Context, userID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	_, err = r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Renderer) forget(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, chatID)
}

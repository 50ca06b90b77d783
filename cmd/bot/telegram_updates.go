package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/srs"
	"github.com/naparnik/naparnik-go/telegram"
)

type telegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ telegramBot = (*tgbotapi.BotAPI)(nil)

// ListenTelegram dispatches updates until ctx is done. Updates are handled in
// arrival order.
func ListenTelegram(ctx context.Context, bot telegramBot, h *commandHandler, l *log.Logger) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := bot.GetUpdatesChan(cfg)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			handleTelegramUpdate(ctx, bot, h, l, u)
		}
	}
}

func handleTelegramUpdate(ctx context.Context, bot telegramBot, h *commandHandler, l *log.Logger, u tgbotapi.Update) {
	switch {
	case u.Message != nil && u.Message.From != nil:
		if u.Message.Chat != nil && !u.Message.Chat.IsPrivate() {
			return
		}
		userID := strconv.FormatInt(u.Message.From.ID, 10)
		reply := h.HandleText(ctx, userID, u.Message.Text)
		sendTelegramReply(bot, l, u.Message.From.ID, reply)

	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		cq := u.CallbackQuery
		userID := strconv.FormatInt(cq.From.ID, 10)
		reply, toast := runCallback(ctx, h, userID, cq.Data)
		if _, err := bot.Request(tgbotapi.NewCallback(cq.ID, toast)); err != nil {
			l.Warn("failed to answer callback", "uid", userID, "err", err)
		}
		if reply.Text != "" {
			sendTelegramReply(bot, l, cq.From.ID, reply)
		}
	}
}

// runCallback returns either a message reply or a short toast for the button press.
func runCallback(ctx context.Context, h *commandHandler, userID, data string) (reply Reply, toast string) {
	switch {
	case data == telegram.CallbackPause:
		return Reply{}, h.Pause(userID).Text
	case data == telegram.CallbackResume:
		return Reply{}, h.Resume(userID).Text
	case data == telegram.CallbackCancel:
		return h.Cancel(userID), ""
	case strings.HasPrefix(data, telegram.CallbackOutcome):
		return h.Outcome(ctx, userID, strings.TrimPrefix(data, telegram.CallbackOutcome), ""), ""
	case strings.HasPrefix(data, telegram.CallbackReview):
		return h.Review(ctx, userID, strings.TrimPrefix(data, telegram.CallbackReview)), ""
	case strings.HasPrefix(data, telegram.CallbackAnswer):
		answer, id, ok := strings.Cut(strings.TrimPrefix(data, telegram.CallbackAnswer), ":")
		if !ok || id == "" {
			return Reply{}, ""
		}
		return h.Answer(ctx, userID, naparnik.ReviewItemID(id), srs.Outcome(answer == "ok")), ""
	default:
		return Reply{}, ""
	}
}

func sendTelegramReply(bot telegramBot, l *log.Logger, chatID int64, r Reply) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case r.Item != nil:
		msg.ReplyMarkup = telegram.ReviewKeyboard(r.Item.ID)
	case r.AskOutcome:
		msg.ReplyMarkup = telegram.OutcomeKeyboard()
	}
	if _, err := bot.Send(msg); err != nil {
		l.Error("failed to send telegram reply", "chatID", chatID, "err", err)
	}
}

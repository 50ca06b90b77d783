package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naparnik/naparnik-go/telegram"
)

type mockTelegramBot struct {
	mu        sync.Mutex
	updates   chan tgbotapi.Update
	sent      []tgbotapi.MessageConfig
	callbacks []tgbotapi.CallbackConfig
	stopped   bool
}

func (b *mockTelegramBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *mockTelegramBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *mockTelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (b *mockTelegramBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		b.callbacks = append(b.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func privateMessage(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: userID},
			Data: data,
		},
	}
}

func TestHandleTelegramUpdate(t *testing.T) {
	t.Parallel()

	h := newTestCommandHandler(t, &mockReviewRepo{}, &mockSessionRecordRepo{})
	bot := &mockTelegramBot{}
	l := log.New(io.Discard)
	ctx := context.Background()

	handleTelegramUpdate(ctx, bot, h, l, privateMessage(42, "/focus english reading"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "Focus on english / reading for 20 minutes.", bot.sent[0].Text)

	handleTelegramUpdate(ctx, bot, h, l, callback(42, telegram.CallbackPause))
	require.Len(t, bot.callbacks, 1)
	assert.Equal(t, "Paused.", bot.callbacks[0].Text)
	assert.Len(t, bot.sent, 1, "pause answers with a toast only")

	handleTelegramUpdate(ctx, bot, h, l, callback(42, telegram.CallbackCancel))
	require.Len(t, bot.sent, 2)
	_, ok := bot.sent[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, ok, "cancel asks for an outcome")

	handleTelegramUpdate(ctx, bot, h, l, callback(42, telegram.CallbackOutcome+"lost"))
	require.Len(t, bot.sent, 3)
	assert.Equal(t, "Saved: 0 of 20 minutes, dropped.", bot.sent[2].Text)

	// group chats are ignored
	group := privateMessage(42, "/seed")
	group.Message.Chat.Type = "group"
	handleTelegramUpdate(ctx, bot, h, l, group)
	assert.Len(t, bot.sent, 3)
}

func TestRunCallback_Answer(t *testing.T) {
	t.Parallel()

	h := newTestCommandHandler(t, &mockReviewRepo{}, &mockSessionRecordRepo{})
	ctx := context.Background()

	reply, toast := runCallback(ctx, h, "42", telegram.CallbackAnswer+"ok:missing")
	assert.Equal(t, "That item no longer exists.", reply.Text)
	assert.Empty(t, toast)

	reply, _ = runCallback(ctx, h, "42", telegram.CallbackAnswer+"ok")
	assert.Empty(t, reply.Text)

	reply, _ = runCallback(ctx, h, "42", "unknown")
	assert.Empty(t, reply.Text)
}

func TestListenTelegram_StopsWithContext(t *testing.T) {
	t.Parallel()

	h := newTestCommandHandler(t, &mockReviewRepo{}, &mockSessionRecordRepo{})
	bot := &mockTelegramBot{updates: make(chan tgbotapi.Update)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		ListenTelegram(ctx, bot, h, log.New(io.Discard))
		close(done)
	}()

	bot.updates <- privateMessage(7, "/pause")
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.True(t, bot.stopped)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "No running session to pause.", bot.sent[0].Text)
}

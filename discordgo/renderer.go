// Package discordgo provides Discord API adapters using package github.com/bwmarrin/discordgo
package discordgo

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/timer"
)

type messageClient interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ messageClient = (*discordgo.Session)(nil)

// Renderer delivers timer progress to users over DM. Each user has one
// progress message that is edited in place.
type Renderer struct {
	cl messageClient
	l  *log.Logger

	mu       sync.Mutex
	channels map[string]string
	messages map[string]string
}

func NewRenderer(cl messageClient, logger *log.Logger) *Renderer {
	return &Renderer{
		cl:       cl,
		l:        logger,
		channels: make(map[string]string),
		messages: make(map[string]string),
	}
}

func (r *Renderer) dmChannel(userID string) (string, error) {
	r.mu.Lock()
	cid, ok := r.channels[userID]
	r.mu.Unlock()
	if ok {
		return cid, nil
	}

	ch, err := r.cl.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.channels[userID] = ch.ID
	r.mu.Unlock()
	return ch.ID, nil
}

func (r *Renderer) RenderProgress(ctx context.Context, userID string, elapsedSeconds, totalSeconds int, paused bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cid, err := r.dmChannel(userID)
	if err != nil {
		return err
	}
	content := naparnik.FocusMessage(timer.FormatProgress(elapsedSeconds, totalSeconds, paused))

	r.mu.Lock()
	msgID, ok := r.messages[userID]
	if elapsedSeconds == 0 && !paused {
		// new session
		ok = false
	}
	r.mu.Unlock()

	if ok {
		if _, err := r.cl.ChannelMessageEdit(cid, msgID, content); err != nil {
			// the next tick sends a fresh message
			r.forget(userID)
			return err
		}
		return nil
	}

	msg, err := r.cl.ChannelMessageSend(cid, content)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messages[userID] = msg.ID
	r.mu.Unlock()
	r.l.Debug("sent progress message", "uid", userID, "mid", msg.ID)
	return nil
}

func (r *Renderer) RenderCompletion(ctx context.Context, userID string) error {
	r.forget(userID)
	return r.Notify(ctx, userID, naparnik.CompletionMessage)
}

func (r *Renderer) RenderReminder(ctx context.Context, userID string, dueWords, duePhrases int) error {
	return r.Notify(ctx, userID, naparnik.ReminderMessage(dueWords, duePhrases))
}

func (r *Renderer) Notify(ctx context.Context, userID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cid, err := r.dmChannel(userID)
	if err != nil {
		return err
	}
	_, err = r.cl.ChannelMessageSend(cid, content)
	return err
}

func (r *Renderer) forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, userID)
}

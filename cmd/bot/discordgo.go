package main

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/naparnik/naparnik-go"
)

const (
	outcomeButton = "outcome"
	answerButton  = "answer"
)

type DiscordMessenger interface {
	DeferMessageCreate(it *discordgo.Interaction) (followup, error)
	DeferMessageUpdate(it *discordgo.Interaction) (followup, error)
}

func NewDiscordMessenger(client *discordgo.Session) DiscordMessenger {
	return &messenger{
		client: client,
	}
}

type messenger struct {
	client *discordgo.Session
}

type followup func(r Reply) (*discordgo.Message, error)

func (m *messenger) DeferMessageCreate(it *discordgo.Interaction) (followup, error) {
	if err := m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return nil, err
	}
	return func(r Reply) (*discordgo.Message, error) {
		return m.client.FollowupMessageCreate(it, true, &discordgo.WebhookParams{
			Content:    r.Text,
			Components: ReplyComponents(r),
		})
	}, nil
}

func (m *messenger) DeferMessageUpdate(it *discordgo.Interaction) (followup, error) {
	if err := m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return nil, err
	}
	return func(r Reply) (*discordgo.Message, error) {
		components := ReplyComponents(r)
		return m.client.FollowupMessageEdit(it, it.Message.ID, &discordgo.WebhookEdit{
			Content:    &r.Text,
			Components: &components,
		})
	}, nil
}

func GetUser(m *discordgo.Interaction) *discordgo.User {
	if m.Member != nil {
		return m.Member.User
	}
	return m.User
}

// InteractionID is carried in a button's custom id as type:value[:item].
type InteractionID struct {
	Type, Value string
	ItemID      naparnik.ReviewItemID
}

func FromCustomID(customID string) (InteractionID, error) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return InteractionID{}, fmt.Errorf("invalid customID: %s", customID)
	}
	id := InteractionID{
		Type:  parts[0],
		Value: parts[1],
	}
	if len(parts) == 3 {
		id.ItemID = naparnik.ReviewItemID(parts[2])
	}
	return id, nil
}

func (id InteractionID) ToCustomID() string {
	if id.ItemID == "" {
		return fmt.Sprintf("%s:%s", id.Type, id.Value)
	}
	return fmt.Sprintf("%s:%s:%s", id.Type, id.Value, id.ItemID)
}

// ReplyComponents builds the buttons for r: focus quality choices or review answers.
func ReplyComponents(r Reply) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	switch {
	case r.Item != nil:
		buttons = []discordgo.MessageComponent{
			button("Remembered", discordgo.SuccessButton, InteractionID{Type: answerButton, Value: "ok", ItemID: r.Item.ID}),
			button("Forgot", discordgo.DangerButton, InteractionID{Type: answerButton, Value: "fail", ItemID: r.Item.ID}),
		}
	case r.AskOutcome:
		for _, q := range []naparnik.FocusQuality{naparnik.FocusOK, naparnik.FocusPartial, naparnik.FocusLost} {
			buttons = append(buttons, button(string(q), discordgo.SecondaryButton, InteractionID{Type: outcomeButton, Value: string(q)}))
		}
	default:
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}

func button(label string, style discordgo.ButtonStyle, id InteractionID) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: id.ToCustomID(),
	}
}

package main

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/srs"
)

// RunCommand handles a slash command interaction. It reports whether the
// interaction was one of ours.
func RunCommand(ctx context.Context, h *commandHandler, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	user := GetUser(m.Interaction)
	if user == nil {
		return false
	}

	data := m.ApplicationCommandData()
	opts := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			opts[opt.Name] = opt.StringValue()
		}
	}

	var run func() Reply
	switch data.Name {
	case naparnik.FocusCommand.Name:
		run = func() Reply { return h.Focus(ctx, user.ID, opts[naparnik.DomainOption], opts[naparnik.TaskTypeOption]) }
	case naparnik.PauseCommand.Name:
		run = func() Reply { return h.Pause(user.ID) }
	case naparnik.ResumeCommand.Name:
		run = func() Reply { return h.Resume(user.ID) }
	case naparnik.CancelCommand.Name:
		run = func() Reply { return h.Cancel(user.ID) }
	case naparnik.OutcomeCommand.Name:
		run = func() Reply {
			return h.Outcome(ctx, user.ID, opts[naparnik.QualityOption], opts[naparnik.DescriptionOption])
		}
	case naparnik.WordCommand.Name:
		run = func() Reply {
			return h.AddWord(ctx, user.ID, opts[naparnik.TermOption], opts[naparnik.TranslationOption], opts[naparnik.NoteOption])
		}
	case naparnik.ReviewCommand.Name:
		run = func() Reply { return h.Review(ctx, user.ID, opts[naparnik.KindOption]) }
	case naparnik.DeleteCommand.Name:
		run = func() Reply { return h.Delete(ctx, user.ID, naparnik.ReviewItemID(opts[naparnik.IDOption])) }
	case naparnik.SeedCommand.Name:
		run = func() Reply { return h.Seed(ctx, user.ID) }
	default:
		return false
	}

	respond, err := dm.DeferMessageCreate(m.Interaction)
	if err != nil {
		log.Error("failed to defer response", "command", data.Name, "uid", user.ID, "err", err)
		return true
	}
	if _, err := respond(run()); err != nil {
		log.Error("failed to send followup", "command", data.Name, "uid", user.ID, "err", err)
	}
	return true
}

// PressButton handles outcome and review answer buttons.
func PressButton(ctx context.Context, h *commandHandler, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionMessageComponent {
		return false
	}
	user := GetUser(m.Interaction)
	if user == nil {
		return false
	}

	id, err := FromCustomID(m.MessageComponentData().CustomID)
	if err != nil {
		log.Debug("ignoring component", "err", err)
		return false
	}

	var run func() Reply
	switch id.Type {
	case outcomeButton:
		run = func() Reply { return h.Outcome(ctx, user.ID, id.Value, "") }
	case answerButton:
		run = func() Reply { return h.Answer(ctx, user.ID, id.ItemID, srs.Outcome(id.Value == "ok")) }
	default:
		return false
	}

	update, err := dm.DeferMessageUpdate(m.Interaction)
	if err != nil {
		log.Error("failed to acknowledge button interaction", "type", id.Type, "uid", user.ID, "err", err)
		return true
	}
	if _, err := update(run()); err != nil {
		log.Error("failed to update message after button press", "type", id.Type, "uid", user.ID, "err", err)
	}
	return true
}

package naparnik

import (
	"github.com/bwmarrin/discordgo"
)

const (
	DomainOption      = "domain"
	TaskTypeOption    = "task_type"
	QualityOption     = "quality"
	DescriptionOption = "description"
	TermOption        = "term"
	TranslationOption = "translation"
	NoteOption        = "note"
	KindOption        = "kind"
	IDOption          = "id"
)

var FocusCommand = discordgo.ApplicationCommand{
	Name:        "focus",
	Description: "start a focus session sized from your history",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        DomainOption,
			Description: "what area the work belongs to, e.g. work or study",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        TaskTypeOption,
			Description: "kind of task, e.g. coding or reading",
			Required:    true,
		},
	},
}

var PauseCommand = discordgo.ApplicationCommand{
	Name:        "pause",
	Description: "pause the running focus session",
}

var ResumeCommand = discordgo.ApplicationCommand{
	Name:        "resume",
	Description: "resume a paused focus session",
}

var CancelCommand = discordgo.ApplicationCommand{
	Name:        "cancel",
	Description: "cancel the running focus session",
}

var OutcomeCommand = discordgo.ApplicationCommand{
	Name:        "outcome",
	Description: "report how the last session went",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        QualityOption,
			Description: "focus quality",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "ok", Value: string(FocusOK)},
				{Name: "partial", Value: string(FocusPartial)},
				{Name: "lost", Value: string(FocusLost)},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        DescriptionOption,
			Description: "what you worked on",
		},
	},
}

var WordCommand = discordgo.ApplicationCommand{
	Name:        "word",
	Description: "add a word to your review deck",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        TermOption,
			Description: "the word",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        TranslationOption,
			Description: "translation",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        NoteOption,
			Description: "explanation or example",
		},
	},
}

var ReviewCommand = discordgo.ApplicationCommand{
	Name:        "review",
	Description: "review the next due item",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        KindOption,
			Description: "deck to review (Default: word)",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "word", Value: "word"},
				{Name: "phrase", Value: "phrase"},
			},
		},
	},
}

var DeleteCommand = discordgo.ApplicationCommand{
	Name:        "delete",
	Description: "remove an item from your review deck",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        IDOption,
			Description: "item id shown when it was added",
			Required:    true,
		},
	},
}

var SeedCommand = discordgo.ApplicationCommand{
	Name:        "seed",
	Description: "add the starter phrase deck",
}

var Commands = []*discordgo.ApplicationCommand{
	&FocusCommand,
	&PauseCommand,
	&ResumeCommand,
	&CancelCommand,
	&OutcomeCommand,
	&WordCommand,
	&ReviewCommand,
	&DeleteCommand,
	&SeedCommand,
}

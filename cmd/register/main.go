package main

import (
	"flag"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/naparnik/naparnik-go"
)

var (
	isProd     bool
	configPath string
	guildID    string
)

func main() {
	flag.BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "naparnik.yaml", "optional YAML config file")
	flag.StringVar(&guildID, "guild", "", "register for one guild only (instant, for testing)")
	flag.Parse()

	cfg, err := naparnik.LoadConfig(configPath, isProd)
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if cfg.Transport != naparnik.TransportDiscord {
		log.Fatal("slash commands are only used by the discord transport", "transport", cfg.Transport)
	}

	bot, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}

	// Open a connection
	if err := bot.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	defer bot.Close() //nolint

	app, err := bot.Application("@me")
	if err != nil {
		log.Fatal("failed to get application", "err", err)
	}

	created, err := bot.ApplicationCommandBulkOverwrite(app.ID, guildID, naparnik.Commands)
	if err != nil {
		log.Fatal(err)
	}

	for _, cmd := range created {
		fmt.Printf("%s: %s\n", cmd.Name, cmd.Description)
	}
}

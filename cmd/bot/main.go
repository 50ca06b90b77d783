package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	dg "github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/discordgo"
	"github.com/naparnik/naparnik-go/sqlstore"
	"github.com/naparnik/naparnik-go/telegram"
	"github.com/naparnik/naparnik-go/timer"
)

const (
	RepoURL = "https://github.com/naparnik/naparnik-go"
	Version = "0.1.0"
)

type transportRenderer interface {
	timer.Renderer
	reminderNotifier
}

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "naparnik.yaml", "optional YAML config file")
	flag.Parse()

	// logger
	log.SetReportCaller(true)
	logger := log.Default()

	// config
	cfg, err := naparnik.LoadConfig(configPath, isProd)
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid log level", "level", cfg.LogLevel, "err", err)
	}
	log.SetLevel(lvl)

	topCtx, topCtxC := context.WithCancel(context.Background())
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 30*time.Second)

	// db
	log.Info("opening db", "url", redact(cfg.DatabaseURL))
	db, err := sqlstore.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed database open", "err", err)
	}
	if err := db.Migrate(initTimeout); err != nil {
		log.Fatal("failed migration", "err", err)
	}
	defer db.Close() //nolint

	tx, dbGetter := txStdLib.NewTransactor(
		db.DB,
		txStdLib.NestedTransactionsSavepoints,
	)
	reviewRepo := sqlstore.NewReviewRepo(db, dbGetter, logger)
	sessionRepo := sqlstore.NewSessionRepo(db, dbGetter, logger)

	// transport
	var (
		renderer  transportRenderer
		discordCl *dg.Session
		tgBot     *tgbotapi.BotAPI
	)
	switch cfg.Transport {
	case naparnik.TransportDiscord:
		discordCl, err = dg.New("Bot " + cfg.BotToken)
		if err != nil {
			log.Fatal(err)
		}
		discordCl.ShouldRetryOnRateLimit = false
		discordCl.Client = &http.Client{Timeout: (20 * time.Second)}
		discordCl.UserAgent = fmt.Sprintf("%s (%s, v%s)", cfg.BotName, RepoURL, Version)
		discordCl.Identify.Intents = dg.IntentsDirectMessages
		renderer = discordgo.NewRenderer(discordCl, logger)
	case naparnik.TransportTelegram:
		_ = tgbotapi.SetLogger(logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}))
		// long polling holds requests open for up to 30s
		tgBot, err = tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: time.Minute})
		if err != nil {
			log.Fatal("failed telegram login", "err", err)
		}
		renderer = telegram.NewRenderer(tgBot, logger)
	}

	// session manager
	engine := newTimerEngine(cfg, renderer, logger)
	sessionManager := NewSessionManager(topCtx, reviewRepo, sessionRepo, tx, engine, cfg.HistoryDays, logger)
	handler := NewCommandHandler(sessionManager, logger)

	reminders := NewReminders(reviewRepo, renderer, logger)
	if err := reminders.Start(topCtx, cfg.ReminderInterval); err != nil {
		log.Fatal("failed to schedule reminders", "err", err)
	}

	// open connection
	var listeners sync.WaitGroup
	if discordCl != nil {
		dm := NewDiscordMessenger(discordCl)
		discordCl.AddHandler(func(s *dg.Session, m *dg.InteractionCreate) {
			_ = RunCommand(topCtx, handler, dm, m) ||
				PressButton(topCtx, handler, dm, m)
		})
		if err := discordCl.Open(); err != nil {
			log.Fatal("Error opening connection", "err", err)
		}
	}
	if tgBot != nil {
		listeners.Go(func() {
			ListenTelegram(topCtx, tgBot, handler, logger)
		})
	}
	log.Info(cfg.BotName+" running. Press CTRL-C to exit.", "transport", cfg.Transport)

	// init done
	initTimeoutC()

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	log.Info("terminating " + cfg.BotName)
	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), time.Minute)
	go func() {
		// to ensure proper shutdown ordering...
		reminders.Stop()
		sessionManager.Shutdown()
		listeners.Wait()
		if discordCl != nil {
			if err := discordCl.Close(); err != nil {
				log.Error(err)
			}
		}
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		log.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}
}

// newTimerEngine wakes every tick_interval and credits that much elapsed
// time per running wake, so a session lasts its planned length.
func newTimerEngine(cfg naparnik.Config, r timer.Renderer, logger *log.Logger) *timer.Engine {
	engine := timer.NewEngine(r, logger)
	engine.Interval = cfg.TickInterval
	engine.Step = cfg.TickInterval
	return engine
}

// redact hides credentials in a database url.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if _, host, ok := strings.Cut(rest, "@"); ok {
		return scheme + "://***@" + host
	}
	return url
}

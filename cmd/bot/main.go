package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/metrics"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; the default one still writes to stderr.
		if errors.Is(err, config.ErrMissingCredentials) {
			logger.Log.WithError(err).Fatal("Required credentials are missing, the watcher cannot start")
		}
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"retry_interval": cfg.RetryInterval.String(),
		"lookback":       cfg.LookbackPeriod.String(),
	}).Info("Homework status watcher starting...")

	journal, closeJournal := openJournal(cfg, mainLogger)
	defer closeJournal()

	bot, err := telebot.NewBot(botSettings(cfg, logger.Component("telebot")))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	notifier := telegram.NewChatNotifier(
		telegram.NewTelebotAdapter(bot),
		cfg.TelegramChatID,
		cfg.TelegramRateLimit,
		logger.Component("notifier"),
	)

	fetcher := practicum.NewClient(
		cfg.PracticumEndpoint,
		cfg.PracticumToken,
		&http.Client{Timeout: cfg.HTTPTimeout},
		logger.Component("practicum"),
	)

	watchService := app.NewWatchService(
		fetcher,
		notifier,
		journal,
		app.NewErrorRegistry(cfg.SeenErrorsLimit),
		cfg.LookbackPeriod,
		logger.Component("watcher"),
	)

	pollScheduler := scheduler.NewPollScheduler(watchService, cfg.RetryInterval, logger.Component("scheduler"))
	if err := pollScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start poll scheduler")
	}

	telegram.RegisterBotCommands(bot, cfg, logger.Component("commands"))
	go bot.Start()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics server stopped unexpectedly")
			}
		}()
	}

	mainLogger.Info("Application setup complete, watching homework statuses")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
	pollScheduler.Stop()
	bot.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := metricsServer.Shutdown(ctx); err != nil {
			mainLogger.WithError(err).Warn("Metrics server shutdown failed")
		}
		cancel()
	}
	mainLogger.Info("Application shut down gracefully")
}

// openJournal connects the optional notification journal. An unreachable
// database only disables it.
func openJournal(cfg *config.AppConfig, log *logrus.Entry) (homework.Journal, func()) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL is not set, notification journal disabled")
		return idb.NoopJournal{}, func() {}
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Error("Could not connect to database, notification journal disabled")
		return idb.NoopJournal{}, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		log.WithError(err).Error("Could not prepare notification journal, journal disabled")
		db.Close()
		return idb.NoopJournal{}, func() {}
	}

	log.Info("Notification journal enabled")
	return idb.NewPostgresNotificationJournal(db), func() { db.Close() }
}

// botSettings builds an offline bot: nothing is sent to Telegram until the
// first notification, so an unreachable API at boot is not fatal.
func botSettings(cfg *config.AppConfig, log *logrus.Entry) telebot.Settings {
	return telebot.Settings{
		Token:   cfg.TelegramToken,
		Offline: true,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram bot error")
		},
	}
}

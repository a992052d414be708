package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/emotion-mod-tgbot-go/internal/handlers"
	"github.com/emotion-mod-tgbot-go/internal/i18n"
	"github.com/emotion-mod-tgbot-go/internal/middleware"
	"github.com/emotion-mod-tgbot-go/internal/moderation"
	"github.com/emotion-mod-tgbot-go/internal/services/cache"
	"github.com/emotion-mod-tgbot-go/internal/services/classifier"
	"github.com/emotion-mod-tgbot-go/internal/services/storage"
	"github.com/emotion-mod-tgbot-go/internal/transport"
	"github.com/emotion-mod-tgbot-go/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting emotion moderation bot...")

	// Initialize bot
	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}

	bot.Debug = cfg.Logging.Level == "debug"
	log.WithField("username", bot.Self.UserName).Info("Bot authorized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	storageManager, err := storage.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize classifier and its result cache
	classifierService := classifier.NewHTTPClassifier(&cfg.Classifier, log)
	cacheService := cache.NewCache(cfg, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Wire the moderation engine
	chatTransport := transport.NewTelegram(bot, log)

	throttle := moderation.NewResponseThrottle(cfg.Moderation.ScoreThreshold, cfg.Moderation.ReplyCooldown)
	ledger := moderation.NewWarningLedger(storageManager, log)
	enforcer := moderation.NewRestrictionEnforcer(chatTransport, cfg.Moderation.RestrictionDuration, moderation.Notices{
		Restricted:     localizer.Default(i18n.MsgRestricted, nil),
		RestrictFailed: localizer.Default(i18n.MsgRestrictFailed, nil),
		Lifted:         localizer.Default(i18n.MsgLifted, nil),
		LiftFailed:     localizer.Default(i18n.MsgLiftFailed, nil),
	}, log)

	texts := moderation.Texts{
		Reply: func(label emotion.Label) string {
			id := emotion.ReplyMessageID(label)
			if id == "" {
				return ""
			}
			return localizer.Default(id, nil)
		},
		Caution: func(label emotion.Label) string {
			return localizer.Default(i18n.MsgCaution, map[string]interface{}{
				"Emotion": string(label),
			})
		},
	}

	engine := moderation.NewEngine(
		storageManager,
		throttle,
		ledger,
		enforcer,
		chatTransport,
		texts,
		cfg.Moderation.WarningThreshold,
		log,
	)

	// Initialize handlers
	commandHandler := handlers.NewCommandHandler(chatTransport, storageManager, localizer, log)
	messageHandler := handlers.NewMessageHandler(
		cfg,
		bot.Self.ID,
		chatTransport,
		classifierService,
		cacheService,
		storageManager,
		engine,
		rateLimiter,
		localizer,
		metrics,
		log,
	)

	// Setup update channel
	var updates tgbotapi.UpdatesChannel

	if cfg.Bot.Webhook.Enabled {
		// Setup webhook
		webhookURL := fmt.Sprintf("%s/%s", cfg.Bot.Webhook.URL, bot.Token)
		webhook, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to create webhook")
		}

		if _, err := bot.Request(webhook); err != nil {
			log.WithError(err).Fatal("Failed to set webhook")
		}

		updates = bot.ListenForWebhook("/" + bot.Token)
		log.WithField("url", webhookURL).Info("Webhook set")
	} else {
		// Use long polling
		u := tgbotapi.NewUpdate(0)
		u.Timeout = cfg.Bot.UpdateTimeout

		updates = bot.GetUpdatesChan(u)
		log.Info("Using long polling")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Main bot loop. Each update runs in its own goroutine; the engine
	// serializes per (chat,user) internally.
	go func() {
		for update := range updates {
			if update.Message == nil {
				continue
			}

			update := update
			go func() {
				if update.Message.IsCommand() {
					metrics.RecordCommandExecuted(update.Message.Command())

					if err := commandHandler.HandleCommand(ctx, update.Message); err != nil {
						log.WithError(err).Error("Failed to handle command")
						metrics.RecordMessageProcessed("error")
					} else {
						metrics.RecordMessageProcessed("success")
					}
					return
				}

				if err := messageHandler.HandleMessage(ctx, &update); err != nil {
					log.WithError(err).Error("Failed to handle message")
					metrics.RecordMessageProcessed("error")
				} else {
					metrics.RecordMessageProcessed("success")
				}
			}()
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	// Cleanup
	if cfg.Bot.Webhook.Enabled {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.WithError(err).Error("Failed to delete webhook")
		}
	}

	// Cancel context to stop all goroutines
	cancel()

	// Give in-flight handlers and scheduled lifts time to finish
	time.Sleep(2 * time.Second)

	log.Info("Bot stopped")
}

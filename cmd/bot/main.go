package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/local/chatrelay/internal/auth"
	"github.com/local/chatrelay/internal/bot"
	"github.com/local/chatrelay/internal/config"
	"github.com/local/chatrelay/internal/convo"
	"github.com/local/chatrelay/internal/history"
	"github.com/local/chatrelay/internal/openai"
	"github.com/local/chatrelay/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	allow, err := auth.ParseAllowlist(cfg.AllowedUsernames)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("history store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second
	tg := telegram.NewClient(cfg.TelegramAPIBase, requestTimeout)
	ai := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIChatCompURL, cfg.OpenAIUsageURL, cfg.OpenAIModel, requestTimeout)

	orch := &convo.Orchestrator{
		Store:    store,
		Provider: ai,
		Notifier: bot.SenderNotifier{Sender: tg},
		Logger:   logger,
	}
	b := bot.New(allow, store, orch, tg, ai, logger)

	if err := tg.SetMyCommands(bot.Commands()); err != nil {
		logger.Warn("set commands", "error", err)
	}
	if cfg.WebhookURL != "" {
		url := fmt.Sprintf("%s/webhook?secret=%s", cfg.WebhookURL, cfg.WebhookSecret)
		if err := tg.SetWebhook(url); err != nil {
			logger.Error("set webhook", "error", err)
			os.Exit(1)
		}
	}

	router := bot.NewRouter(b, cfg.WebhookSecret, requestTimeout, logger)
	logger.Info("bot listening", "addr", cfg.ListenAddr, "backend", cfg.HistoryBackend, "model", cfg.OpenAIModel)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (convo.Store, func(), error) {
	switch cfg.HistoryBackend {
	case config.BackendRedis:
		s, err := history.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s, err := history.OpenSQLite(cfg.HistoryDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}

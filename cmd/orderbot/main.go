package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"orderbot/internal/bot"
	"orderbot/internal/config"
	"orderbot/internal/export"
	"orderbot/internal/i18n"
	"orderbot/internal/session"
	"orderbot/internal/storage"
	"orderbot/internal/telegram"
	"orderbot/pkg/api"
	"orderbot/pkg/logger"
	"orderbot/pkg/redis"
)

// ENTRY POINT

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	store, err := storage.Open(ctx, storage.Config{
		Driver:            cfg.Database.Driver,
		DSN:               cfg.DSN(),
		MaxOpenConns:      cfg.Database.MaxOpenConns,
		MaxIdleConns:      cfg.Database.MaxIdleConns,
		ConnMaxLifetime:   cfg.Database.ConnMaxLifetime,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		DefaultLanguage:   cfg.DefaultLanguage,
		LanguageCacheSize: cfg.LanguageCacheSize,
	}, zapLogger.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	tr, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	var sessions session.Store
	if cfg.Redis.Addr != "" {
		redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		sessions = session.NewRedis(redisClient)
		zapLogger.Info("Using Redis sessions", zap.String("addr", cfg.Redis.Addr))
	} else {
		mem := session.NewMemory()
		sessions = mem

		if cfg.Session.IdleTimeout > 0 {
			sweeper, err := session.StartSweeper(mem, cfg.Session.IdleTimeout, cfg.Session.SweepInterval, zapLogger.Named("sessions"))
			if err != nil {
				return err
			}
			defer sweeper.Shutdown()
		}
	}

	opts := bot.Options{
		AdminIDs:        cfg.AdminIDs,
		PageSize:        cfg.PageSize,
		Languages:       tr.Languages(),
		DefaultLanguage: cfg.DefaultLanguage,
	}
	if cfg.CRM.BaseURL != "" {
		opts.CRM = api.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIKey, cfg.CRM.Timeout, zapLogger.Named("crm"))
	}

	tg, err := telegram.New(cfg.TelegramToken, cfg.TelegramDebug, zapLogger.Named("telegram"))
	if err != nil {
		return err
	}

	core := bot.New(store, sessions, tg, tr, export.NewXLSX(tr), opts, zapLogger.Named("bot"))

	return tg.Run(ctx, core, cfg.Workers)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/app"
	"github.com/Freeeeeet/slotswapper/internal/cache"
	"github.com/Freeeeeet/slotswapper/internal/config"
	httpapi "github.com/Freeeeeet/slotswapper/internal/handlers/http"
	"github.com/Freeeeeet/slotswapper/internal/handlers/ws"
	"github.com/Freeeeeet/slotswapper/internal/notify"
	"github.com/Freeeeeet/slotswapper/internal/repository"
	"github.com/Freeeeeet/slotswapper/internal/service"
	"github.com/Freeeeeet/slotswapper/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, migrations.FS)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	userRepo := repository.NewUserRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	swapRepo := repository.NewSwapRepository(pool)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, logger)
	slotService := service.NewSlotService(slotRepo, logger)

	hub := ws.NewHub(authService, logger)

	notifiers := notify.Fanout{hub}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, userRepo, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
		notifiers = append(notifiers, tg)
		logger.Info("Telegram notifications enabled")
	}

	var statsCache service.StatsCache
	if cfg.RedisAddr != "" {
		c := cache.NewStatsCache(cfg.RedisAddr, 5*time.Minute)
		defer c.Close()
		statsCache = c
		logger.Info("Swap stats cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	swapService := service.NewSwapService(slotRepo, swapRepo, userRepo, notifiers, statsCache, logger)

	server := httpapi.NewServer(cfg.HTTPAddr, authService, slotService, swapService, hub, logger)

	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

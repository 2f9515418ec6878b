package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignatzorin/hiring-lifecycle/internal/app"
	"github.com/ignatzorin/hiring-lifecycle/internal/auth"
	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	httpRouter "github.com/ignatzorin/hiring-lifecycle/internal/http/router"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/payment"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/handler"
	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
	"github.com/ignatzorin/hiring-lifecycle/internal/storage"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	log := logger.L()

	store, err := app.OpenStorage(ctx, cfg, true)
	if err != nil {
		log.Fatalf("main: ошибка подключения хранилища: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Error("main: ошибка закрытия базы")
		}
	}()

	attachments, err := storage.NewAttachmentStorage(cfg.AttachmentStoragePath, cfg.MaxAttachmentMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run(ctx)

	if cfg.Payment.Sandbox() {
		log.Warn("main: PAYMENT_BASE_URL не задан, платежи проходят через песочницу")
	}
	useCases := app.NewUseCases(app.Deps{
		Repos:          store.Repos,
		Gateway:        app.PaymentGateway(cfg.Payment),
		Storage:        attachments,
		Notifier:       hub,
		Escalation:     app.EscalationPolicy(cfg.Escalation),
		MaxFileSize:    cfg.MaxAttachmentBytes(),
		PaymentTimeout: cfg.Payment.Timeout,
		SweepBatch:     compliance.DefaultSweepBatch,
	})

	sweeper := compliance.NewSweeper(useCases.Compliances.Sweep, cfg.Escalation.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	var pinger handler.Pinger
	if store.DB != nil {
		pinger = store.DB
	}
	engine := httpRouter.SetupRouter(cfg, tokenManager, httpRouter.Handlers{
		Health:      handler.NewHealthHandler(pinger, cfg.StorageDriver),
		Hirings:     handler.NewHiringHandler(useCases.Hirings),
		Deliveries:  handler.NewDeliveryHandler(useCases.Deliveries, payment.NewCallbackVerifier(cfg.Payment.CallbackSecret)),
		Claims:      handler.NewClaimHandler(useCases.Claims),
		Compliances: handler.NewComplianceHandler(useCases.Compliances),
		Moderation:  handler.NewModerationHandler(useCases.Moderation),
		Attachments: handler.NewAttachmentHandler(attachments),
		WS:          handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).WithField("storage", cfg.StorageDriver).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"panel-backend/internal/amnezia"
	"panel-backend/internal/api"
	"panel-backend/internal/api/handlers"
	"panel-backend/internal/encryption"
	"panel-backend/internal/logs"
	"panel-backend/internal/service"
	"panel-backend/internal/store/factory"
	"panel-backend/internal/store/types"
	"panel-backend/internal/telegram"
	"panel-backend/pkg/config"
	"panel-backend/pkg/logger"
)

type App struct {
	server *http.Server
	store  types.Store
	logger *logger.Logger
}

// InitializeApp 组装应用依赖
func InitializeApp(configPath string) (*App, error) {
	cfg, err := config.LoadServerConfig(configPath, filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Log.Debug)
	if cfg.Log.File != "" {
		log.SetLogOutput(cfg.Log.File)
	}

	store, err := factory.NewStore(&types.Config{
		Type:     cfg.Storage.Type,
		SQLite:   types.SQLiteConfig(cfg.Storage.SQLite),
		Postgres: types.PostgresConfig(cfg.Storage.Postgres),
	})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	crypto, err := encryption.New(cfg.Encryption.Key)
	if err != nil {
		return nil, fmt.Errorf("creating encryption service: %w", err)
	}

	audit := logs.NewService(store, log)

	vpnClient := amnezia.NewClient(cfg.AmneziaBaseURL(), cfg.Amnezia.APIKey, audit, log)
	notifier := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.Enabled, audit, log)
	builder := telegram.NewMessageBuilder(crypto, cfg.Telegram.VPNName)
	sender := telegram.NewConfigSender(notifier, builder)

	configService := service.NewConfigService(store, vpnClient, crypto, audit, log)
	clientService := service.NewClientService(store, vpnClient, configService, sender, audit, log)
	serverService := service.NewServerService(vpnClient, audit, log)

	router := api.NewRouter(
		handlers.NewClientHandler(clientService, log),
		handlers.NewConfigHandler(configService, log),
		handlers.NewServerHandler(serverService, log),
		handlers.NewLogHandler(audit, log),
		log,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	return &App{
		server: server,
		store:  store,
		logger: log,
	}, nil
}

// Run 启动服务并等待退出信号
func (a *App) Run() error {
	log := a.logger.GetLogger("app")

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", a.server.Addr).
			Msg("Starting server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.store.Close()
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.store.Close()
		return fmt.Errorf("shutting down server: %w", err)
	}
	return a.store.Close()
}

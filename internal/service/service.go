// Package service предоставляет основной функционал сервера пула соединений.
// Пакет управляет жизненным циклом HTTP-сервера и пула, выбором фабрики
// соединений и корректным завершением работы при получении системных сигналов.
package service

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levinOo/go-connpool-project/internal/audit"
	"github.com/levinOo/go-connpool-project/internal/config"
	"github.com/levinOo/go-connpool-project/internal/config/db"
	"github.com/levinOo/go-connpool-project/internal/connpool"
	"github.com/levinOo/go-connpool-project/internal/factory"
	"github.com/levinOo/go-connpool-project/internal/handler"
	"github.com/levinOo/go-connpool-project/internal/logger"
	"github.com/levinOo/go-connpool-project/migrations"
	"go.uber.org/zap"
)

// ServerComponents содержит все компоненты, необходимые для работы сервера пула.
type ServerComponents struct {
	server *http.Server
	pool   *connpool.Pool
	logger *zap.SugaredLogger
}

// Serve инициализирует и запускает сервер пула с указанной конфигурацией.
// Выбирает фабрику соединений (база данных, HTTP-бэкенд или статическая),
// создает пул, включает профилирование pprof и обрабатывает корректное
// завершение работы по SIGINT/SIGTERM.
//
// Возвращает ошибку, если запуск или завершение сервера завершились неудачей.
func Serve(cfg config.Config) error {
	sugar := logger.NewLogger()

	components, err := setupServer(cfg, sugar)
	if err != nil {
		return err
	}

	return runServerWithGracefulShutdown(components, cfg)
}

func setupServer(cfg config.Config, sugar *zap.SugaredLogger) (*ServerComponents, error) {
	sugar.Infow("Starting server with config",
		"address", cfg.Addr,
		"maxConns", cfg.MaxConns,
		"maintenanceInterval", cfg.MaintenanceInterval,
		"leaseTTL", cfg.LeaseTTL,
		"acquireTimeout", cfg.AcquireTimeout,
		"addressDB", cfg.AddrDB,
		"backendURL", cfg.BackendURL,
	)

	f, err := setupFactory(cfg, sugar)
	if err != nil {
		return nil, err
	}

	pool, err := connpool.New(f, connpool.Options{
		MaxConns:            cfg.MaxConns,
		MaintenanceInterval: time.Duration(cfg.MaintenanceInterval) * time.Millisecond,
		LeaseTTL:            time.Duration(cfg.LeaseTTL) * time.Second,
		Logger:              sugar,
		Auditer:             setupAuditer(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	router := handler.NewRouter(pool, sugar, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	return &ServerComponents{
		server: srv,
		pool:   pool,
		logger: sugar,
	}, nil
}

func setupFactory(cfg config.Config, sugar *zap.SugaredLogger) (connpool.Factory, error) {
	switch {
	case cfg.AddrDB != "":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.CheckDatabase(ctx, cfg.AddrDB); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := migrations.RunMigrations(cfg.AddrDB, cfg.MigrationsPath); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		sugar.Infow("Pool backend: PostgreSQL")
		return factory.NewDBFactory(cfg.AddrDB), nil

	case cfg.BackendURL != "":
		sugar.Infow("Pool backend: HTTP", "backendURL", cfg.BackendURL, "healthPath", cfg.HealthPath)
		return factory.NewHTTPFactory(cfg.BackendURL, cfg.HealthPath), nil

	default:
		sugar.Infow("No backend configured, using static connections")
		return factory.NewStaticFactory(), nil
	}
}

func setupAuditer(cfg config.Config) *audit.Auditer {
	if cfg.AuditFile == "" && cfg.AuditURL == "" {
		return nil
	}

	auditer := &audit.Auditer{}
	if cfg.AuditFile != "" {
		auditer.RegisterClient(audit.NewFileAuditer(cfg.AuditFile))
	}
	if cfg.AuditURL != "" {
		auditer.RegisterClient(audit.NewHTTPAuditer(cfg.AuditURL))
	}

	return auditer
}

func runServerWithGracefulShutdown(components *ServerComponents, cfg config.Config) error {
	server := components.server
	sugar := components.logger

	go func() {
		pprofAddr := "localhost:6060"
		sugar.Infow("pprof server started", "address", pprofAddr)
		if err := http.ListenAndServe(pprofAddr, nil); err != nil {
			sugar.Errorw("pprof server error", "error", err)
		}
	}()

	serverErr := make(chan error, 1)

	go func() {
		sugar.Infow("HTTP server started", "address", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			sugar.Errorw("Server error", "error", err)
			components.pool.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-quit:
		sugar.Infoln("Shutting down server...")
	}

	return gracefulShutdown(components)
}

func gracefulShutdown(components *ServerComponents) error {
	server := components.server
	sugar := components.logger
	pool := components.pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("Server shutdown error", "error", err)
	}

	stats := pool.Stats()
	sugar.Infow("Stopping pool", "idle", stats.Idle, "inUse", stats.InUse)
	pool.Close()

	sugar.Infoln("Pool stopped and server shut down gracefully")
	return nil
}

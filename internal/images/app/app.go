package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpHandler "github.com/TheCampingLog/image-server/internal/images/adapter/inbound/http"
	"github.com/TheCampingLog/image-server/internal/images/adapter/outbound/localfs"
	"github.com/TheCampingLog/image-server/internal/images/config"
	"github.com/TheCampingLog/image-server/internal/images/service"
	"github.com/TheCampingLog/image-server/pkg/clock"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg         *config.Config
	server      *httpHandler.Server
	redisClient *redis.Client
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// 3. Naming clock
	var redisClient *redis.Client
	var clk clock.Clock = &clock.SystemClock{}
	if cfg.Naming.Clock == config.ClockRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clk = clock.NewRedisClock(redisClient)
	}

	// 4. Adapters & Services
	registry, err := service.NewCategoryRegistry(cfg.App.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to build category registry: %w", err)
	}

	svc, err := service.NewImageService(cfg, registry, localfs.NewAdapter(), clk)
	if err != nil {
		return nil, fmt.Errorf("failed to init image service: %w", err)
	}

	// 5. Storage tree must exist before the first request
	if err := svc.Provision(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to provision image directories: %w", err)
	}

	// 6. HTTP Server
	httpServer := httpHandler.NewServer(cfg, svc)

	return &App{
		cfg:         cfg,
		server:      httpServer,
		redisClient: redisClient,
	}, nil
}

func (a *App) Run() error {
	logger.Infow("Image server starting",
		"addr", a.cfg.Server.ListenAddr(),
		"public_dir", a.cfg.App.PublicDir,
		"categories", a.cfg.App.Categories,
		"clock", a.cfg.Naming.Clock,
	)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		runErr = fmt.Errorf("http server failed: %w", err)
		logger.Errorw("Image server exited unexpectedly", "error", err.Error())
	}

	logger.Info("Shutting down image server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		logger.Errorw("HTTP shutdown error", "error", err.Error())
		if runErr == nil {
			runErr = err
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Warnw("Redis close error", "error", err.Error())
		}
	}

	return runErr
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"smilecare-sync/internal/cache"
	"smilecare-sync/internal/common/database"
	rediscommon "smilecare-sync/internal/common/redis"
	"smilecare-sync/internal/config"
	"smilecare-sync/internal/consumer"
	"smilecare-sync/internal/httpapi"
	"smilecare-sync/internal/repository"
	"smilecare-sync/internal/store"
	enginesync "smilecare-sync/internal/sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SyncService 预约同步服务
// Redis is required (it backs the durable snapshot cache); Postgres is
// optional. A missing or unreachable database puts the service in degraded
// mode: optimistic local state only, no change streams, no reconciliation.
type SyncService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB // nil in degraded mode
	redisClient *redis.Client
	engine      *enginesync.Engine
	consumer    *consumer.ChangeConsumer // nil in degraded mode
	httpServer  *http.Server
}

// NewSyncService 创建预约同步服务
func NewSyncService(cfg *config.Config, logger *zap.Logger) (*SyncService, error) {
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 可选的远端数据库
	var db *sql.DB
	var remote *repository.Remote
	if cfg.DBEnabled {
		var err error
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			logger.Warn("Remote store unavailable, starting in degraded mode", zap.Error(err))
			db = nil
		} else {
			remote = repository.NewPostgresRemote(db, logger)
		}
	} else {
		logger.Info("Remote store disabled by configuration, starting in degraded mode")
	}

	snapshots := cache.NewSnapshotStore(store.NewRedisKV(redisClient), logger)

	var publisher *consumer.Publisher
	if remote != nil {
		publisher = consumer.NewPublisher(redisClient, logger, cfg.Sync.StreamPrefix)
	}

	var engine *enginesync.Engine
	if publisher != nil {
		engine = enginesync.New(snapshots, remote, publisher, logger)
	} else {
		engine = enginesync.New(snapshots, remote, nil, logger)
	}

	var changeConsumer *consumer.ChangeConsumer
	if remote != nil {
		changeConsumer = consumer.NewChangeConsumer(
			redisClient,
			engine,
			logger,
			cfg.Sync.StreamPrefix,
			cfg.Sync.ConsumerGroup,
			cfg.Sync.ConsumerName,
			int64(cfg.Sync.BatchSize),
		)
	}

	sessions := httpapi.NewSessionStore(cfg.Admin.Account, cfg.Admin.Password)
	router := httpapi.NewRouter(logger)
	router.RegisterRoutes(engine, sessions)

	return &SyncService{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		engine:      engine,
		consumer:    changeConsumer,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start 启动服务（阻塞直到 ctx 取消或 HTTP 服务退出）
func (s *SyncService) Start(ctx context.Context) error {
	s.logger.Info("Starting booking sync service",
		zap.String("http_addr", s.config.HTTP.Addr),
		zap.Bool("remote_store", s.db != nil),
	)

	s.engine.Start()

	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				s.logger.Error("Change consumer stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop 停止服务并释放资源
func (s *SyncService) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	s.engine.Close()

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	if err := rediscommon.Close(s.redisClient); err != nil {
		s.logger.Warn("Failed to close redis client", zap.Error(err))
	}

	s.logger.Info("Booking sync service stopped")
}

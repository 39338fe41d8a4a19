// Package service 组装监控服务的各层组件。
package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"gateway-monitor/internal/config"
	"gateway-monitor/internal/consumer"
	"gateway-monitor/internal/evaluator"
	"gateway-monitor/internal/ingest"
	"gateway-monitor/internal/mqtt"
	"gateway-monitor/internal/notifier"
	"gateway-monitor/internal/repository"
	"gateway-monitor/internal/scheduler"
)

// MonitorService 监控服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *goredis.Client
	mqttClient  *mqtt.Client
	logger      *zap.Logger

	deviceRepo     *repository.DeviceRepository
	statisticRepo  *repository.StatisticRepository
	monitorRepo    *repository.DeviceMonitorRepository
	notifyUserRepo *repository.NotifyUserRepository

	dispatcher *notifier.Dispatcher
	evaluator  *evaluator.Evaluator
	consumer   *consumer.BatchConsumer
	pipeline   *ingest.Pipeline
	scheduler  *scheduler.Scheduler
}

// NewMonitorService 创建监控服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 连接 MQTT
	mqttClient, err := mqtt.NewClient(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, logger)
	if err != nil {
		return nil, err
	}

	// 4. Repository 层
	deviceRepo := repository.NewDeviceRepository(db, logger)
	statisticRepo := repository.NewStatisticRepository(db, logger)
	monitorRepo := repository.NewDeviceMonitorRepository(db, logger)
	notifyUserRepo := repository.NewNotifyUserRepository(db, logger)

	// 5. 通知分发
	mailer := notifier.NewMailer(
		cfg.Notification.SMTPHost,
		cfg.Notification.SMTPPort,
		cfg.Notification.SMTPUsername,
		cfg.Notification.SMTPPassword,
		cfg.Notification.EmailFrom,
		logger,
	)
	dispatcher := notifier.NewDispatcher(
		redisClient,
		cfg.Notification.PushStream,
		mailer,
		deviceRepo,
		notifyUserRepo,
		logger,
	)

	// 6. 评估与消费
	eval := evaluator.New(deviceRepo, statisticRepo, monitorRepo, dispatcher, logger)
	batchConsumer := consumer.NewBatchConsumer(cfg, redisClient, deviceRepo, eval, logger)

	// 7. 接入与调度
	pipeline := ingest.NewPipeline(cfg, mqttClient, redisClient, deviceRepo, statisticRepo, logger)
	sched := scheduler.New(cfg, redisClient, deviceRepo, statisticRepo, logger)

	return &MonitorService{
		config:         cfg,
		db:             db,
		redisClient:    redisClient,
		mqttClient:     mqttClient,
		logger:         logger,
		deviceRepo:     deviceRepo,
		statisticRepo:  statisticRepo,
		monitorRepo:    monitorRepo,
		notifyUserRepo: notifyUserRepo,
		dispatcher:     dispatcher,
		evaluator:      eval,
		consumer:       batchConsumer,
		pipeline:       pipeline,
		scheduler:      sched,
	}, nil
}

// Start 启动接入管道、批处理消费者和调度器，阻塞直到 ctx 取消
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("starting monitor service")

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}
	run("ingest pipeline", s.pipeline.Start)
	run("batch consumer", s.consumer.Start)
	run("scheduler", s.scheduler.Start)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
		return nil
	}
}

// Stop 释放外部连接
func (s *MonitorService) Stop() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", zap.Error(err))
		}
	}
	s.logger.Info("monitor service stopped")
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}

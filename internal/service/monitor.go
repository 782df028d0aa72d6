package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/config"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/consumer"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/dispatcher"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/health"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/predictor"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/repository"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/session"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/threshold"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// MonitorService 电机监控服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	mqttSession     *session.Session
	cacheManager    *consumer.CacheManager
	cacheConsumer   *consumer.CacheConsumer
	alertEventsRepo *repository.AlertEventsRepository
	predictorClient *predictor.Client
	assessor        *health.Assessor
	dispatcher      *dispatcher.Dispatcher
}

// NewMonitorService 创建电机监控服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 获取 MQTT 会话（进程级单例）并发起连接
	mqttSession := session.Get(&cfg.MQTT, logger)
	mqttSession.Connect(
		func(state session.State) {
			logger.Info("MQTT session state changed",
				zap.String("state", string(state)),
			)
		},
		func(topic string, payload []byte) {
			logger.Info("Status feedback received",
				zap.String("topic", topic),
				zap.ByteString("payload", payload),
			)
		},
	)
	if err := mqttSession.Subscribe(cfg.MQTT.FeedbackTopic, cfg.MQTT.QoS); err != nil {
		logger.Warn("Failed to subscribe to feedback topic",
			zap.String("topic", cfg.MQTT.FeedbackTopic),
			zap.Error(err),
		)
	}

	// 4. 创建 Repository 层
	alertEventsRepo := repository.NewAlertEventsRepository(db, logger)

	// 5. 创建 Consumer 层
	cacheManager := consumer.NewCacheManager(cfg, redisClient, logger)

	// 6. 创建预测客户端与健康评估器
	table := threshold.DefaultTable()
	predictorClient := predictor.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout, logger)
	assessor := health.NewAssessor(table, predictorClient, cfg.Predictor.HistoryWindow, logger)

	// 7. 创建报警分发器
	disp := dispatcher.New(
		dispatcher.Options{
			Table:           table,
			HealthThreshold: cfg.Monitor.HealthThreshold,
			Cooldown:        time.Duration(cfg.Monitor.CooldownSeconds) * time.Second,
			CommandTopic:    cfg.MQTT.CommandTopic,
			QoS:             cfg.MQTT.QoS,
		},
		mqttSession,
		alertEventsRepo,
		logger,
	)

	// 8. 创建 CacheConsumer
	cacheConsumer := consumer.NewCacheConsumer(cfg, cacheManager, assessor, logger)

	return &MonitorService{
		config:          cfg,
		db:              db,
		redisClient:     redisClient,
		logger:          logger,
		mqttSession:     mqttSession,
		cacheManager:    cacheManager,
		cacheConsumer:   cacheConsumer,
		alertEventsRepo: alertEventsRepo,
		predictorClient: predictorClient,
		assessor:        assessor,
		dispatcher:      disp,
	}, nil
}

// Start 启动服务
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting motor monitor service")

	// 启动 CacheConsumer（轮询模式）
	if err := s.cacheConsumer.Start(ctx, s.dispatcher); err != nil {
		return fmt.Errorf("failed to start cache consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping motor monitor service")

	// 断开 MQTT 会话（终态，不再重连）
	s.mqttSession.Disconnect()

	// 关闭数据库连接
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	// 关闭 Redis 连接
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

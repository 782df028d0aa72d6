package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/config"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/dispatcher"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"

	"go.uber.org/zap"
)

// AlertEvaluator 报警评估接口（由 dispatcher.Dispatcher 实现）
type AlertEvaluator interface {
	Evaluate(ctx context.Context, reading *models.SensorReading) (dispatcher.Action, *models.ParameterStatus, error)
}

// HealthAssessor 健康评估接口（由 health.Assessor 实现）
type HealthAssessor interface {
	Assess(ctx context.Context, reading *models.SensorReading) *models.HealthAssessment
}

// CacheConsumer 缓存消费者（轮询 Redis 实时读数）
type CacheConsumer struct {
	config   *config.Config
	cache    *CacheManager
	assessor HealthAssessor
	logger   *zap.Logger
}

// NewCacheConsumer 创建缓存消费者
func NewCacheConsumer(
	cfg *config.Config,
	cache *CacheManager,
	assessor HealthAssessor,
	logger *zap.Logger,
) *CacheConsumer {
	return &CacheConsumer{
		config:   cfg,
		cache:    cache,
		assessor: assessor,
		logger:   logger,
	}
}

// Start 启动消费者（轮询模式）
// 单条坏读数只影响该电机的当前周期，绝不中断轮询循环
func (c *CacheConsumer) Start(ctx context.Context, evaluator AlertEvaluator) error {
	c.logger.Info("Cache consumer started",
		zap.Int("poll_interval", c.config.Monitor.PollInterval),
	)

	ticker := time.NewTicker(time.Duration(c.config.Monitor.PollInterval) * time.Second)
	defer ticker.Stop()

	// 立即执行一次
	c.evaluateAllMotors(ctx, evaluator)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cache consumer stopped")
			return nil
		case <-ticker.C:
			c.evaluateAllMotors(ctx, evaluator)
		}
	}
}

// evaluateAllMotors 评估所有电机
func (c *CacheConsumer) evaluateAllMotors(ctx context.Context, evaluator AlertEvaluator) {
	motorIDs, err := c.cache.GetAllMotorIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list motors", zap.Error(err))
		return
	}

	c.logger.Debug("Evaluating motors", zap.Int("motor_count", len(motorIDs)))

	for _, motorID := range motorIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.evaluateMotor(ctx, motorID, evaluator)
	}
}

// evaluateMotor 评估单台电机的当前周期
func (c *CacheConsumer) evaluateMotor(ctx context.Context, motorID string, evaluator AlertEvaluator) {
	reading, err := c.cache.GetRealtimeReading(ctx, motorID)
	if err != nil {
		if errors.Is(err, ErrReadingNotFound) {
			c.logger.Debug("Realtime reading not found",
				zap.String("motor_id", motorID),
			)
		} else {
			c.logger.Error("Failed to read realtime reading",
				zap.String("motor_id", motorID),
				zap.Error(err),
			)
		}
		return
	}

	// 健康评估（预测服务不可用时降级为公式得分）并写回缓存
	if c.assessor != nil {
		assessment := c.assessor.Assess(ctx, reading)
		if err := c.cache.UpdateHealthCache(ctx, motorID, assessment); err != nil {
			c.logger.Error("Failed to update health cache",
				zap.String("motor_id", motorID),
				zap.Error(err),
			)
		}
	}

	// 报警评估
	if _, _, err := evaluator.Evaluate(ctx, reading); err != nil {
		c.logger.Error("Failed to evaluate reading",
			zap.String("motor_id", motorID),
			zap.Error(err),
		)
	}
}

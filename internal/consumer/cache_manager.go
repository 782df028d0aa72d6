package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/config"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrReadingNotFound 实时读数不存在（电机还没有上报数据，不是故障）
var ErrReadingNotFound = errors.New("realtime reading not found")

// CacheManager Redis 缓存管理器
// 采集端把每台电机的最新读数写到 motor:<id>:realtime，
// 本服务读取读数、把健康评估写回 motor:<id>:health
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// realtimeKey 构建实时读数缓存键
func (c *CacheManager) realtimeKey(motorID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Monitor.Cache.RealtimeKeyPrefix,
		motorID,
		c.config.Monitor.Cache.RealtimeSuffix,
	)
}

// healthKey 构建健康评估缓存键
func (c *CacheManager) healthKey(motorID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Monitor.Cache.RealtimeKeyPrefix,
		motorID,
		c.config.Monitor.Cache.HealthSuffix,
	)
}

// GetRealtimeReading 从 Redis 读取电机最新读数
func (c *CacheManager) GetRealtimeReading(ctx context.Context, motorID string) (*models.SensorReading, error) {
	val, err := c.redisClient.Get(ctx, c.realtimeKey(motorID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: motor %s", ErrReadingNotFound, motorID)
		}
		return nil, fmt.Errorf("failed to get realtime reading: %w", err)
	}

	var reading models.SensorReading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal realtime reading: %w", err)
	}

	if reading.MotorID == "" {
		reading.MotorID = motorID
	}

	return &reading, nil
}

// UpdateHealthCache 把健康评估写回 Redis（带 TTL）
func (c *CacheManager) UpdateHealthCache(ctx context.Context, motorID string, assessment *models.HealthAssessment) error {
	jsonData, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to marshal health assessment: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		c.healthKey(motorID),
		jsonData,
		time.Duration(c.config.Monitor.Cache.HealthTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set health cache: %w", err)
	}

	c.logger.Debug("Updated health cache",
		zap.String("motor_id", motorID),
		zap.Float64("score", assessment.Score),
		zap.Bool("degraded", assessment.Degraded),
	)

	return nil
}

// GetAllMotorIDs 扫描 Redis 键获取所有有读数的电机 ID
func (c *CacheManager) GetAllMotorIDs(ctx context.Context) ([]string, error) {
	pattern := fmt.Sprintf("%s*%s",
		c.config.Monitor.Cache.RealtimeKeyPrefix,
		c.config.Monitor.Cache.RealtimeSuffix,
	)

	var motorIDs []string
	iter := c.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		motorID := key[len(c.config.Monitor.Cache.RealtimeKeyPrefix):]
		motorID = motorID[:len(motorID)-len(c.config.Monitor.Cache.RealtimeSuffix)]
		motorIDs = append(motorIDs, motorID)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	return motorIDs, nil
}

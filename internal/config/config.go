package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker         string
	ClientIDPrefix string // 实际 client_id = 前缀 + 随机后缀，进程生命周期内保持不变
	Username       string
	Password       string
	QoS            byte
	CommandTopic   string // 执行器控制指令主题
	FeedbackTopic  string // 执行器状态回执主题

	// 重连策略：有界重试，超过上限后进入永久失败状态（fail-stop）
	MaxReconnects       int
	ReconnectBackoff    time.Duration
	ReconnectBackoffMax time.Duration
}

// Config 监测服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 远程故障预测服务
	Predictor struct {
		BaseURL       string
		Timeout       time.Duration
		HistoryWindow int // 每次预测携带的振动读数条数
	}

	// 监测服务特定配置
	Monitor struct {
		// Redis 缓存配置
		Cache struct {
			RealtimeKeyPrefix string // 实时读数缓存键前缀，如 "motor:"
			RealtimeSuffix    string // 实时读数缓存键后缀，如 ":realtime"
			HealthSuffix      string // 健康评估缓存键后缀，如 ":health"
			HealthTTL         int    // 健康评估 TTL（秒）
		}

		PollInterval    int     // 轮询间隔（秒）
		CooldownSeconds int     // 同一电机两次报警之间的冷却窗口（秒）
		HealthThreshold float64 // 健康指数低于此值按 Critical 处理
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（带默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "motor_monitor")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientIDPrefix = getEnv("MQTT_CLIENT_ID_PREFIX", "motor-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))
	cfg.MQTT.CommandTopic = getEnv("MQTT_COMMAND_TOPIC", "control-command")
	cfg.MQTT.FeedbackTopic = getEnv("MQTT_FEEDBACK_TOPIC", "status-feedback")
	cfg.MQTT.MaxReconnects = getEnvInt("MQTT_MAX_RECONNECTS", 10)
	cfg.MQTT.ReconnectBackoff = time.Duration(getEnvInt("MQTT_RECONNECT_BACKOFF_SEC", 2)) * time.Second
	cfg.MQTT.ReconnectBackoffMax = time.Duration(getEnvInt("MQTT_RECONNECT_BACKOFF_MAX_SEC", 30)) * time.Second

	cfg.Predictor.BaseURL = getEnv("PREDICTOR_BASE_URL", "http://localhost:8000")
	cfg.Predictor.Timeout = time.Duration(getEnvInt("PREDICTOR_TIMEOUT_SEC", 5)) * time.Second
	cfg.Predictor.HistoryWindow = getEnvInt("PREDICTOR_HISTORY_WINDOW", 20)

	cfg.Monitor.Cache.RealtimeKeyPrefix = getEnv("CACHE_REALTIME_PREFIX", "motor:")
	cfg.Monitor.Cache.RealtimeSuffix = ":realtime"
	cfg.Monitor.Cache.HealthSuffix = ":health"
	cfg.Monitor.Cache.HealthTTL = getEnvInt("CACHE_HEALTH_TTL", 30)

	cfg.Monitor.PollInterval = getEnvInt("MONITOR_POLL_INTERVAL", 5)
	cfg.Monitor.CooldownSeconds = getEnvInt("MONITOR_COOLDOWN_SEC", 60)
	cfg.Monitor.HealthThreshold = getEnvFloat("MONITOR_HEALTH_THRESHOLD", 40)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
